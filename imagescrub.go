// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package imagescrub reads the EXIF metadata of JPEG images and removes it.
//
// Decode reports a small allow list of IFD0 tags and whether the image carries GPS data.
// Redact re-encodes the pixels through a Codec, which drops every container level metadata segment.
package imagescrub

import (
	"encoding/binary"
	"fmt"
)

const (
	// DefaultLimitNumEntries is the default maximum number of IFD0 entries to read.
	DefaultLimitNumEntries = 50

	// DefaultLimitStringLen is the default maximum length in bytes of an ASCII value.
	DefaultLimitStringLen = 100
)

// Options contains the options for Decode and DecodeEXIF.
type Options struct {
	// LimitNumEntries is the maximum number of IFD0 entries to read.
	// IFD0 directories declaring more entries are truncated, not rejected.
	// Default value is 50.
	LimitNumEntries int

	// LimitStringLen is the maximum number of bytes read from an ASCII value.
	// Default value is 100.
	LimitStringLen int

	// Warnf will be called for each warning, e.g. a skipped entry.
	Warnf func(string, ...any)
}

func (o Options) withDefaults() Options {
	if o.LimitNumEntries <= 0 {
		o.LimitNumEntries = DefaultLimitNumEntries
	}
	if o.LimitStringLen <= 0 {
		o.LimitStringLen = DefaultLimitStringLen
	}
	if o.Warnf == nil {
		o.Warnf = func(string, ...any) {}
	}
	return o
}

// TagEntry is a decoded IFD0 tag.
type TagEntry struct {
	// The tag ID, e.g. 0x0110.
	ID uint16
	// The tag name, e.g. "Model".
	Name string
	// The display label, e.g. "相机型号".
	Label string
	// The decoded value.
	Value string
}

// Metadata is the result of a Decode operation.
type Metadata struct {
	// Found reports whether an EXIF block was found.
	Found bool

	// Entries in the order they were found in IFD0.
	Entries []TagEntry

	// HasGPS is set when IFD0 contains a GPS IFD pointer.
	HasGPS bool

	// The byte order of the TIFF block.
	ByteOrder binary.ByteOrder

	// Skipped is the number of IFD0 entries that could not be read.
	Skipped int

	// Truncated is set when the EXIF segment runs past the end of the image.
	// Entries that were fully present are still returned.
	Truncated bool
}

// Len returns the number of entries.
func (m Metadata) Len() int {
	return len(m.Entries)
}

// Get returns the value for the given display label.
func (m Metadata) Get(label string) (string, bool) {
	for _, e := range m.Entries {
		if e.Label == label {
			return e.Value, true
		}
	}
	return "", false
}

// Lookup returns the entry for the given tag ID.
func (m Metadata) Lookup(tagID uint16) (TagEntry, bool) {
	for _, e := range m.Entries {
		if e.ID == tagID {
			return e, true
		}
	}
	return TagEntry{}, false
}

// Map returns the entries as a label to value map.
func (m Metadata) Map() map[string]string {
	mm := make(map[string]string, len(m.Entries))
	for _, e := range m.Entries {
		mm[e.Label] = e.Value
	}
	return mm
}

// add appends entry, or updates the value in place if the tag was seen before.
func (m *Metadata) add(entry TagEntry) {
	for i, e := range m.Entries {
		if e.ID == entry.ID {
			m.Entries[i].Value = entry.Value
			return
		}
	}
	m.Entries = append(m.Entries, entry)
}

// Decode reads the EXIF metadata from the JPEG image in b.
//
// An image without EXIF, including any image that isn't a JPEG, returns a zero Metadata and a nil error.
// EXIF that is present but can't be read returns an error for which IsInvalidFormat is true.
// EXIF cut off by the end of b is read as far as it goes and reported in Metadata.Truncated.
func Decode(b []byte, opts Options) (Metadata, error) {
	r, truncated, found, err := locateEXIF(b)
	if err != nil || !found {
		return Metadata{}, err
	}

	opts = opts.withDefaults()
	if truncated {
		opts.Warnf("exif: segment truncated, %d bytes of TIFF data available", r.Len())
	}

	m, err := DecodeEXIF(r.Of(b), opts)
	if err != nil {
		return m, err
	}
	m.Truncated = truncated

	return m, nil
}

// DecodeEXIF decodes the TIFF structured EXIF block in b,
// i.e. the bytes following the "Exif\0\0" signature.
// All offsets are relative to the start of b.
func DecodeEXIF(b []byte, opts Options) (result Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = Metadata{}, errFromRecover(r)
		}
	}()

	opts = opts.withDefaults()

	dec := newMetaDecoderEXIF(b, opts)
	if err := dec.decode(); err != nil {
		return Metadata{}, newInvalidFormatError(fmt.Errorf("exif: %w", err))
	}

	return *dec.result, nil
}
