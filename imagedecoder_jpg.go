// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagescrub

import (
	"bytes"
	"encoding/binary"
)

const (
	markerPrefix = 0xff
	markerFill   = 0xffff
	markerTEM    = 0xff01
	markerRST0   = 0xffd0
	markerRST7   = 0xffd7
	markerSOI    = 0xffd8
	markerEOI    = 0xffd9
	markerSOS    = 0xffda
	markerApp1   = 0xffe1
)

var exifSignature = []byte("Exif\x00\x00")

// Range is the half-open byte range [Start, End) of a buffer.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Of returns the part of b covered by r.
func (r Range) Of(b []byte) []byte {
	return b[r.Start:r.End]
}

// segment is a JPEG marker segment.
// For markers without a length field, payload is empty.
type segment struct {
	marker  uint16
	start   int
	payload Range

	// Set if the declared length runs past the end of the buffer.
	// The payload is then clamped to what is available.
	truncated bool
}

func (s segment) end() int {
	return s.payload.End
}

func (s segment) isEXIF(b []byte) bool {
	return s.marker == markerApp1 && bytes.HasPrefix(s.payload.Of(b), exifSignature)
}

// LocateEXIF finds the first APP1 segment carrying an EXIF payload in the JPEG b
// and returns the range of the TIFF block following the "Exif\0\0" signature.
//
// A b that isn't a JPEG has no EXIF; found will be false and err nil.
// An EXIF segment cut off by the end of b is returned with its range
// ending at len(b).
// Any other segment length that would read past the end of b returns an error
// for which IsInvalidFormat is true.
func LocateEXIF(b []byte) (r Range, found bool, err error) {
	r, _, found, err = locateEXIF(b)
	return
}

func locateEXIF(b []byte) (r Range, truncated, found bool, err error) {
	_, err = walkSegments(b, func(seg segment) error {
		if !seg.isEXIF(b) {
			return nil
		}
		r = Range{Start: seg.payload.Start + len(exifSignature), End: seg.payload.End}
		truncated = seg.truncated
		found = true
		return errStopWalking
	})

	if err == errStopWalking || err == ErrNotJPEG {
		err = nil
	}

	return
}

// StripEXIF returns a copy of the JPEG b with all EXIF APP1 segments removed.
// Unlike Redact, the image data is copied byte for byte.
// Fill bytes between the marker segments are dropped.
// A truncated segment, EXIF or not, is an error.
func StripEXIF(b []byte) ([]byte, error) {
	out := make([]byte, 0, len(b))
	out = append(out, b[:min(len(b), 2)]...)
	pos, err := walkSegments(b, func(seg segment) error {
		if !seg.truncated && seg.marker != markerFill && !seg.isEXIF(b) {
			out = append(out, b[seg.start:seg.end()]...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Start of scan (or trailing data), copied as is.
	out = append(out, b[pos:]...)

	return out, nil
}

// walkSegments calls fn for each marker segment in the JPEG b up to,
// but not including, the start of scan.
// It returns the offset where the walk stopped.
//
// The walk stops without an error at the end of b, at SOS or EOI,
// or when the byte where a marker is expected is not 0xff.
// An APP1 segment running past the end of b is passed to fn with truncated set;
// unless fn stops the walk, the walk then fails with ErrTruncatedSegment.
func walkSegments(b []byte, fn func(seg segment) error) (int, error) {
	// JPEG SOI marker.
	if len(b) < 2 || binary.BigEndian.Uint16(b) != markerSOI {
		return 0, ErrNotJPEG
	}

	pos := 2
	for {
		if len(b)-pos < 2 {
			return pos, nil
		}
		if b[pos] != markerPrefix {
			return pos, nil
		}

		marker := binary.BigEndian.Uint16(b[pos:])

		switch {
		case marker == markerSOS, marker == markerEOI:
			return pos, nil
		case marker == markerFill:
			if err := fn(segment{marker: marker, start: pos, payload: Range{pos + 1, pos + 1}}); err != nil {
				return pos, err
			}
			pos++
			continue
		case marker == markerTEM, marker >= markerRST0 && marker <= markerRST7:
			if err := fn(segment{marker: marker, start: pos, payload: Range{pos + 2, pos + 2}}); err != nil {
				return pos, err
			}
			pos += 2
			continue
		}

		// Read the 16-bit length of the segment. The value includes the 2 bytes for the
		// length itself.
		if len(b)-pos < 4 {
			return pos, newInvalidFormatErrorf("%w: marker 0x%04x at offset %d has no length", ErrTruncatedSegment, marker, pos)
		}
		length := int(binary.BigEndian.Uint16(b[pos+2:]))
		if length < 2 {
			return pos, newInvalidFormatErrorf("marker 0x%04x at offset %d: invalid segment length %d", marker, pos, length)
		}
		end := pos + 2 + length
		if end > len(b) {
			if marker == markerApp1 {
				if err := fn(segment{marker: marker, start: pos, payload: Range{pos + 4, len(b)}, truncated: true}); err != nil {
					return pos, err
				}
			}
			return pos, newInvalidFormatErrorf("%w: marker 0x%04x at offset %d declares %d bytes, %d available", ErrTruncatedSegment, marker, pos, length-2, len(b)-pos-4)
		}

		if err := fn(segment{marker: marker, start: pos, payload: Range{pos + 4, end}}); err != nil {
			return pos, err
		}

		pos = end
	}
}
