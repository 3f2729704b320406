// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagescrub

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	byteOrderBigEndian    = 0x4d4d
	byteOrderLittleEndian = 0x4949
	tiffMagic             = 42
	tiffHeaderLen         = 8
	ifdEntryLen           = 12
	ifdValueLen           = 4
)

// exifType represents the basic tiff tag data types.
// We only decode the types used by the tags we report.
type exifType uint16

const (
	exifTypeUnsignedASCII exifType = 2
	exifTypeUnsignedShort exifType = 3
	exifTypeUnsignedLong  exifType = 4
)

func newMetaDecoderEXIF(b []byte, opts Options) *metaDecoderEXIF {
	return &metaDecoderEXIF{
		byteReader:             newByteReader(b, binary.BigEndian),
		iso88591CharsetDecoder: charmap.ISO8859_1.NewDecoder(),
		opts:                   opts,
		result:                 &Metadata{Found: true},
	}
}

type metaDecoderEXIF struct {
	*byteReader
	iso88591CharsetDecoder *encoding.Decoder

	opts   Options
	result *Metadata
}

// decode reads the TIFF header and walks IFD0.
// Any failure to locate IFD0 is returned; failures in single entries are not.
func (e *metaDecoderEXIF) decode() (err error) {
	defer e.handleStop(&err)

	if e.len() < tiffHeaderLen {
		e.stop(fmt.Errorf("TIFF header needs %d bytes, got %d", tiffHeaderLen, e.len()))
	}

	byteOrderTag := e.read2At(0)

	switch byteOrderTag {
	case byteOrderBigEndian:
		e.byteOrder = binary.BigEndian
	case byteOrderLittleEndian:
		e.byteOrder = binary.LittleEndian
	default:
		return fmt.Errorf("%w: 0x%04x", ErrInvalidByteOrder, byteOrderTag)
	}
	e.result.ByteOrder = e.byteOrder

	if magic := e.read2At(2); magic != tiffMagic {
		e.opts.Warnf("exif: unexpected TIFF magic %d", magic)
	}

	// Main image.
	ifd0Offset := int(e.read4At(4))
	numEntries := int(e.read2At(ifd0Offset))

	if numEntries > e.opts.LimitNumEntries {
		e.opts.Warnf("exif: IFD0 declares %d entries, reading the first %d", numEntries, e.opts.LimitNumEntries)
		numEntries = e.opts.LimitNumEntries
	}

	for i := 0; i < numEntries; i++ {
		if err := e.decodeEntry(ifd0Offset + 2 + i*ifdEntryLen); err != nil {
			e.result.Skipped++
			e.opts.Warnf("exif: skipping IFD0 entry %d: %s", i, err)
		}
	}

	return nil
}

// An entry is represented in 12 bytes:
//   - 2 bytes for the tag ID
//   - 2 bytes for the data type
//   - 4 bytes for the number of data values of the specified type
//   - 4 bytes for the value itself, if it fits, otherwise for an offset
//     relative to the start of the TIFF header.
func (e *metaDecoderEXIF) decodeEntry(offset int) (err error) {
	defer e.handleStop(&err)

	tagID := e.read2At(offset)
	field, found := exifFields[tagID]
	if !found {
		return nil
	}

	typ := exifType(e.read2At(offset + 2))
	count := e.read4At(offset + 4)
	valueOffset := offset + 8

	var val string
	switch {
	case tagID == tagGPSInfoIFDPointer:
		val = GPSWarning
		e.result.HasGPS = true
	case typ == exifTypeUnsignedASCII:
		val = e.readASCII(valueOffset, count)
	case typ == exifTypeUnsignedShort:
		val = strconv.FormatUint(uint64(e.read2At(valueOffset)), 10)
	case typ == exifTypeUnsignedLong:
		val = strconv.FormatUint(uint64(e.read4At(valueOffset)), 10)
	default:
		val = fmt.Sprintf("[数据类型 %d]", typ)
	}

	if val == "" {
		return nil
	}

	e.result.add(TagEntry{
		ID:    tagID,
		Name:  field.Name,
		Label: field.Label,
		Value: val,
	})

	return nil
}

// readASCII reads count-1 bytes (count includes the NUL terminator),
// capped to LimitStringLen.
func (e *metaDecoderEXIF) readASCII(valueOffset int, count uint32) string {
	if count <= 1 {
		return ""
	}

	offset := valueOffset
	if count > ifdValueLen {
		offset = int(e.read4At(valueOffset))
	}

	n := int(min(count-1, uint32(e.opts.LimitStringLen)))
	b := e.bytesAt(offset, n)
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return printableString(e.toString(b))
}

// toString keeps valid UTF-8 as is and reads anything else as ISO-8859-1.
func (e *metaDecoderEXIF) toString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	s, err := e.iso88591CharsetDecoder.Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}
