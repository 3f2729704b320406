// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagescrub_test

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

const (
	tagMake        = 0x010f
	tagModel       = 0x0110
	tagOrientation = 0x0112
	tagXResolution = 0x011a
	tagSoftware    = 0x0131
	tagExifIFD     = 0x8769
	tagGPSIFD      = 0x8825
	tagPixelX      = 0xa002
	tagUnknown     = 0x9999

	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	// Values of up to 4 bytes are stored inline, anything longer after the IFD.
	value []byte
}

// tiffBuilder builds a TIFF block with a single IFD at offset 8.
type tiffBuilder struct {
	order   binary.ByteOrder
	entries []ifdEntry

	// If set, written as the IFD entry count instead of len(entries).
	declaredCount int
}

func newTIFF(order binary.ByteOrder) *tiffBuilder {
	return &tiffBuilder{order: order}
}

func (b *tiffBuilder) entry(tag, typ uint16, count uint32, value []byte) *tiffBuilder {
	b.entries = append(b.entries, ifdEntry{tag: tag, typ: typ, count: count, value: value})
	return b
}

func (b *tiffBuilder) ascii(tag uint16, s string) *tiffBuilder {
	v := append([]byte(s), 0)
	return b.entry(tag, typeASCII, uint32(len(v)), v)
}

func (b *tiffBuilder) short(tag, v uint16) *tiffBuilder {
	buf := make([]byte, 4)
	b.order.PutUint16(buf, v)
	return b.entry(tag, typeShort, 1, buf)
}

func (b *tiffBuilder) long(tag uint16, v uint32) *tiffBuilder {
	buf := make([]byte, 4)
	b.order.PutUint32(buf, v)
	return b.entry(tag, typeLong, 1, buf)
}

func (b *tiffBuilder) rational(tag uint16, num, den uint32) *tiffBuilder {
	buf := make([]byte, 8)
	b.order.PutUint32(buf, num)
	b.order.PutUint32(buf[4:], den)
	return b.entry(tag, typeRational, 1, buf)
}

func (b *tiffBuilder) count(n int) *tiffBuilder {
	b.declaredCount = n
	return b
}

func (b *tiffBuilder) bytes() []byte {
	const ifdOffset = 8
	n := len(b.entries)

	header := make([]byte, 8)
	if b.order == binary.LittleEndian {
		copy(header, "II")
	} else {
		copy(header, "MM")
	}
	b.order.PutUint16(header[2:], 42)
	b.order.PutUint32(header[4:], ifdOffset)

	// Entry count, entries and the (zero) offset of the next IFD.
	ifd := make([]byte, 2+12*n+4)
	count := n
	if b.declaredCount > 0 {
		count = b.declaredCount
	}
	b.order.PutUint16(ifd, uint16(count))

	dataOffset := ifdOffset + len(ifd)
	var data []byte
	for i, e := range b.entries {
		p := 2 + 12*i
		b.order.PutUint16(ifd[p:], e.tag)
		b.order.PutUint16(ifd[p+2:], e.typ)
		b.order.PutUint32(ifd[p+4:], e.count)
		if len(e.value) <= 4 {
			copy(ifd[p+8:p+12], e.value)
		} else {
			b.order.PutUint32(ifd[p+8:], uint32(dataOffset+len(data)))
			data = append(data, e.value...)
		}
	}

	out := append(header, ifd...)
	return append(out, data...)
}

// segment builds a JPEG marker segment.
func segment(marker uint16, payload []byte) []byte {
	seg := make([]byte, 4, 4+len(payload))
	binary.BigEndian.PutUint16(seg, marker)
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	return append(seg, payload...)
}

func exifSegment(tiff []byte) []byte {
	return segment(0xffe1, append([]byte("Exif\x00\x00"), tiff...))
}

func xmpSegment() []byte {
	return segment(0xffe1, []byte("http://ns.adobe.com/xap/1.0/\x00<x:xmpmeta/>"))
}

func app0Segment() []byte {
	return segment(0xffe0, []byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00"))
}

// jpegOf builds a metadata-only JPEG: SOI, the given segments and EOI.
func jpegOf(segments ...[]byte) []byte {
	b := []byte{0xff, 0xd8}
	for _, s := range segments {
		b = append(b, s...)
	}
	return append(b, 0xff, 0xd9)
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 255 / w), uint8(y * 255 / h), 128, 255})
		}
	}
	return img
}

// encodedJPEG returns a real, decodable JPEG with the given segments inserted right after SOI.
func encodedJPEG(t testing.TB, w, h int, segments ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(w, h), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	out := append([]byte{}, data[:2]...)
	for _, s := range segments {
		out = append(out, s...)
	}
	return append(out, data[2:]...)
}

func encodedPNG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// cameraTIFF is a typical IFD0 as written by a phone camera.
func cameraTIFF(order binary.ByteOrder, withGPS bool) []byte {
	b := newTIFF(order).
		ascii(tagMake, "Google").
		ascii(tagModel, "Pixel 8").
		short(tagOrientation, 1).
		rational(tagXResolution, 72, 1).
		ascii(tagSoftware, "HDR+ 1.0").
		long(tagExifIFD, 0)
	if withGPS {
		b.long(tagGPSIFD, 0)
	}
	return b.bytes()
}
