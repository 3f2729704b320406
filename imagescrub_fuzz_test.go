// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagescrub_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/bep/imagescrub"
)

func FuzzDecodeJPG(f *testing.F) {
	f.Add(encodedJPEG(f, 8, 8, app0Segment(), exifSegment(cameraTIFF(binary.LittleEndian, true))))
	f.Add(encodedJPEG(f, 8, 8, xmpSegment(), exifSegment(cameraTIFF(binary.BigEndian, false))))
	f.Add(jpegOf(exifSegment(newTIFF(binary.LittleEndian).ascii(tagModel, "X").count(0xffff).bytes())))
	f.Add(jpegOf(segment(0xffe1, []byte("Exif\x00\x00MM"))))

	f.Fuzz(func(t *testing.T, imageBytes []byte) {
		m, err := imagescrub.Decode(imageBytes, imagescrub.Options{})
		if err != nil {
			if !imagescrub.IsInvalidFormat(err) {
				t.Fatalf("unknown error in Decode: %v %T", err, err)
			}
			return
		}
		if m.Len() > imagescrub.DefaultLimitNumEntries {
			t.Fatalf("got %d entries", m.Len())
		}

		stripped, err := imagescrub.StripEXIF(imageBytes)
		if err != nil {
			return
		}
		if _, found, _ := imagescrub.LocateEXIF(stripped); found {
			t.Fatal("EXIF left after StripEXIF")
		}
	})
}

func FuzzDecodeEXIF(f *testing.F) {
	f.Add(cameraTIFF(binary.LittleEndian, true))
	f.Add(cameraTIFF(binary.BigEndian, true))
	f.Add(newTIFF(binary.BigEndian).ascii(tagSoftware, string(bytes.Repeat([]byte{0xe9}, 200))).bytes())
	f.Add([]byte("II*\x00\xff\xff\xff\xff"))

	f.Fuzz(func(t *testing.T, tiff []byte) {
		m, err := imagescrub.DecodeEXIF(tiff, imagescrub.Options{})
		if err != nil {
			if !imagescrub.IsInvalidFormat(err) {
				t.Fatalf("unknown error in DecodeEXIF: %v %T", err, err)
			}
			return
		}
		for _, e := range m.Entries {
			if e.Value == "" {
				t.Fatalf("empty value for %s", e.Name)
			}
			if len(e.Value) > 2*imagescrub.DefaultLimitStringLen && e.ID != 0x8825 {
				t.Fatalf("value for %s too long: %d", e.Name, len(e.Value))
			}
		}
	})
}
