// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagescrub

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	// Register the WebP decoder with the image package.
	_ "golang.org/x/image/webp"
)

const (
	// ImageFormatAuto is the zero ImageFormat, used for unknown formats.
	ImageFormatAuto ImageFormat = iota
	// JPEG is the JPEG image format.
	JPEG
	// PNG is the PNG image format.
	PNG
	// GIF is the GIF image format.
	GIF
	// WebP is the WebP image format. It can be decoded, not encoded.
	WebP
	// BMP is the BMP image format.
	BMP
	// TIFF is the TIFF image format.
	TIFF
)

// ImageFormat is an image container format.
//
//go:generate stringer -type=ImageFormat
type ImageFormat int

// Extension returns the file extension for the format, including the dot.
func (f ImageFormat) Extension() string {
	switch f {
	case JPEG:
		return ".jpg"
	case PNG:
		return ".png"
	case GIF:
		return ".gif"
	case WebP:
		return ".webp"
	case BMP:
		return ".bmp"
	case TIFF:
		return ".tif"
	default:
		return ""
	}
}

// IsLossless reports whether the format's encoder keeps the pixels intact
// and writes no metadata. Redact keeps these formats as is.
func (f ImageFormat) IsLossless() bool {
	switch f {
	case PNG, BMP, TIFF:
		return true
	default:
		return false
	}
}

var magicBytes = []struct {
	format ImageFormat
	magic  string
}{
	{JPEG, "\xff\xd8\xff"},
	{PNG, "\x89PNG\r\n\x1a\n"},
	{GIF, "GIF87a"},
	{GIF, "GIF89a"},
	{WebP, "RIFF????WEBP"},
	{BMP, "BM"},
	{TIFF, "II*\x00"},
	{TIFF, "MM\x00*"},
}

// DetectFormat returns the format of the image in b by looking at its first bytes.
// It returns ImageFormatAuto if the format isn't recognized.
func DetectFormat(b []byte) ImageFormat {
	for _, m := range magicBytes {
		if matchMagic(m.magic, b) {
			return m.format
		}
	}
	return ImageFormatAuto
}

// matchMagic reports whether b starts with magic, treating '?' as a wildcard.
func matchMagic(magic string, b []byte) bool {
	if len(magic) > len(b) {
		return false
	}
	for i, c := range []byte(magic) {
		if c != b[i] && c != '?' {
			return false
		}
	}
	return true
}

// Codec decodes images to pixels and encodes pixels to images.
type Codec interface {
	// Decode decodes the image in b.
	Decode(b []byte) (image.Image, ImageFormat, error)

	// Encode writes img to w in the given format.
	// Quality is in the range (0, 1] and only applies to lossy formats.
	Encode(w io.Writer, img image.Image, format ImageFormat, quality float64) error
}

// DefaultCodec is the Codec used when none is provided.
// It decodes JPEG, PNG, GIF, WebP, BMP and TIFF and encodes all of these but WebP.
// None of its encoders write any metadata.
var DefaultCodec Codec = stdCodec{}

type stdCodec struct{}

func (stdCodec) Decode(b []byte) (image.Image, ImageFormat, error) {
	img, name, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, ImageFormatAuto, err
	}
	return img, formatFromName(name), nil
}

func (stdCodec) Encode(w io.Writer, img image.Image, format ImageFormat, quality float64) error {
	switch format {
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality(quality)})
	case PNG:
		return png.Encode(w, img)
	case GIF:
		return gif.Encode(w, img, nil)
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("imagescrub: no encoder for %s", format)
	}
}

// formatFromName maps the format names registered with the image package.
func formatFromName(name string) ImageFormat {
	switch name {
	case "jpeg":
		return JPEG
	case "png":
		return PNG
	case "gif":
		return GIF
	case "webp":
		return WebP
	case "bmp":
		return BMP
	case "tiff":
		return TIFF
	default:
		return ImageFormatAuto
	}
}
