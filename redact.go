// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagescrub

import (
	"bytes"
	"fmt"
	"image"
	"time"

	"golang.org/x/image/draw"
)

const (
	// DefaultQuality is the quality used for lossy output when none is set.
	DefaultQuality = 0.95

	// DefaultCompressQuality is the quality used by Compress when none is set.
	DefaultCompressQuality = 0.8
)

// Result is an encoded image.
type Result struct {
	Data   []byte
	Format ImageFormat
	Width  int
	Height int
}

// RedactOptions contains the options for Redact.
type RedactOptions struct {
	// The codec to use. Defaults to DefaultCodec.
	Codec Codec

	// Quality of lossy output in the range (0, 1].
	// Default value is 0.95.
	Quality float64

	// Timeout is the maximum time to spend decoding and encoding.
	// If set to 0, there is no timeout.
	Timeout time.Duration
}

func (o RedactOptions) withDefaults() RedactOptions {
	if o.Codec == nil {
		o.Codec = DefaultCodec
	}
	if o.Quality <= 0 {
		o.Quality = DefaultQuality
	}
	return o
}

// Redact removes all metadata from the image in b by decoding it to pixels
// and encoding the pixels again; nothing from the original container is carried over.
//
// Lossless input (PNG, BMP, TIFF) keeps its format, anything else is written as JPEG.
// If the image can't be decoded, the error wraps ErrUnsupportedImage.
func Redact(b []byte, opts RedactOptions) (Result, error) {
	opts = opts.withDefaults()

	return withTimeout(opts.Timeout, func() (Result, error) {
		img, format, err := decodeImage(opts.Codec, b)
		if err != nil {
			return Result{}, err
		}
		outFormat := JPEG
		if format.IsLossless() {
			outFormat = format
		}
		return encodeImage(opts.Codec, img, outFormat, opts.Quality)
	})
}

// ConvertOptions contains the options for Convert.
type ConvertOptions struct {
	// The target format. Required.
	Format ImageFormat

	// The codec to use. Defaults to DefaultCodec.
	Codec Codec

	// Quality of lossy output in the range (0, 1].
	// Default value is 0.95.
	Quality float64

	// Timeout is the maximum time to spend decoding and encoding.
	Timeout time.Duration
}

// Convert re-encodes the image in b to opts.Format.
// As with Redact, no metadata is carried over.
func Convert(b []byte, opts ConvertOptions) (Result, error) {
	if opts.Format == ImageFormatAuto {
		return Result{}, fmt.Errorf("imagescrub: no target format provided")
	}
	ro := RedactOptions{Codec: opts.Codec, Quality: opts.Quality, Timeout: opts.Timeout}.withDefaults()

	return withTimeout(ro.Timeout, func() (Result, error) {
		img, _, err := decodeImage(ro.Codec, b)
		if err != nil {
			return Result{}, err
		}
		return encodeImage(ro.Codec, img, opts.Format, ro.Quality)
	})
}

// CompressOptions contains the options for Compress.
type CompressOptions struct {
	// The codec to use. Defaults to DefaultCodec.
	Codec Codec

	// Quality in the range (0, 1].
	// Default value is 0.8.
	Quality float64

	// MaxWidth, if set, scales down wider images to this width, keeping the aspect ratio.
	MaxWidth int

	// Timeout is the maximum time to spend decoding, scaling and encoding.
	Timeout time.Duration
}

// Compress re-encodes the image in b as JPEG, optionally scaled down to opts.MaxWidth.
func Compress(b []byte, opts CompressOptions) (Result, error) {
	if opts.Quality <= 0 {
		opts.Quality = DefaultCompressQuality
	}
	ro := RedactOptions{Codec: opts.Codec, Quality: opts.Quality, Timeout: opts.Timeout}.withDefaults()

	return withTimeout(ro.Timeout, func() (Result, error) {
		img, _, err := decodeImage(ro.Codec, b)
		if err != nil {
			return Result{}, err
		}
		img = scaleToWidth(img, opts.MaxWidth)
		return encodeImage(ro.Codec, img, JPEG, ro.Quality)
	})
}

func decodeImage(codec Codec, b []byte) (image.Image, ImageFormat, error) {
	img, format, err := codec.Decode(b)
	if err != nil {
		return nil, ImageFormatAuto, fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}
	return img, format, nil
}

func encodeImage(codec Codec, img image.Image, format ImageFormat, quality float64) (Result, error) {
	var buf bytes.Buffer
	if err := codec.Encode(&buf, img, format, quality); err != nil {
		return Result{}, fmt.Errorf("imagescrub: encoding %s: %w", format, err)
	}
	bounds := img.Bounds()
	return Result{
		Data:   buf.Bytes(),
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// scaleToWidth scales img down to maxWidth keeping the aspect ratio.
// Images no wider than maxWidth are returned as is.
func scaleToWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxWidth <= 0 || w <= maxWidth {
		return img
	}
	h = max(1, int(float64(h)*float64(maxWidth)/float64(w)+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// withTimeout runs f, giving up after timeout if it's > 0.
// A panic in f is returned as an error.
func withTimeout(timeout time.Duration, f func() (Result, error)) (result Result, err error) {
	safe := func() (result Result, err error) {
		defer func() {
			if r := recover(); r != nil {
				result, err = Result{}, fmt.Errorf("imagescrub: codec panic: %v", r)
			}
		}()
		return f()
	}

	if timeout <= 0 {
		return safe()
	}

	type resultAndErr struct {
		result Result
		err    error
	}

	run := func() chan resultAndErr {
		c := make(chan resultAndErr, 1)
		go func() {
			res, err := safe()
			c <- resultAndErr{res, err}
		}()
		return c
	}

	select {
	case <-time.After(timeout):
		return Result{}, fmt.Errorf("timed out after %s", timeout)
	case r := <-run():
		return r.result, r.err
	}
}
