// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagescrub

import (
	"errors"
	"fmt"
)

var (
	// ErrNotJPEG is returned by operations that require a JPEG container.
	// Note that Decode and LocateEXIF treat a non-JPEG input as having no metadata.
	ErrNotJPEG = errors.New("imagescrub: not a JPEG")

	// ErrTruncatedSegment signals that a declared segment or field length
	// would read past the end of the buffer.
	ErrTruncatedSegment = errors.New("imagescrub: truncated segment")

	// ErrInvalidByteOrder signals a TIFF header with a byte order marker other than "II" or "MM".
	ErrInvalidByteOrder = errors.New("imagescrub: invalid byte order")

	// ErrUnsupportedImage is returned when the codec cannot decode the image.
	ErrUnsupportedImage = errors.New("imagescrub: unsupported image")

	// Internal error to signal that we should stop any further reading.
	errStop = fmt.Errorf("stop")

	// Internal error to signal that the segment walk should stop.
	errStopWalking = fmt.Errorf("stop walking")
)

// InvalidFormatError is returned when the metadata could be located but not read.
// Use IsInvalidFormat to check for this error.
type InvalidFormatError struct {
	Err error
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format: %s", e.Err)
}

func (e *InvalidFormatError) Unwrap() error {
	return e.Err
}

// IsInvalidFormat reports whether err is or wraps an InvalidFormatError.
// This is how "corrupt metadata" is told apart from "no metadata".
func IsInvalidFormat(err error) bool {
	var e *InvalidFormatError
	return errors.As(err, &e)
}

func newInvalidFormatError(err error) error {
	if err == nil || IsInvalidFormat(err) {
		return err
	}
	return &InvalidFormatError{Err: err}
}

func newInvalidFormatErrorf(format string, args ...any) error {
	return newInvalidFormatError(fmt.Errorf(format, args...))
}

func errFromRecover(r any) error {
	if r == nil {
		return nil
	}
	if err, ok := r.(error); ok {
		return newInvalidFormatError(err)
	}
	return fmt.Errorf("unknown panic: %v", r)
}
