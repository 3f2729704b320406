// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagescrub

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var errShortRead = errors.New("short read")

func newByteReader(b []byte, byteOrder binary.ByteOrder) *byteReader {
	return &byteReader{
		b:         b,
		byteOrder: byteOrder,
	}
}

// byteReader reads binary data at absolute offsets in an in-memory buffer.
// Every read is bounds checked; an out of bounds read calls stop,
// which unwinds to the nearest handleStop.
// Note that this is not thread safe.
type byteReader struct {
	b         []byte
	byteOrder binary.ByteOrder

	readErr error
}

func (e *byteReader) len() int {
	return len(e.b)
}

func (e *byteReader) read2At(off int) uint16 {
	return e.byteOrder.Uint16(e.bytesAt(off, 2))
}

func (e *byteReader) read4At(off int) uint32 {
	return e.byteOrder.Uint32(e.bytesAt(off, 4))
}

// bytesAt returns n bytes starting at off.
// The returned slice shares memory with the underlying buffer.
func (e *byteReader) bytesAt(off, n int) []byte {
	if off < 0 || n < 0 || n > len(e.b) || off > len(e.b)-n {
		e.stop(fmt.Errorf("%w: %d bytes at offset %d, buffer length %d", errShortRead, n, off, len(e.b)))
	}
	return e.b[off : off+n]
}

func (e *byteReader) stop(err error) {
	if err != nil {
		e.readErr = err
	}
	panic(errStop)
}

// handleStop must be deferred directly.
// It turns a stop into an error wrapping ErrTruncatedSegment and re-panics on anything else.
func (e *byteReader) handleStop(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if r != errStop {
		panic(r)
	}
	if *err == nil {
		*err = fmt.Errorf("%w: %w", ErrTruncatedSegment, e.readErr)
	}
}
