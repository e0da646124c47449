package domain

import (
	"bytes"
	"io"
)

// ImageBuffer holds encoded image bytes. It is never modified after creation.
type ImageBuffer struct {
	data []byte
}

// NewImageBuffer takes ownership of data; the caller must not modify it afterwards.
func NewImageBuffer(data []byte) ImageBuffer {
	return ImageBuffer{data: data}
}

// Bytes returns the underlying bytes. Callers must treat them as read-only.
func (b ImageBuffer) Bytes() []byte {
	return b.data
}

func (b ImageBuffer) Len() int {
	return len(b.data)
}

func (b ImageBuffer) IsEmpty() bool {
	return len(b.data) == 0
}

// Reader returns a fresh reader over the bytes, so consuming it never affects other readers.
func (b ImageBuffer) Reader() io.Reader {
	return bytes.NewReader(b.data)
}

type ImageInfo struct {
	Format string
	Width  int
	Height int
}
