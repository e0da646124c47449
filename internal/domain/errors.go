package domain

import (
	"errors"
	"strings"
)

var (
	ErrInvalidImageData = errors.New("invalid image data")
	ErrInvalidFormat    = errors.New("invalid or unsupported image format")
	ErrProcessingFailed = errors.New("background removal failed")
	ErrStorageFailed    = errors.New("storage operation failed")
	ErrQueueFailed      = errors.New("queue operation failed")
	ErrPoolClosed       = errors.New("worker pool is shut down")
	ErrQueueFull        = errors.New("worker pool queue is full")
)

// Reason returns err's message without the leading text of sentinel, which
// leaves the underlying cause for user-facing messages.
func Reason(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}
