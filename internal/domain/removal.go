package domain

import "time"

type RemovalState string

const (
	StateReceived   RemovalState = "received"
	StateDecoding   RemovalState = "decoding"
	StateValidating RemovalState = "validating"
	StateDispatched RemovalState = "dispatched"
	StateAwaiting   RemovalState = "awaiting"
	StateEncoding   RemovalState = "encoding"
	StateResponded  RemovalState = "responded"
)

type RemovalRequest struct {
	ImageData string
	Filename  string
}

// RemovalResponse is the payload-level outcome of a removal. Exactly one of
// ProcessedImage and Error is set.
type RemovalResponse struct {
	Success        bool
	ProcessedImage *string
	Error          *string
	ProcessingTime float64
}

func NewRemovalSuccess(processedImage string, elapsed time.Duration) *RemovalResponse {
	return &RemovalResponse{
		Success:        true,
		ProcessedImage: &processedImage,
		ProcessingTime: elapsed.Seconds(),
	}
}

func NewRemovalFailure(message string, elapsed time.Duration) *RemovalResponse {
	return &RemovalResponse{
		Success:        false,
		Error:          &message,
		ProcessingTime: elapsed.Seconds(),
	}
}

// RemovalEvent is published once per payload-level removal outcome.
type RemovalEvent struct {
	RequestID      string    `json:"request_id"`
	Filename       string    `json:"filename"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	ProcessingTime float64   `json:"processing_time"`
	InputBytes     int       `json:"input_bytes"`
	OutputBytes    int       `json:"output_bytes"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	ArchivePath    string    `json:"archive_path,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
