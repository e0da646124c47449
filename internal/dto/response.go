package dto

import (
	"time"

	"github.com/yokitheyo/bgremover/internal/domain"
	"github.com/yokitheyo/bgremover/internal/worker"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type RemovalResponse struct {
	Success        bool    `json:"success"`
	ProcessedImage *string `json:"processed_image"`
	Error          *string `json:"error"`
	ProcessingTime float64 `json:"processing_time"`
}

type UploadResponse struct {
	Success     bool   `json:"success"`
	Filename    string `json:"filename"`
	ImageData   string `json:"image_data"`
	ContentType string `json:"content_type"`
}

type StatusCheckResponse struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

type HealthResponse struct {
	Status string `json:"status"`
	worker.Stats
}

func MapRemovalToResponse(resp *domain.RemovalResponse) *RemovalResponse {
	if resp == nil {
		return nil
	}
	return &RemovalResponse{
		Success:        resp.Success,
		ProcessedImage: resp.ProcessedImage,
		Error:          resp.Error,
		ProcessingTime: resp.ProcessingTime,
	}
}

func MapStatusToResponse(check *domain.StatusCheck) *StatusCheckResponse {
	if check == nil {
		return nil
	}
	return &StatusCheckResponse{
		ID:         check.ID,
		ClientName: check.ClientName,
		Timestamp:  check.Timestamp,
	}
}

func MapStatusesToResponse(checks []*domain.StatusCheck) []*StatusCheckResponse {
	out := make([]*StatusCheckResponse, 0, len(checks))
	for _, c := range checks {
		out = append(out, MapStatusToResponse(c))
	}
	return out
}
