package dto

import "github.com/yokitheyo/bgremover/internal/domain"

// RemovalRequest uses pointers so that absent fields can be told apart from
// empty strings.
type RemovalRequest struct {
	ImageData *string `json:"image_data"`
	Filename  *string `json:"filename"`
}

func (r *RemovalRequest) Missing() []string {
	var missing []string
	if r.ImageData == nil {
		missing = append(missing, "image_data")
	}
	if r.Filename == nil {
		missing = append(missing, "filename")
	}
	return missing
}

func (r *RemovalRequest) ToDomain() domain.RemovalRequest {
	var req domain.RemovalRequest
	if r.ImageData != nil {
		req.ImageData = *r.ImageData
	}
	if r.Filename != nil {
		req.Filename = *r.Filename
	}
	return req
}

type StatusCheckCreate struct {
	ClientName *string `json:"client_name"`
}
