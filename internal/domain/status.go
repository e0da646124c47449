package domain

import (
	"time"

	"github.com/google/uuid"
)

// StatusListLimit caps the number of records returned by a status listing.
const StatusListLimit = 1000

type StatusCheck struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewStatusCheck(clientName string) *StatusCheck {
	return &StatusCheck{
		ID:         uuid.NewString(),
		ClientName: clientName,
		Timestamp:  time.Now().UTC(),
	}
}
