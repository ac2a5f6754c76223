package worker

import (
	"errors"
	"fmt"
	"time"

	"shift-match/internal/domain/geo"
	"shift-match/internal/domain/schedule"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("worker not found")

type Status string

const (
	StatusPendingVerification Status = "pending_verification"
	StatusActive              Status = "active"
	StatusSuspended           Status = "suspended"
)

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPendingVerification, StatusActive, StatusSuspended:
		return st, nil
	}
	return "", fmt.Errorf("unknown worker status %q", s)
}

type Contact struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

type Worker struct {
	ID               uuid.UUID
	Location         geo.Point
	MaxCommuteKm     float64
	Windows          []schedule.Window
	Skills           []string
	ExperienceMonths int
	Status           Status
	RegisteredAt     time.Time
	Contact          Contact
}
