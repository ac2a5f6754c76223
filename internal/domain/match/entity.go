package match

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("match not found")

type Status string

const (
	StatusProposed Status = "proposed"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
	StatusUnlocked Status = "unlocked"
)

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusProposed, StatusAccepted, StatusRejected, StatusExpired, StatusUnlocked:
		return st, nil
	}
	return "", fmt.Errorf("unknown match status %q", s)
}

// IsTerminal reports whether no further transition can leave s.
// Accepted is not terminal: it may still be unlocked.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusExpired || s == StatusUnlocked
}

// HoldsPair reports whether a match in s blocks another proposal for the
// same job and worker. Only rejected and expired matches release the pair.
func (s Status) HoldsPair() bool {
	return s == StatusProposed || s == StatusAccepted || s == StatusUnlocked
}

// JobMatch is a lead: one worker proposed for one job.
type JobMatch struct {
	ID               uuid.UUID
	JobID            uuid.UUID
	WorkerID         uuid.UUID
	EmployerID       uuid.UUID
	Score            float64
	DistanceKm       float64
	Status           Status
	CreatedAt        time.Time
	ResponseDeadline time.Time
	RespondedAt      *time.Time
	UnlockedAt       *time.Time
	PaymentRef       *string
	LeadPrice        float64
}

// ContactVisible reports whether the employer may read the worker's contact.
func (m JobMatch) ContactVisible() bool {
	return m.Status == StatusUnlocked
}

// Overdue reports whether the response deadline has passed at now.
func (m JobMatch) Overdue(now time.Time) bool {
	return now.After(m.ResponseDeadline)
}
