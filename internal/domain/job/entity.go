package job

import (
	"errors"
	"fmt"
	"time"

	"shift-match/internal/domain/geo"
	"shift-match/internal/domain/schedule"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("job not found")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrNoWindows         = errors.New("job has no time windows")
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusMatching  Status = "matching"
	StatusFilled    Status = "filled"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

var transitions = map[Status][]Status{
	StatusDraft:     {StatusPublished, StatusCancelled},
	StatusPublished: {StatusMatching, StatusFilled, StatusCancelled, StatusExpired},
	StatusMatching:  {StatusFilled, StatusCancelled, StatusExpired},
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusDraft, StatusPublished, StatusMatching, StatusFilled, StatusCancelled, StatusExpired:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// CanTransition reports whether from -> to is an allowed job status change.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Matchable reports whether matching may run for a job in this status.
func (s Status) Matchable() bool {
	return s == StatusPublished || s == StatusMatching
}

type Job struct {
	ID                  uuid.UUID
	EmployerID          uuid.UUID
	Title               string
	Location            geo.Point
	Skills              []string
	SkillsPreferred     bool
	MinExperienceMonths int
	Windows             []schedule.Window
	Status              Status
	MaxMatches          int
	WorkersNeeded       int
	RadiusKm            float64
	ResponseWindow      time.Duration
	LeadPrice           float64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Validate checks the invariants a job must hold before it can be matched.
func (j Job) Validate() error {
	if !j.Status.Matchable() {
		return nil
	}
	if len(j.Windows) == 0 {
		return ErrNoWindows
	}
	for _, w := range j.Windows {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	if !j.Location.Valid() {
		return geo.ErrInvalidPoint
	}
	return nil
}

func (j Job) Needed() int {
	if j.WorkersNeeded < 1 {
		return 1
	}
	return j.WorkersNeeded
}
