package dto

import (
	"time"

	"shift-match/internal/domain/match"
	"shift-match/internal/domain/worker"
	"shift-match/internal/usecase"

	"github.com/google/uuid"
)

type ContactResponse struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

type MatchResponse struct {
	ID               uuid.UUID        `json:"id"`
	JobID            uuid.UUID        `json:"job_id"`
	WorkerID         uuid.UUID        `json:"worker_id"`
	Score            float64          `json:"score"`
	DistanceKm       float64          `json:"distance_km"`
	Status           string           `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	ResponseDeadline time.Time        `json:"response_deadline"`
	RespondedAt      *time.Time       `json:"responded_at,omitempty"`
	UnlockedAt       *time.Time       `json:"unlocked_at,omitempty"`
	LeadPrice        float64          `json:"lead_price"`
	Contact          *ContactResponse `json:"contact,omitempty"`
}

type TriggerMatchingResponse struct {
	JobStatus         string          `json:"job_status"`
	Created           int             `json:"created"`
	Skipped           int             `json:"skipped"`
	Failed            int             `json:"failed"`
	NoEligibleWorkers bool            `json:"no_eligible_workers"`
	Matches           []MatchResponse `json:"matches"`
}

type UnlockResponse struct {
	Outcome string          `json:"outcome"`
	Match   MatchResponse   `json:"match"`
	Contact ContactResponse `json:"contact"`
}

type SweepResponse struct {
	Expired int       `json:"expired"`
	At      time.Time `json:"at"`
}

func NewMatchResponse(m match.JobMatch, contact *worker.Contact) MatchResponse {
	out := MatchResponse{
		ID:               m.ID,
		JobID:            m.JobID,
		WorkerID:         m.WorkerID,
		Score:            m.Score,
		DistanceKm:       m.DistanceKm,
		Status:           string(m.Status),
		CreatedAt:        m.CreatedAt,
		ResponseDeadline: m.ResponseDeadline,
		RespondedAt:      m.RespondedAt,
		UnlockedAt:       m.UnlockedAt,
		LeadPrice:        m.LeadPrice,
	}
	if contact != nil {
		c := NewContactResponse(*contact)
		out.Contact = &c
	}
	return out
}

func NewContactResponse(c worker.Contact) ContactResponse {
	return ContactResponse{FullName: c.FullName, Phone: c.Phone, WhatsApp: c.WhatsApp}
}

func NewTriggerMatchingResponse(res usecase.TriggerResult) TriggerMatchingResponse {
	out := TriggerMatchingResponse{
		JobStatus:         string(res.JobStatus),
		Created:           res.Created,
		Skipped:           res.Skipped,
		Failed:            res.Failed,
		NoEligibleWorkers: res.NoEligibleWorkers,
		Matches:           make([]MatchResponse, 0, len(res.Matches)),
	}
	for _, m := range res.Matches {
		out.Matches = append(out.Matches, NewMatchResponse(m, nil))
	}
	return out
}

func NewUnlockResponse(res usecase.UnlockResult) UnlockResponse {
	return UnlockResponse{
		Outcome: string(res.Outcome),
		Match:   NewMatchResponse(res.Match, nil),
		Contact: NewContactResponse(res.Contact),
	}
}
