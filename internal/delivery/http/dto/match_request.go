package dto

import (
	"shift-match/internal/usecase"

	"github.com/google/uuid"
)

type RespondRequest struct {
	Decision string `json:"decision"`
}

type UnlockRequest struct {
	Reference string     `json:"payment_reference"`
	MatchID   *uuid.UUID `json:"match_id,omitempty"`
	Amount    float64    `json:"amount"`
	Currency  string     `json:"currency"`
	Status    string     `json:"status"`
}

// Confirmation builds the gateway confirmation. A body without match_id is
// taken to be for the match in the path.
func (r UnlockRequest) Confirmation(pathMatchID uuid.UUID) usecase.PaymentConfirmation {
	id := pathMatchID
	if r.MatchID != nil {
		id = *r.MatchID
	}
	return usecase.PaymentConfirmation{
		Reference: r.Reference,
		MatchID:   id,
		Amount:    r.Amount,
		Currency:  r.Currency,
		Status:    r.Status,
	}
}
