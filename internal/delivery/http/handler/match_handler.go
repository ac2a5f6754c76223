package handler

import (
	"errors"

	"shift-match/internal/delivery/http/dto"
	"shift-match/internal/delivery/http/middleware"
	"shift-match/internal/domain/match"
	"shift-match/internal/pkg/jwt"
	"shift-match/internal/pkg/response"
	"shift-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type MatchHandler struct {
	uc usecase.MatchingUsecase
}

func NewMatchHandler(uc usecase.MatchingUsecase) *MatchHandler {
	return &MatchHandler{uc: uc}
}

func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	jobs := r.Group("/jobs")
	jobs.Post("/:job_id/matching", middleware.RequireRole(jwt.RoleEmployer, jwt.RoleAdmin), h.TriggerMatching)
	jobs.Get("/:job_id/matches", middleware.RequireRole(jwt.RoleEmployer), h.ListJobMatches)

	matches := r.Group("/matches")
	matches.Post("/:match_id/respond", middleware.RequireRole(jwt.RoleWorker), h.Respond)
	matches.Post("/:match_id/unlock", middleware.RequireRole(jwt.RoleEmployer), h.Unlock)
}

func (h *MatchHandler) TriggerMatching(c fiber.Ctx) error {
	userID, role, ok := middleware.Identity(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid job id", nil, err)
	}

	if role != jwt.RoleAdmin {
		if err := h.uc.AuthorizeJob(c.Context(), jobID, userID); err != nil {
			return mapMatchingUsecaseError(err)
		}
	}

	res, err := h.uc.TriggerMatching(c.Context(), jobID)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	status := fiber.StatusOK
	if res.Created > 0 {
		status = fiber.StatusCreated
	}
	return response.Success(c, status, response.MessageOK, dto.NewTriggerMatchingResponse(res))
}

func (h *MatchHandler) ListJobMatches(c fiber.Ctx) error {
	userID, _, ok := middleware.Identity(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid job id", nil, err)
	}

	views, err := h.uc.ListJobMatches(c.Context(), jobID, userID, c.Query("status"))
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	out := make([]dto.MatchResponse, 0, len(views))
	for _, v := range views {
		out = append(out, dto.NewMatchResponse(v.Match, v.Contact))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *MatchHandler) Respond(c fiber.Ctx) error {
	userID, _, ok := middleware.Identity(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	matchID, err := uuid.Parse(c.Params("match_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid match id", nil, err)
	}

	var req dto.RespondRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request body", nil, err)
	}
	decision, err := match.ParseDecision(req.Decision)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Decision must be accept or reject", nil, err)
	}

	m, err := h.uc.RespondToMatch(c.Context(), matchID, userID, decision)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewMatchResponse(m, nil))
}

func (h *MatchHandler) Unlock(c fiber.Ctx) error {
	userID, _, ok := middleware.Identity(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	matchID, err := uuid.Parse(c.Params("match_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid match id", nil, err)
	}

	var req dto.UnlockRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request body", nil, err)
	}

	res, err := h.uc.UnlockMatch(c.Context(), matchID, userID, req.Confirmation(matchID))
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	status := fiber.StatusOK
	if res.Outcome == usecase.OutcomeUnlocked {
		status = fiber.StatusCreated
	}
	return response.Success(c, status, response.MessageOK, dto.NewUnlockResponse(res))
}

func mapMatchingUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid input", nil, err)
	case errors.Is(err, usecase.ErrNotOwner):
		return middleware.NewAppError(fiber.StatusForbidden, "Forbidden", nil, err)
	case errors.Is(err, usecase.ErrJobNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Job not found", nil, err)
	case errors.Is(err, usecase.ErrMatchNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Match not found", nil, err)
	case errors.Is(err, usecase.ErrInvalidJobState):
		return middleware.NewAppError(fiber.StatusConflict, "Job is not open for matching", nil, err)
	case errors.Is(err, usecase.ErrNotAccepted):
		return middleware.NewAppError(fiber.StatusConflict, "Match is not accepted", nil, err)
	case errors.Is(err, match.ErrDeadlineExceeded):
		return middleware.NewAppError(fiber.StatusGone, "Response deadline has passed", nil, err)
	case errors.Is(err, match.ErrInvalidTransition):
		return middleware.NewAppError(fiber.StatusConflict, "Match can no longer change this way", nil, err)
	case errors.Is(err, usecase.ErrPaymentInvalid):
		return middleware.NewAppError(fiber.StatusUnprocessableEntity, "Payment confirmation rejected", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
