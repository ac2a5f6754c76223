package handler

import (
	"shift-match/internal/delivery/http/dto"
	"shift-match/internal/delivery/http/middleware"
	"shift-match/internal/pkg/jwt"
	"shift-match/internal/pkg/response"
	"shift-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type OfferHandler struct {
	uc usecase.MatchingUsecase
}

func NewOfferHandler(uc usecase.MatchingUsecase) *OfferHandler {
	return &OfferHandler{uc: uc}
}

func (h *OfferHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/offers", middleware.RequireRole(jwt.RoleWorker), h.ListOffers)
}

func (h *OfferHandler) ListOffers(c fiber.Ctx) error {
	userID, _, ok := middleware.Identity(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	ms, err := h.uc.ListWorkerOffers(c.Context(), userID)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	out := make([]dto.MatchResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, dto.NewMatchResponse(m, nil))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}
