package handler

import (
	"context"
	"time"

	"shift-match/internal/delivery/http/dto"
	"shift-match/internal/delivery/http/middleware"
	"shift-match/internal/pkg/jwt"
	"shift-match/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type AdminHandler struct {
	sweeper Sweeper
	now     func() time.Time
}

func NewAdminHandler(sweeper Sweeper) *AdminHandler {
	return &AdminHandler{sweeper: sweeper, now: func() time.Time { return time.Now().UTC() }}
}

func (h *AdminHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/admin", middleware.RequireRole(jwt.RoleAdmin))
	grp.Post("/sweep", h.Sweep)
}

// Sweep expires overdue proposals immediately instead of waiting for the
// next scheduled pass.
func (h *AdminHandler) Sweep(c fiber.Ctx) error {
	if h.sweeper == nil {
		return middleware.NewAppError(fiber.StatusServiceUnavailable, "Sweeper not configured", nil, nil)
	}

	now := h.now()
	n, err := h.sweeper.Sweep(c.Context(), now)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.SweepResponse{Expired: n, At: now})
}
