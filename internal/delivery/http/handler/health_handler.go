package handler

import (
	"context"
	"time"

	"shift-match/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

// HealthCheck probes one dependency. Optional dependencies report "degraded"
// instead of failing the whole check.
type HealthCheck struct {
	Name     string
	Ping     func(ctx context.Context) error
	Optional bool
}

type HealthHandler struct {
	checks  []HealthCheck
	timeout time.Duration
}

func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	status := fiber.StatusOK
	components := make(map[string]string, len(h.checks))
	for _, chk := range h.checks {
		if chk.Ping == nil {
			continue
		}
		if err := chk.Ping(ctx); err != nil {
			if chk.Optional {
				components[chk.Name] = "degraded"
				continue
			}
			components[chk.Name] = "down"
			status = fiber.StatusServiceUnavailable
			continue
		}
		components[chk.Name] = "up"
	}

	msg := response.MessageOK
	if status != fiber.StatusOK {
		msg = "unavailable"
	}
	return response.Success(c, status, msg, fiber.Map{"components": components})
}
