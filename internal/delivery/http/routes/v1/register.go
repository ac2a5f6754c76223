package v1

import (
	"shift-match/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Match *handler.MatchHandler
	Offer *handler.OfferHandler
	Admin *handler.AdminHandler
}

// Register mounts the authenticated API. Every route sits behind auth.
func Register(r fiber.Router, auth fiber.Handler, h Handlers) {
	if r == nil {
		return
	}

	protected := r
	if auth != nil {
		protected = r.Group("", auth)
	}

	if h.Match != nil {
		h.Match.RegisterRoutes(protected)
	}
	if h.Offer != nil {
		h.Offer.RegisterRoutes(protected)
	}
	if h.Admin != nil {
		h.Admin.RegisterRoutes(protected)
	}
}
