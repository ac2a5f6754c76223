package routes

import (
	"shift-match/internal/delivery/http/handler"
	v1 "shift-match/internal/delivery/http/routes/v1"
	"shift-match/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health *handler.HealthHandler
	events *ws.Handler
	auth   fiber.Handler
	v1     v1.Handlers
}

func NewRegistry(health *handler.HealthHandler, events *ws.Handler, auth fiber.Handler, api v1.Handlers) *Registry {
	if health == nil {
		health = handler.NewHealthHandler()
	}
	return &Registry{health: health, events: events, auth: auth, v1: api}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerEvents(app)
	r.registerAPI(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	r.health.RegisterRoutes(app)
}

func (r *Registry) registerEvents(app *fiber.App) {
	if r.events == nil {
		return
	}
	if r.auth != nil {
		app.Get("/ws", r.auth, r.events.HandleEventsWS)
		return
	}
	app.Get("/ws", r.events.HandleEventsWS)
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	v1.Register(api.Group("/v1"), r.auth, r.v1)
}
