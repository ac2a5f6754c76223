package app

import (
	"context"
	"fmt"
	"strings"

	"shift-match/internal/config"
	"shift-match/internal/delivery/http/handler"
	"shift-match/internal/delivery/http/middleware"
	"shift-match/internal/delivery/http/routes"
	v1 "shift-match/internal/delivery/http/routes/v1"
	"shift-match/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New builds the HTTP surface over an already wired container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Logger)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

func Bootstrap(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return New(c), c.Close, nil
}

// Start runs the background loops until ctx is cancelled: the websocket hub
// and, when enabled, the expiration sweeper.
func (a *App) Start(ctx context.Context) {
	go a.Container.Hub.Run(ctx)
	if a.Container.Config.Sweep.Enabled {
		go a.Container.Sweeper.Start(ctx)
	}
}

func registerGlobalMiddleware(app *fiber.App, logger *zap.Logger) {
	if app == nil {
		return
	}

	errMw := middleware.NewErrorMiddleware(logger.Named("http"))
	accessMw := middleware.NewAccessLogMiddleware(logger.Named("access"))
	app.Use(accessMw.Middleware())
	app.Use(errMw.Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	checks := []handler.HealthCheck{{Name: "redis", Ping: c.Redis.Ping, Optional: true}}
	if c.DB != nil {
		checks = append(checks, handler.HealthCheck{Name: "postgres", Ping: c.DB.Ping})
	}

	authMw := middleware.NewAuthMiddleware(c.JWT)
	events := ws.NewHandler(c.Hub, func(fc fiber.Ctx) (uuid.UUID, bool) {
		id, _, ok := middleware.Identity(fc)
		return id, ok
	}, c.Logger.Named("ws"))

	routes.NewRegistry(
		handler.NewHealthHandler(checks...),
		events,
		authMw.Middleware(),
		v1.Handlers{
			Match: handler.NewMatchHandler(c.Matching),
			Offer: handler.NewOfferHandler(c.Matching),
			Admin: handler.NewAdminHandler(c.Sweeper),
		},
	).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
