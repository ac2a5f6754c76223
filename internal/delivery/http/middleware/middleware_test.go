package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shift-match/internal/pkg/jwt"
	"shift-match/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

func TestNormalizeError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "app error", err: NewAppError(fiber.StatusConflict, "Match can no longer change", nil, nil), wantStatus: 409, wantMsg: "Match can no longer change"},
		{name: "gone default message", err: NewAppError(fiber.StatusGone, "", nil, nil), wantStatus: 410, wantMsg: response.MessageGone},
		{name: "app error hides 5xx detail", err: NewAppError(fiber.StatusBadGateway, "upstream leaked", nil, nil), wantStatus: 500, wantMsg: response.MessageInternalServerError},
		{name: "fiber error", err: fiber.NewError(fiber.StatusNotFound, ""), wantStatus: 404, wantMsg: response.MessageNotFound},
		{name: "plain error", err: errors.New("boom"), wantStatus: 500, wantMsg: response.MessageInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status, msg, _ := normalizeError(tt.err)
			if status != tt.wantStatus || msg != tt.wantMsg {
				t.Fatalf("got %d %q, want %d %q", status, msg, tt.wantStatus, tt.wantMsg)
			}
		})
	}
}

func TestErrorMiddleware_RecoversPanic(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Use(NewErrorMiddleware(nil).Middleware())
	app.Get("/panic", func(c fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil))
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var body response.SemanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != response.MessageInternalServerError {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestAuthMiddleware_RolesAndQueryToken(t *testing.T) {
	t.Parallel()

	svc := jwt.NewHMACService("middleware-secret-012345", "shift-match", time.Hour)
	uid := uuid.New()
	workerTok, err := svc.GenerateAccessToken(uid, jwt.RoleWorker)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	app := fiber.New()
	app.Use(NewErrorMiddleware(nil).Middleware())
	app.Use(NewAuthMiddleware(svc).Middleware())
	app.Get("/me", func(c fiber.Ctx) error {
		id, role, ok := Identity(c)
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "", nil, nil)
		}
		return c.SendString(id.String() + ":" + string(role))
	})
	app.Get("/admin", RequireRole(jwt.RoleAdmin), func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{name: "no token", path: "/me", want: fiber.StatusUnauthorized},
		{name: "garbage token", path: "/me", header: "Bearer nope", want: fiber.StatusUnauthorized},
		{name: "bearer header", path: "/me", header: "Bearer " + workerTok, want: fiber.StatusOK},
		{name: "query token", path: "/me?token=" + workerTok, want: fiber.StatusOK},
		{name: "wrong role", path: "/admin", header: "Bearer " + workerTok, want: fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("test: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestAccessLog_SetsRequestID(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Use(NewAccessLogMiddleware(nil).Middleware())
	app.Get("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "rid-123")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(HeaderRequestID); got != "rid-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get(HeaderRequestID) == "" {
		t.Fatalf("expected a generated request id")
	}
}
