package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/landtube/landtube-go/internal/handler"
	"github.com/landtube/landtube-go/internal/middleware"
	"github.com/landtube/landtube-go/internal/session"
	"github.com/landtube/landtube-go/internal/session/sessiontest"
)

const (
	testSecret = "router-secret"
	testUserID = "9a4f2c17-0d3e-4b6a-8c5f-1e7d2b9a3c64"
)

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	m := session.NewManager(sessiontest.NewBackend(sessiontest.FiveVideos()...))
	t.Cleanup(m.CloseAll)

	app := fiber.New()
	Setup(app, &Handlers{
		Health:    handler.NewHealthHandler(nil, nil, m.Len, "test"),
		Dashboard: handler.NewDashboardHandler(nil, zerolog.Nop()),
		Session:   handler.NewSessionHandler(m, zerolog.Nop()),
	}, "*", testSecret)
	return app
}

func TestSetup_Routes(t *testing.T) {
	app := newApp(t)
	tok, err := middleware.SignToken(testSecret, testUserID, "", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		method     string
		path       string
		auth       bool
		wantStatus int
	}{
		{"liveness", http.MethodGet, "/health/live", false, fiber.StatusOK},
		{"metrics", http.MethodGet, "/metrics", false, fiber.StatusOK},
		{"session requires auth", http.MethodPost, "/api/session", false, fiber.StatusUnauthorized},
		{"open session", http.MethodPost, "/api/session", true, fiber.StatusCreated},
		{"snapshot", http.MethodGet, "/api/session", true, fiber.StatusOK},
		{"close session", http.MethodDelete, "/api/session", true, fiber.StatusNoContent},
		{"unknown route", http.MethodGet, "/api/videos", true, fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestSetup_SetsRateLimitHeaders(t *testing.T) {
	app := newApp(t)
	tok, _ := middleware.SignToken(testSecret, testUserID, "", time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-RateLimit-Limit") != "120" {
		t.Errorf("X-RateLimit-Limit = %q, want 120", resp.Header.Get("X-RateLimit-Limit"))
	}
}
