package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/api/session", "/api/session"},
		{"/api/users/0b9c1f6e-3f55-4c8e-9d2a-7e1f5b6a4c21/profile", "/api/users/:id/profile"},
		{"/health/live", "/health/live"},
		{"/", "/"},
	}
	for _, tt := range tests {
		if got := sanitizePath(tt.input); got != tt.want {
			t.Errorf("sanitizePath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRequestLogger_HashesIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = zerolog.New(&buf)
	t.Cleanup(func() { Logger = prev })

	app := fiber.New()
	app.Use(NewRequestLogger())
	app.Get("/ping", func(c fiber.Ctx) error {
		c.Locals(localUserID, testUserID)
		return c.SendString("pong")
	})

	if _, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil)); err != nil {
		t.Fatal(err)
	}

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, testUserID) {
		t.Errorf("raw user ID leaked into log: %s", line)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["path"] != "/ping" {
		t.Errorf("got %v, want %q", entry["path"], "/ping")
	}
	if hash, _ := entry["user_hash"].(string); len(hash) != 12 {
		t.Errorf("user_hash = %q, want 12 hex chars", hash)
	}
	if entry["status"] != float64(200) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
}
