package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
)

const (
	testSecret = "test-secret"
	testUserID = "0b9c1f6e-3f55-4c8e-9d2a-7e1f5b6a4c21"
)

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", RequireAuth(testSecret), func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"userId": UserID(c), "email": UserEmail(c)})
	})
	return app
}

func TestParseToken_RoundTrip(t *testing.T) {
	tok, err := SignToken(testSecret, testUserID, "a@example.com", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseToken(testSecret, tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != testUserID {
		t.Errorf("got %q, want %q", claims.Subject, testUserID)
	}
	if claims.Email != "a@example.com" {
		t.Errorf("got %q, want %q", claims.Email, "a@example.com")
	}
}

func TestParseToken_Rejects(t *testing.T) {
	expired, _ := SignToken(testSecret, testUserID, "", -time.Minute)
	wrongKey, _ := SignToken("other-secret", testUserID, "", time.Minute)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: testUserID}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong key", wrongKey},
		{"alg none", none},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(testSecret, tt.token); err == nil {
				t.Error("expected error, got none")
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	valid, _ := SignToken(testSecret, testUserID, "a@example.com", time.Minute)
	badSubject, _ := SignToken(testSecret, "not-a-uuid", "", time.Minute)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid", "Bearer " + valid, fiber.StatusOK},
		{"lowercase scheme", "bearer " + valid, fiber.StatusOK},
		{"missing", "", fiber.StatusUnauthorized},
		{"basic scheme", "Basic abc", fiber.StatusUnauthorized},
		{"bad subject", "Bearer " + badSubject, fiber.StatusUnauthorized},
		{"bad token", "Bearer nope", fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := newAuthApp().Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != fiber.StatusOK {
				return
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["userId"] != testUserID {
				t.Errorf("got %q, want %q", body["userId"], testUserID)
			}
			if body["email"] != "a@example.com" {
				t.Errorf("got %q, want %q", body["email"], "a@example.com")
			}
		})
	}
}
