package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
)

const (
	localUserID    = "userId"
	localUserEmail = "userEmail"
)

var ErrMissingToken = errors.New("missing bearer token")

// Claims are the fields read from backend-issued access tokens. The subject
// is the user ID.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken validates an HS256 access token and returns its claims.
func ParseToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// SignToken issues an HS256 token for userID. Used by tests and local tooling;
// production tokens come from the auth provider.
func SignToken(secret, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's user ID and email in the request locals.
func RequireAuth(secret string) fiber.Handler {
	return func(c fiber.Ctx) error {
		tokenStr, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token")
		}

		claims, err := ParseToken(secret, tokenStr)
		if err != nil {
			Logger.Debug().Err(err).Str("path", sanitizePath(c.Path())).Msg("rejected token")
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
		}

		userID, errMsg := ValidateUserID(claims.Subject)
		if errMsg != "" {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Token subject is not a valid user")
		}

		c.Locals(localUserID, userID)
		c.Locals(localUserEmail, claims.Email)
		return c.Next()
	}
}

// UserID returns the authenticated user ID, or "" outside RequireAuth.
func UserID(c fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// UserEmail returns the authenticated user's email when the token carried one.
func UserEmail(c fiber.Ctx) string {
	email, _ := c.Locals(localUserEmail).(string)
	return email
}
