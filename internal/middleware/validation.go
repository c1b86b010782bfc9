package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateUserID checks that a user ID is a UUID and returns it in canonical
// lowercase form.
func ValidateUserID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "userId is required"
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", "userId must be a UUID"
	}
	return parsed.String(), ""
}

// ValidateRating checks that a rating is within 1-5.
func ValidateRating(rating int) string {
	if rating < MinRating || rating > MaxRating {
		return "rating must be between 1 and 5"
	}
	return ""
}
