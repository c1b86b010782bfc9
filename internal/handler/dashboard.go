package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/landtube/landtube-go/internal/middleware"
	"github.com/landtube/landtube-go/internal/service"
)

type DashboardHandler struct {
	svc *service.DashboardService
	log zerolog.Logger
}

func NewDashboardHandler(svc *service.DashboardService, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, log: log}
}

type passwordRequest struct {
	Password string `json:"password"`
	Confirm  string `json:"confirmPassword"`
}

// Get handles GET /api/dashboard
func (h *DashboardHandler) Get(c fiber.Ctx) error {
	resp, err := h.svc.Load(c.Context(), middleware.UserID(c), middleware.UserEmail(c))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Profile not found")
		}
		h.log.Error().Err(err).Msg("dashboard load failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Error loading profile")
	}
	return c.JSON(resp)
}

// ChangePassword handles POST /api/profile/password. The new password is
// validated here and set with the auth provider by the client; this clears
// the forced change flag.
func (h *DashboardHandler) ChangePassword(c fiber.Ctx) error {
	var req passwordRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	err := h.svc.AcknowledgePasswordChange(c.Context(), middleware.UserID(c), req.Password, req.Confirm)
	switch {
	case errors.Is(err, service.ErrPasswordMismatch), errors.Is(err, service.ErrPasswordTooShort):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", err.Error())
	case err != nil:
		h.log.Error().Err(err).Msg("password change acknowledgement failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update password")
	}
	return c.JSON(fiber.Map{"requiresPasswordChange": false})
}
