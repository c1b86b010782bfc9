package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/landtube/landtube-go/internal/middleware"
	"github.com/landtube/landtube-go/internal/session"
	"github.com/landtube/landtube-go/internal/watchgate"
)

// DashboardPath is where the client is sent when there is nothing to review.
const DashboardPath = "/dashboard"

type SessionHandler struct {
	sessions *session.Manager
	log      zerolog.Logger
}

func NewSessionHandler(sessions *session.Manager, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, log: log}
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

// Open handles POST /api/session. Any previous session of the user is
// replaced by a freshly loaded one.
func (h *SessionHandler) Open(c fiber.Ctx) error {
	uid := middleware.UserID(c)

	ctrl, err := h.sessions.Open(c.Context(), uid)
	switch ctrl.Phase() {
	case session.PhaseInProgress:
		return c.Status(fiber.StatusCreated).JSON(ctrl.Snapshot())
	case session.PhaseCompleted, session.PhaseAlreadyCompleted, session.PhaseNothingToReview:
		return c.JSON(fiber.Map{
			"redirect": DashboardPath,
			"reason":   string(ctrl.Phase()),
		})
	case session.PhaseClosed:
		// Replaced by a newer Open or closed while loading.
		return middleware.ErrorResponse(c, fiber.StatusConflict, "SESSION_REPLACED", "Session was closed while loading")
	}

	h.log.Warn().Err(err).Str("phase", string(ctrl.Phase())).Msg("session open failed")
	return middleware.ErrorResponse(c, fiber.StatusBadGateway, "LOAD_FAILED", "Failed to load daily list")
}

// Get handles GET /api/session
func (h *SessionHandler) Get(c fiber.Ctx) error {
	ctrl, ok := h.sessions.Get(middleware.UserID(c))
	if !ok {
		return noSession(c)
	}
	return c.JSON(ctrl.Snapshot())
}

// Watch handles POST /api/session/watch
func (h *SessionHandler) Watch(c fiber.Ctx) error {
	ctrl, ok := h.sessions.Get(middleware.UserID(c))
	if !ok {
		return noSession(c)
	}
	if err := ctrl.StartWatching(); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(ctrl.Snapshot())
}

// Rate handles PUT /api/session/rating
func (h *SessionHandler) Rate(c fiber.Ctx) error {
	var req ratingRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if errMsg := middleware.ValidateRating(req.Rating); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ctrl, ok := h.sessions.Get(middleware.UserID(c))
	if !ok {
		return noSession(c)
	}
	if err := ctrl.SelectRating(req.Rating); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(ctrl.Snapshot())
}

// Submit handles POST /api/session/submit
func (h *SessionHandler) Submit(c fiber.Ctx) error {
	uid := middleware.UserID(c)
	ctrl, ok := h.sessions.Get(uid)
	if !ok {
		return noSession(c)
	}

	res, err := ctrl.Submit(c.Context())
	if err != nil {
		var serr *session.SubmitError
		if errors.As(err, &serr) {
			ObserveSubmitFailure(serr.Stage)
		}
		return sessionError(c, err)
	}

	if res.Persisted {
		ObserveReview(res.Rating)
	}
	resp := fiber.Map{
		"result":  res,
		"session": ctrl.Snapshot(),
	}
	if res.Completed {
		ObserveSessionCompleted()
		h.sessions.Release(uid, ctrl)
		resp["redirect"] = DashboardPath
	}
	return c.JSON(resp)
}

// Close handles DELETE /api/session
func (h *SessionHandler) Close(c fiber.Ctx) error {
	h.sessions.Close(middleware.UserID(c))
	return c.SendStatus(fiber.StatusNoContent)
}

func noSession(c fiber.Ctx) error {
	return middleware.ErrorResponse(c, fiber.StatusNotFound, "NO_SESSION", "No review session is open")
}

// sessionError maps controller errors to API error responses.
func sessionError(c fiber.Ctx, err error) error {
	var serr *session.SubmitError
	switch {
	case errors.As(err, &serr):
		msg := "Failed to save review. Please try again."
		if serr.Stage == session.StageAdvance {
			msg = "Review saved but progress could not be updated. Please try again."
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "SUBMIT_FAILED",
				"message": msg,
				"stage":   serr.Stage,
			},
		})
	case errors.Is(err, session.ErrGateLocked):
		return middleware.ErrorResponse(c, fiber.StatusForbidden, "WATCH_REQUIRED", "Keep watching to unlock rating")
	case errors.Is(err, session.ErrAlreadyRated):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "ALREADY_RATED", "This video has already been rated")
	case errors.Is(err, session.ErrNoRating):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "RATING_REQUIRED", "Please select a rating")
	case errors.Is(err, session.ErrInvalidRating):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", err.Error())
	case errors.Is(err, session.ErrSubmitInFlight):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "SUBMIT_IN_PROGRESS", "A submission is already in progress")
	case errors.Is(err, session.ErrNotInProgress):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "NOT_IN_PROGRESS", "Session is not accepting reviews")
	case errors.Is(err, session.ErrSessionClosed):
		return middleware.ErrorResponse(c, fiber.StatusGone, "SESSION_CLOSED", "Session was closed")
	case errors.Is(err, watchgate.ErrInvalidSource):
		return middleware.ErrorResponse(c, fiber.StatusUnprocessableEntity, "VIDEO_UNAVAILABLE", "Video unavailable")
	}
	return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected session error")
}
