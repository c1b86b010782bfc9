package session

import (
	"context"
	"errors"

	"github.com/landtube/landtube-go/internal/model"
)

// Backend is the hosted data store as seen by a review session: the list and
// progress procedures plus the videos and reviews record stores. List
// assignment and balance crediting happen behind it.
type Backend interface {
	// GetOrCreateDailyList returns today's list for the user, creating it on
	// first access. It returns ErrNothingToReview when the backend cannot
	// assemble a list.
	GetOrCreateDailyList(ctx context.Context, userID string) (*model.DailyList, error)
	// UpdateListProgress advances the server-side position for the user's list.
	UpdateListProgress(ctx context.Context, userID string, videoIndex int) (bool, error)
	// VideosByIDs returns metadata for the given videos in any order.
	VideosByIDs(ctx context.Context, ids []string) ([]model.Video, error)
	// InsertReview persists a rating. It returns ErrDuplicateReview when the
	// user already has a review for the video.
	InsertReview(ctx context.Context, review model.Review) error
	// ReviewedVideoIDs returns which of videoIDs the user has already rated.
	ReviewedVideoIDs(ctx context.Context, userID string, videoIDs []string) ([]string, error)
}

var (
	// ErrAlreadyCompleted means today's list was finished before this session.
	ErrAlreadyCompleted = errors.New("daily list already completed")
	// ErrNothingToReview means no eligible videos could be assigned.
	ErrNothingToReview = errors.New("no videos available for review")
	// ErrMalformedList means the list or its video metadata is unusable.
	ErrMalformedList = errors.New("daily list is malformed")
	// ErrDuplicateReview is returned by Backend.InsertReview for an existing row.
	ErrDuplicateReview = errors.New("review already recorded")

	ErrNotInProgress  = errors.New("session is not in progress")
	ErrGateLocked     = errors.New("watch time requirement not met")
	ErrNoRating       = errors.New("rating not selected")
	ErrAlreadyRated   = errors.New("video already rated")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrSubmitInFlight = errors.New("submission already in progress")
	ErrSessionClosed  = errors.New("session closed")
)

// Submission stages reported by SubmitError.
const (
	StageInsertReview = "insert_review"
	StageAdvance      = "advance_progress"
)

// SubmitError wraps a backend failure during Submit. The session stays at the
// same position and the submission can be retried.
type SubmitError struct {
	Stage string
	Err   error
}

func (e *SubmitError) Error() string {
	return "submit " + e.Stage + ": " + e.Err.Error()
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}
