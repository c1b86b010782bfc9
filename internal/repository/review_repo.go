package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/landtube/landtube-go/internal/db"
	"github.com/landtube/landtube-go/internal/model"
)

const uniqueViolation = "23505"

// ErrAlreadyReviewed is returned when the user already has a review row for the video.
var ErrAlreadyReviewed = errors.New("video already reviewed by user")

type ReviewRepo struct {
	db db.DBTX
}

func NewReviewRepo(db db.DBTX) *ReviewRepo {
	return &ReviewRepo{db: db}
}

// Insert stores a review and returns its ID. Balance and counters are
// credited by the list progress procedure, not here.
func (r *ReviewRepo) Insert(ctx context.Context, review model.Review) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `
		INSERT INTO reviews (user_id, video_id, rating, earning_amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text`,
		review.UserID, review.VideoID, review.Rating, review.EarningAmount,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", ErrAlreadyReviewed
		}
		return "", err
	}
	return id, nil
}

// ReviewedVideoIDs returns which of videoIDs the user has a review for.
func (r *ReviewRepo) ReviewedVideoIDs(ctx context.Context, userID string, videoIDs []string) ([]string, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT video_id::text
		FROM reviews
		WHERE user_id = $1 AND video_id::text = ANY($2::text[])`,
		userID, videoIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
