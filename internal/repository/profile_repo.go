package repository

import (
	"context"

	"github.com/landtube/landtube-go/internal/db"
	"github.com/landtube/landtube-go/internal/model"
)

const profileColumns = `
		user_id::text, email, display_name, COALESCE(balance, 0), COALESCE(withdrawal_goal, 0),
		COALESCE(daily_reviews_completed, 0), COALESCE(total_reviews, 0),
		COALESCE(current_streak, 0), last_review_date, COALESCE(requires_password_change, false)`

type ProfileRepo struct {
	db db.DBTX
}

func NewProfileRepo(db db.DBTX) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// FindByUserID returns the profile of a user. It returns pgx.ErrNoRows when
// the user has none.
func (r *ProfileRepo) FindByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	query := `SELECT` + profileColumns + `
		FROM profiles
		WHERE user_id = $1`

	var p model.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.Email, &p.DisplayName, &p.Balance, &p.WithdrawalGoal,
		&p.DailyReviewsCompleted, &p.TotalReviews,
		&p.CurrentStreak, &p.LastReviewDate, &p.RequiresPasswordChange,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsureProfile creates the profile on first login. New profiles must change
// their provisioned password before reviewing.
func (r *ProfileRepo) EnsureProfile(ctx context.Context, userID, email string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO profiles (user_id, email, requires_password_change)
		VALUES ($1, $2, true)
		ON CONFLICT (user_id) DO NOTHING`, userID, email)
	return err
}

// ClearPasswordChange drops the forced password change flag.
func (r *ProfileRepo) ClearPasswordChange(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE profiles SET requires_password_change = false, updated_at = NOW()
		WHERE user_id = $1`, userID)
	return err
}
