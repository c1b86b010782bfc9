package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/landtube/landtube-go/internal/db"
	"github.com/landtube/landtube-go/internal/model"
)

// ErrNotEnoughVideos is returned when the backend cannot assemble a daily list.
var ErrNotEnoughVideos = errors.New("not enough available videos")

// TodayProgress is the list summary shown on the dashboard.
type TodayProgress struct {
	VideosCompleted int
	IsCompleted     bool
}

type ListRepo struct {
	db db.DBTX
}

func NewListRepo(db db.DBTX) *ListRepo {
	return &ListRepo{db: db}
}

// GetOrCreateDailyList calls the backend procedure that returns today's list,
// creating it on first access.
func (r *ListRepo) GetOrCreateDailyList(ctx context.Context, userID string) (*model.DailyList, error) {
	query := `
		SELECT list_id::text, video_ids::text[], COALESCE(current_video_index, 0),
		       COALESCE(videos_completed, 0), COALESCE(is_completed, false), list_date
		FROM get_or_create_daily_list($1)`

	var l model.DailyList
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&l.ListID, &l.VideoIDs, &l.CurrentVideoIndex,
		&l.VideosCompleted, &l.IsCompleted, &l.ListDate,
	)
	if err != nil {
		if strings.Contains(err.Error(), "Not enough available videos") {
			return nil, ErrNotEnoughVideos
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotEnoughVideos
		}
		return nil, err
	}
	return &l, nil
}

// UpdateListProgress records that the video at videoIndex was reviewed. The
// procedure owns the completion flag and balance crediting.
func (r *ListRepo) UpdateListProgress(ctx context.Context, userID string, videoIndex int) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT update_list_progress($1, $2)`, userID, videoIndex).Scan(&ok)
	return ok, err
}

// TodayProgress returns the user's list progress for day. A missing list
// reports zero progress.
func (r *ListRepo) TodayProgress(ctx context.Context, userID string, day time.Time) (TodayProgress, error) {
	var p TodayProgress
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(videos_completed, 0), COALESCE(is_completed, false)
		FROM daily_video_lists
		WHERE user_id = $1 AND list_date = $2`,
		userID, model.DateOnly(day),
	).Scan(&p.VideosCompleted, &p.IsCompleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return TodayProgress{}, nil
	}
	return p, err
}
