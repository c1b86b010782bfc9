package repository

import (
	"context"

	"github.com/landtube/landtube-go/internal/db"
	"github.com/landtube/landtube-go/internal/model"
)

type VideoRepo struct {
	db db.DBTX
}

func NewVideoRepo(db db.DBTX) *VideoRepo {
	return &VideoRepo{db: db}
}

// FindByIDs returns the videos with the given IDs. Order is unspecified and
// unknown IDs are skipped.
func (r *VideoRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id::text, title, youtube_url, thumbnail_url, duration,
		       COALESCE(earning_amount, 0), COALESCE(is_active, true), created_at
		FROM videos
		WHERE id::text = ANY($1::text[])`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []model.Video
	for rows.Next() {
		var v model.Video
		err := rows.Scan(
			&v.ID, &v.Title, &v.YouTubeURL, &v.ThumbnailURL, &v.Duration,
			&v.EarningAmount, &v.IsActive, &v.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}
