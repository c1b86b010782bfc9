package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/landtube/landtube-go/internal/model"
	"github.com/landtube/landtube-go/internal/repository"
	"github.com/landtube/landtube-go/internal/session"
)

// ReviewBackend serves review sessions from the hosted database.
type ReviewBackend struct {
	lists   *repository.ListRepo
	reviews *repository.ReviewRepo
	videos  *VideoService
	cache   *CacheService
	log     zerolog.Logger
}

func NewReviewBackend(lists *repository.ListRepo, reviews *repository.ReviewRepo, videos *VideoService, cache *CacheService, log zerolog.Logger) *ReviewBackend {
	return &ReviewBackend{
		lists:   lists,
		reviews: reviews,
		videos:  videos,
		cache:   cache,
		log:     log.With().Str("component", "review-backend").Logger(),
	}
}

func (b *ReviewBackend) GetOrCreateDailyList(ctx context.Context, userID string) (*model.DailyList, error) {
	list, err := b.lists.GetOrCreateDailyList(ctx, userID)
	if errors.Is(err, repository.ErrNotEnoughVideos) {
		return nil, session.ErrNothingToReview
	}
	return list, err
}

// UpdateListProgress advances the list. The procedure may credit the balance,
// so the cached profile is dropped on success.
func (b *ReviewBackend) UpdateListProgress(ctx context.Context, userID string, videoIndex int) (bool, error) {
	ok, err := b.lists.UpdateListProgress(ctx, userID, videoIndex)
	if err != nil {
		return false, err
	}
	if err := b.cache.InvalidateProfile(ctx, userID); err != nil {
		b.log.Debug().Err(err).Msg("redis: failed to invalidate profile")
	}
	return ok, nil
}

func (b *ReviewBackend) VideosByIDs(ctx context.Context, ids []string) ([]model.Video, error) {
	return b.videos.ByIDs(ctx, ids)
}

func (b *ReviewBackend) InsertReview(ctx context.Context, review model.Review) error {
	_, err := b.reviews.Insert(ctx, review)
	if errors.Is(err, repository.ErrAlreadyReviewed) {
		return session.ErrDuplicateReview
	}
	return err
}

func (b *ReviewBackend) ReviewedVideoIDs(ctx context.Context, userID string, videoIDs []string) ([]string, error) {
	return b.reviews.ReviewedVideoIDs(ctx, userID, videoIDs)
}

var _ session.Backend = (*ReviewBackend)(nil)
