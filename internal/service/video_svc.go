package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/landtube/landtube-go/internal/model"
	"github.com/landtube/landtube-go/internal/repository"
)

type VideoService struct {
	repo  *repository.VideoRepo
	cache *CacheService
	log   zerolog.Logger
}

func NewVideoService(repo *repository.VideoRepo, cache *CacheService, log zerolog.Logger) *VideoService {
	return &VideoService{repo: repo, cache: cache, log: log}
}

// ByIDs returns metadata for the given videos, served from cache where
// possible. Order is unspecified and unknown IDs are skipped.
func (s *VideoService) ByIDs(ctx context.Context, ids []string) ([]model.Video, error) {
	found, missing := s.cache.GetVideos(ctx, ids)

	videos := make([]model.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := found[id]; ok {
			videos = append(videos, v)
		}
	}
	if len(missing) == 0 {
		return videos, nil
	}

	loaded, err := s.repo.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetVideos(ctx, loaded); err != nil {
		s.log.Debug().Err(err).Msg("redis: failed to cache videos")
	}
	return append(videos, loaded...), nil
}
