// Package sessiontest provides an in-memory session.Backend for tests.
package sessiontest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/landtube/landtube-go/internal/model"
	"github.com/landtube/landtube-go/internal/session"
)

// Backend is an in-memory session.Backend. Error fields make the matching
// call fail until they are cleared.
type Backend struct {
	mu sync.Mutex

	List    *model.DailyList
	Videos  map[string]model.Video
	Reviews map[string]model.Review // keyed by userID + "/" + videoID

	ListErr     error
	VideosErr   error
	InsertErr   error
	ProgressErr error
	ReviewedErr error

	// ListGate and InsertGate, when set, block GetOrCreateDailyList and
	// InsertReview until they receive a value or the call's context is done.
	ListGate   chan struct{}
	InsertGate chan struct{}

	ListCalls     int
	InsertCalls   int
	ProgressCalls int
	ProgressArgs  []int
}

// NewBackend returns a backend serving one list built from videos.
func NewBackend(videos ...model.Video) *Backend {
	b := &Backend{
		Videos:  make(map[string]model.Video, len(videos)),
		Reviews: make(map[string]model.Review),
	}
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		b.Videos[v.ID] = v
		ids = append(ids, v.ID)
	}
	b.List = &model.DailyList{
		ListID:   "list-1",
		VideoIDs: ids,
		ListDate: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
	}
	return b
}

// Video returns a reviewable video with a valid YouTube locator.
func Video(id string, earning float64) model.Video {
	ref := id
	if len(ref) < 11 {
		ref += strings.Repeat("x", 11-len(ref))
	}
	url := "https://www.youtube.com/watch?v=" + ref[:11]
	return model.Video{
		ID:            id,
		Title:         "Video " + id,
		YouTubeURL:    &url,
		EarningAmount: earning,
		IsActive:      true,
	}
}

// FiveVideos returns a full list worth of videos v1..v5 paying 0.50 each.
func FiveVideos() []model.Video {
	out := make([]model.Video, 0, model.ListSize)
	for i := 1; i <= model.ListSize; i++ {
		out = append(out, Video(fmt.Sprintf("v%d", i), 0.5))
	}
	return out
}

func (b *Backend) GetOrCreateDailyList(ctx context.Context, _ string) (*model.DailyList, error) {
	b.mu.Lock()
	b.ListCalls++
	gate := b.ListGate
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ListErr != nil {
		return nil, b.ListErr
	}
	if b.List == nil {
		return nil, nil
	}
	cp := *b.List
	cp.VideoIDs = append([]string(nil), b.List.VideoIDs...)
	return &cp, nil
}

func (b *Backend) UpdateListProgress(_ context.Context, _ string, videoIndex int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ProgressCalls++
	b.ProgressArgs = append(b.ProgressArgs, videoIndex)
	if b.ProgressErr != nil {
		return false, b.ProgressErr
	}
	if b.List == nil {
		return false, nil
	}
	b.List.CurrentVideoIndex = videoIndex + 1
	b.List.VideosCompleted = max(b.List.VideosCompleted, videoIndex+1)
	if b.List.VideosCompleted >= len(b.List.VideoIDs) {
		b.List.IsCompleted = true
	}
	return true, nil
}

func (b *Backend) VideosByIDs(_ context.Context, ids []string) ([]model.Video, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.VideosErr != nil {
		return nil, b.VideosErr
	}
	// Reverse order so callers cannot rely on the store's ordering.
	var out []model.Video
	for i := len(ids) - 1; i >= 0; i-- {
		if v, ok := b.Videos[ids[i]]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (b *Backend) InsertReview(ctx context.Context, review model.Review) error {
	b.mu.Lock()
	b.InsertCalls++
	gate := b.InsertGate
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.InsertErr != nil {
		return b.InsertErr
	}
	key := review.UserID + "/" + review.VideoID
	if _, ok := b.Reviews[key]; ok {
		return session.ErrDuplicateReview
	}
	review.ID = fmt.Sprintf("review-%d", len(b.Reviews)+1)
	b.Reviews[key] = review
	return nil
}

func (b *Backend) ReviewedVideoIDs(_ context.Context, userID string, videoIDs []string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ReviewedErr != nil {
		return nil, b.ReviewedErr
	}
	var out []string
	for _, id := range videoIDs {
		if _, ok := b.Reviews[userID+"/"+id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// Seed records an existing review for userID.
func (b *Backend) Seed(userID, videoID string, rating int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Reviews[userID+"/"+videoID] = model.Review{UserID: userID, VideoID: videoID, Rating: rating}
}

// ReviewCount returns the number of stored reviews.
func (b *Backend) ReviewCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Reviews)
}

// SetInsertErr sets InsertErr under the lock.
func (b *Backend) SetInsertErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.InsertErr = err
}

// SetProgressErr sets ProgressErr under the lock.
func (b *Backend) SetProgressErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ProgressErr = err
}

// ListCallCount returns the number of GetOrCreateDailyList calls.
func (b *Backend) ListCallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ListCalls
}

// Calls returns the insert and progress call counts.
func (b *Backend) Calls() (insert, progress int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.InsertCalls, b.ProgressCalls
}

var _ session.Backend = (*Backend)(nil)
