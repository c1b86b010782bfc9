package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/landtube/landtube-go/internal/model"
	"github.com/landtube/landtube-go/internal/repository"
	"github.com/landtube/landtube-go/internal/session"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet mock expectations: %v", err)
		}
		mock.Close()
	})
	return mock
}

func newBackend(mock pgxmock.PgxPoolIface, cache *CacheService) *ReviewBackend {
	log := zerolog.Nop()
	videos := NewVideoService(repository.NewVideoRepo(mock), cache, log)
	return NewReviewBackend(repository.NewListRepo(mock), repository.NewReviewRepo(mock), videos, cache, log)
}

// unreachableCache returns a cache whose every Redis call fails fast.
func unreachableCache(t *testing.T) *CacheService {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCacheServiceWithClient(rdb, zerolog.Nop())
}

var videoCols = []string{"id", "title", "youtube_url", "thumbnail_url", "duration", "earning_amount", "is_active", "created_at"}

func TestReviewBackend_NotEnoughVideosMapsToNothingToReview(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM get_or_create_daily_list").
		WithArgs("u1").
		WillReturnError(&pgconn.PgError{Code: "P0001", Message: "Not enough available videos"})

	_, err := newBackend(mock, &CacheService{}).GetOrCreateDailyList(context.Background(), "u1")
	if !errors.Is(err, session.ErrNothingToReview) {
		t.Errorf("err = %v, want ErrNothingToReview", err)
	}
}

func TestReviewBackend_DuplicateInsertMapsToDuplicateReview(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO reviews").
		WithArgs("u1", "v1", 5, 0.5).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := newBackend(mock, &CacheService{}).InsertReview(context.Background(), model.Review{
		UserID: "u1", VideoID: "v1", Rating: 5, EarningAmount: 0.5,
	})
	if !errors.Is(err, session.ErrDuplicateReview) {
		t.Errorf("err = %v, want ErrDuplicateReview", err)
	}
}

func TestReviewBackend_UpdateListProgress(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("SELECT update_list_progress").
		WithArgs("u1", 0).
		WillReturnRows(pgxmock.NewRows([]string{"update_list_progress"}).AddRow(true))

	ok, err := newBackend(mock, unreachableCache(t)).UpdateListProgress(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("cache failures should not fail the advance: %v", err)
	}
	if !ok {
		t.Error("expected true")
	}
}

func TestReviewBackend_UpdateListProgressError(t *testing.T) {
	mock := newMock(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT update_list_progress").
		WithArgs("u1", 2).
		WillReturnError(boom)

	_, err := newBackend(mock, &CacheService{}).UpdateListProgress(context.Background(), "u1", 2)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestVideoService_ByIDsFallsBackToDatabase(t *testing.T) {
	mock := newMock(t)
	ids := []string{"v1", "v2"}
	mock.ExpectQuery("FROM videos").
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows(videoCols).
			AddRow("v1", "One", nil, nil, nil, 0.5, true, nil).
			AddRow("v2", "Two", nil, nil, nil, 0.75, true, nil))

	cache := unreachableCache(t)
	var mu sync.Mutex
	misses := 0
	cache.SetObserver(func(kind string, hit bool) {
		mu.Lock()
		defer mu.Unlock()
		if kind == CacheKindVideo && !hit {
			misses++
		}
	})

	svc := NewVideoService(repository.NewVideoRepo(mock), cache, zerolog.Nop())
	videos, err := svc.ByIDs(context.Background(), ids)
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 2 {
		t.Fatalf("got %d videos, want 2", len(videos))
	}
	if model.SumEarnings(videos) != 1.25 {
		t.Errorf("earnings = %.2f, want 1.25", model.SumEarnings(videos))
	}
	if misses == 0 {
		t.Error("expected cache misses to be observed")
	}
}

func TestCacheService_DisabledIsNoop(t *testing.T) {
	c := &CacheService{}
	ctx := context.Background()

	if c.Enabled() {
		t.Error("zero cache should be disabled")
	}
	found, missing := c.GetVideos(ctx, []string{"a", "b"})
	if len(found) != 0 || len(missing) != 2 {
		t.Errorf("found/missing = %d/%d, want 0/2", len(found), len(missing))
	}
	if err := c.SetVideos(ctx, []model.Video{{ID: "a"}}); err != nil {
		t.Error(err)
	}
	p, err := c.GetProfile(ctx, "u1")
	if p != nil || err != nil {
		t.Errorf("GetProfile = %v, %v; want nil, nil", p, err)
	}
	if err := c.SetProfile(ctx, &model.Profile{UserID: "u1"}); err != nil {
		t.Error(err)
	}
	if err := c.InvalidateProfile(ctx, "u1"); err != nil {
		t.Error(err)
	}
	if err := c.Close(); err != nil {
		t.Error(err)
	}
}

func TestNewCacheService_EmptyURLDisables(t *testing.T) {
	if NewCacheService("", zerolog.Nop()).Enabled() {
		t.Error("empty URL should disable caching")
	}
	if NewCacheService("not a url", zerolog.Nop()).Enabled() {
		t.Error("invalid URL should disable caching")
	}
}

func TestCacheKeys(t *testing.T) {
	if got := videoKey("abc"); got != "video:abc" {
		t.Errorf("got %q, want %q", got, "video:abc")
	}
	if got := profileKey("hello"); got != "profile:2cf24dba5fb0" {
		t.Errorf("got %q, want %q", got, "profile:2cf24dba5fb0")
	}
}

func TestBuildDashboard(t *testing.T) {
	tests := []struct {
		name          string
		profile       model.Profile
		today         repository.TodayProgress
		wantPercent   float64
		wantRemaining float64
		wantAvailable bool
		wantToday     int
		wantLeft      int
	}{
		{
			name:          "halfway",
			profile:       model.Profile{Balance: 50, WithdrawalGoal: 100},
			today:         repository.TodayProgress{VideosCompleted: 2},
			wantPercent:   50,
			wantRemaining: 50,
			wantToday:     2,
			wantLeft:      3,
		},
		{
			name:          "goal reached",
			profile:       model.Profile{Balance: 120, WithdrawalGoal: 100},
			today:         repository.TodayProgress{VideosCompleted: 5, IsCompleted: true},
			wantPercent:   100,
			wantRemaining: 0,
			wantAvailable: true,
			wantToday:     5,
			wantLeft:      0,
		},
		{
			name:          "no goal",
			profile:       model.Profile{Balance: 10},
			wantPercent:   0,
			wantRemaining: 0,
			wantLeft:      5,
		},
		{
			name:          "fractional",
			profile:       model.Profile{Balance: 33.333, WithdrawalGoal: 100},
			wantPercent:   33.3,
			wantRemaining: 66.67,
			wantLeft:      5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildDashboard(&tt.profile, tt.today)
			if got.ProgressPercent != tt.wantPercent {
				t.Errorf("progress = %.2f, want %.2f", got.ProgressPercent, tt.wantPercent)
			}
			if got.AmountRemaining != tt.wantRemaining {
				t.Errorf("remaining amount = %.2f, want %.2f", got.AmountRemaining, tt.wantRemaining)
			}
			if got.WithdrawalAvailable != tt.wantAvailable {
				t.Errorf("withdrawal available = %v, want %v", got.WithdrawalAvailable, tt.wantAvailable)
			}
			if got.VideosToday != tt.wantToday || got.RemainingToday != tt.wantLeft {
				t.Errorf("today = %d/%d, want %d/%d", got.VideosToday, got.RemainingToday, tt.wantToday, tt.wantLeft)
			}
		})
	}
}

func TestValidatePasswordPair(t *testing.T) {
	tests := []struct {
		password, confirm string
		want              error
	}{
		{"secret1", "secret1", nil},
		{"secret1", "secret2", ErrPasswordMismatch},
		{"abc", "abc", ErrPasswordTooShort},
		{"abcdef", "abcdef", nil},
	}
	for _, tt := range tests {
		if got := ValidatePasswordPair(tt.password, tt.confirm); !errors.Is(got, tt.want) {
			t.Errorf("ValidatePasswordPair(%q, %q) = %v, want %v", tt.password, tt.confirm, got, tt.want)
		}
	}
}

func TestDashboardService_Load(t *testing.T) {
	mock := newMock(t)
	profileCols := []string{"user_id", "email", "display_name", "balance", "withdrawal_goal",
		"daily_reviews_completed", "total_reviews", "current_streak", "last_review_date", "requires_password_change"}

	mock.ExpectExec("INSERT INTO profiles").
		WithArgs("u1", "a@example.com").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("FROM profiles").
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(profileCols).
			AddRow("u1", "a@example.com", nil, 25.0, 100.0, 2, 12, 3, nil, false))
	mock.ExpectQuery("FROM daily_video_lists").
		WithArgs("u1", "2026-10-19").
		WillReturnRows(pgxmock.NewRows([]string{"videos_completed", "is_completed"}).AddRow(2, false))

	svc := NewDashboardService(repository.NewProfileRepo(mock), repository.NewListRepo(mock), &CacheService{}, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }

	d, err := svc.Load(context.Background(), "u1", "a@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if d.ProgressPercent != 25 || d.AmountRemaining != 75 {
		t.Errorf("progress/remaining = %.2f/%.2f, want 25/75", d.ProgressPercent, d.AmountRemaining)
	}
	if d.VideosToday != 2 || d.RemainingToday != 3 {
		t.Errorf("today = %d/%d, want 2/3", d.VideosToday, d.RemainingToday)
	}
	if d.TotalReviews != 12 || d.CurrentStreak != 3 {
		t.Errorf("totals = %d/%d, want 12/3", d.TotalReviews, d.CurrentStreak)
	}
}

func TestDashboardService_AcknowledgePasswordChange(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("UPDATE profiles SET requires_password_change = false").
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	svc := NewDashboardService(repository.NewProfileRepo(mock), repository.NewListRepo(mock), &CacheService{}, zerolog.Nop())

	if err := svc.AcknowledgePasswordChange(context.Background(), "u1", "short", "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("err = %v, want ErrPasswordTooShort", err)
	}
	if err := svc.AcknowledgePasswordChange(context.Background(), "u1", "longenough", "longenough"); err != nil {
		t.Fatal(err)
	}
}
