package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/landtube/landtube-go/internal/model"
	"github.com/landtube/landtube-go/internal/repository"
)

// MinPasswordLength is the shortest password the auth provider accepts.
const MinPasswordLength = 6

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

type DashboardService struct {
	profiles *repository.ProfileRepo
	lists    *repository.ListRepo
	cache    *CacheService
	log      zerolog.Logger
	now      func() time.Time
}

func NewDashboardService(profiles *repository.ProfileRepo, lists *repository.ListRepo, cache *CacheService, log zerolog.Logger) *DashboardService {
	return &DashboardService{
		profiles: profiles,
		lists:    lists,
		cache:    cache,
		log:      log,
		now:      time.Now,
	}
}

// Load returns the dashboard for a user. The profile is created on first
// access when email is known.
func (s *DashboardService) Load(ctx context.Context, userID, email string) (*model.DashboardResponse, error) {
	p, err := s.profile(ctx, userID, email)
	if err != nil {
		return nil, err
	}

	progress, err := s.lists.TodayProgress(ctx, userID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	return BuildDashboard(p, progress), nil
}

func (s *DashboardService) profile(ctx context.Context, userID, email string) (*model.Profile, error) {
	p, err := s.cache.GetProfile(ctx, userID)
	if err != nil {
		s.log.Debug().Err(err).Msg("redis: profile lookup failed")
	}
	if p != nil {
		return p, nil
	}

	if email != "" {
		if err := s.profiles.EnsureProfile(ctx, userID, email); err != nil {
			return nil, err
		}
	}
	p, err = s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetProfile(ctx, p); err != nil {
		s.log.Debug().Err(err).Msg("redis: failed to cache profile")
	}
	return p, nil
}

// AcknowledgePasswordChange validates the new password pair and clears the
// forced change flag. The password itself is set with the auth provider.
func (s *DashboardService) AcknowledgePasswordChange(ctx context.Context, userID, password, confirm string) error {
	if err := ValidatePasswordPair(password, confirm); err != nil {
		return err
	}
	if err := s.profiles.ClearPasswordChange(ctx, userID); err != nil {
		return err
	}
	if err := s.cache.InvalidateProfile(ctx, userID); err != nil {
		s.log.Debug().Err(err).Msg("redis: failed to invalidate profile")
	}
	return nil
}

// ValidatePasswordPair checks a new password and its confirmation.
func ValidatePasswordPair(password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// BuildDashboard derives the dashboard figures from a profile and today's
// list progress.
func BuildDashboard(p *model.Profile, today repository.TodayProgress) *model.DashboardResponse {
	resp := &model.DashboardResponse{
		UserID:                 p.UserID,
		Email:                  p.Email,
		DisplayName:            p.DisplayName,
		Balance:                p.Balance,
		WithdrawalGoal:         p.WithdrawalGoal,
		AmountRemaining:        model.RoundCurrency(max(p.WithdrawalGoal-p.Balance, 0), 2),
		VideosToday:            min(today.VideosCompleted, model.ListSize),
		ListCompleted:          today.IsCompleted,
		TotalReviews:           p.TotalReviews,
		CurrentStreak:          p.CurrentStreak,
		RequiresPasswordChange: p.RequiresPasswordChange,
	}
	if p.WithdrawalGoal > 0 {
		resp.ProgressPercent = model.RoundCurrency(min(p.Balance/p.WithdrawalGoal*100, 100), 1)
		resp.WithdrawalAvailable = p.Balance >= p.WithdrawalGoal
	}
	resp.RemainingToday = model.ListSize - resp.VideosToday
	if today.IsCompleted {
		resp.RemainingToday = 0
	}
	return resp
}
