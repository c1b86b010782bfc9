package model

import "time"

// Profile holds the balance and review counters of a user. Balance and the
// counters are written by the backend procedures only.
type Profile struct {
	UserID                 string     `json:"userId"`
	Email                  string     `json:"email"`
	DisplayName            *string    `json:"displayName,omitempty"`
	Balance                float64    `json:"balance"`
	WithdrawalGoal         float64    `json:"withdrawalGoal"`
	DailyReviewsCompleted  int        `json:"dailyReviewsCompleted"`
	TotalReviews           int        `json:"totalReviews"`
	CurrentStreak          int        `json:"currentStreak"`
	LastReviewDate         *time.Time `json:"lastReviewDate,omitempty"`
	RequiresPasswordChange bool       `json:"requiresPasswordChange"`
}

// DashboardResponse is the API response for the dashboard screen.
type DashboardResponse struct {
	UserID                 string  `json:"userId"`
	Email                  string  `json:"email"`
	DisplayName            *string `json:"displayName,omitempty"`
	Balance                float64 `json:"balance"`
	WithdrawalGoal         float64 `json:"withdrawalGoal"`
	ProgressPercent        float64 `json:"progressPercent"`
	AmountRemaining        float64 `json:"amountRemaining"`
	WithdrawalAvailable    bool    `json:"withdrawalAvailable"`
	VideosToday            int     `json:"videosToday"`
	RemainingToday         int     `json:"remainingToday"`
	ListCompleted          bool    `json:"listCompleted"`
	TotalReviews           int     `json:"totalReviews"`
	CurrentStreak          int     `json:"currentStreak"`
	RequiresPasswordChange bool    `json:"requiresPasswordChange"`
}
