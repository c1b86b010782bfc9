package model

import "time"

// ListSize is the number of videos in every daily list.
const ListSize = 5

// DailyList is the per-user, per-day list returned by get_or_create_daily_list.
// VideoIDs order is the viewing order and never changes for the day.
type DailyList struct {
	ListID            string    `json:"listId"`
	VideoIDs          []string  `json:"videoIds"`
	CurrentVideoIndex int       `json:"currentVideoIndex"`
	VideosCompleted   int       `json:"videosCompleted"`
	IsCompleted       bool      `json:"isCompleted"`
	ListDate          time.Time `json:"listDate"`
}

// Review is a single persisted rating, one per (user, video).
type Review struct {
	ID            string    `json:"id,omitempty"`
	UserID        string    `json:"userId"`
	VideoID       string    `json:"videoId"`
	Rating        int       `json:"rating"`
	EarningAmount float64   `json:"earningAmount"`
	CompletedAt   time.Time `json:"completedAt,omitempty"`
}

// DateOnly formats t as the calendar date used by list_date.
func DateOnly(t time.Time) string {
	return t.Format(time.DateOnly)
}
