package model

import (
	"math"
	"time"
)

// Video represents a reviewable video from the videos table.
type Video struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	YouTubeURL    *string    `json:"youtubeUrl,omitempty"`
	ThumbnailURL  *string    `json:"thumbnailUrl,omitempty"`
	Duration      *int       `json:"duration,omitempty"`
	EarningAmount float64    `json:"earningAmount"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

// Locator returns the media URL, or "" when the video has none.
func (v Video) Locator() string {
	if v.YouTubeURL == nil {
		return ""
	}
	return *v.YouTubeURL
}

// SumEarnings adds up the earning amount of every video, rounded to cents.
func SumEarnings(videos []Video) float64 {
	var total float64
	for _, v := range videos {
		total += v.EarningAmount
	}
	return RoundCurrency(total, 2)
}

// RoundCurrency rounds value to the given number of decimal places.
func RoundCurrency(value float64, places int) float64 {
	if places < 0 {
		places = 0
	}
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
