package session

import (
	"time"

	"github.com/landtube/landtube-go/internal/model"
	"github.com/landtube/landtube-go/internal/watchgate"
)

// Item statuses shown in the list overview.
const (
	ItemReviewed = "reviewed"
	ItemWatching = "watching"
	ItemPending  = "pending"
)

// Item is one video of the list as presented to the viewer.
type Item struct {
	VideoID       string  `json:"videoId"`
	Title         string  `json:"title"`
	ThumbnailURL  *string `json:"thumbnailUrl,omitempty"`
	EarningAmount float64 `json:"earningAmount"`
	Status        string  `json:"status"`
}

// View is a read-only snapshot of a session for rendering.
type View struct {
	Phase           Phase           `json:"phase"`
	ListID          string          `json:"listId,omitempty"`
	ListDate        *time.Time      `json:"listDate,omitempty"`
	Position        int             `json:"position"`
	Total           int             `json:"total"`
	Completed       int             `json:"completed"`
	Remaining       int             `json:"remaining"`
	Rating          int             `json:"rating"`
	CanRate         bool            `json:"canRate"`
	CanSubmit       bool            `json:"canSubmit"`
	Earnable        float64         `json:"earnable"`
	Earnings        float64         `json:"earnings,omitempty"`
	ServerCompleted int             `json:"serverCompleted"`
	Current         *model.Video    `json:"current,omitempty"`
	Items           []Item          `json:"items"`
	Gate            watchgate.State `json:"gate"`
	LastError       string          `json:"lastError,omitempty"`
}

// Snapshot returns the current view of the session.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Phase:     c.phase,
		Position:  c.position,
		Total:     len(c.videos),
		Completed: len(c.completed),
		Remaining: max(len(c.videos)-len(c.completed), 0),
		Rating:    c.rating,
		Earnable:  model.SumEarnings(c.videos),
		Earnings:  c.earnings,
		Items:     make([]Item, 0, len(c.videos)),
		LastError: c.lastErr,
	}
	if c.list != nil {
		v.ListID = c.list.ListID
		date := c.list.ListDate
		v.ListDate = &date
		v.ServerCompleted = c.list.VideosCompleted
	}

	gate := c.gate.Snapshot()
	active := c.phase == PhaseInProgress || c.phase == PhaseSubmitting
	if active && len(c.videos) > 0 {
		current := c.videos[c.position]
		v.Current = &current
		v.Gate = gate
		if _, ok := c.completed[current.ID]; ok {
			v.CanSubmit = c.phase == PhaseInProgress
		} else {
			v.CanRate = c.phase == PhaseInProgress && gate.Unlocked
			v.CanSubmit = v.CanRate && c.rating > 0
		}
	}

	for i, video := range c.videos {
		status := ItemPending
		if _, ok := c.completed[video.ID]; ok {
			status = ItemReviewed
		} else if active && i == c.position {
			status = ItemWatching
		}
		v.Items = append(v.Items, Item{
			VideoID:       video.ID,
			Title:         video.Title,
			ThumbnailURL:  video.ThumbnailURL,
			EarningAmount: video.EarningAmount,
			Status:        status,
		})
	}
	return v
}
