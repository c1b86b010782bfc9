package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/landtube/landtube-go/internal/model"
	"github.com/landtube/landtube-go/internal/watchgate"
	"github.com/landtube/landtube-go/pkg/hash"
)

// Phase is the lifecycle state of a review session.
type Phase string

const (
	PhaseLoading          Phase = "loading"
	PhaseInProgress       Phase = "in_progress"
	PhaseSubmitting       Phase = "submitting"
	PhaseCompleted        Phase = "completed"
	PhaseAlreadyCompleted Phase = "already_completed"
	PhaseNothingToReview  Phase = "nothing_to_review"
	PhaseLoadFailed       Phase = "load_failed"
	PhaseClosed           Phase = "closed"
)

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseCompleted, PhaseAlreadyCompleted, PhaseNothingToReview, PhaseLoadFailed, PhaseClosed:
		return true
	}
	return false
}

// DefaultTimeout bounds every backend call made by a controller.
const DefaultTimeout = 10 * time.Second

// Result describes a successful submission. Persisted is set only when this
// call stored the review; Rating is zero otherwise.
type Result struct {
	VideoID   string  `json:"videoId"`
	Rating    int     `json:"rating,omitempty"`
	Persisted bool    `json:"persisted"`
	Completed bool    `json:"completed"`
	Position  int     `json:"position"`
	Earnings  float64 `json:"earnings,omitempty"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithWatchThreshold sets the watch time, in seconds, required per video.
func WithWatchThreshold(seconds int) Option {
	return func(c *Controller) {
		if seconds > 0 {
			c.required = seconds
		}
	}
}

// WithTimeout sets the per-call backend timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the controller's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// WithGateOptions passes options to the controller's watch gate.
func WithGateOptions(opts ...watchgate.Option) Option {
	return func(c *Controller) {
		c.gateOpts = append(c.gateOpts, opts...)
	}
}

// Controller drives one user through today's list: it loads and reconciles the
// list, gates rating behind the watch timer, persists ratings and decides
// completion from the locally tracked set of rated videos.
//
// All state transitions happen under mu. Backend calls are made without the
// lock; the Submitting phase is the guard against re-entrant submits.
type Controller struct {
	backend  Backend
	userID   string
	required int
	timeout  time.Duration
	log      zerolog.Logger
	gateOpts []watchgate.Option
	gate     *watchgate.Gate
	now      func() time.Time

	mu         sync.Mutex
	phase      Phase
	list       *model.DailyList
	videos     []model.Video
	position   int
	rating     int
	completed  map[string]struct{}
	earnings   float64
	closed     bool
	lastErr    string
	lastActive time.Time
}

// NewController returns a controller in the Loading phase. Call Load before
// any other operation.
func NewController(backend Backend, userID string, opts ...Option) *Controller {
	c := &Controller{
		backend:   backend,
		userID:    userID,
		required:  watchgate.DefaultRequired,
		timeout:   DefaultTimeout,
		log:       zerolog.Nop(),
		now:       time.Now,
		phase:     PhaseLoading,
		completed: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("user_hash", hash.Short(userID)).Logger()
	c.gate = watchgate.New(c.gateOpts...)
	c.lastActive = c.now()
	return c
}

// UserID returns the owner of the session.
func (c *Controller) UserID() string {
	return c.userID
}

// Load fetches today's list and its videos and seeds the completion set from
// the user's persisted reviews. Loading twice with the same persisted data
// yields the same position and completion set.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	c.phase = PhaseLoading
	c.touchLocked()
	c.mu.Unlock()

	list, videos, done, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrSessionClosed
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyCompleted):
			c.phase = PhaseAlreadyCompleted
		case errors.Is(err, ErrNothingToReview):
			c.phase = PhaseNothingToReview
		default:
			c.phase = PhaseLoadFailed
			c.lastErr = err.Error()
			c.log.Warn().Err(err).Msg("session: load failed")
		}
		return err
	}

	c.list = list
	c.videos = videos
	c.completed = done
	c.rating = 0
	c.lastErr = ""
	c.position = clampPosition(list.CurrentVideoIndex, len(videos))

	if len(done) >= len(videos) {
		// Every video is rated but the server has not marked the list
		// complete yet; the local set decides.
		c.log.Warn().
			Str("list_id", list.ListID).
			Int("server_completed", list.VideosCompleted).
			Msg("session: all videos rated but list not marked completed")
		c.completeLocked()
		return nil
	}

	c.phase = PhaseInProgress
	c.resetGateLocked()
	c.log.Info().
		Str("list_id", list.ListID).
		Int("position", c.position).
		Int("completed", len(done)).
		Msg("session: loaded")
	return nil
}

func (c *Controller) fetch(ctx context.Context) (*model.DailyList, []model.Video, map[string]struct{}, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	list, err := c.backend.GetOrCreateDailyList(callCtx, c.userID)
	cancel()
	if err != nil {
		return nil, nil, nil, err
	}
	if list == nil {
		return nil, nil, nil, fmt.Errorf("%w: empty list response", ErrMalformedList)
	}
	if list.IsCompleted {
		return nil, nil, nil, ErrAlreadyCompleted
	}
	if len(list.VideoIDs) == 0 {
		return nil, nil, nil, ErrNothingToReview
	}
	if len(list.VideoIDs) != model.ListSize {
		return nil, nil, nil, fmt.Errorf("%w: %d videos, want %d", ErrMalformedList, len(list.VideoIDs), model.ListSize)
	}

	callCtx, cancel = context.WithTimeout(ctx, c.timeout)
	fetched, err := c.backend.VideosByIDs(callCtx, list.VideoIDs)
	cancel()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch videos: %w", err)
	}
	videos := orderVideos(list.VideoIDs, fetched)
	if len(videos) == 0 {
		return nil, nil, nil, ErrNothingToReview
	}
	if len(videos) != len(list.VideoIDs) {
		return nil, nil, nil, fmt.Errorf("%w: metadata found for %d of %d videos", ErrMalformedList, len(videos), len(list.VideoIDs))
	}

	callCtx, cancel = context.WithTimeout(ctx, c.timeout)
	reviewed, err := c.backend.ReviewedVideoIDs(callCtx, c.userID, list.VideoIDs)
	cancel()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch reviews: %w", err)
	}

	inList := make(map[string]struct{}, len(list.VideoIDs))
	for _, id := range list.VideoIDs {
		inList[id] = struct{}{}
	}
	done := make(map[string]struct{}, len(reviewed))
	for _, id := range reviewed {
		if _, ok := inList[id]; ok {
			done[id] = struct{}{}
		}
	}
	return list, videos, done, nil
}

// StartWatching starts the watch timer for the current video.
func (c *Controller) StartWatching() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked()
	if c.closed {
		return ErrSessionClosed
	}
	if c.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	return c.gate.Start()
}

// SelectRating chooses the rating for the current video. Ratings can only be
// chosen once the watch gate is unlocked, and never for a video that already
// has a stored review.
func (c *Controller) SelectRating(rating int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked()
	if c.closed {
		return ErrSessionClosed
	}
	if c.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	if _, ok := c.completed[c.videos[c.position].ID]; ok {
		return ErrAlreadyRated
	}
	if !c.gate.Unlocked() {
		return ErrGateLocked
	}
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	c.rating = rating
	return nil
}

// Submit persists the selected rating for the current video and advances the
// list. A video already in the completion set is not inserted again and needs
// neither watch time nor a rating: only the advance is retried.
func (c *Controller) Submit(ctx context.Context) (Result, error) {
	c.mu.Lock()
	c.touchLocked()
	if c.closed {
		c.mu.Unlock()
		return Result{}, ErrSessionClosed
	}
	switch c.phase {
	case PhaseSubmitting:
		c.mu.Unlock()
		return Result{}, ErrSubmitInFlight
	case PhaseInProgress:
	default:
		c.mu.Unlock()
		return Result{}, ErrNotInProgress
	}
	pos := c.position
	video := c.videos[pos]
	_, reviewed := c.completed[video.ID]
	if !reviewed && !c.gate.Unlocked() {
		c.mu.Unlock()
		return Result{}, ErrGateLocked
	}
	if !reviewed && c.rating == 0 {
		c.mu.Unlock()
		return Result{}, ErrNoRating
	}
	rating := c.rating
	c.phase = PhaseSubmitting
	c.mu.Unlock()

	log := c.log.With().Str("video_id", video.ID).Int("position", pos).Logger()

	stored := false
	if !reviewed {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := c.backend.InsertReview(callCtx, model.Review{
			UserID:        c.userID,
			VideoID:       video.ID,
			Rating:        rating,
			EarningAmount: video.EarningAmount,
		})
		cancel()
		if err != nil && !errors.Is(err, ErrDuplicateReview) {
			return c.failSubmit(log, StageInsertReview, err)
		}
		if err != nil {
			log.Info().Msg("session: review already recorded, continuing")
		}
		stored = err == nil

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return Result{}, ErrSessionClosed
		}
		c.completed[video.ID] = struct{}{}
		c.mu.Unlock()
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	_, err := c.backend.UpdateListProgress(callCtx, c.userID, pos)
	cancel()
	if err != nil {
		return c.failSubmit(log, StageAdvance, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Result{}, ErrSessionClosed
	}
	c.lastErr = ""

	res := Result{VideoID: video.ID, Persisted: stored}
	if stored {
		res.Rating = rating
	}
	if len(c.completed) >= len(c.videos) {
		c.completeLocked()
		res.Completed = true
		res.Position = c.position
		res.Earnings = c.earnings
		log.Info().Float64("earnings", c.earnings).Msg("session: list completed")
		return res, nil
	}

	c.position = c.nextPositionLocked(pos)
	c.rating = 0
	c.phase = PhaseInProgress
	c.resetGateLocked()
	res.Position = c.position
	log.Debug().Int("next_position", c.position).Msg("session: review saved")
	return res, nil
}

func (c *Controller) failSubmit(log zerolog.Logger, stage string, err error) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Result{}, ErrSessionClosed
	}
	c.phase = PhaseInProgress
	c.lastErr = err.Error()
	log.Warn().Err(err).Str("stage", stage).Msg("session: submit failed")
	return Result{}, &SubmitError{Stage: stage, Err: err}
}

// Close tears the session down: the watch timer is cancelled and results of
// any in-flight submission are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.phase = PhaseClosed
	c.gate.Stop()
}

// LastActive returns the time of the last user-driven operation.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) touchLocked() {
	c.lastActive = c.now()
}

func (c *Controller) completeLocked() {
	c.phase = PhaseCompleted
	c.earnings = model.SumEarnings(c.videos)
	c.rating = 0
	c.gate.Stop()
}

// nextPositionLocked moves one step forward. At the end of the list, when
// earlier videos are still unrated because the server position ran ahead,
// it returns the first unrated position instead.
func (c *Controller) nextPositionLocked(pos int) int {
	if pos+1 < len(c.videos) {
		return pos + 1
	}
	for i, v := range c.videos {
		if _, ok := c.completed[v.ID]; !ok {
			return i
		}
	}
	return pos
}

func (c *Controller) resetGateLocked() {
	v := c.videos[c.position]
	if err := c.gate.Reset(v.ID, v.Locator(), c.required); err != nil {
		c.log.Warn().Err(err).Str("video_id", v.ID).Msg("session: video source unavailable")
	}
}

func clampPosition(index, n int) int {
	if index < 0 {
		return 0
	}
	if index >= n {
		return n - 1
	}
	return index
}

// orderVideos returns the videos in list order, skipping IDs with no metadata.
func orderVideos(ids []string, videos []model.Video) []model.Video {
	byID := make(map[string]model.Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}
	ordered := make([]model.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			ordered = append(ordered, v)
		}
	}
	return ordered
}
