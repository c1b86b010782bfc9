// Package watchgate enforces a minimum watch time before a video can be rated.
//
// The gate measures wall-clock time from the moment the viewer opts in to
// watching. It does not observe the media player, so buffering or pausing do
// not stop the clock.
package watchgate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/landtube/landtube-go/pkg/youtube"
)

// DefaultRequired is the watch time, in seconds, needed to unlock rating.
const DefaultRequired = 30

var (
	// ErrInvalidSource is returned when the media locator is not a playable
	// YouTube reference. The gate stays closed for that video.
	ErrInvalidSource = errors.New("invalid video source")
	// ErrNoVideo is returned by Start before any video was assigned.
	ErrNoVideo = errors.New("no video assigned")
)

// State is a point-in-time view of the gate.
type State struct {
	VideoID   string  `json:"videoId"`
	EmbedURL  string  `json:"embedUrl,omitempty"`
	Elapsed   int     `json:"elapsed"`
	Required  int     `json:"required"`
	Remaining int     `json:"remaining"`
	Progress  float64 `json:"progress"`
	Active    bool    `json:"active"`
	Unlocked  bool    `json:"unlocked"`
	Invalid   bool    `json:"invalid"`
}

// Option configures a Gate.
type Option func(*Gate)

// WithInterval overrides the tick period (one tick adds one second of watch time).
func WithInterval(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithUnlockHook registers fn to run once per video when the gate unlocks.
// fn runs on the ticking goroutine without the gate lock held.
func WithUnlockHook(fn func(videoID string)) Option {
	return func(g *Gate) {
		g.onUnlock = fn
	}
}

// Gate is a per-video watch timer. A single ticking goroutine exists while the
// gate is active; it is bound to the generation that started it and is
// cancelled whenever the video changes or the gate is stopped.
type Gate struct {
	interval time.Duration
	onUnlock func(videoID string)

	mu       sync.Mutex
	videoID  string
	ref      string
	required int
	elapsed  int
	active   bool
	unlocked bool
	invalid  bool

	gen    uint64
	cancel context.CancelFunc
}

// New returns an idle gate with no video assigned.
func New(opts ...Option) *Gate {
	g := &Gate{
		interval: time.Second,
		required: DefaultRequired,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Reset assigns a new video to the gate. Elapsed time, the active flag and the
// unlock state are cleared and any pending tick for the previous video is
// cancelled before Reset returns. A required value <= 0 uses DefaultRequired.
func (g *Gate) Reset(videoID, locator string, required int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopLocked()
	g.videoID = videoID
	g.elapsed = 0
	g.active = false
	g.unlocked = false
	g.required = required
	if g.required <= 0 {
		g.required = DefaultRequired
	}

	ref, ok := youtube.ParseVideoID(locator)
	g.ref = ref
	g.invalid = !ok
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidSource, locator)
	}
	return nil
}

// Start begins counting watch time. It is a no-op when the gate is already
// counting or already unlocked.
func (g *Gate) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.videoID == "" {
		return ErrNoVideo
	}
	if g.invalid {
		return ErrInvalidSource
	}
	if g.active || g.unlocked {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.active = true
	g.cancel = cancel
	go g.run(ctx, g.gen)
	return nil
}

// Stop cancels the ticking clock. Used on teardown; the gate keeps its
// counters but no further tick is applied until the next Reset and Start.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLocked()
}

// Snapshot returns the current gate state.
func (g *Gate) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := State{
		VideoID:   g.videoID,
		Elapsed:   g.elapsed,
		Required:  g.required,
		Remaining: max(g.required-g.elapsed, 0),
		Active:    g.active,
		Unlocked:  g.unlocked,
		Invalid:   g.invalid,
	}
	if g.required > 0 {
		s.Progress = min(float64(g.elapsed)/float64(g.required)*100, 100)
	}
	if !g.invalid && g.ref != "" {
		s.EmbedURL = youtube.EmbedURL(g.ref, g.active)
	}
	return s
}

// Unlocked reports whether the watch requirement has been met for the current video.
func (g *Gate) Unlocked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.unlocked
}

func (g *Gate) run(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !g.tick(gen) {
				return
			}
		}
	}
}

// tick applies one second of watch time if gen still owns the gate.
// It reports whether the clock should keep running.
func (g *Gate) tick(gen uint64) bool {
	g.mu.Lock()
	if gen != g.gen || !g.active {
		g.mu.Unlock()
		return false
	}

	if g.elapsed < g.required {
		g.elapsed++
	}

	fired := false
	if !g.unlocked && g.elapsed >= g.required {
		g.unlocked = true
		fired = true
		// The requirement is met; the clock has nothing left to gate.
		g.stopLocked()
	}
	videoID := g.videoID
	hook := g.onUnlock
	g.mu.Unlock()

	if fired && hook != nil {
		hook(videoID)
	}
	return !fired
}

// stopLocked invalidates the running generation and cancels its goroutine.
func (g *Gate) stopLocked() {
	g.gen++
	g.active = false
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}
