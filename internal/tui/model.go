// Package tui is a terminal client that drives one review session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/landtube/landtube-go/internal/session"
)

// RefreshInterval is how often the view re-reads the session snapshot.
const RefreshInterval = 250 * time.Millisecond

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	slotDoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	slotCurStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
	slotTodoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type tickMsg time.Time

type loadedMsg struct{ err error }

type submittedMsg struct {
	res session.Result
	err error
}

// Model is the bubbletea model for one review session.
type Model struct {
	ctrl *session.Controller

	view       session.View
	bar        progress.Model
	loaded     bool
	submitting bool
	status     string
	statusErr  bool
	done       bool
	width      int
}

// New returns a model for ctrl. The session is loaded by Init.
func New(ctrl *session.Controller) Model {
	return Model{
		ctrl: ctrl,
		view: ctrl.Snapshot(),
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(loadCmd(m.ctrl), tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-10, 10), 60)
		return m, nil

	case tickMsg:
		if m.done {
			return m, nil
		}
		m.view = m.ctrl.Snapshot()
		return m, tick()

	case loadedMsg:
		m.loaded = true
		m.view = m.ctrl.Snapshot()
		switch {
		case errors.Is(msg.err, session.ErrAlreadyCompleted):
			m.setStatus("You've already completed today's list. Come back tomorrow.", false)
		case errors.Is(msg.err, session.ErrNothingToReview):
			m.setStatus("No videos available to review right now.", false)
		case msg.err != nil:
			m.setStatus("Failed to load videos: "+msg.err.Error(), true)
		case m.view.Phase == session.PhaseCompleted:
			m.setStatus("All videos reviewed for today.", false)
		default:
			m.setStatus("Press space to start watching.", false)
		}
		return m, nil

	case submittedMsg:
		m.submitting = false
		m.view = m.ctrl.Snapshot()
		switch {
		case msg.err != nil:
			m.setStatus(submitErrorText(msg.err), true)
		case msg.res.Completed:
			m.setStatus(fmt.Sprintf("Daily list complete! Earned $%.2f. Press q to exit.", msg.res.Earnings), false)
		default:
			m.setStatus("Review saved. Next video ready, press space to watch.", false)
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c", "esc":
		m.done = true
		m.ctrl.Close()
		return m, tea.Quit
	}
	if !m.loaded || m.submitting {
		return m, nil
	}

	switch key {
	case " ", "enter":
		if err := m.ctrl.StartWatching(); err != nil {
			m.setStatus(actionErrorText(err), true)
			break
		}
		m.setStatus("Watching...", false)
	case "1", "2", "3", "4", "5":
		rating := int(key[0] - '0')
		if err := m.ctrl.SelectRating(rating); err != nil {
			m.setStatus(actionErrorText(err), true)
			break
		}
		m.setStatus(fmt.Sprintf("Rating %d selected. Press s to submit.", rating), false)
	case "s":
		m.submitting = true
		m.setStatus("Submitting...", false)
		m.view = m.ctrl.Snapshot()
		return m, submitCmd(m.ctrl)
	}
	m.view = m.ctrl.Snapshot()
	return m, nil
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m Model) View() string {
	if m.done {
		return ""
	}
	v := m.view

	var b strings.Builder
	b.WriteString(titleStyle.Render("LandTube daily review"))
	b.WriteString("\n")
	if v.ListDate != nil {
		b.WriteString(mutedStyle.Render(v.ListDate.Format("Monday, Jan 2")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if !m.loaded {
		b.WriteString(mutedStyle.Render("Loading your videos..."))
		b.WriteString("\n")
		return b.String()
	}

	if len(v.Items) > 0 {
		b.WriteString(renderSlots(v))
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d of %d reviewed, %d remaining, $%.2f earnable",
			v.Completed, v.Total, v.Remaining, v.Earnable)))
		b.WriteString("\n\n")
	}

	if v.Current != nil {
		b.WriteString(panelStyle.Render(m.renderCurrent(v)))
		b.WriteString("\n")
	}

	if len(v.Items) > 0 {
		b.WriteString(renderList(v.Items))
		b.WriteString("\n")
	}

	if m.status != "" {
		style := okStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("space watch · 1-5 rate · s submit · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderCurrent(v session.View) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(v.Current.Title))
	b.WriteString("\n")
	if v.Gate.EmbedURL != "" {
		b.WriteString(mutedStyle.Render(v.Gate.EmbedURL))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("Earn $%.2f\n\n", v.Current.EarningAmount))

	g := v.Gate
	switch {
	case g.Invalid:
		b.WriteString(errorStyle.Render("Video unavailable"))
	case g.Unlocked:
		b.WriteString(m.bar.ViewAs(1))
		b.WriteString("\n")
		b.WriteString(okStyle.Render("Rating unlocked"))
	default:
		b.WriteString(m.bar.ViewAs(g.Progress / 100))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Keep watching %ds to unlock rating", g.Remaining)))
	}
	b.WriteString("\n\n")
	b.WriteString(renderRating(v.Rating, v.CanRate))
	return b.String()
}

func renderSlots(v session.View) string {
	var b strings.Builder
	for i, it := range v.Items {
		label := fmt.Sprintf(" %d ", i+1)
		switch it.Status {
		case session.ItemReviewed:
			b.WriteString(slotDoneStyle.Render(label))
		case session.ItemWatching:
			b.WriteString(slotCurStyle.Render(label))
		default:
			b.WriteString(slotTodoStyle.Render(label))
		}
	}
	return b.String()
}

func renderRating(selected int, enabled bool) string {
	stars := make([]string, 0, 5)
	for r := 1; r <= 5; r++ {
		star := "☆"
		if r <= selected {
			star = "★"
		}
		stars = append(stars, star)
	}
	line := strings.Join(stars, " ")
	if !enabled {
		return mutedStyle.Render(line)
	}
	return okStyle.Render(line)
}

func renderList(items []session.Item) string {
	var b strings.Builder
	for _, it := range items {
		marker := "  "
		style := mutedStyle
		switch it.Status {
		case session.ItemReviewed:
			marker = "✓ "
			style = slotDoneStyle
		case session.ItemWatching:
			marker = "▶ "
			style = lipgloss.NewStyle().Bold(true)
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%-40s $%.2f", marker, truncate(it.Title, 40), it.EarningAmount)))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func actionErrorText(err error) string {
	switch {
	case errors.Is(err, session.ErrGateLocked):
		return "Keep watching to unlock rating."
	case errors.Is(err, session.ErrAlreadyRated):
		return "Already rated. Press s to continue."
	case errors.Is(err, session.ErrNotInProgress):
		return "Nothing to review in this session."
	case errors.Is(err, session.ErrSessionClosed):
		return "Session closed."
	}
	return err.Error()
}

func submitErrorText(err error) string {
	var serr *session.SubmitError
	switch {
	case errors.Is(err, session.ErrNoRating):
		return "Please select a rating."
	case errors.Is(err, session.ErrGateLocked):
		return "Keep watching to unlock rating."
	case errors.As(err, &serr) && serr.Stage == session.StageAdvance:
		return "Review saved but progress could not be updated. Press s to retry."
	case errors.As(err, &serr):
		return "Failed to save review. Press s to retry."
	}
	return actionErrorText(err)
}

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func loadCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: ctrl.Load(context.Background())}
	}
}

func submitCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		res, err := ctrl.Submit(context.Background())
		return submittedMsg{res: res, err: err}
	}
}
