package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ppds/orchdash/internal/models"
)

type sessionEventMsg struct {
	event *models.SessionEvent
}
type streamClosedMsg struct{}
type snapshotMsg map[string]*models.SessionRecord

// Model is a live view of the sessions directory keyed by filename stem. It
// starts from a snapshot and applies events as they arrive; pressing r
// re-reads the snapshot.
type Model struct {
	dir       string
	load      func() map[string]*models.SessionRecord
	events    <-chan *models.SessionEvent
	sessions  map[string]*models.SessionRecord
	lastEvent string
	lastAt    time.Time
	closed    bool
}

// NewModel builds a monitor model. load is the snapshot query keyed by
// filename stem and events the live subscription.
func NewModel(dir string, load func() map[string]*models.SessionRecord, events <-chan *models.SessionEvent) Model {
	return Model{
		dir:      dir,
		load:     load,
		events:   events,
		sessions: make(map[string]*models.SessionRecord),
	}
}

// Run starts the interactive monitor and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadSnapshot(), waitForEvent(m.events))
}

func (m Model) loadSnapshot() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(m.load())
	}
}

func waitForEvent(events <-chan *models.SessionEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return sessionEventMsg{event: event}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.loadSnapshot()
		}

	case snapshotMsg:
		m.sessions = make(map[string]*models.SessionRecord, len(msg))
		for stem, record := range msg {
			m.sessions[stem] = record
		}

	case sessionEventMsg:
		ApplyEvent(m.sessions, msg.event)
		m.lastEvent = fmt.Sprintf("%s %s", msg.event.EventType, msg.event.Key())
		m.lastAt = time.Now()
		return m, waitForEvent(m.events)

	case streamClosedMsg:
		m.closed = true
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(fmt.Sprintf("Sessions · %s", m.dir)))
	b.WriteString("\n\n")
	b.WriteString(RenderSessionTable(m.Sessions()))
	b.WriteString("\n\n")

	status := "live"
	if m.closed {
		status = ErrorStyle.Render("live updates stopped")
	}
	footer := fmt.Sprintf("%d sessions · %s", len(m.sessions), status)
	if m.lastEvent != "" {
		footer += fmt.Sprintf(" · last: %s at %s", m.lastEvent, m.lastAt.Format("15:04:05"))
	}
	b.WriteString(MutedStyle.Render(footer))
	b.WriteString("\n")
	b.WriteString(KeyHighlightStyle.Render("r") + MutedStyle.Render(" reload  ") +
		KeyHighlightStyle.Render("q") + MutedStyle.Render(" quit"))

	return b.String()
}

// Sessions returns the current view, sorted for display.
func (m Model) Sessions() []*models.SessionRecord {
	records := make([]*models.SessionRecord, 0, len(m.sessions))
	for _, record := range m.sessions {
		records = append(records, record)
	}
	SortSessions(records)
	return records
}

// ApplyEvent folds one event into a view keyed by filename stem.
func ApplyEvent(view map[string]*models.SessionRecord, event *models.SessionEvent) {
	switch event.EventType {
	case models.SessionEventAdd, models.SessionEventUpdate:
		if event.Session != nil {
			view[event.Key()] = event.Session
		}
	case models.SessionEventRemove:
		delete(view, event.Key())
	}
}
