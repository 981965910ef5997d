package sessions

import (
	"context"
	"errors"
	"strings"

	"github.com/ppds/orchdash/internal/config"
	"github.com/ppds/orchdash/internal/models"
)

// Commander executes user-triggered actions against a running session.
type Commander interface {
	ForwardMessage(ctx context.Context, sessionID, message string) error
	CancelSession(ctx context.Context, sessionID string) error
}

var ErrInvalidSessionID = errors.New("invalid session id")

// Service is what UI layers talk to: an on-demand snapshot query, the two
// session commands, and a live event subscription fed by the watcher.
//
// Queries and commands hold no state of their own. Each call re-reads the
// directory or re-runs the command.
type Service struct {
	dir       string
	commander Commander
	events    *Broadcaster
	watcher   *Watcher
}

// NewService wires a watcher for cfg.SessionsDir that publishes to an
// in-process broadcaster and to any extra sinks.
func NewService(cfg *config.Config, commander Commander, extra ...Sink) *Service {
	events := NewBroadcaster(cfg.SubscriberBuffer)
	sinks := MultiSink{events}
	sinks = append(sinks, extra...)

	return &Service{
		dir:       cfg.SessionsDir,
		commander: commander,
		events:    events,
		watcher:   NewWatcher(WatcherOptionsFromConfig(cfg), sinks),
	}
}

// Dir returns the watched sessions directory.
func (s *Service) Dir() string {
	return s.dir
}

// GetSessions returns a fresh snapshot of every valid record.
func (s *Service) GetSessions() []*models.SessionRecord {
	return LoadAll(s.dir)
}

// SessionsByStem returns a fresh snapshot keyed by filename stem.
func (s *Service) SessionsByStem() map[string]*models.SessionRecord {
	return LoadByStem(s.dir)
}

// ForwardMessage relays a message to the session's worker through orch.
func (s *Service) ForwardMessage(ctx context.Context, sessionID, message string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	return s.commander.ForwardMessage(ctx, sessionID, message)
}

// CancelSession asks orch to cancel the session.
func (s *Service) CancelSession(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	return s.commander.CancelSession(ctx, sessionID)
}

// Subscribe registers for live session events.
func (s *Service) Subscribe() (<-chan *models.SessionEvent, func()) {
	return s.events.Subscribe()
}

// Start launches the background watcher. A failure here only disables live
// updates; queries and commands keep working.
func (s *Service) Start(ctx context.Context) error {
	return s.watcher.Start(ctx)
}

// Stop terminates the watcher and closes every subscription.
func (s *Service) Stop() {
	s.watcher.Stop()
	s.events.Close()
}

// WatcherState reports the background watcher's lifecycle state.
func (s *Service) WatcherState() WatcherState {
	return s.watcher.State()
}

// WatcherDone is closed when the background watcher exits.
func (s *Service) WatcherDone() <-chan struct{} {
	return s.watcher.Done()
}

func validateSessionID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidSessionID
	}
	return nil
}
