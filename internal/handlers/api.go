package handlers

import (
	"context"

	"github.com/ppds/orchdash/internal/models"
	"github.com/ppds/orchdash/internal/sessions"
)

// SessionAPI is the slice of sessions.Service the HTTP layer needs.
type SessionAPI interface {
	GetSessions() []*models.SessionRecord
	ForwardMessage(ctx context.Context, sessionID, message string) error
	CancelSession(ctx context.Context, sessionID string) error
	Subscribe() (<-chan *models.SessionEvent, func())
	WatcherState() sessions.WatcherState
}
