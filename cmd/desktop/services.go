//go:build desktop

package main

import (
	"context"

	"github.com/ppds/orchdash/internal/logger"
	"github.com/ppds/orchdash/internal/models"
	"github.com/ppds/orchdash/internal/sessions"
	"github.com/wailsapp/wails/v3/pkg/application"
)

// SessionDesktopService exposes the session service to the webview
type SessionDesktopService struct {
	svc *sessions.Service
}

// ServiceStartup starts the directory watcher with the application.
// A watcher failure is logged and the window still opens without live
// updates.
func (s *SessionDesktopService) ServiceStartup(ctx context.Context, options application.ServiceOptions) error {
	if err := s.svc.Start(ctx); err != nil {
		logger.Warnf("⚠️  Live updates disabled: %v", err)
	}
	return nil
}

// ServiceShutdown stops the watcher
func (s *SessionDesktopService) ServiceShutdown() error {
	s.svc.Stop()
	return nil
}

// GetSessions returns every valid session record
func (s *SessionDesktopService) GetSessions() []*models.SessionRecord {
	return s.svc.GetSessions()
}

// ForwardMessage relays a message to a session through orch. On failure the
// error text is orch's stderr.
func (s *SessionDesktopService) ForwardMessage(ctx context.Context, sessionID, message string) error {
	return s.svc.ForwardMessage(ctx, sessionID, message)
}

// CancelSession cancels a session through orch
func (s *SessionDesktopService) CancelSession(ctx context.Context, sessionID string) error {
	return s.svc.CancelSession(ctx, sessionID)
}

// WatcherState reports whether live updates are running
func (s *SessionDesktopService) WatcherState() string {
	return s.svc.WatcherState().String()
}
