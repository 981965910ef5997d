package sessions

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppds/orchdash/internal/models"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func sampleRecord(id string) *models.SessionRecord {
	return &models.SessionRecord{
		ID:            id,
		IssueNumber:   42,
		IssueTitle:    "Make the dashboard live",
		Status:        models.SessionStatusWorking,
		Branch:        "issue-42",
		WorktreePath:  "/tmp/worktrees/issue-42",
		StartedAt:     "2026-10-16T09:00:00Z",
		LastHeartbeat: "2026-10-16T09:05:00Z",
	}
}

// writeRecord places a record file atomically so watchers see a single
// create for the final name.
func writeRecord(t *testing.T, dir, name string, record *models.SessionRecord) string {
	t.Helper()
	data, err := Encode(record)
	require.NoError(t, err)
	return writeRaw(t, dir, name, data)
}

func writeRaw(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	final := filepath.Join(dir, name)
	tmp := final + ".tmp"
	require.NoError(t, os.WriteFile(tmp, data, 0644))
	require.NoError(t, os.Rename(tmp, final))
	return final
}

type eventRecorder struct {
	ch chan *models.SessionEvent
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{ch: make(chan *models.SessionEvent, 64)}
}

func (r *eventRecorder) Publish(event *models.SessionEvent) error {
	r.ch <- event
	return nil
}

// next waits for the next event or fails the test.
func (r *eventRecorder) next(t *testing.T, timeout time.Duration) *models.SessionEvent {
	t.Helper()
	select {
	case event := <-r.ch:
		return event
	case <-time.After(timeout):
		t.Fatalf("no session event within %s", timeout)
		return nil
	}
}

// none asserts that nothing arrives for the given duration.
func (r *eventRecorder) none(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case event := <-r.ch:
		t.Fatalf("unexpected session event: %+v", event)
	case <-time.After(wait):
	}
}
