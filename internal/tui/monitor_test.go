package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ppds/orchdash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, issue int, status string) *models.SessionRecord {
	return &models.SessionRecord{
		ID:          id,
		IssueNumber: issue,
		IssueTitle:  "Issue " + id,
		Status:      status,
		Branch:      "issue-" + id,
	}
}

func TestApplyEvent(t *testing.T) {
	view := map[string]*models.SessionRecord{}

	ApplyEvent(view, models.NewUpsertEvent(models.SessionEventUpdate, record("a", 1, "working")))
	ApplyEvent(view, models.NewUpsertEvent(models.SessionEventAdd, record("b", 2, "planning")))
	require.Len(t, view, 2)

	ApplyEvent(view, models.NewUpsertEvent(models.SessionEventUpdate, record("a", 1, "stuck")))
	assert.Equal(t, "stuck", view["a"].Status)

	ApplyEvent(view, models.NewRemoveEvent("b"))
	assert.NotContains(t, view, "b")

	// Removing an unknown id is a no-op.
	ApplyEvent(view, models.NewRemoveEvent("missing"))
	assert.Len(t, view, 1)
}

func TestApplyEventAddressesByFileStem(t *testing.T) {
	view := map[string]*models.SessionRecord{}

	upsert := models.NewUpsertEvent(models.SessionEventUpdate, record("payload-id", 3, "working"))
	upsert.Stem = "file-stem"
	ApplyEvent(view, upsert)
	require.Contains(t, view, "file-stem")
	assert.Equal(t, "payload-id", view["file-stem"].ID)

	ApplyEvent(view, models.NewRemoveEvent("file-stem"))
	assert.Empty(t, view)
}

func TestRenderSessionTable(t *testing.T) {
	assert.Contains(t, RenderSessionTable(nil), "No sessions.")

	stuck := record("s1", 7, models.SessionStatusStuck)
	reason := "needs credentials"
	stuck.StuckReason = &reason
	passing := true
	stuck.WorktreeStatus = &models.WorktreeStatus{FilesChanged: 3, Insertions: 10, Deletions: 2, TestsPassing: &passing}

	out := RenderSessionTable([]*models.SessionRecord{stuck, record("s2", 8, models.SessionStatusWorking)})
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "s1")
	assert.Contains(t, out, "#7")
	assert.Contains(t, out, "3f +10 -2")
	assert.Contains(t, out, "needs credentials")
	assert.Contains(t, out, "s2")
}

func TestSortSessions(t *testing.T) {
	records := []*models.SessionRecord{record("c", 3, ""), record("b", 1, ""), record("a", 1, "")}
	SortSessions(records)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, "c", records[2].ID)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc…", truncate("abcdefgh", 4))
	assert.Equal(t, "…", truncate("abc", 1))
}

func TestModelUpdate(t *testing.T) {
	events := make(chan *models.SessionEvent, 1)
	load := func() map[string]*models.SessionRecord {
		return map[string]*models.SessionRecord{"a": record("a", 1, "working")}
	}
	m := NewModel("/tmp/sessions", load, events)

	next, _ := m.Update(snapshotMsg(load()))
	m = next.(Model)
	require.Len(t, m.Sessions(), 1)

	next, cmd := m.Update(sessionEventMsg{event: models.NewUpsertEvent(models.SessionEventUpdate, record("b", 2, "planning"))})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Len(t, m.Sessions(), 2)
	assert.Contains(t, m.View(), "update b")

	// The returned command reads the next event off the channel.
	events <- models.NewRemoveEvent("a")
	msg := cmd()
	next, _ = m.Update(msg)
	m = next.(Model)
	require.Len(t, m.Sessions(), 1)
	assert.Equal(t, "b", m.Sessions()[0].ID)

	close(events)
	next, _ = m.Update(waitForEvent(events)())
	m = next.(Model)
	assert.Contains(t, m.View(), "live updates stopped")
}

func TestModelQuitKeys(t *testing.T) {
	m := NewModel("dir", func() map[string]*models.SessionRecord { return nil }, nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	_, ok := cmd().(snapshotMsg)
	assert.True(t, ok)
}
