package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppds/orchdash/internal/config"
	"github.com/ppds/orchdash/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withGlobalFlags returns a command sharing the root's persistent flags and
// restores them when the test ends.
func withGlobalFlags(t *testing.T) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	c.Flags().AddFlagSet(rootCmd.PersistentFlags())
	t.Cleanup(func() {
		rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	})
	return c
}

func TestApplyFlagsOnlyOverridesChanged(t *testing.T) {
	c := withGlobalFlags(t)
	dir := filepath.Join(t.TempDir(), "sessions")

	require.NoError(t, c.Flags().Set("sessions-dir", dir))
	require.NoError(t, c.Flags().Set("poll", "true"))
	require.NoError(t, c.Flags().Set("poll-interval", "250ms"))

	cfg := config.Default()
	cfg.OrchBinary = "/opt/orch"
	applyFlags(c, cfg)

	assert.Equal(t, dir, cfg.SessionsDir)
	assert.True(t, cfg.ForcePoll)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "/opt/orch", cfg.OrchBinary, "unset flags leave config alone")
	assert.False(t, cfg.DistinguishAdds)
}

func TestEventWriterWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	write := eventWriter(&buf)

	require.NoError(t, write(models.NewUpsertEvent(models.SessionEventUpdate, &models.SessionRecord{ID: "s1", Status: "working"})))
	require.NoError(t, write(models.NewRemoveEvent("s1")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "update", first["eventType"])
	assert.Nil(t, first["sessionId"])

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "remove", second["eventType"])
	assert.Equal(t, "s1", second["sessionId"])
	assert.Nil(t, second["session"])
}

func TestWriteSessions(t *testing.T) {
	records := []*models.SessionRecord{
		{ID: "b", IssueNumber: 2, Status: "working"},
		{ID: "a", IssueNumber: 1, Status: "stuck"},
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSessions(&buf, records, true))

		var decoded []models.SessionRecord
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 2)
		assert.Equal(t, "b", decoded[0].ID)
	})

	t.Run("json empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSessions(&buf, []*models.SessionRecord{}, true))
		assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSessions(&buf, records, false))
		out := buf.String()
		assert.Contains(t, out, "STATUS")
		assert.Less(t, strings.Index(out, "#1"), strings.Index(out, "#2"))
	})
}

func TestIsTerminalRejectsBuffers(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "watch", "list", "forward", "cancel", "monitor"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestForwardRequiresMessage(t *testing.T) {
	assert.Error(t, forwardCmd.Args(forwardCmd, []string{"s1"}))
	assert.NoError(t, forwardCmd.Args(forwardCmd, []string{"s1", "hello", "there"}))
	assert.Error(t, cancelCmd.Args(cancelCmd, []string{}))
}
