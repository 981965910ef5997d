package cmd

import (
	"encoding/json"
	"io"

	"github.com/ppds/orchdash/internal/models"
	"github.com/ppds/orchdash/internal/sessions"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "👀 Stream session events as JSON lines",
	Long: `# 👀 Watch Sessions

**Print one JSON session event per line** as records are created, changed or removed.

Logs go to stderr so the output can be piped straight into **jq**.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	configureLogging(cmd.ErrOrStderr())

	ctx, cancel := signalContext()
	defer cancel()

	watcher := sessions.NewWatcher(sessions.WatcherOptionsFromConfig(cfg), eventWriter(cmd.OutOrStdout()))
	return watcher.Run(ctx)
}

// eventWriter encodes each event as a single JSON line.
func eventWriter(out io.Writer) sessions.SinkFunc {
	encoder := json.NewEncoder(out)
	return func(event *models.SessionEvent) error {
		return encoder.Encode(event)
	}
}
