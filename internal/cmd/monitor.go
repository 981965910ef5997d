package cmd

import (
	"github.com/ppds/orchdash/internal/logger"
	"github.com/ppds/orchdash/internal/orch"
	"github.com/ppds/orchdash/internal/sessions"
	"github.com/ppds/orchdash/internal/tui"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "🖥️  Monitor sessions in an interactive TUI",
	Long: `# 🖥️  Monitor Sessions

**Open a live terminal view** of every session.

## ⌨️  Keys
- **r** - reload the snapshot from disk
- **q** - quit`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// The TUI owns the terminal; only errors reach stderr.
	level := logger.LevelError
	if dev {
		level = logger.GetLogLevelFromEnv(dev)
	}
	logger.ConfigureWriter(level, dev, cmd.ErrOrStderr())

	ctx, cancel := signalContext()
	defer cancel()

	svc := sessions.NewService(cfg, orch.NewClient(cfg.OrchBinary))
	events, unsubscribe := svc.Subscribe()
	defer unsubscribe()

	if err := svc.Start(ctx); err != nil {
		logger.Errorf("❌ Live updates disabled: %v", err)
	}
	defer svc.Stop()

	return tui.Run(ctx, tui.NewModel(svc.Dir(), svc.SessionsByStem, events))
}
