package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/ppds/orchdash/internal/config"
	"github.com/ppds/orchdash/internal/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "orchdash",
	Short: "📋 Orchdash - Live dashboard for orchestrated work sessions",
	Long: `# 📋 Orchdash

**Watches the orchestrator's session records and keeps a live view of every session.**

## ✨ Features

- 👀 **Live updates** from the sessions directory, with a polling fallback
- 🌐 **HTTP API** with Server-Sent Events and WebSocket streams
- 🖥️  **Interactive monitor** in the terminal
- 💬 **Forward messages** to a session or **cancel** it through orch

## 🚀 Getting Started

Run **orchdash monitor** to watch sessions in the terminal, or **orchdash serve** to expose them over HTTP.`,
	SilenceUsage: true,
}

var (
	configPath      string
	sessionsDir     string
	forcePoll       bool
	pollInterval    time.Duration
	orchBinary      string
	distinguishAdds bool
	dev             bool
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default ~/.orchestration/orchdash.yaml)")
	flags.StringVar(&sessionsDir, "sessions-dir", "", "Directory holding <id>.json session records")
	flags.BoolVar(&forcePoll, "poll", false, "Poll the sessions directory instead of using native notifications")
	flags.DurationVar(&pollInterval, "poll-interval", config.DefaultPollInterval, "Rescan interval when polling")
	flags.StringVar(&orchBinary, "orch-bin", "", "Path to the orch binary")
	flags.BoolVar(&distinguishAdds, "distinguish-adds", false, "Report first sightings of a session as \"add\" instead of \"update\"")
	flags.BoolVar(&dev, "dev", false, "Human-readable debug logging")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderMarkdownHelp(cmd)
	})
}

// loadConfig layers explicitly set flags over the file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	cfg.Normalize()
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("sessions-dir") {
		cfg.SessionsDir = sessionsDir
	}
	if flags.Changed("poll") {
		cfg.ForcePoll = forcePoll
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval = pollInterval
	}
	if flags.Changed("orch-bin") {
		cfg.OrchBinary = orchBinary
	}
	if flags.Changed("distinguish-adds") {
		cfg.DistinguishAdds = distinguishAdds
	}
}

// configureLogging sends logs to out. Commands that write data to stdout
// pass stderr.
func configureLogging(out io.Writer) {
	logger.ConfigureWriter(logger.GetLogLevelFromEnv(dev), dev, out)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// renderMarkdownHelp renders command help through glamour
func renderMarkdownHelp(cmd *cobra.Command) {
	var helpContent strings.Builder

	if cmd.Long != "" {
		helpContent.WriteString(cmd.Long)
		helpContent.WriteString("\n\n")
	} else if cmd.Short != "" {
		helpContent.WriteString("# " + cmd.Short)
		helpContent.WriteString("\n\n")
	}

	helpContent.WriteString("## 📖 Usage\n\n")
	helpContent.WriteString("```bash\n")
	helpContent.WriteString(cmd.UseLine())
	helpContent.WriteString("\n```\n\n")

	if cmd.HasAvailableSubCommands() {
		helpContent.WriteString("## 🔧 Available Commands\n\n")
		for _, subCmd := range cmd.Commands() {
			if subCmd.IsAvailableCommand() {
				helpContent.WriteString(fmt.Sprintf("- **%s** - %s\n", subCmd.Name(), subCmd.Short))
			}
		}
		helpContent.WriteString("\n")
	}

	if usages := cmd.LocalFlags().FlagUsages(); usages != "" {
		helpContent.WriteString("## ⚙️  Flags\n\n```\n")
		helpContent.WriteString(usages)
		helpContent.WriteString("```\n\n")
	}

	if cmd.HasParent() && cmd.InheritedFlags().HasFlags() {
		helpContent.WriteString("## 🌐 Global Flags\n\n```\n")
		helpContent.WriteString(cmd.InheritedFlags().FlagUsages())
		helpContent.WriteString("```\n\n")
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Fprint(cmd.OutOrStdout(), helpContent.String())
		return
	}

	rendered, err := renderer.Render(helpContent.String())
	if err != nil {
		fmt.Fprint(cmd.OutOrStdout(), helpContent.String())
		return
	}

	fmt.Fprint(cmd.OutOrStdout(), rendered)
}
