package cmd

import (
	"strings"

	"github.com/ppds/orchdash/internal/logger"
	"github.com/ppds/orchdash/internal/orch"
	"github.com/ppds/orchdash/internal/sessions"
	"github.com/spf13/cobra"
)

var forwardCmd = &cobra.Command{
	Use:   "forward <session-id> <message...>",
	Short: "💬 Forward a message to a session",
	Long: `# 💬 Forward Message

**Relay a message to a running session** through **orch forward**.

If orch fails, its stderr output is printed and the command exits non-zero.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runForward,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <session-id>",
	Short: "🛑 Cancel a session",
	Long: `# 🛑 Cancel Session

**Ask orch to cancel a session** through **orch cancel**.

If orch fails, its stderr output is printed and the command exits non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func init() {
	rootCmd.AddCommand(forwardCmd)
	rootCmd.AddCommand(cancelCmd)
}

// commandService builds a Service for one-shot commands. The watcher is
// never started.
func commandService(cmd *cobra.Command) (*sessions.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	configureLogging(cmd.ErrOrStderr())
	return sessions.NewService(cfg, orch.NewClient(cfg.OrchBinary)), nil
}

func runForward(cmd *cobra.Command, args []string) error {
	svc, err := commandService(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	sessionID, message := args[0], strings.Join(args[1:], " ")
	if err := svc.ForwardMessage(ctx, sessionID, message); err != nil {
		return err
	}
	logger.Debugf("💬 Forwarded message to session %s", sessionID)
	cmd.Printf("Message forwarded to %s\n", sessionID)
	return nil
}

func runCancel(cmd *cobra.Command, args []string) error {
	svc, err := commandService(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	sessionID := args[0]
	if err := svc.CancelSession(ctx, sessionID); err != nil {
		return err
	}
	logger.Debugf("🛑 Cancelled session %s", sessionID)
	cmd.Printf("Session %s cancelled\n", sessionID)
	return nil
}
