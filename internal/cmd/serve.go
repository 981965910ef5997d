package cmd

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ppds/orchdash/internal/handlers"
	"github.com/ppds/orchdash/internal/logger"
	"github.com/ppds/orchdash/internal/orch"
	"github.com/ppds/orchdash/internal/recovery"
	"github.com/ppds/orchdash/internal/sessions"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "🌐 Serve sessions over HTTP",
	Long: `# 🌐 Serve Sessions

**Expose the session dashboard over HTTP.**

## 🔌 Endpoints
- **GET /v1/sessions** - snapshot of every valid session record
- **POST /v1/sessions/:id/forward** - forward a message through orch
- **POST /v1/sessions/:id/cancel** - cancel a session through orch
- **GET /v1/events** - Server-Sent Events stream of session events
- **GET /v1/ws** - the same stream over WebSocket
- **GET /health** - watcher state

If the watcher cannot start, the server keeps running without live updates.`,
	RunE: runServe,
}

var listenAddr string

const shutdownTimeout = 5 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Address to listen on (default 127.0.0.1:7421)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		cfg.ListenAddr = listenAddr
	}
	configureLogging(cmd.ErrOrStderr())

	ctx, cancel := signalContext()
	defer cancel()

	svc := sessions.NewService(cfg, orch.NewClient(cfg.OrchBinary))
	if err := svc.Start(ctx); err != nil {
		logger.Warnf("⚠️  Live updates disabled: %v", err)
	}
	defer svc.Stop()

	app := handlers.NewApp(svc)

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddr, err)
	}
	logger.Infof("🚀 Serving sessions from %s on http://%s", cfg.SessionsDir, ln.Addr())

	return serveUntilDone(ctx, app, svc, ln)
}

// serveUntilDone serves on ln until ctx ends. The service is stopped before
// the server drains so open event streams see their channels close and end.
func serveUntilDone(ctx context.Context, app *fiber.App, svc *sessions.Service, ln net.Listener) error {
	errCh := make(chan error, 1)
	recovery.SafeGo("http-server", func() {
		errCh <- app.Listener(ln)
	})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("🛑 Shutting down")
		svc.Stop()
		return app.ShutdownWithTimeout(shutdownTimeout)
	}
}
