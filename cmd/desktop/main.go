//go:build desktop

package main

import (
	"embed"
	"log"

	"github.com/ppds/orchdash/internal/config"
	"github.com/ppds/orchdash/internal/logger"
	"github.com/ppds/orchdash/internal/models"
	"github.com/ppds/orchdash/internal/orch"
	"github.com/ppds/orchdash/internal/sessions"
	"github.com/wailsapp/wails/v3/pkg/application"
)

//go:embed all:frontend
var assets embed.FS

func main() {
	logger.Configure(logger.GetLogLevelFromEnv(false), false)

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal(err)
	}

	desktop := &SessionDesktopService{}

	app := application.New(application.Options{
		Name:        "Orchdash",
		Description: "Live dashboard for orchestrated work sessions",
		Services: []application.Service{
			application.NewService(desktop),
		},
		Assets: application.AssetOptions{
			Handler: application.AssetFileServerFS(assets),
		},
		Mac: application.MacOptions{
			ApplicationShouldTerminateAfterLastWindowClosed: true,
		},
	})

	// Every watcher event is pushed to the webview under "session-event".
	emit := sessions.SinkFunc(func(event *models.SessionEvent) error {
		app.Event.Emit(models.SessionEventName, event)
		return nil
	})
	desktop.svc = sessions.NewService(cfg, orch.NewClient(cfg.OrchBinary), emit)

	app.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:     "Orchdash",
		Width:     1200,
		Height:    800,
		MinWidth:  720,
		MinHeight: 480,
		Mac: application.MacWindow{
			InvisibleTitleBarHeight: 50,
			Backdrop:                application.MacBackdropTranslucent,
			TitleBar:                application.MacTitleBarHiddenInset,
		},
		BackgroundColour: application.NewRGB(15, 23, 42),
		URL:              "/",
	})

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
