package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/bookmarkvault/internal/client/cli"
	"github.com/dmitrijs2005/bookmarkvault/internal/client/config"
	"github.com/dmitrijs2005/bookmarkvault/internal/client/realtime"
	"github.com/dmitrijs2005/bookmarkvault/internal/client/remote"
	"github.com/dmitrijs2005/bookmarkvault/internal/logging"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	service := remote.New(cfg.ServiceURL, cfg.APIKey)
	feed := realtime.New(cfg.ServiceURL, cfg.APIKey, service.AccessToken, log)

	app := cli.NewApp(cfg, service, service, feed, log)
	app.SetTokenInstaller(func(accessToken string) {
		service.SetSession(accessToken, "")
	})

	app.Run(ctx)
}
