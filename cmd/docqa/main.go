// Command docqa answers questions about a document collection using
// retrieval-augmented generation.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/app"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetLoader(cli.Loader{
		Settings: func(configDir string) (driving.SettingsService, error) {
			svc, err := app.NewSettingsService(configDir)
			if err != nil {
				return nil, err
			}
			return svc, nil
		},
		Pipeline: func(ctx context.Context, configDir string, settings domain.AppSettings) (*cli.Pipeline, error) {
			a, err := app.Build(ctx, settings, configDir)
			if err != nil {
				return nil, err
			}
			return &cli.Pipeline{
				Ingest:  a.Ingest,
				Query:   a.Query,
				ChatLog: a.ChatLog,
				Watcher: a.Watcher,
				Close:   a.Close,
			}, nil
		},
	})

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
