// Command fleetctl runs status refreshes and prints reports against the
// fleet database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ukydev/fleet-lifecycle/internal/app"
	"github.com/ukydev/fleet-lifecycle/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openApp).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.SetupLogging()
	return app.Open(ctx, cfg)
}
