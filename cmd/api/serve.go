package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pet-records/internal/router"
	"pet-records/internal/supervisor"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Levanta la API HTTP y los workers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	tree := supervisor.NewTree(a.log, supervisor.TreeConfig{ShutdownTimeout: a.cfg.Server.ShutdownTimeout})

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      router.Handler(a.services, a.opts),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}
	tree.AddAPI(supervisor.NewHTTPService(srv, a.cfg.Server.ShutdownTimeout))
	tree.AddWorker(a.outboxWorker())

	if a.cfg.Jobs.Enabled {
		tree.AddWorker(a.reminderJob())
		tree.AddWorker(a.welcomeJob())
	}

	a.log.Info("starting server", map[string]any{
		"addr":      srv.Addr,
		"jobs":      a.cfg.Jobs.Enabled,
		"postgres":  a.opts.DB != nil,
		"auth_mode": string(a.cfg.Auth.Mode),
	})

	err = tree.Serve(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		a.log.Info("server stopped", nil)
		return nil
	}
	return err
}
