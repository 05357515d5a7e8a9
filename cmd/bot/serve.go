package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diegoclair/support-roster-bot/internal/config"
	slackcmd "github.com/diegoclair/support-roster-bot/internal/domain/slack"
	"github.com/diegoclair/support-roster-bot/internal/handlers"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Slack bot HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if err := cfg.RequireSlack(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.services.Announcement.Restore(ctx); err != nil {
		slog.Error("failed to restore announcements", "error", err)
	}

	reg := a.registry
	handler := handlers.New(
		a.slack,
		a.services.Rotation,
		a.services.Announcement,
		slackcmd.NewInterpreter(reg.Keywords()),
		a.messages,
		cfg.SlackSigningSecret,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /slack/events", handler.HandleEvents)
	mux.HandleFunc("POST /slack/commands", handler.HandleSlashCommand)
	mux.HandleFunc("GET /health", handler.HandleHealth)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "port", cfg.Port, "teams", reg.Teams())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		a.services.Scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
