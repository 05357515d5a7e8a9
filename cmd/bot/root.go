package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/diegoclair/support-roster-bot/internal/config"
	"github.com/diegoclair/support-roster-bot/internal/database"
	"github.com/diegoclair/support-roster-bot/internal/domain/registry"
	"github.com/diegoclair/support-roster-bot/internal/domain/service"
	slackcmd "github.com/diegoclair/support-roster-bot/internal/domain/slack"
	"github.com/diegoclair/support-roster-bot/migrator/sqlite"
	"github.com/joho/godotenv"
	"github.com/slack-go/slack"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "support-roster-bot",
		Short: "Slack bot keeping a weekly support roster per team",
		Long: `support-roster-bot rotates on-call assignees for each support team,
takes roster changes through Slack mentions and slash commands, and
announces the assignees once a week.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to load .env: %w", err)
			}

			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg

			setupLogger(cfg)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (yaml, toml or json); environment variables take precedence")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newRosterCmd(opts),
	)

	return cmd
}

func setupLogger(cfg *config.Config) {
	handlerOpts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}

	slog.SetDefault(slog.New(handler))
}

// app is everything a command needs on top of the config
type app struct {
	cfg      *config.Config
	db       *database.DB
	registry *registry.Registry
	messages slackcmd.Messages
	slack    *slack.Client
	services *service.Instance
}

// newApp opens and migrates the database and wires the services
func newApp(cfg *config.Config) (*app, error) {
	reg, err := registry.New(cfg.RosterTeams...)
	if err != nil {
		return nil, err
	}

	trigger, err := cfg.Trigger()
	if err != nil {
		return nil, err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	messages := slackcmd.Messages{
		BotName:  cfg.BotName,
		Teams:    reg.Teams(),
		Schedule: trigger.String(),
	}

	slackClient := slack.New(cfg.SlackBotToken)

	services := service.NewInstance(database.NewInstance(db), slackClient, reg, service.Options{
		Trigger:  trigger,
		Messages: messages,
	})

	return &app{
		cfg:      cfg,
		db:       db,
		registry: reg,
		messages: messages,
		slack:    slackClient,
		services: services,
	}, nil
}

func openDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	slog.Info("running migrations", "path", cfg.DatabasePath)
	if err := sqlite.Migrate(db.DB()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func (a *app) Close() {
	a.services.Scheduler.Stop()
	if err := a.db.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
}
