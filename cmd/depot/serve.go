package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/crewmint/depot/internal/api"
	"github.com/crewmint/depot/internal/config"
	"github.com/crewmint/depot/internal/db"
	"github.com/crewmint/depot/internal/notify"
	"github.com/crewmint/depot/internal/notify/discord"
	notifyslack "github.com/crewmint/depot/internal/notify/slack"
	"github.com/crewmint/depot/internal/schedule"
	"github.com/crewmint/depot/internal/storage"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Depot API server",
		Long:  "Loads config, migrates the database, starts the background scheduler and the HTTP API. Stops cleanly on SIGINT/SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "depot.yaml", "path to Depot config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	logger.Info("database ready", zap.String("driver", cfg.Database.Driver))

	store := storage.NewLocal(cfg.Storage.BaseDir, logger)

	dispatcher, err := newDispatcher(cfg.Alerts, logger)
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Scheduler.Enabled {
		sched, err := schedule.New(schedule.Opts{
			DB:           gormDB,
			Dispatcher:   dispatcher,
			Logger:       logger,
			LowStockSpec: cfg.Scheduler.LowStockSpec,
		})
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	return api.Start(ctx, api.StartOpts{
		DB:     gormDB,
		Store:  store,
		Logger: logger,
		Port:   cfg.Server.Port,
	})
}

// newLogger builds the zap logger from the logging config.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// newDispatcher wires the configured chat adapters. A channel left empty in
// the config disables that adapter.
func newDispatcher(cfg config.AlertsConfig, logger *zap.Logger) (*notify.Dispatcher, error) {
	var adapters []notify.Adapter

	if cfg.Slack.ChannelID != "" {
		a, err := notifyslack.New(notifyslack.AdapterOpts{
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
		logger.Info("slack alerts enabled", zap.String("channel", cfg.Slack.ChannelID))
	}
	if cfg.Discord.ChannelID != "" {
		a, err := discord.New(discord.AdapterOpts{
			BotToken:  cfg.Discord.BotToken,
			ChannelID: cfg.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
		logger.Info("discord alerts enabled", zap.String("channel", cfg.Discord.ChannelID))
	}

	return notify.NewDispatcher(logger, adapters...), nil
}
