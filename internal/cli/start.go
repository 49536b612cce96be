package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"levelup-gatekeeper/internal/app"
	"levelup-gatekeeper/internal/config"
	"levelup-gatekeeper/internal/domain"
	"levelup-gatekeeper/internal/transport/discord"
	transport "levelup-gatekeeper/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand that connects the bot.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Connect to Discord and gate quiz attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), *configPath, *port)
		},
	}
}

func runBot(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stdout)

	if cfg.Discord.Token == "" {
		return errors.New("discord token not configured")
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	roles, err := config.NewRoleStore(cfg.Roles.Path)
	if err != nil {
		return err
	}
	log.Info("role settings loaded", "path", cfg.Roles.Path, "guilds", roles.Snapshot().GuildIDs())

	store, closeStore, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	reports, closeReports := buildReports(cfg)
	defer closeReports()

	bot, err := discord.New(cfg.Discord.Token)
	if err != nil {
		return err
	}

	feed := app.NewFeed()
	service := app.NewService(app.Dependencies{
		Settings:  roles,
		Ledger:    store,
		Passed:    store,
		Reports:   reports,
		Platform:  bot,
		Feed:      feed,
		Logger:    log,
		QuizBotID: cfg.Discord.QuizBotID,
	})

	eventCtx, cancelEvents := context.WithCancel(context.Background())
	defer cancelEvents()
	removeHandler := bot.Listen(eventCtx, func(ctx context.Context, msg domain.Message) {
		if err := service.HandleMessage(ctx, msg); err != nil {
			log.Error("handle message", "guild", msg.GuildID, "message", msg.ID, "error", err)
		}
	})
	defer removeHandler()

	if err := bot.Open(); err != nil {
		return err
	}
	defer bot.Close()
	log.Info("connected to discord")

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewMux(feed, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		log.Info("starting feed server", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("feed server failed", "error", err)
		}
	}()

	waitForShutdown(ctx, log, roles)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// waitForShutdown blocks until SIGINT/SIGTERM; SIGHUP reloads the role settings.
func waitForShutdown(ctx context.Context, log *slog.Logger, roles *config.RoleStore) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)

	for {
		select {
		case sig := <-signals:
			if sig != syscall.SIGHUP {
				log.Info("shutting down", "signal", sig.String())
				return
			}
			if err := roles.Refresh(); err != nil {
				log.Error("reload role settings, keeping previous", "error", err)
				continue
			}
			log.Info("role settings reloaded", "guilds", roles.Snapshot().GuildIDs())
		case <-ctx.Done():
			log.Info("context canceled, shutting down")
			return
		}
	}
}
