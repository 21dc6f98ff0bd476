package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"session-attendance-bot/internal/api"
	"session-attendance-bot/internal/handler"
	"session-attendance-bot/pkg/telegram"
)

type serveOptions struct {
	holidaysFile string
	debug        bool
}

func newServeCommand() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API и Telegram бота",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.holidaysFile, "holidays", "", "загрузить производственный календарь (JSON) перед стартом")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "режим отладки Telegram API")
	return cmd
}

func runServe(ctx context.Context, opts *serveOptions) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if opts.holidaysFile != "" {
		count, err := a.nonWorkingDay.LoadFromJSON(opts.holidaysFile)
		if err != nil {
			return err
		}
		a.logger.WithField("count", count).Debug("Holidays refreshed before start")
	}

	if a.cfg.BaseAdminChatID != 0 {
		if _, err := a.users.EnsureAdmin(a.cfg.BaseAdminChatID, ""); err != nil {
			a.logger.WithError(err).Warn("Failed to initialize admin")
		} else {
			a.logger.Infof("Admin initialized with chat ID: %d", a.cfg.BaseAdminChatID)
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(a.users, a.sessions, a.attendance, a.logger)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Listen(a.cfg.HTTPAddr)
	}()

	var client *telegram.Client
	if a.cfg.BotEnabled() {
		client, err = telegram.NewClient(a.cfg.TelegramToken, opts.debug)
		if err != nil {
			return err
		}
		a.logger.Infof("Authorized on account %s", client.Bot.Self.UserName)

		botHandler := handler.NewHandler(client, a.users, a.sessions, a.attendance, a.nonWorkingDay, a.cfg, a.logger)
		go botHandler.HandleUpdates(client.Updates())
		a.logger.Info("Bot started. Press Ctrl+C to stop.")
	} else {
		a.logger.Warn("TELEGRAM_BOT_TOKEN is not set, running HTTP API only")
	}

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			a.logger.WithError(err).Error("HTTP server stopped")
			return err
		}
	}

	if client != nil {
		client.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("HTTP server shutdown failed")
	}

	a.logger.Info("Stopped gracefully")
	return nil
}
