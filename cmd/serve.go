package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"thermo-monitor/config"
	"thermo-monitor/internal/api/ingest"
	"thermo-monitor/internal/api/rest"
	"thermo-monitor/internal/api/telegram"
	"thermo-monitor/internal/container"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить REST API, Telegram-бота и приём показаний по MQTT",
	RunE:  runServe,
}

// runner компонент, работающий до отмены контекста
type runner func(ctx context.Context) error

// botFactory создаёт Telegram-бота; в тестах подменяется
type botFactory func(token string, c *container.Container, logger *zap.Logger) (runner, error)

func newTelegramBot(token string, c *container.Container, logger *zap.Logger) (runner, error) {
	bot, err := telegram.NewBot(token, c.UserService, c.MeasurementService, logger)
	if err != nil {
		return nil, err
	}
	return bot.Run, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Собираем сервисы приложения
	appContainer, err := container.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := appContainer.Close(); err != nil {
			logger.Warn("close container", zap.Error(err))
		}
	}()

	// Все компоненты создаются до запуска первой горутины
	runners, err := buildRunners(cfg, appContainer, newTelegramBot, logger)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, run := range runners {
		g.Go(func() error {
			return run(ctx)
		})
	}

	logger.Info("thermo-monitor is running", zap.String("http_addr", cfg.HTTPAddr))
	err = g.Wait()
	logger.Info("thermo-monitor stopped")
	return err
}

// buildRunners создаёт REST-сервер, бота и MQTT-приёмник по конфигурации
func buildRunners(cfg *config.Config, c *container.Container, newBot botFactory, logger *zap.Logger) ([]runner, error) {
	server := rest.NewServer(c.MeasurementService, cfg.MaxUploadSize, logger)
	runners := []runner{
		func(ctx context.Context) error { return server.Run(ctx, cfg.HTTPAddr) },
	}

	if cfg.TelegramToken != "" {
		bot, err := newBot(cfg.TelegramToken, c, logger)
		if err != nil {
			return nil, err
		}
		runners = append(runners, bot)
	} else {
		logger.Warn("TELEGRAM_TOKEN is not set, bot disabled")
	}

	if cfg.MQTTBroker != "" {
		listener := ingest.NewMQTTListener(cfg.MQTTBroker, cfg.MQTTTopic, c.MeasurementService, logger)
		runners = append(runners, listener.Run)
	}

	return runners, nil
}
