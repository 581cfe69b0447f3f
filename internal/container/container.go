package container

import (
	"fmt"

	"go.uber.org/zap"

	"thermo-monitor/config"
	app "thermo-monitor/internal/application"
	"thermo-monitor/internal/domain/port"
	"thermo-monitor/internal/infrastructure/llm"
	"thermo-monitor/internal/infrastructure/sensor"
	"thermo-monitor/internal/infrastructure/storage"
	"thermo-monitor/internal/infrastructure/vision"
)

type Container struct {
	UserService        *app.UserService
	MeasurementService *app.MeasurementService
	Engine             *app.Engine
	Extractor          port.ThermalExtractor

	repo *storage.SQLiteMeasurementRepository
}

// New собирает сервисы приложения по конфигурации
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	repo, err := storage.NewSQLiteMeasurementRepository(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	images, err := storage.NewFileImageStorage(cfg.UploadDir)
	if err != nil {
		repo.Close()
		return nil, err
	}

	providers := llm.Providers(llm.Config{
		OpenAIKey:     cfg.OpenAIKey,
		OpenAIModel:   cfg.OpenAIModel,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		GeminiKey:     cfg.GeminiKey,
		GeminiModel:   cfg.GeminiModel,
		GeminiBaseURL: cfg.GeminiBaseURL,
	}, logger)
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	logger.Info("conclusion providers configured", zap.Strings("providers", names))

	engine := NewEngine(cfg, providers, logger)
	extractor := vision.NewColorMappingExtractor()

	measurements := app.NewMeasurementService(app.MeasurementOptions{
		Engine:        engine,
		Repo:          repo,
		Sensor:        sensor.NewSimulated(),
		Extractor:     extractor,
		Images:        images,
		MaxUploadSize: cfg.MaxUploadSize,
		Logger:        logger.Named("measurements"),
	})

	return &Container{
		UserService:        app.NewUserService(storage.NewMemoryUserRepository()),
		MeasurementService: measurements,
		Engine:             engine,
		Extractor:          extractor,
		repo:               repo,
	}, nil
}

// NewEngine собирает движок анализа без хранилища (используется и командой analyze)
func NewEngine(cfg *config.Config, providers []port.ConclusionProvider, logger *zap.Logger) *app.Engine {
	analyzer := app.NewAnalyzer(app.Thresholds{
		AsymmetryNormal:   cfg.AsymmetryNormal,
		AsymmetryElevated: cfg.AsymmetryElevated,
		TempNormalMax:     cfg.TempNormalMax,
		TempElevatedMax:   cfg.TempElevatedMax,
	})
	conclusions := app.NewConclusionService(providers, cfg.LLMTimeout, logger.Named("conclusion"))
	return app.NewEngine(analyzer, conclusions)
}

// Close освобождает ресурсы
func (c *Container) Close() error {
	if err := c.repo.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
