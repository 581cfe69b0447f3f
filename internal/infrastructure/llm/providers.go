package llm

import (
	"go.uber.org/zap"

	"thermo-monitor/internal/domain/port"
)

// Config ключи и модели внешних провайдеров
type Config struct {
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiKey     string
	GeminiModel   string
	GeminiBaseURL string
}

// Providers собирает цепочку провайдеров в порядке опроса: OpenAI, затем Gemini.
// Провайдеры без ключа в цепочку не попадают.
func Providers(cfg Config, logger *zap.Logger) []port.ConclusionProvider {
	var providers []port.ConclusionProvider
	if cfg.OpenAIKey != "" {
		providers = append(providers, NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, logger))
	}
	if cfg.GeminiKey != "" {
		providers = append(providers, NewGemini(cfg.GeminiKey, cfg.GeminiModel, cfg.GeminiBaseURL, logger))
	}
	return providers
}
