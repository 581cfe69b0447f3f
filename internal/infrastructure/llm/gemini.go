package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"thermo-monitor/internal/domain/port"
)

// DefaultGeminiModel модель по умолчанию
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini провайдер заключений через Google GenAI SDK
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	logger  *zap.Logger

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGemini создаёт провайдера. Клиент SDK создаётся при первом обращении.
// Пустой baseURL означает адрес Gemini API по умолчанию.
func NewGemini(apiKey, model, baseURL string, logger *zap.Logger) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gemini{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		logger:  logger.Named("gemini"),
	}
}

// Name возвращает имя провайдера
func (p *Gemini) Name() string {
	return "gemini"
}

// Attempt запрашивает заключение у модели
func (p *Gemini) Attempt(ctx context.Context, prompt string) (string, bool) {
	if p.apiKey == "" {
		return "", false
	}

	client, err := p.getClient()
	if err != nil {
		p.logger.Warn("client unavailable", zap.Error(err))
		return "", false
	}

	resp, err := client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](temperature),
		MaxOutputTokens:   maxTokens,
	})
	if err != nil {
		p.logger.Warn("generate content failed", zap.String("model", p.model), zap.Error(err))
		return "", false
	}

	text := strings.TrimSpace(resp.Text())
	return text, text != ""
}

func (p *Gemini) getClient() (*genai.Client, error) {
	p.once.Do(func() {
		cfg := &genai.ClientConfig{
			APIKey:  p.apiKey,
			Backend: genai.BackendGeminiAPI,
		}
		if p.baseURL != "" {
			cfg.HTTPOptions.BaseURL = p.baseURL
		}
		p.client, p.initErr = genai.NewClient(context.Background(), cfg)
		if p.initErr != nil {
			p.initErr = fmt.Errorf("create genai client: %w", p.initErr)
		}
	})
	return p.client, p.initErr
}

var _ port.ConclusionProvider = (*Gemini)(nil)
