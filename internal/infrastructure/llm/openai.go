package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"thermo-monitor/internal/domain/port"
)

const (
	// DefaultOpenAIModel модель по умолчанию
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL адрес API по умолчанию
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	systemPrompt = "Ты медицинский ассистент для анализа термографических данных."
	maxTokens    = 500
	temperature  = 0.7
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenAI провайдер заключений через Chat Completions API
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	logger  *zap.Logger

	once   sync.Once
	client *http.Client
}

// NewOpenAI создаёт провайдера. Пустой ключ делает провайдера недоступным.
func NewOpenAI(apiKey, model, baseURL string, logger *zap.Logger) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAI{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.Named("openai"),
	}
}

// Name возвращает имя провайдера
func (p *OpenAI) Name() string {
	return "openai"
}

// Attempt запрашивает заключение. Таймаут задаёт контекст вызывающего.
func (p *OpenAI) Attempt(ctx context.Context, prompt string) (string, bool) {
	if p.apiKey == "" {
		return "", false
	}

	text, err := p.complete(ctx, prompt)
	if err != nil {
		p.logger.Warn("completion failed", zap.String("model", p.model), zap.Error(err))
		return "", false
	}
	return text, text != ""
}

func (p *OpenAI) httpClient() *http.Client {
	p.once.Do(func() {
		p.client = &http.Client{}
	})
	return p.client
}

func (p *OpenAI) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("API error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

var _ port.ConclusionProvider = (*OpenAI)(nil)
