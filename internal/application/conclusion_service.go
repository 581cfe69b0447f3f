package app

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"thermo-monitor/internal/domain/entity"
	"thermo-monitor/internal/domain/port"
)

// DefaultProviderTimeout ограничение на одну попытку провайдера
const DefaultProviderTimeout = 20 * time.Second

// ConclusionService выбирает лучший доступный текст заключения:
// провайдеры опрашиваются по порядку, при неудаче всех возвращается шаблон.
type ConclusionService struct {
	providers []port.ConclusionProvider
	timeout   time.Duration
	logger    *zap.Logger
}

// NewConclusionService создаёт сервис. Пустой список провайдеров допустим.
func NewConclusionService(providers []port.ConclusionProvider, timeout time.Duration, logger *zap.Logger) *ConclusionService {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConclusionService{
		providers: providers,
		timeout:   timeout,
		logger:    logger,
	}
}

// Generate возвращает текст заключения. Ошибки провайдеров наружу не выходят.
func (s *ConclusionService) Generate(ctx context.Context, metrics entity.Metrics, level entity.RiskLevel, descriptions []string) string {
	if len(s.providers) > 0 {
		prompt := BuildPrompt(metrics, level, descriptions)
		for _, p := range s.providers {
			if ctx.Err() != nil {
				break
			}
			if text, ok := s.attempt(ctx, p, prompt); ok {
				return text
			}
		}
	}
	return GenerateConclusion(metrics, level, descriptions)
}

func (s *ConclusionService) attempt(ctx context.Context, p port.ConclusionProvider, prompt string) (text string, ok bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("conclusion provider panicked", zap.String("provider", p.Name()), zap.Any("panic", r))
			text, ok = "", false
		}
	}()

	start := time.Now()
	text, ok = p.Attempt(ctx, prompt)
	if err := ctx.Err(); err != nil {
		s.logger.Warn("conclusion provider timed out",
			zap.String("provider", p.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", false
	}

	text = strings.TrimSpace(text)
	if !ok || text == "" {
		s.logger.Debug("conclusion provider unavailable",
			zap.String("provider", p.Name()),
			zap.Duration("elapsed", time.Since(start)))
		return "", false
	}

	s.logger.Debug("conclusion generated",
		zap.String("provider", p.Name()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("length", len(text)))
	return text, true
}
