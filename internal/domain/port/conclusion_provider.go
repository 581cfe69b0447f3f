package port

import "context"

// ConclusionProvider генератор текста заключения (внешняя языковая модель).
type ConclusionProvider interface {
	// Name возвращает имя провайдера для логов
	Name() string

	// Attempt пытается сгенерировать заключение по промпту.
	// false означает, что провайдер недоступен или ответ пустой.
	Attempt(ctx context.Context, prompt string) (string, bool)
}
