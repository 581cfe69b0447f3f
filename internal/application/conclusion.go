package app

import (
	"fmt"
	"strings"

	"thermo-monitor/internal/domain/entity"
)

// GenerateConclusion формирует заключение по шаблону уровня риска.
// Результат детерминирован для одинаковых входных данных.
func GenerateConclusion(metrics entity.Metrics, level entity.RiskLevel, descriptions []string) string {
	var b strings.Builder

	switch level {
	case entity.RiskNormal:
		b.WriteString("✅ Все показатели в пределах нормы.\n\n")
		writeSides(&b, metrics)
		b.WriteString("Температурное распределение симметричное, признаков аномалий не обнаружено.\n\n")
		b.WriteString("Рекомендуется продолжать регулярный мониторинг. ")
		b.WriteString("Система является вспомогательным инструментом и не заменяет консультацию врача-маммолога.")

	case entity.RiskElevated:
		b.WriteString("⚠️ Обнаружены незначительные отклонения.\n\n")
		writeSides(&b, metrics)
		writeDeviations(&b, descriptions)
		b.WriteString("\nРекомендации: Повторите измерение через 24-48 часов. ")
		b.WriteString("При сохранении асимметрии рекомендуется консультация специалиста.\n\n")
		b.WriteString("Данная система не является медицинским диагностическим устройством ")
		b.WriteString("и не заменяет консультацию специалиста.")

	default:
		b.WriteString("🔴 Обнаружены значимые отклонения от нормы.\n\n")
		writeSides(&b, metrics)
		writeDeviations(&b, descriptions)
		b.WriteString("\n⚠️ ВАЖНО: Рекомендуется обратиться к врачу-маммологу ")
		b.WriteString("для дополнительного обследования.\n\n")
		b.WriteString("Данная система не является медицинским диагностическим устройством ")
		b.WriteString("и не заменяет консультацию специалиста.")
	}

	return b.String()
}

func writeSides(b *strings.Builder, m entity.Metrics) {
	fmt.Fprintf(b, "Средняя температура левой груди: %s°C\n", formatTemp(m.AvgLeft))
	fmt.Fprintf(b, "Средняя температура правой груди: %s°C\n", formatTemp(m.AvgRight))
	fmt.Fprintf(b, "Асимметрия: %s°C\n\n", formatTemp(m.Asymmetry))
}

func writeDeviations(b *strings.Builder, descriptions []string) {
	b.WriteString("Выявленные отклонения:\n")
	for _, d := range descriptions {
		fmt.Fprintf(b, "• %s\n", d)
	}
}

// BuildPrompt собирает промпт для языковой модели
func BuildPrompt(metrics entity.Metrics, level entity.RiskLevel, descriptions []string) string {
	deviations := "нет"
	if len(descriptions) > 0 {
		deviations = strings.Join(descriptions, ", ")
	}

	return fmt.Sprintf(`Ты медицинский ассистент системы мониторинга температуры молочных желез.
Сгенерируй краткое заключение по результатам термографического анализа.

Данные измерения:
- Средняя температура левой груди: %s°C
- Средняя температура правой груди: %s°C
- Температурная асимметрия: %s°C
- Максимальная температура: %s°C
- Уровень риска: %s
- Выявленные отклонения: %s

Требования к заключению:
1. Объясни результаты простым языком
2. Укажи возможные причины отклонений (если есть)
3. Дай рекомендации по дальнейшим действиям
4. ОБЯЗАТЕЛЬНО укажи, что система не заменяет врачебную консультацию
5. Не ставь диагнозы, говори только о температурных показателях

Формат: 2-3 абзаца, без заголовков. Пиши на русском языке.`,
		formatTemp(metrics.AvgLeft),
		formatTemp(metrics.AvgRight),
		formatTemp(metrics.Asymmetry),
		formatTemp(metrics.MaxTemp),
		level,
		deviations,
	)
}

// formatTemp печатает число без лишних нулей: 36.4, 36.85, 0
func formatTemp(v float64) string {
	return fmt.Sprintf("%g", v)
}
