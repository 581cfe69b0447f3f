package telegram

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	app "thermo-monitor/internal/application"
	"thermo-monitor/internal/domain/entity"
)

const (
	minTemperature    = 30.0
	maxTemperature    = 45.0
	maxConclusionRune = 500
	historyLimit      = 5
	timeLayout        = "02.01.2006 15:04"
)

// parseTemperatures разбирает восемь температур, разделённых пробелами или запятыми
func parseTemperatures(text string) ([]float64, error) {
	parts := strings.Fields(strings.ReplaceAll(text, ",", " "))
	if len(parts) != entity.ZoneCount {
		return nil, fmt.Errorf("нужно %d значений, получено %d", entity.ZoneCount, len(parts))
	}

	temps := make([]float64, 0, len(parts))
	for _, p := range parts {
		t, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("%q не является числом", p)
		}
		if t < minTemperature || t > maxTemperature {
			return nil, fmt.Errorf("температура %g вне диапазона 30-45°C", t)
		}
		temps = append(temps, t)
	}
	return temps, nil
}

func writeMetrics(b *strings.Builder, m entity.Metrics) {
	fmt.Fprintf(b, "• Средняя слева: %.1f°C\n", m.AvgLeft)
	fmt.Fprintf(b, "• Средняя справа: %.1f°C\n", m.AvgRight)
	fmt.Fprintf(b, "• Асимметрия: %.2f°C\n\n", m.Asymmetry)
}

func writeAnalysis(b *strings.Builder, a entity.Analysis) {
	writeMetrics(b, a.Metrics)
	fmt.Fprintf(b, "%s <b>Уровень риска:</b> %s\n\n", a.RiskLevel.Emoji(), a.RiskLevel)

	if len(a.AnomalyZones) > 0 {
		b.WriteString("<b>Зоны повышенной температуры:</b>\n")
		for _, z := range a.AnomalyZones {
			fmt.Fprintf(b, "• %s\n", html.EscapeString(z.String()))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(b, "<b>Заключение:</b>\n%s", html.EscapeString(truncate(a.Conclusion, maxConclusionRune)))
}

// formatMeasurement результат ручного ввода или симуляции
func formatMeasurement(m *entity.Measurement) string {
	var b strings.Builder
	b.WriteString("✅ <b>Данные сохранены!</b>\n\n📊 <b>Результаты анализа:</b>\n")
	writeAnalysis(&b, m.Analysis)
	return b.String()
}

// formatImageUpload результат анализа термограммы
func formatImageUpload(res *app.ImageUpload) string {
	var b strings.Builder
	b.WriteString("✅ <b>Изображение проанализировано!</b>\n\n📊 <b>Извлечённые температуры:</b>\n")

	temps := make([]string, 0, entity.ZoneCount)
	for _, t := range res.Image.ExtractedTemps {
		temps = append(temps, fmt.Sprintf("%.1f°C", t))
	}
	b.WriteString(strings.Join(temps, ", "))
	b.WriteString("\n")
	if res.Image.Extraction.Method == entity.ExtractionSimulated {
		b.WriteString("<i>Не удалось распознать изображение, использованы ориентировочные значения.</i>\n")
	}
	b.WriteString("\n")

	writeAnalysis(&b, res.Measurement.Analysis)
	return b.String()
}

// formatStatus последнее измерение
func formatStatus(m *entity.Measurement) string {
	var b strings.Builder
	b.WriteString("📊 <b>Текущий статус</b>\n\n🌡️ <b>Последнее измерение:</b>\n")
	writeMetrics(&b, m.Analysis.Metrics)
	fmt.Fprintf(&b, "%s <b>Уровень риска:</b> %s\n\n", m.Analysis.RiskLevel.Emoji(), m.Analysis.RiskLevel)
	fmt.Fprintf(&b, "📅 Время: %s", m.Timestamp.Format(timeLayout))
	return b.String()
}

// formatHistory краткий список последних измерений, mine отмечает измерение пользователя
func formatHistory(list []*entity.Measurement, mine int64) string {
	if len(list) == 0 {
		return "📈 <b>История</b>\n\nНет записей."
	}

	var b strings.Builder
	b.WriteString("📈 <b>Последние измерения:</b>\n\n")
	for _, m := range list {
		metrics := m.Analysis.Metrics
		fmt.Fprintf(&b, "%s %s", m.Analysis.RiskLevel.Emoji(), m.Timestamp.Format(timeLayout))
		if mine != 0 && m.ID == mine {
			b.WriteString(" 👤")
		}
		fmt.Fprintf(&b, "\n   L: %.1f°C | R: %.1f°C | Δ: %.2f°C\n\n",
			metrics.AvgLeft, metrics.AvgRight, metrics.Asymmetry)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatConclusion заключение последнего измерения
func formatConclusion(m *entity.Measurement) string {
	return "🤖 <b>AI Анализ</b>\n\n" + html.EscapeString(m.Analysis.Conclusion)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
