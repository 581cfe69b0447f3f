package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"thermo-monitor/internal/domain/entity"
)

func TestGenerateConclusion_Normal(t *testing.T) {
	metrics := entity.Metrics{AvgLeft: 36.4, AvgRight: 36.85, Asymmetry: 0.45, MaxTemp: 37}
	text := GenerateConclusion(metrics, entity.RiskNormal, nil)

	require.Contains(t, text, "36.4°C")
	require.Contains(t, text, "36.85°C")
	require.Contains(t, text, "0.45°C")
	require.Contains(t, text, "регулярный мониторинг")
	require.Contains(t, text, "не заменяет консультацию")
	require.NotContains(t, text, "•")
}

func TestGenerateConclusion_ElevatedListsDeviations(t *testing.T) {
	metrics := entity.Metrics{AvgLeft: 37.6, AvgRight: 37.6, Asymmetry: 0, MaxTemp: 37.6}
	descr := []string{"Температура выше нормы: 37.6°C"}
	text := GenerateConclusion(metrics, entity.RiskElevated, descr)

	require.Contains(t, text, "• Температура выше нормы: 37.6°C")
	require.Contains(t, text, "24-48 часов")
	require.Contains(t, text, "не является медицинским диагностическим устройством")
}

func TestGenerateConclusion_High(t *testing.T) {
	metrics := entity.Metrics{AvgLeft: 36, AvgRight: 38.5, Asymmetry: 2.5, MaxTemp: 38.5}
	descr := []string{"Значительная асимметрия: 2.50°C", "Повышенная температура: 38.5°C"}
	text := GenerateConclusion(metrics, entity.RiskHigh, descr)

	require.Contains(t, text, "36°C")
	require.Contains(t, text, "38.5°C")
	require.Contains(t, text, "2.5°C")
	require.Equal(t, 2, strings.Count(text, "• "))
	require.Contains(t, text, "врачу-маммологу")
	require.Contains(t, text, "не является медицинским диагностическим устройством")
}

func TestGenerateConclusion_Deterministic(t *testing.T) {
	metrics := entity.Metrics{AvgLeft: 36, AvgRight: 38.5, Asymmetry: 2.5, MaxTemp: 38.5}
	descr := []string{"Значительная асимметрия: 2.50°C"}

	require.Equal(t,
		GenerateConclusion(metrics, entity.RiskHigh, descr),
		GenerateConclusion(metrics, entity.RiskHigh, descr))
}

func TestBuildPrompt(t *testing.T) {
	metrics := entity.Metrics{AvgLeft: 36, AvgRight: 38.5, Asymmetry: 2.5, MaxTemp: 38.5}

	prompt := BuildPrompt(metrics, entity.RiskHigh, []string{"a", "b"})
	require.Contains(t, prompt, "Уровень риска: HIGH")
	require.Contains(t, prompt, "Выявленные отклонения: a, b")
	require.Contains(t, prompt, "Максимальная температура: 38.5°C")

	prompt = BuildPrompt(metrics, entity.RiskNormal, nil)
	require.Contains(t, prompt, "Выявленные отклонения: нет")
}
