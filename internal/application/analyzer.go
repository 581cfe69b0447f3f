package app

import (
	"fmt"
	"math"

	"thermo-monitor/internal/domain/entity"
)

// anomalyMargin превышение над средним, после которого зона считается аномальной
const anomalyMargin = 0.8

// Thresholds пороги классификации риска
type Thresholds struct {
	AsymmetryNormal   float64 // граница NORMAL/ELEVATED по асимметрии
	AsymmetryElevated float64 // граница ELEVATED/HIGH по асимметрии
	TempNormalMax     float64 // граница NORMAL/ELEVATED по максимальной температуре
	TempElevatedMax   float64 // граница ELEVATED/HIGH по максимальной температуре
}

// DefaultThresholds возвращает стандартные пороги
func DefaultThresholds() Thresholds {
	return Thresholds{
		AsymmetryNormal:   0.5,
		AsymmetryElevated: 1.0,
		TempNormalMax:     37.5,
		TempElevatedMax:   38.0,
	}
}

// Analyzer считает метрики, уровень риска и аномальные зоны.
// Состояния не хранит, безопасен для конкурентного использования.
type Analyzer struct {
	thresholds Thresholds
}

// NewAnalyzer создаёт анализатор с заданными порогами
func NewAnalyzer(thresholds Thresholds) *Analyzer {
	return &Analyzer{thresholds: thresholds}
}

// Thresholds возвращает пороги анализатора
func (a *Analyzer) Thresholds() Thresholds {
	return a.thresholds
}

// CalculateMetrics сводит восемь показаний к метрикам.
// avg_total равен среднему двух средних по сторонам, а не среднему всех восьми значений.
func (a *Analyzer) CalculateMetrics(zones entity.ZoneReading) entity.Metrics {
	avgLeft := mean(zones.Left())
	avgRight := mean(zones.Right())

	maxTemp, minTemp := zones[0], zones[0]
	for _, t := range zones[1:] {
		maxTemp = math.Max(maxTemp, t)
		minTemp = math.Min(minTemp, t)
	}

	return entity.Metrics{
		AvgLeft:   entity.Round(avgLeft, 2),
		AvgRight:  entity.Round(avgRight, 2),
		AvgTotal:  entity.Round((avgLeft+avgRight)/2, 2),
		Asymmetry: entity.Round(math.Abs(avgLeft-avgRight), 2),
		MaxTemp:   entity.Round(maxTemp, 2),
		MinTemp:   entity.Round(minTemp, 2),
	}
}

// ClassifyRisk определяет уровень риска по асимметрии и максимальной температуре.
// Оси независимы: любая из них может поднять уровень до HIGH.
func (a *Analyzer) ClassifyRisk(asymmetry, maxTemp float64) (entity.RiskLevel, []string) {
	th := a.thresholds
	descriptions := make([]string, 0, 2)

	if asymmetry >= th.AsymmetryElevated {
		descriptions = append(descriptions, fmt.Sprintf("Значительная асимметрия: %.2f°C", asymmetry))
	} else if asymmetry >= th.AsymmetryNormal {
		descriptions = append(descriptions, fmt.Sprintf("Умеренная асимметрия: %.2f°C", asymmetry))
	}

	if maxTemp >= th.TempElevatedMax {
		descriptions = append(descriptions, fmt.Sprintf("Повышенная температура: %.1f°C", maxTemp))
	} else if maxTemp >= th.TempNormalMax {
		descriptions = append(descriptions, fmt.Sprintf("Температура выше нормы: %.1f°C", maxTemp))
	}

	switch {
	case asymmetry >= th.AsymmetryElevated || maxTemp >= th.TempElevatedMax:
		return entity.RiskHigh, descriptions
	case asymmetry >= th.AsymmetryNormal || maxTemp >= th.TempNormalMax:
		return entity.RiskElevated, descriptions
	default:
		return entity.RiskNormal, descriptions
	}
}

// FindAnomalyZones отмечает зоны, которые теплее среднего по всем восьми зонам
// больше чем на anomalyMargin. Более холодные зоны не отмечаются.
func (a *Analyzer) FindAnomalyZones(zones entity.ZoneReading) []entity.AnomalyZone {
	avg := mean(zones[:])

	anomalies := make([]entity.AnomalyZone, 0)
	for i, t := range zones {
		deviation := t - avg
		if deviation > anomalyMargin {
			anomalies = append(anomalies, entity.AnomalyZone{
				Zone:      entity.Zones[i].Code,
				Title:     entity.Zones[i].Title,
				Deviation: entity.Round(deviation, 2),
			})
		}
	}
	return anomalies
}

// Evaluate выполняет расчёт без заключения
func (a *Analyzer) Evaluate(zones entity.ZoneReading) entity.Analysis {
	metrics := a.CalculateMetrics(zones)
	level, descriptions := a.ClassifyRisk(metrics.Asymmetry, metrics.MaxTemp)

	return entity.Analysis{
		Metrics:             metrics,
		RiskLevel:           level,
		AnomalyZones:        a.FindAnomalyZones(zones),
		AnomalyDescriptions: descriptions,
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
