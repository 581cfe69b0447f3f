package app

import (
	"context"

	"thermo-monitor/internal/domain/entity"
)

// Engine объединяет анализатор и генератор заключений
type Engine struct {
	analyzer    *Analyzer
	conclusions *ConclusionService
}

// NewEngine создаёт движок анализа
func NewEngine(analyzer *Analyzer, conclusions *ConclusionService) *Engine {
	return &Engine{
		analyzer:    analyzer,
		conclusions: conclusions,
	}
}

// Analyze строит полный результат для одного набора показаний.
// Движок не отклоняет входные данные: любые конечные значения обрабатываются.
func (e *Engine) Analyze(ctx context.Context, zones entity.ZoneReading) entity.Analysis {
	analysis := e.analyzer.Evaluate(zones)
	analysis.Conclusion = e.conclusions.Generate(ctx, analysis.Metrics, analysis.RiskLevel, analysis.AnomalyDescriptions)
	return analysis
}
