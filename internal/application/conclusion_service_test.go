package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"thermo-monitor/internal/domain/entity"
	"thermo-monitor/internal/domain/port"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubProvider struct {
	name  string
	text  string
	ok    bool
	panic bool
	block bool
	calls atomic.Int32
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Attempt(ctx context.Context, prompt string) (string, bool) {
	p.calls.Add(1)
	if p.panic {
		panic("provider exploded")
	}
	if p.block {
		<-ctx.Done()
		return "late", true
	}
	return p.text, p.ok
}

var (
	highMetrics = entity.Metrics{AvgLeft: 36, AvgRight: 38.5, AvgTotal: 37.25, Asymmetry: 2.5, MaxTemp: 38.5, MinTemp: 36}
	highDescr   = []string{"Значительная асимметрия: 2.50°C", "Повышенная температура: 38.5°C"}
)

func TestConclusionService_NoProviders(t *testing.T) {
	svc := NewConclusionService(nil, time.Second, zaptest.NewLogger(t))

	got := svc.Generate(context.Background(), highMetrics, entity.RiskHigh, highDescr)
	require.Equal(t, GenerateConclusion(highMetrics, entity.RiskHigh, highDescr), got)
}

func TestConclusionService_FirstSuccessWins(t *testing.T) {
	first := &stubProvider{name: "first", text: "  ответ первой модели \n", ok: true}
	second := &stubProvider{name: "second", text: "ответ второй", ok: true}
	svc := NewConclusionService([]port.ConclusionProvider{first, second}, time.Second, zaptest.NewLogger(t))

	got := svc.Generate(context.Background(), highMetrics, entity.RiskHigh, highDescr)
	require.Equal(t, "ответ первой модели", got)
	require.EqualValues(t, 1, first.calls.Load())
	require.EqualValues(t, 0, second.calls.Load())
}

func TestConclusionService_SkipsFailures(t *testing.T) {
	failing := &stubProvider{name: "failing"}
	blank := &stubProvider{name: "blank", text: "   ", ok: true}
	exploding := &stubProvider{name: "exploding", panic: true}
	good := &stubProvider{name: "good", text: "готово", ok: true}

	svc := NewConclusionService([]port.ConclusionProvider{failing, blank, exploding, good}, time.Second, zaptest.NewLogger(t))

	got := svc.Generate(context.Background(), highMetrics, entity.RiskHigh, highDescr)
	require.Equal(t, "готово", got)
	for _, p := range []*stubProvider{failing, blank, exploding, good} {
		require.EqualValues(t, 1, p.calls.Load(), p.name)
	}
}

func TestConclusionService_AllFailFallsBack(t *testing.T) {
	providers := []port.ConclusionProvider{
		&stubProvider{name: "a"},
		&stubProvider{name: "b", panic: true},
		&stubProvider{name: "c", text: "text but not ok"},
	}
	svc := NewConclusionService(providers, time.Second, zaptest.NewLogger(t))

	got := svc.Generate(context.Background(), highMetrics, entity.RiskHigh, highDescr)
	require.Equal(t, GenerateConclusion(highMetrics, entity.RiskHigh, highDescr), got)
}

func TestConclusionService_TimeoutMovesOn(t *testing.T) {
	slow := &stubProvider{name: "slow", block: true}
	fast := &stubProvider{name: "fast", text: "быстрый ответ", ok: true}
	svc := NewConclusionService([]port.ConclusionProvider{slow, fast}, 20*time.Millisecond, zaptest.NewLogger(t))

	start := time.Now()
	got := svc.Generate(context.Background(), highMetrics, entity.RiskHigh, highDescr)

	require.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, "быстрый ответ", got)
	require.EqualValues(t, 1, slow.calls.Load())
	require.EqualValues(t, 1, fast.calls.Load())
}

func TestConclusionService_CancelledContextFallsBack(t *testing.T) {
	p := &stubProvider{name: "p", text: "ответ", ok: true}
	svc := NewConclusionService([]port.ConclusionProvider{p}, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := svc.Generate(ctx, highMetrics, entity.RiskHigh, highDescr)
	require.Equal(t, GenerateConclusion(highMetrics, entity.RiskHigh, highDescr), got)
	require.EqualValues(t, 0, p.calls.Load())
}

func TestEngine_Analyze(t *testing.T) {
	engine := NewEngine(NewAnalyzer(DefaultThresholds()), NewConclusionService(nil, 0, nil))
	zones := entity.ZoneReading{36.0, 36.0, 36.0, 36.0, 38.5, 38.5, 38.5, 38.5}

	got := engine.Analyze(context.Background(), zones)
	require.Equal(t, entity.RiskHigh, got.RiskLevel)
	require.Len(t, got.AnomalyZones, 4)
	require.Equal(t, GenerateConclusion(got.Metrics, got.RiskLevel, got.AnomalyDescriptions), got.Conclusion)
}
