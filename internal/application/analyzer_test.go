package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"thermo-monitor/internal/domain/entity"
)

func TestAnalyzer_Scenarios(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())

	tests := []struct {
		name          string
		zones         entity.ZoneReading
		wantLevel     entity.RiskLevel
		wantAsymmetry float64
		wantDescr     []string
		wantAnomalies int
	}{
		{
			name:          "normal reading",
			zones:         entity.ZoneReading{36.4, 36.5, 36.3, 36.4, 36.8, 37.0, 36.9, 36.7},
			wantLevel:     entity.RiskNormal,
			wantAsymmetry: 0.45,
			wantDescr:     []string{},
			wantAnomalies: 0,
		},
		{
			name:          "hot right side",
			zones:         entity.ZoneReading{36.0, 36.0, 36.0, 36.0, 38.5, 38.5, 38.5, 38.5},
			wantLevel:     entity.RiskHigh,
			wantAsymmetry: 2.5,
			wantDescr:     []string{"Значительная асимметрия: 2.50°C", "Повышенная температура: 38.5°C"},
			wantAnomalies: 4,
		},
		{
			name:          "uniformly warm",
			zones:         entity.ZoneReading{37.6, 37.6, 37.6, 37.6, 37.6, 37.6, 37.6, 37.6},
			wantLevel:     entity.RiskElevated,
			wantAsymmetry: 0,
			wantDescr:     []string{"Температура выше нормы: 37.6°C"},
			wantAnomalies: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Evaluate(tt.zones)
			require.Equal(t, tt.wantLevel, got.RiskLevel)
			require.InDelta(t, tt.wantAsymmetry, got.Metrics.Asymmetry, 1e-9)
			require.Equal(t, tt.wantDescr, got.AnomalyDescriptions)
			require.Len(t, got.AnomalyZones, tt.wantAnomalies)
			require.Empty(t, got.Conclusion)
		})
	}
}

func TestAnalyzer_CalculateMetrics(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())

	m := a.CalculateMetrics(entity.ZoneReading{36.4, 36.5, 36.3, 36.4, 36.8, 37.0, 36.9, 36.7})
	require.InDelta(t, 36.4, m.AvgLeft, 1e-9)
	require.InDelta(t, 36.85, m.AvgRight, 1e-9)
	require.InDelta(t, 36.625, m.AvgTotal, 0.006)
	require.InDelta(t, 0.45, m.Asymmetry, 1e-9)
	require.Equal(t, 37.0, m.MaxTemp)
	require.Equal(t, 36.3, m.MinTemp)
}

func TestAnalyzer_AvgTotalIsMeanOfSides(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())

	m := a.CalculateMetrics(entity.ZoneReading{36, 36, 36, 36, 38, 38, 38, 38})
	require.Equal(t, 37.0, m.AvgTotal)
	require.Equal(t, 2.0, m.Asymmetry)
	require.Equal(t, 38.0, m.MaxTemp)
	require.Equal(t, 36.0, m.MinTemp)
}

func TestAnalyzer_ClassifyRiskBoundaries(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())

	tests := []struct {
		asymmetry float64
		maxTemp   float64
		want      entity.RiskLevel
	}{
		{0.49, 37.0, entity.RiskNormal},
		{0.5, 37.0, entity.RiskElevated},
		{0.99, 37.0, entity.RiskElevated},
		{1.0, 37.0, entity.RiskHigh},
		{0, 37.49, entity.RiskNormal},
		{0, 37.5, entity.RiskElevated},
		{0, 37.99, entity.RiskElevated},
		{0, 38.0, entity.RiskHigh},
		{0.6, 38.2, entity.RiskHigh},
		{1.2, 36.5, entity.RiskHigh},
	}

	for _, tt := range tests {
		level, descr := a.ClassifyRisk(tt.asymmetry, tt.maxTemp)
		require.Equal(t, tt.want, level, "asymmetry=%v max=%v", tt.asymmetry, tt.maxTemp)
		if tt.want == entity.RiskNormal {
			require.Empty(t, descr)
		} else {
			require.NotEmpty(t, descr)
		}
	}
}

func TestAnalyzer_ClassifyRiskDescriptionOrder(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())

	_, descr := a.ClassifyRisk(0.7, 37.8)
	require.Equal(t, []string{"Умеренная асимметрия: 0.70°C", "Температура выше нормы: 37.8°C"}, descr)
}

func TestAnalyzer_ClassifyRiskMonotonic(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())

	for temp := 36.0; temp <= 39.0; temp += 0.1 {
		prev := entity.RiskNormal
		for asym := 0.0; asym <= 2.0; asym += 0.05 {
			level, _ := a.ClassifyRisk(asym, temp)
			require.GreaterOrEqual(t, int(level), int(prev))
			prev = level
		}
	}

	for asym := 0.0; asym <= 2.0; asym += 0.1 {
		prev := entity.RiskNormal
		for temp := 36.0; temp <= 39.0; temp += 0.05 {
			level, _ := a.ClassifyRisk(asym, temp)
			require.GreaterOrEqual(t, int(level), int(prev))
			prev = level
		}
	}
}

func TestAnalyzer_CustomThresholds(t *testing.T) {
	a := NewAnalyzer(Thresholds{AsymmetryNormal: 0.3, AsymmetryElevated: 0.6, TempNormalMax: 37, TempElevatedMax: 37.5})

	level, _ := a.ClassifyRisk(0.45, 36.5)
	require.Equal(t, entity.RiskElevated, level)
	require.Equal(t, 0.3, a.Thresholds().AsymmetryNormal)
}

func TestAnalyzer_FindAnomalyZones(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())

	got := a.FindAnomalyZones(entity.ZoneReading{36.0, 36.0, 36.0, 36.0, 38.5, 38.5, 38.5, 38.5})
	require.Len(t, got, 4)
	for i, z := range got {
		require.Equal(t, entity.Zones[4+i].Code, z.Zone)
		require.Equal(t, entity.Zones[4+i].Title, z.Title)
		require.Equal(t, 1.25, z.Deviation)
	}
}

func TestAnalyzer_FindAnomalyZonesIgnoresCold(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())

	// одна холодная зона на 4 градуса ниже остальных
	got := a.FindAnomalyZones(entity.ZoneReading{32.5, 36.5, 36.5, 36.5, 36.5, 36.5, 36.5, 36.5})
	require.Empty(t, got)

	// 36.9 при остальных 36.0 даёт отклонение 0.7875
	got = a.FindAnomalyZones(entity.ZoneReading{36.9, 36.0, 36.0, 36.0, 36.0, 36.0, 36.0, 36.0})
	require.Empty(t, got)
}

func TestAnalyzer_FindAnomalyZonesMarginIsStrict(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())

	// среднее ровно 1.2, отклонение первой зоны ровно 0.8, второй 1.6
	got := a.FindAnomalyZones(entity.ZoneReading{2.0, 2.8, 0.8, 0.8, 0.8, 0.8, 0.8, 0.8})
	require.Len(t, got, 1)
	require.Equal(t, entity.Zones[1].Code, got[0].Zone)
	require.Equal(t, 1.6, got[0].Deviation)

	// сумма даёт среднее 0.7999999999999999, отклонение чуть больше 0.8
	got = a.FindAnomalyZones(entity.ZoneReading{1.6, 0, 0.8, 0.8, 0.8, 0.8, 0.8, 0.8})
	require.Len(t, got, 1)
	require.Equal(t, entity.Zones[0].Code, got[0].Zone)
	require.Equal(t, 0.8, got[0].Deviation)
}

func TestAnalyzer_CalculateMetricsRoundsExactValue(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())

	m := a.CalculateMetrics(entity.ZoneReading{39.0, 38.4, 35.5, 36.3, 37.9, 37.8, 38.7, 36.7})
	require.Equal(t, 37.3, m.AvgLeft)
	require.Equal(t, 37.77, m.AvgRight)
	require.Equal(t, 39.0, m.MaxTemp)
	require.Equal(t, 35.5, m.MinTemp)
}
