package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewZoneReading(t *testing.T) {
	r, err := NewZoneReading([]float64{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3, 4}, r.Left())
	require.Equal(t, []float64{5, 6, 7, 8}, r.Right())

	_, err = NewZoneReading([]float64{1, 2, 3})
	require.ErrorIs(t, err, ErrZoneCount)
}

func TestZoneReading_SliceIsCopy(t *testing.T) {
	r := ZoneReading{36, 36, 36, 36, 36, 36, 36, 36}
	s := r.Slice()
	s[0] = 40
	require.Equal(t, 36.0, r[0])
}

func TestRound(t *testing.T) {
	require.Equal(t, 0.45, Round(36.85-36.4, 2))
	require.Equal(t, 36.9, Round(36.86, 1))
	require.Equal(t, -1.24, Round(-1.2449, 2))
}

func TestRound_ExactBinaryValue(t *testing.T) {
	// 37.775 хранится чуть меньше 37.775
	right := (37.9 + 37.8 + 38.7 + 36.7) / 4
	require.Equal(t, 37.77, Round(right, 2))

	// ровная половина уходит к чётному
	require.Equal(t, 0.12, Round(0.125, 2))
	require.Equal(t, 0.38, Round(0.375, 2))
	require.Equal(t, 2.0, Round(2.5, 0))
}

func TestRiskLevel_Order(t *testing.T) {
	require.Less(t, RiskNormal, RiskElevated)
	require.Less(t, RiskElevated, RiskHigh)
}

func TestRiskLevel_JSON(t *testing.T) {
	data, err := json.Marshal(Analysis{RiskLevel: RiskElevated})
	require.NoError(t, err)
	require.Contains(t, string(data), `"risk_level":"ELEVATED"`)

	var a Analysis
	require.NoError(t, json.Unmarshal([]byte(`{"risk_level":"HIGH"}`), &a))
	require.Equal(t, RiskHigh, a.RiskLevel)

	require.Error(t, json.Unmarshal([]byte(`{"risk_level":"SEVERE"}`), &a))
}

func TestAnomalyZone_String(t *testing.T) {
	z := AnomalyZone{Zone: Zones[4].Code, Title: Zones[4].Title, Deviation: 1.26}
	require.Equal(t, "Правая верхняя внутренняя: +1.3°C", z.String())
}
