package sensor

import (
	"context"
	"math/rand/v2"

	"thermo-monitor/internal/domain/entity"
	"thermo-monitor/internal/domain/port"
)

const (
	baseTemperature = 36.6
	baseSpread      = 0.2
	zoneSpread      = 0.15
)

// Simulated датчик-симулятор: общая базовая температура и небольшой разброс по зонам
type Simulated struct {
	random func() float64
}

// NewSimulated создаёт симулятор
func NewSimulated() *Simulated {
	return &Simulated{random: rand.Float64}
}

// ReadZoneValues возвращает синтетические показания восьми зон
func (s *Simulated) ReadZoneValues(ctx context.Context) (entity.ZoneReading, error) {
	var zones entity.ZoneReading
	if err := ctx.Err(); err != nil {
		return zones, err
	}

	base := baseTemperature + s.uniform(baseSpread)
	for i := range zones {
		zones[i] = entity.Round(base+s.uniform(zoneSpread), 1)
	}
	return zones, nil
}

// uniform возвращает значение из [-spread, spread)
func (s *Simulated) uniform(spread float64) float64 {
	return (s.random()*2 - 1) * spread
}

var _ port.ZoneSensor = (*Simulated)(nil)
