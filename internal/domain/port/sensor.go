package port

import (
	"context"

	"thermo-monitor/internal/domain/entity"
)

// ZoneSensor источник показаний (симулятор или устройство)
type ZoneSensor interface {
	ReadZoneValues(ctx context.Context) (entity.ZoneReading, error)
}
