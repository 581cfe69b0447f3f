package sensor

import (
	"context"
	"errors"
	"fmt"

	"thermo-monitor/internal/domain/entity"
	"thermo-monitor/internal/domain/port"
)

// Hardware заготовка под прямое подключение матрицы датчиков.
// Показания с ESP32 сейчас приходят через MQTT.
type Hardware struct {
	Device string
}

// ReadZoneValues не поддерживается
func (h *Hardware) ReadZoneValues(ctx context.Context) (entity.ZoneReading, error) {
	return entity.ZoneReading{}, fmt.Errorf("read zones from %q: %w", h.Device, errors.ErrUnsupported)
}

var _ port.ZoneSensor = (*Hardware)(nil)
