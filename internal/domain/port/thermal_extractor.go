package port

import (
	"context"

	"thermo-monitor/internal/domain/entity"
)

// ThermalExtractor извлекает температуры восьми зон из термограммы
type ThermalExtractor interface {
	// Extract никогда не возвращает ошибку: при сбое показания синтезируются,
	// а причина попадает в ExtractionMeta
	Extract(ctx context.Context, imageData []byte) (entity.ZoneReading, entity.ExtractionMeta)
}
