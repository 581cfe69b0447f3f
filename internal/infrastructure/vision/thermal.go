package vision

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"thermo-monitor/internal/domain/entity"
	"thermo-monitor/internal/domain/port"
)

// Сетка разбиения термограммы: 2 ряда по 4 колонки, обход по строкам
const (
	gridRows = 2
	gridCols = 4
)

// Параметры цветового отображения
const (
	baseTemp       = 34.0 // температура при нулевом красном канале
	tempSpan       = 5.0  // диапазон шкалы, °C
	greenRatio     = 0.8  // доля красного, начиная с которой зелёный считается «умеренным теплом»
	greenPenalty   = 0.5
	fallbackMin    = 36.0
	fallbackSpread = 1.5
)

var errImageTooSmall = errors.New("image is too small for 2x4 tiling")

// rgb средний цвет плитки, каналы 0..255
type rgb struct {
	R, G, B float64
}

// ColorMappingExtractor переводит цвет термограммы в температуры восьми зон.
// Приближённая эвристика без калибровки камеры.
type ColorMappingExtractor struct {
	random func() float64
}

// NewColorMappingExtractor создаёт экстрактор
func NewColorMappingExtractor() *ColorMappingExtractor {
	return &ColorMappingExtractor{random: rand.Float64}
}

// Extract возвращает температуры зон. При любой ошибке показания синтезируются.
func (e *ColorMappingExtractor) Extract(ctx context.Context, imageData []byte) (zones entity.ZoneReading, meta entity.ExtractionMeta) {
	defer func() {
		if r := recover(); r != nil {
			zones, meta = e.fallback(fmt.Errorf("panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return e.fallback(err)
	}

	means, err := tileMeans(imageData)
	if err != nil {
		return e.fallback(err)
	}

	for i, c := range means {
		zones[i] = tileTemperature(c)
	}
	return zones, entity.ExtractionMeta{
		ZonesAnalyzed: entity.ZoneCount,
		Method:        entity.ExtractionColorMapping,
	}
}

// fallback синтезирует показания в диапазоне [36.0, 37.5)
func (e *ColorMappingExtractor) fallback(cause error) (entity.ZoneReading, entity.ExtractionMeta) {
	var zones entity.ZoneReading
	for i := range zones {
		v := fallbackMin + e.random()*fallbackSpread
		// усечение, а не округление: 37.46 не должно превратиться в 37.5
		zones[i] = math.Floor(v*10) / 10
	}
	return zones, entity.ExtractionMeta{
		ZonesAnalyzed: entity.ZoneCount,
		Method:        entity.ExtractionSimulated,
		Error:         cause.Error(),
	}
}

// tileTemperature линейно отображает красный канал в 34..39°C
func tileTemperature(c rgb) float64 {
	t := baseTemp + (c.R/255.0)*tempSpan
	if c.G >= greenRatio*c.R {
		t -= greenPenalty
	}
	return entity.Round(t, 1)
}

// tileBounds возвращает размер плитки для изображения w×h
func tileBounds(w, h int) (tileW, tileH int, err error) {
	tileW, tileH = w/gridCols, h/gridRows
	if tileW == 0 || tileH == 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d", errImageTooSmall, w, h)
	}
	return tileW, tileH, nil
}

var _ port.ThermalExtractor = (*ColorMappingExtractor)(nil)
