package entity

import (
	"errors"
	"fmt"
	"strconv"
)

// ZoneCount количество зон измерения (по четыре на каждую сторону)
const ZoneCount = 8

// ErrZoneCount возвращается, если число значений не равно ZoneCount
var ErrZoneCount = errors.New("zone reading must contain exactly 8 values")

// ZoneReading показания восьми зон в градусах Цельсия.
// Позиции 0-3 относятся к левой стороне, 4-7 к правой в том же порядке.
type ZoneReading [ZoneCount]float64

// Zone описывает одну зону измерения
type Zone struct {
	Code  string // машинный код, например left-upper-inner
	Title string // название для пользователя
}

// Zones фиксированная таблица зон в позиционном порядке ZoneReading
var Zones = [ZoneCount]Zone{
	{Code: "left-upper-inner", Title: "Левая верхняя внутренняя"},
	{Code: "left-upper-outer", Title: "Левая верхняя внешняя"},
	{Code: "left-lower-inner", Title: "Левая нижняя внутренняя"},
	{Code: "left-lower-outer", Title: "Левая нижняя внешняя"},
	{Code: "right-upper-inner", Title: "Правая верхняя внутренняя"},
	{Code: "right-upper-outer", Title: "Правая верхняя внешняя"},
	{Code: "right-lower-inner", Title: "Правая нижняя внутренняя"},
	{Code: "right-lower-outer", Title: "Правая нижняя внешняя"},
}

// NewZoneReading собирает показания из среза произвольной длины
func NewZoneReading(values []float64) (ZoneReading, error) {
	var r ZoneReading
	if len(values) != ZoneCount {
		return r, fmt.Errorf("%w: got %d", ErrZoneCount, len(values))
	}
	copy(r[:], values)
	return r, nil
}

// Left возвращает показания левой стороны
func (r ZoneReading) Left() []float64 {
	return r[:ZoneCount/2]
}

// Right возвращает показания правой стороны
func (r ZoneReading) Right() []float64 {
	return r[ZoneCount/2:]
}

// Slice возвращает копию показаний в виде среза
func (r ZoneReading) Slice() []float64 {
	out := make([]float64, ZoneCount)
	copy(out, r[:])
	return out
}

// Round округляет значение до заданного числа знаков после запятой.
// Округляется точное двоичное значение, ровная половина уходит к чётному.
func Round(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}
