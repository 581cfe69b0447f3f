package entity

import "time"

// Source источник показаний
type Source string

const (
	SourceManual     Source = "manual"
	SourceTelegram   Source = "telegram"
	SourceSimulation Source = "simulation"
	SourceSensor     Source = "sensor"
	SourceImage      Source = "image"
)

// Measurement сохранённое измерение вместе с результатом анализа
type Measurement struct {
	ID        int64       `json:"id"`
	DeviceID  string      `json:"device_id"`
	Source    Source      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	Zones     ZoneReading `json:"zones"`
	Analysis  Analysis    `json:"analysis"`
}

// ThermalImage загруженная термограмма
type ThermalImage struct {
	ID               int64          `json:"id"`
	MeasurementID    int64          `json:"measurement_id"`
	Filename         string         `json:"filename"`
	OriginalFilename string         `json:"original_filename"`
	FileSize         int            `json:"file_size"`
	UploadTime       time.Time      `json:"upload_time"`
	ExtractedTemps   ZoneReading    `json:"extracted_temps"`
	Extraction       ExtractionMeta `json:"extraction"`
}

// RiskDistribution число измерений по уровням риска
type RiskDistribution struct {
	Normal   int `json:"normal"`
	Elevated int `json:"elevated"`
	High     int `json:"high"`
}

// Statistics агрегаты за период
type Statistics struct {
	PeriodDays        int              `json:"period_days"`
	TotalMeasurements int              `json:"total_measurements"`
	AvgAsymmetry      float64          `json:"avg_asymmetry"`
	MaxAsymmetry      float64          `json:"max_asymmetry"`
	AvgLeftTemp       float64          `json:"avg_left_temp"`
	AvgRightTemp      float64          `json:"avg_right_temp"`
	RiskDistribution  RiskDistribution `json:"risk_distribution"`
}
