package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"thermo-monitor/internal/domain/entity"
	"thermo-monitor/internal/domain/port"
)

var (
	ErrInvalidInput  = errors.New("invalid measurement input")
	ErrImageTooLarge = errors.New("image is too large")
	ErrNotFound      = port.ErrNotFound
)

// DefaultMaxUploadSize максимальный размер термограммы по умолчанию
const DefaultMaxUploadSize = 10 << 20

const (
	deviceManual    = "manual"
	deviceSimulator = "simulator"
	deviceImage     = "image_upload"
)

// MeasurementInput входные данные измерения от внешних источников
type MeasurementInput struct {
	DeviceID     string        `json:"device_id" validate:"max=100"`
	Source       entity.Source `json:"source" validate:"omitempty,oneof=manual telegram sensor"`
	Temperatures []float64     `json:"temperatures" validate:"len=8,dive,gte=30,lte=45"`
}

// HistoryQuery параметры выборки истории
type HistoryQuery struct {
	Days   int // 0 означает за всё время
	Offset int
	Limit  int
}

// ImageUpload результат загрузки термограммы
type ImageUpload struct {
	Image       *entity.ThermalImage `json:"image"`
	Measurement *entity.Measurement  `json:"measurement"`
}

// MetricsSummary метрики последнего измерения и общее число измерений
type MetricsSummary struct {
	entity.Metrics
	RiskLevel           string     `json:"risk_level"`
	LastMeasurementTime *time.Time `json:"last_measurement_time"`
	TotalMeasurements   int        `json:"total_measurements"`
}

// MeasurementOptions зависимости MeasurementService
type MeasurementOptions struct {
	Engine        *Engine
	Repo          port.MeasurementRepository
	Sensor        port.ZoneSensor
	Extractor     port.ThermalExtractor
	Images        port.ImageStorage
	MaxUploadSize int
	Logger        *zap.Logger
}

// MeasurementService принимает показания, анализирует и сохраняет их
type MeasurementService struct {
	engine        *Engine
	repo          port.MeasurementRepository
	sensor        port.ZoneSensor
	extractor     port.ThermalExtractor
	images        port.ImageStorage
	maxUploadSize int
	validate      *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
}

// NewMeasurementService создаёт сервис измерений
func NewMeasurementService(opts MeasurementOptions) *MeasurementService {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = DefaultMaxUploadSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &MeasurementService{
		engine:        opts.Engine,
		repo:          opts.Repo,
		sensor:        opts.Sensor,
		extractor:     opts.Extractor,
		images:        opts.Images,
		maxUploadSize: opts.MaxUploadSize,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        opts.Logger,
		now:           time.Now,
	}
}

// Record проверяет ручной ввод или данные датчика, анализирует и сохраняет измерение
func (s *MeasurementService) Record(ctx context.Context, in MeasurementInput) (*entity.Measurement, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	zones, err := entity.NewZoneReading(in.Temperatures)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	deviceID := in.DeviceID
	if deviceID == "" {
		deviceID = deviceManual
	}
	source := in.Source
	if source == "" {
		source = entity.SourceManual
	}

	return s.record(ctx, deviceID, source, zones)
}

// Simulate снимает показания с датчика-симулятора и сохраняет их
func (s *MeasurementService) Simulate(ctx context.Context) (*entity.Measurement, error) {
	if s.sensor == nil {
		return nil, errors.New("sensor is not configured")
	}

	zones, err := s.sensor.ReadZoneValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sensor: %w", err)
	}

	return s.record(ctx, deviceSimulator, entity.SourceSimulation, zones)
}

// UploadImage сохраняет термограмму, извлекает из неё температуры и анализирует их.
// Ошибка извлечения не прерывает загрузку: используются синтетические показания.
func (s *MeasurementService) UploadImage(ctx context.Context, originalName string, data []byte) (*ImageUpload, error) {
	if s.extractor == nil || s.images == nil {
		return nil, errors.New("image processing is not configured")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidInput)
	}
	if len(data) > s.maxUploadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, len(data))
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".png"
	}

	filename, err := s.images.Save(ctx, ext, data)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	zones, meta := s.extractor.Extract(ctx, data)
	if meta.Method == entity.ExtractionSimulated {
		s.logger.Warn("thermal extraction fell back to simulated values",
			zap.String("file", filename),
			zap.String("reason", meta.Error))
	}

	m, err := s.record(ctx, deviceImage, entity.SourceImage, zones)
	if err != nil {
		return nil, err
	}

	img := &entity.ThermalImage{
		MeasurementID:    m.ID,
		Filename:         filename,
		OriginalFilename: originalName,
		FileSize:         len(data),
		UploadTime:       m.Timestamp,
		ExtractedTemps:   zones,
		Extraction:       meta,
	}
	if err := s.repo.SaveImage(ctx, img); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	return &ImageUpload{Image: img, Measurement: m}, nil
}

func (s *MeasurementService) record(ctx context.Context, deviceID string, source entity.Source, zones entity.ZoneReading) (*entity.Measurement, error) {
	m := &entity.Measurement{
		DeviceID:  deviceID,
		Source:    source,
		Timestamp: s.now().UTC(),
		Zones:     zones,
		Analysis:  s.engine.Analyze(ctx, zones),
	}

	if err := s.repo.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save measurement: %w", err)
	}

	s.logger.Info("measurement recorded",
		zap.Int64("id", m.ID),
		zap.String("source", string(source)),
		zap.Stringer("risk_level", m.Analysis.RiskLevel),
		zap.Float64("asymmetry", m.Analysis.Metrics.Asymmetry))
	return m, nil
}

// Get возвращает измерение по ID
func (s *MeasurementService) Get(ctx context.Context, id int64) (*entity.Measurement, error) {
	return s.repo.Get(ctx, id)
}

// Latest возвращает последнее измерение
func (s *MeasurementService) Latest(ctx context.Context) (*entity.Measurement, error) {
	return s.repo.Latest(ctx)
}

// History возвращает измерения за период, от новых к старым
func (s *MeasurementService) History(ctx context.Context, q HistoryQuery) ([]*entity.Measurement, error) {
	return s.repo.List(ctx, port.MeasurementFilter{
		Since:  s.since(q.Days),
		Offset: q.Offset,
		Limit:  q.Limit,
	})
}

// Statistics считает агрегаты за последние days дней
func (s *MeasurementService) Statistics(ctx context.Context, days int) (*entity.Statistics, error) {
	list, err := s.repo.List(ctx, port.MeasurementFilter{Since: s.since(days)})
	if err != nil {
		return nil, err
	}

	stats := &entity.Statistics{PeriodDays: days, TotalMeasurements: len(list)}
	if len(list) == 0 {
		return stats, nil
	}

	var sumAsym, sumLeft, sumRight float64
	for i, m := range list {
		metrics := m.Analysis.Metrics
		sumAsym += metrics.Asymmetry
		sumLeft += metrics.AvgLeft
		sumRight += metrics.AvgRight
		if i == 0 || metrics.Asymmetry > stats.MaxAsymmetry {
			stats.MaxAsymmetry = metrics.Asymmetry
		}

		switch m.Analysis.RiskLevel {
		case entity.RiskNormal:
			stats.RiskDistribution.Normal++
		case entity.RiskElevated:
			stats.RiskDistribution.Elevated++
		case entity.RiskHigh:
			stats.RiskDistribution.High++
		}
	}

	n := float64(len(list))
	stats.AvgAsymmetry = entity.Round(sumAsym/n, 2)
	stats.MaxAsymmetry = entity.Round(stats.MaxAsymmetry, 2)
	stats.AvgLeftTemp = entity.Round(sumLeft/n, 2)
	stats.AvgRightTemp = entity.Round(sumRight/n, 2)
	return stats, nil
}

// CurrentMetrics возвращает метрики последнего измерения
func (s *MeasurementService) CurrentMetrics(ctx context.Context) (*MetricsSummary, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{RiskLevel: "UNKNOWN", TotalMeasurements: total}
	latest, err := s.repo.Latest(ctx)
	if errors.Is(err, ErrNotFound) {
		return summary, nil
	}
	if err != nil {
		return nil, err
	}

	summary.Metrics = latest.Analysis.Metrics
	summary.RiskLevel = latest.Analysis.RiskLevel.String()
	summary.LastMeasurementTime = &latest.Timestamp
	return summary, nil
}

// Image возвращает запись о термограмме
func (s *MeasurementService) Image(ctx context.Context, id int64) (*entity.ThermalImage, error) {
	return s.repo.GetImage(ctx, id)
}

// Images возвращает загруженные термограммы
func (s *MeasurementService) Images(ctx context.Context, offset, limit int) ([]*entity.ThermalImage, error) {
	return s.repo.ListImages(ctx, offset, limit)
}

func (s *MeasurementService) since(days int) time.Time {
	if days <= 0 {
		return time.Time{}
	}
	return s.now().UTC().AddDate(0, 0, -days)
}
