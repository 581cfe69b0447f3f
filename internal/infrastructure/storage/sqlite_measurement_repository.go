package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"thermo-monitor/internal/domain/entity"
	"thermo-monitor/internal/domain/port"
)

const schema = `
CREATE TABLE IF NOT EXISTS measurements (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id TEXT NOT NULL DEFAULT 'manual',
	source TEXT NOT NULL DEFAULT 'manual',
	timestamp INTEGER NOT NULL,
	zone_1 REAL NOT NULL,
	zone_2 REAL NOT NULL,
	zone_3 REAL NOT NULL,
	zone_4 REAL NOT NULL,
	zone_5 REAL NOT NULL,
	zone_6 REAL NOT NULL,
	zone_7 REAL NOT NULL,
	zone_8 REAL NOT NULL,
	avg_left REAL NOT NULL,
	avg_right REAL NOT NULL,
	avg_total REAL NOT NULL,
	asymmetry REAL NOT NULL,
	max_temp REAL NOT NULL,
	min_temp REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_measurements_timestamp ON measurements(timestamp);

CREATE TABLE IF NOT EXISTS analysis_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	measurement_id INTEGER NOT NULL UNIQUE REFERENCES measurements(id),
	risk_level TEXT NOT NULL,
	anomaly_zones TEXT NOT NULL,
	anomaly_descriptions TEXT NOT NULL,
	conclusion TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS thermal_images (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	measurement_id INTEGER REFERENCES measurements(id),
	filename TEXT NOT NULL,
	original_filename TEXT,
	file_size INTEGER NOT NULL,
	upload_time INTEGER NOT NULL,
	extracted_temps TEXT NOT NULL,
	method TEXT NOT NULL,
	error TEXT
);
`

const measurementColumns = `
	m.id, m.device_id, m.source, m.timestamp,
	m.zone_1, m.zone_2, m.zone_3, m.zone_4, m.zone_5, m.zone_6, m.zone_7, m.zone_8,
	m.avg_left, m.avg_right, m.avg_total, m.asymmetry, m.max_temp, m.min_temp,
	a.risk_level, a.anomaly_zones, a.anomaly_descriptions, a.conclusion
FROM measurements m
JOIN analysis_results a ON a.measurement_id = m.id`

const imageColumns = `id, measurement_id, filename, original_filename, file_size, upload_time,
	extracted_temps, method, error FROM thermal_images`

// SQLiteMeasurementRepository хранилище измерений в SQLite
type SQLiteMeasurementRepository struct {
	db   *sql.DB
	path string
}

// NewSQLiteMeasurementRepository открывает базу и создаёт схему
func NewSQLiteMeasurementRepository(path string) (*SQLiteMeasurementRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite сериализует запись, одно соединение исключает SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteMeasurementRepository{db: db, path: path}, nil
}

// Close закрывает соединение с базой
func (r *SQLiteMeasurementRepository) Close() error {
	return r.db.Close()
}

// Path возвращает путь к файлу базы
func (r *SQLiteMeasurementRepository) Path() string {
	return r.path
}

// Save сохраняет измерение и анализ в одной транзакции
func (r *SQLiteMeasurementRepository) Save(ctx context.Context, m *entity.Measurement) error {
	zonesJSON, err := json.Marshal(m.Analysis.AnomalyZones)
	if err != nil {
		return fmt.Errorf("marshal anomaly zones: %w", err)
	}
	descJSON, err := json.Marshal(m.Analysis.AnomalyDescriptions)
	if err != nil {
		return fmt.Errorf("marshal anomaly descriptions: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	z := m.Zones
	metrics := m.Analysis.Metrics
	res, err := tx.ExecContext(ctx, `
		INSERT INTO measurements (device_id, source, timestamp,
			zone_1, zone_2, zone_3, zone_4, zone_5, zone_6, zone_7, zone_8,
			avg_left, avg_right, avg_total, asymmetry, max_temp, min_temp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.DeviceID, string(m.Source), m.Timestamp.UnixNano(),
		z[0], z[1], z[2], z[3], z[4], z[5], z[6], z[7],
		metrics.AvgLeft, metrics.AvgRight, metrics.AvgTotal, metrics.Asymmetry, metrics.MaxTemp, metrics.MinTemp,
	)
	if err != nil {
		return fmt.Errorf("insert measurement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("measurement id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_results (measurement_id, risk_level, anomaly_zones, anomaly_descriptions, conclusion)
		VALUES (?, ?, ?, ?, ?)`,
		id, m.Analysis.RiskLevel.String(), string(zonesJSON), string(descJSON), m.Analysis.Conclusion,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	m.ID = id
	return nil
}

// Get возвращает измерение по ID
func (r *SQLiteMeasurementRepository) Get(ctx context.Context, id int64) (*entity.Measurement, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+measurementColumns+` WHERE m.id = ?`, id)
	return scanMeasurement(row)
}

// Latest возвращает последнее измерение
func (r *SQLiteMeasurementRepository) Latest(ctx context.Context) (*entity.Measurement, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+measurementColumns+` ORDER BY m.timestamp DESC, m.id DESC LIMIT 1`)
	return scanMeasurement(row)
}

// List возвращает измерения от новых к старым. При Limit 0 возвращаются все.
func (r *SQLiteMeasurementRepository) List(ctx context.Context, filter port.MeasurementFilter) ([]*entity.Measurement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	var since int64
	if !filter.Since.IsZero() {
		since = filter.Since.UnixNano()
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+measurementColumns+`
		WHERE m.timestamp >= ?
		ORDER BY m.timestamp DESC, m.id DESC
		LIMIT ? OFFSET ?`,
		since, limit, max(filter.Offset, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.Measurement, 0)
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Count возвращает общее число измерений
func (r *SQLiteMeasurementRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM measurements`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count measurements: %w", err)
	}
	return n, nil
}

// SaveImage сохраняет запись о термограмме и проставляет ID
func (r *SQLiteMeasurementRepository) SaveImage(ctx context.Context, img *entity.ThermalImage) error {
	temps, err := json.Marshal(img.ExtractedTemps)
	if err != nil {
		return fmt.Errorf("marshal temps: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO thermal_images (measurement_id, filename, original_filename, file_size, upload_time,
			extracted_temps, method, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		img.MeasurementID, img.Filename, img.OriginalFilename, img.FileSize, img.UploadTime.UnixNano(),
		string(temps), img.Extraction.Method, img.Extraction.Error,
	)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("image id: %w", err)
	}
	img.ID = id
	return nil
}

// GetImage возвращает термограмму по ID
func (r *SQLiteMeasurementRepository) GetImage(ctx context.Context, id int64) (*entity.ThermalImage, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` WHERE id = ?`, id)
	return scanImage(row)
}

// ListImages возвращает термограммы от новых к старым
func (r *SQLiteMeasurementRepository) ListImages(ctx context.Context, offset, limit int) ([]*entity.ThermalImage, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+imageColumns+`
		ORDER BY upload_time DESC, id DESC LIMIT ? OFFSET ?`, limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.ThermalImage, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, img)
	}
	return list, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeasurement(s scanner) (*entity.Measurement, error) {
	var (
		m                   entity.Measurement
		source, riskLevel   string
		ts                  int64
		zonesJSON, descJSON string
	)
	metrics := &m.Analysis.Metrics
	z := &m.Zones

	err := s.Scan(
		&m.ID, &m.DeviceID, &source, &ts,
		&z[0], &z[1], &z[2], &z[3], &z[4], &z[5], &z[6], &z[7],
		&metrics.AvgLeft, &metrics.AvgRight, &metrics.AvgTotal, &metrics.Asymmetry, &metrics.MaxTemp, &metrics.MinTemp,
		&riskLevel, &zonesJSON, &descJSON, &m.Analysis.Conclusion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan measurement: %w", err)
	}

	m.Source = entity.Source(source)
	m.Timestamp = time.Unix(0, ts).UTC()
	if m.Analysis.RiskLevel, err = entity.ParseRiskLevel(riskLevel); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(zonesJSON), &m.Analysis.AnomalyZones); err != nil {
		return nil, fmt.Errorf("unmarshal anomaly zones: %w", err)
	}
	if err := json.Unmarshal([]byte(descJSON), &m.Analysis.AnomalyDescriptions); err != nil {
		return nil, fmt.Errorf("unmarshal anomaly descriptions: %w", err)
	}
	return &m, nil
}

func scanImage(s scanner) (*entity.ThermalImage, error) {
	var (
		img               entity.ThermalImage
		measurementID     sql.NullInt64
		original, errText sql.NullString
		uploaded          int64
		temps             string
	)

	err := s.Scan(&img.ID, &measurementID, &img.Filename, &original, &img.FileSize, &uploaded,
		&temps, &img.Extraction.Method, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan image: %w", err)
	}

	img.MeasurementID = measurementID.Int64
	img.OriginalFilename = original.String
	img.Extraction.Error = errText.String
	img.Extraction.ZonesAnalyzed = entity.ZoneCount
	img.UploadTime = time.Unix(0, uploaded).UTC()
	if err := json.Unmarshal([]byte(temps), &img.ExtractedTemps); err != nil {
		return nil, fmt.Errorf("unmarshal temps: %w", err)
	}
	return &img, nil
}

var _ port.MeasurementRepository = (*SQLiteMeasurementRepository)(nil)
