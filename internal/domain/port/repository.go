package port

import (
	"context"
	"errors"
	"time"

	"thermo-monitor/internal/domain/entity"
)

// ErrNotFound возвращается хранилищем, если запись не найдена
var ErrNotFound = errors.New("not found")

// MeasurementFilter параметры выборки измерений
type MeasurementFilter struct {
	Since  time.Time // нулевое значение без ограничения
	Offset int
	Limit  int
}

// MeasurementRepository интерфейс хранилища измерений
type MeasurementRepository interface {
	// Save сохраняет измерение вместе с анализом и проставляет ID
	Save(ctx context.Context, m *entity.Measurement) error

	// Get возвращает измерение по ID
	Get(ctx context.Context, id int64) (*entity.Measurement, error)

	// Latest возвращает последнее измерение
	Latest(ctx context.Context) (*entity.Measurement, error)

	// List возвращает измерения от новых к старым
	List(ctx context.Context, filter MeasurementFilter) ([]*entity.Measurement, error)

	// Count возвращает общее число измерений
	Count(ctx context.Context) (int, error)

	// SaveImage сохраняет запись о термограмме
	SaveImage(ctx context.Context, img *entity.ThermalImage) error

	// GetImage возвращает термограмму по ID
	GetImage(ctx context.Context, id int64) (*entity.ThermalImage, error)

	// ListImages возвращает термограммы от новых к старым
	ListImages(ctx context.Context, offset, limit int) ([]*entity.ThermalImage, error)
}

// ImageStorage файловое хранилище загруженных изображений
type ImageStorage interface {
	// Save сохраняет файл и возвращает присвоенное имя
	Save(ctx context.Context, ext string, data []byte) (string, error)
}

// UserRepository хранилище пользователей бота
type UserRepository interface {
	// Get возвращает пользователя, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Update атомарно применяет apply к пользователю и сохраняет результат.
	// Если apply вернул ошибку, пользователь не меняется.
	Update(ctx context.Context, userID, chatID int64, apply func(*entity.User) error) (*entity.User, error)
}
