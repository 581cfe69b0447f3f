package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	app "thermo-monitor/internal/application"
	"thermo-monitor/internal/domain/entity"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	multipartOverhead = 1 << 20
)

// Service операции измерений, доступные через HTTP
type Service interface {
	Record(ctx context.Context, in app.MeasurementInput) (*entity.Measurement, error)
	Simulate(ctx context.Context) (*entity.Measurement, error)
	UploadImage(ctx context.Context, originalName string, data []byte) (*app.ImageUpload, error)
	Get(ctx context.Context, id int64) (*entity.Measurement, error)
	Latest(ctx context.Context) (*entity.Measurement, error)
	History(ctx context.Context, q app.HistoryQuery) ([]*entity.Measurement, error)
	Statistics(ctx context.Context, days int) (*entity.Statistics, error)
	CurrentMetrics(ctx context.Context) (*app.MetricsSummary, error)
	Image(ctx context.Context, id int64) (*entity.ThermalImage, error)
	Images(ctx context.Context, offset, limit int) ([]*entity.ThermalImage, error)
}

// Server REST API мониторинга
type Server struct {
	svc           Service
	maxUploadSize int64
	logger        *zap.Logger
}

// NewServer создаёт сервер
func NewServer(svc Service, maxUploadSize int, logger *zap.Logger) *Server {
	if maxUploadSize <= 0 {
		maxUploadSize = app.DefaultMaxUploadSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		svc:           svc,
		maxUploadSize: int64(maxUploadSize),
		logger:        logger.Named("http"),
	}
}

// Router возвращает маршруты без middleware
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/measurements", s.createMeasurement).Methods(http.MethodPost)
	api.HandleFunc("/measurements", s.listMeasurements).Methods(http.MethodGet)
	api.HandleFunc("/measurements/simulate", s.simulate).Methods(http.MethodPost)
	api.HandleFunc("/measurements/{id:[0-9]+}", s.getMeasurement).Methods(http.MethodGet)
	api.HandleFunc("/measurements/{id:[0-9]+}/analysis", s.getAnalysis).Methods(http.MethodGet)

	api.HandleFunc("/images/upload", s.uploadImage).Methods(http.MethodPost)
	api.HandleFunc("/images", s.listImages).Methods(http.MethodGet)
	api.HandleFunc("/images/{id:[0-9]+}", s.getImage).Methods(http.MethodGet)

	api.HandleFunc("/analysis/current", s.currentAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/analysis/history", s.analysisHistory).Methods(http.MethodGet)
	api.HandleFunc("/analysis/metrics", s.metrics).Methods(http.MethodGet)
	api.HandleFunc("/analysis/statistics", s.statistics).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return r
}

// Handler возвращает маршруты с CORS, журналом запросов и перехватом паник
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router()
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(s.logger)), handlers.PrintRecoveryStack(false))(h)
	return handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.logger.Info("request",
		zap.String("method", p.Request.Method),
		zap.String("path", p.URL.Path),
		zap.Int("status", p.StatusCode),
		zap.Int("size", p.Size),
		zap.Duration("elapsed", time.Since(p.TimeStamp)))
}

// Run обслуживает запросы до отмены контекста, затем корректно останавливает сервер
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
