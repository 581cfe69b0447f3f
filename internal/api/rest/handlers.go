package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	app "thermo-monitor/internal/application"
	"thermo-monitor/internal/domain/entity"
)

const (
	defaultLimit     = 100
	maxLimit         = 1000
	defaultStatsDays = 30
	maxBodySize      = 1 << 16
)

type errorResponse struct {
	Error string `json:"error"`
}

type currentResponse struct {
	Status      string              `json:"status"`
	Measurement *entity.Measurement `json:"measurement,omitempty"`
}

type historyItem struct {
	ID        int64            `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Source    entity.Source    `json:"source"`
	AvgLeft   float64          `json:"avg_left"`
	AvgRight  float64          `json:"avg_right"`
	Asymmetry float64          `json:"asymmetry"`
	MaxTemp   float64          `json:"max_temp"`
	RiskLevel entity.RiskLevel `json:"risk_level"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createMeasurement(w http.ResponseWriter, r *http.Request) {
	var in app.MeasurementInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}

	m, err := s.svc.Record(r.Context(), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) simulate(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Simulate(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) listMeasurements(w http.ResponseWriter, r *http.Request) {
	q, err := historyQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.svc.History(r.Context(), q)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getMeasurement(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.Analysis)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*entity.Measurement, bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	m, err := s.svc.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return m, true
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, app.ErrImageTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "field \"file\" is required")
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		writeError(w, http.StatusBadRequest, "file must be an image")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read file: %v", err))
		return
	}

	res, err := s.svc.UploadImage(r.Context(), header.Filename, data)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) listImages(w http.ResponseWriter, r *http.Request) {
	q, err := historyQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.svc.Images(r.Context(), q.Offset, q.Limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := s.svc.Image(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, img)
}

func (s *Server) currentAnalysis(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Latest(r.Context())
	if errors.Is(err, app.ErrNotFound) {
		writeJSON(w, http.StatusOK, currentResponse{Status: "no_data"})
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, currentResponse{Status: "ok", Measurement: m})
}

func (s *Server) analysisHistory(w http.ResponseWriter, r *http.Request) {
	q, err := historyQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.svc.History(r.Context(), q)
	if err != nil {
		s.fail(w, err)
		return
	}

	items := make([]historyItem, 0, len(list))
	for _, m := range list {
		metrics := m.Analysis.Metrics
		items = append(items, historyItem{
			ID:        m.ID,
			Timestamp: m.Timestamp,
			Source:    m.Source,
			AvgLeft:   metrics.AvgLeft,
			AvgRight:  metrics.AvgRight,
			Asymmetry: metrics.Asymmetry,
			MaxTemp:   metrics.MaxTemp,
			RiskLevel: m.Analysis.RiskLevel,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.CurrentMetrics(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	days, err := intQuery(r, "days", defaultStatsDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := s.svc.Statistics(r.Context(), days)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// fail переводит ошибку сервиса в HTTP-статус
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, app.ErrImageTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func historyQuery(r *http.Request) (app.HistoryQuery, error) {
	var q app.HistoryQuery
	var err error
	if q.Days, err = intQuery(r, "days", 0); err != nil {
		return q, err
	}
	if q.Offset, err = intQuery(r, "skip", 0); err != nil {
		return q, err
	}
	if q.Limit, err = intQuery(r, "limit", defaultLimit); err != nil {
		return q, err
	}
	if q.Limit == 0 || q.Limit > maxLimit {
		return q, fmt.Errorf("limit must be between 1 and %d", maxLimit)
	}
	return q, nil
}

func intQuery(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
