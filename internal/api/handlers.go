package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/speedwagon-io/tiretwin/internal/lib/logger/sl"
	"github.com/speedwagon-io/tiretwin/internal/model"
)

const (
	defaultSimulateSteps = 120
	defaultHistoryLimit  = 50
	maxHistoryLimit      = 500
)

type classifyRequest struct {
	SessionID string  `json:"session_id,omitempty"`
	Pressure  float64 `json:"pressure"`
	Mileage   float64 `json:"mileage"`
	Temp      float64 `json:"temperature"`
	Vibration float64 `json:"vibration,omitempty"`
}

func (req classifyRequest) reading() model.TelemetryReading {
	return model.TelemetryReading{
		Pressure:    req.Pressure,
		Mileage:     req.Mileage,
		Temperature: req.Temp,
		Vibration:   req.Vibration,
	}
}

type classifyResponse struct {
	EvaluationID string                 `json:"evaluation_id"`
	SessionID    string                 `json:"session_id"`
	Reading      model.TelemetryReading `json:"reading"`
	Result       model.StatusResult     `json:"result"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.classifier.Classify(req.reading())
	if err != nil {
		s.respondClassifierError(w, err)
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	eval := model.NewEvaluation(req.SessionID, req.reading(), result)
	if err := s.store.SaveEvaluation(r.Context(), eval); err != nil {
		// History is a cache; a failed write must not fail the verdict.
		s.log.Warn("failed to record evaluation", sl.Err(err))
	}

	s.respondJSON(w, http.StatusOK, classifyResponse{
		EvaluationID: eval.ID,
		SessionID:    eval.SessionID,
		Reading:      eval.Reading,
		Result:       eval.Result,
	})
}

type diagnoseResponse struct {
	Diagnosis     model.Diagnosis `json:"diagnosis"`
	ModelAccuracy float64         `json:"model_accuracy"`
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	diag, err := s.diagnosis.Diagnose(req.reading())
	if err != nil {
		s.respondClassifierError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, diagnoseResponse{
		Diagnosis:     diag,
		ModelAccuracy: s.diagnosis.Accuracy,
	})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	steps := defaultSimulateSteps
	if raw := r.URL.Query().Get("steps"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.respondError(w, http.StatusBadRequest, "steps must be a positive integer")
			return
		}
		steps = parsed
	}

	var seed int64
	if raw := r.URL.Query().Get("seed"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "seed must be an integer")
			return
		}
		seed = parsed
	}

	sessionID := r.URL.Query().Get("session_id")

	if sessionID != "" {
		var cached *model.SimulatedSeries
		var err error
		if seed != 0 {
			cached, err = s.store.GetSeries(r.Context(), sessionID, steps, seed)
		} else {
			// Unseeded calls reuse whatever walk the session saw last.
			cached, err = s.store.GetLatestSeries(r.Context(), sessionID, steps)
		}
		if err != nil {
			s.log.Warn("series cache lookup failed", sl.Err(err))
		} else if cached != nil {
			s.respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	series, err := s.simulator.SimulateWear(steps, seed)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if sessionID != "" {
		if err := s.store.SaveSeries(r.Context(), sessionID, steps, series); err != nil {
			s.log.Warn("failed to cache series", sl.Err(err))
		}
	}

	s.respondJSON(w, http.StatusOK, series)
}

type metricsResponse struct {
	Reading model.TelemetryReading `json:"reading"`
	Result  model.StatusResult     `json:"result"`
	Metrics model.BusinessMetrics  `json:"metrics"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	reading, err := readingFromQuery(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.classifier.Classify(reading)
	if err != nil {
		s.respondClassifierError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, metricsResponse{
		Reading: reading,
		Result:  result,
		Metrics: s.metrics.Derive(reading, result),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	evals, err := s.store.History(r.Context(), sessionID, limit)
	if err != nil {
		s.log.Error("failed to load history", sl.Err(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	if len(evals) == 0 {
		s.respondError(w, http.StatusNotFound, "unknown session")
		return
	}

	s.respondJSON(w, http.StatusOK, evals)
}

func readingFromQuery(r *http.Request) (model.TelemetryReading, error) {
	var reading model.TelemetryReading
	q := r.URL.Query()

	for name, target := range map[string]*float64{
		"pressure":    &reading.Pressure,
		"mileage":     &reading.Mileage,
		"temperature": &reading.Temperature,
		"vibration":   &reading.Vibration,
	} {
		raw := q.Get(name)
		if raw == "" {
			if name == "vibration" {
				continue
			}
			return reading, errors.New("missing query parameter: " + name)
		}
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return reading, errors.New("invalid value for " + name)
		}
		*target = parsed
	}

	return reading, nil
}

func (s *Server) respondClassifierError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrInvalidReading) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.log.Error("classification failed", sl.Err(err))
	s.respondError(w, http.StatusInternalServerError, "classification failed")
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response", sl.Err(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
