package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/speedwagon-io/tiretwin/internal/config"
	"github.com/speedwagon-io/tiretwin/internal/lib/logger/sl"
	"github.com/speedwagon-io/tiretwin/internal/store"
	"github.com/speedwagon-io/tiretwin/internal/twin"
)

// Server exposes the twin over HTTP: classification, diagnosis, wear
// simulation, derived metrics, session history and health.
type Server struct {
	log        *slog.Logger
	cfg        config.HTTPConfig
	classifier *twin.Classifier
	simulator  *twin.Simulator
	diagnosis  *twin.DiagnosisModel
	metrics    *twin.MetricsCalculator
	store      store.Store
	server     *http.Server
	checkers   []HealthChecker
	mu         sync.RWMutex
}

func NewServer(
	log *slog.Logger,
	cfg config.HTTPConfig,
	classifier *twin.Classifier,
	simulator *twin.Simulator,
	diagnosis *twin.DiagnosisModel,
	metrics *twin.MetricsCalculator,
	st store.Store,
) *Server {
	return &Server{
		log:        log,
		cfg:        cfg,
		classifier: classifier,
		simulator:  simulator,
		diagnosis:  diagnosis,
		metrics:    metrics,
		store:      st,
		checkers:   make([]HealthChecker, 0),
	}
}

func (s *Server) AddChecker(checker HealthChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers = append(s.checkers, checker)
}

// Router builds the chi router. Exposed separately so tests can drive the
// handlers without a listening socket.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestLogger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/classify", s.handleClassify)
		r.Post("/diagnose", s.handleDiagnose)
		r.Get("/simulate", s.handleSimulate)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/sessions/{id}/history", s.handleHistory)
	})

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/live", s.handleLive)

	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Info("starting API server", slog.String("address", s.cfg.Address))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("API server error", sl.Err(err))
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
