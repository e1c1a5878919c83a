package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/speedwagon-io/tiretwin/internal/api"
	"github.com/speedwagon-io/tiretwin/internal/config"
	"github.com/speedwagon-io/tiretwin/internal/lib/logger/sl"
	"github.com/speedwagon-io/tiretwin/internal/model"
	"github.com/speedwagon-io/tiretwin/internal/store"
	"github.com/speedwagon-io/tiretwin/internal/twin"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	demo := flag.Bool("demo", false, "log a sample classification and simulation instead of serving")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.MustLoad(*configPath)

	log := sl.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	log.Info("starting tire twin",
		slog.String("env", cfg.Env),
		slog.Bool("demo", *demo),
	)

	profile := config.MustLoadProfile(cfg.Twin.ProfilePath)

	classifier := twin.NewClassifier(profile.Thresholds)
	simulator := twin.NewSimulator(profile.Simulator)
	metrics := twin.NewMetricsCalculator(profile.Thresholds)

	dataset := twin.GenerateDataset(profile.Dataset)
	diagModel, err := twin.TrainDiagnosisModel(dataset)
	if err != nil {
		log.Error("failed to train diagnosis model", sl.Err(err))
		os.Exit(1)
	}

	log.Info("diagnosis model trained",
		slog.Int("train_samples", len(dataset.Train)),
		slog.Int("holdout_samples", len(dataset.Holdout)),
		slog.Float64("holdout_accuracy", diagModel.Accuracy),
	)

	if *demo {
		runDemo(log, classifier, simulator, diagModel)
		return
	}

	st, err := store.NewSQLiteStore(log, cfg.Store.DSN)
	if err != nil {
		log.Error("failed to open session store", sl.Err(err))
		os.Exit(1)
	}
	log.Info("session store ready", slog.String("dsn", cfg.Store.DSN))

	server := api.NewServer(log, cfg.HTTP, classifier, simulator, diagModel, metrics, st)
	server.AddChecker(api.NewStoreHealthChecker(st.Count))
	server.AddChecker(api.NewModelHealthChecker(diagModel.Accuracy, 0.9))

	if err := server.Start(); err != nil {
		log.Error("failed to start API server", sl.Err(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Store.CleanupInterval > 0 {
		go cleanupLoop(ctx, log, st, cfg.Store.CleanupInterval, cfg.Store.MaxAge)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received signal, shutting down", slog.String("signal", sig.String()))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop API server", sl.Err(err))
	}

	if err := st.Close(); err != nil {
		log.Error("failed to close session store", sl.Err(err))
	}

	log.Info("tire twin stopped")
}

func cleanupLoop(ctx context.Context, log *slog.Logger, st store.Store, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := st.Cleanup(ctx, maxAge); err != nil {
				log.Error("session cleanup failed", sl.Err(err))
			}
		}
	}
}

// runDemo exercises the core against a healthy and a failing reading and
// walks one short wear series, logging the outcomes.
func runDemo(log *slog.Logger, classifier *twin.Classifier, simulator *twin.Simulator, diag *twin.DiagnosisModel) {
	readings := []model.TelemetryReading{
		{Pressure: 32.2, Mileage: 18500, Temperature: 52.5},
		{Pressure: 25.0, Mileage: 45000, Temperature: 90.0},
	}

	for _, r := range readings {
		result, err := classifier.Classify(r)
		if err != nil {
			log.Error("classification failed", sl.Err(err))
			continue
		}
		d, err := diag.Diagnose(r)
		if err != nil {
			log.Error("diagnosis failed", sl.Err(err))
			continue
		}
		log.Info("CLASSIFY",
			slog.Float64("pressure", r.Pressure),
			slog.Float64("mileage", r.Mileage),
			slog.Float64("temperature", r.Temperature),
			slog.String("label", result.Label),
			slog.String("severity", result.Severity.String()),
			slog.Float64("score", result.Score),
			slog.String("mode", d.Mode),
			slog.Float64("confidence", d.Confidence),
		)
	}

	series, err := simulator.SimulateWear(100, 42)
	if err != nil {
		log.Error("simulation failed", sl.Err(err))
		return
	}
	last, _ := series.Last()
	log.Info("SIMULATE",
		slog.Int64("seed", series.Seed),
		slog.Int("points", series.Len()),
		slog.String("stop_reason", series.StopReason),
		slog.Float64("final_pressure", last.Pressure),
		slog.Float64("final_temperature", last.Temperature),
		slog.Float64("final_mileage", last.Mileage),
	)
}
