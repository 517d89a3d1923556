package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/planfoundry/compliance-checker/core"
	"github.com/planfoundry/compliance-checker/ifc"
	"github.com/planfoundry/compliance-checker/internal/httpapi"
	"github.com/planfoundry/compliance-checker/internal/logging"
	"github.com/planfoundry/compliance-checker/internal/observability"
	"github.com/planfoundry/compliance-checker/model"
	"github.com/planfoundry/compliance-checker/store"
)

func main() {
	addr := flag.String("addr", ":8080", "TCP address the checker API listens on")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	modelPath := flag.String("model", "", "optional IFC model to load at startup")
	schoolTypesPath := flag.String("school-types", "", "path to a school type catalog JSON, built-in defaults when empty")
	flag.Parse()

	// A .env file is optional; explicit environment always wins.
	_ = godotenv.Load()

	log := logging.NewFromEnv()
	ctx := context.Background()

	collector, err := observability.NewCheckCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}

	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	st := store.NewStore()
	srv, err := httpapi.NewServer(httpapi.Config{
		Store:       st,
		SchoolTypes: loadSchoolTypes(log, *schoolTypesPath),
		Logger:      log,
		Metrics:     collector,
	})
	if err != nil {
		log.Error(ctx, "failed to construct server", logging.Err(err))
		os.Exit(1)
	}

	if *modelPath != "" {
		loadInitialModel(ctx, log, st, *modelPath)
	}

	httpSrv := &http.Server{
		Addr:    *addr,
		Handler: srv.Router(),
	}

	log.Info(ctx, "starting checker API server", logging.String("addr", *addr))
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "API server exited", logging.Err(err))
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down checker server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
}

func serveMetrics(addr string, collector *observability.CheckCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

func loadSchoolTypes(log logging.Logger, path string) []model.SchoolType {
	if path == "" {
		return core.DefaultSchoolTypes()
	}
	f, err := os.Open(path)
	if err != nil {
		log.Warn(context.Background(), "falling back to built-in school types",
			logging.String("path", path), logging.Err(err))
		return core.DefaultSchoolTypes()
	}
	defer f.Close()

	types, err := core.LoadSchoolTypes(f)
	if err != nil {
		log.Warn(context.Background(), "failed to parse school type catalog",
			logging.String("path", path), logging.Err(err))
		return core.DefaultSchoolTypes()
	}
	log.Info(context.Background(), "loaded school type catalog",
		logging.String("path", path), logging.Int("count", len(types)))
	return types
}

func loadInitialModel(ctx context.Context, log logging.Logger, st *store.Store, path string) {
	m, err := ifc.LoadFile(path)
	if err != nil {
		log.Warn(ctx, "skipping initial model load", logging.String("path", path), logging.Err(err))
		return
	}
	snap, err := st.Load(m, path)
	if err != nil {
		log.Warn(ctx, "failed to evaluate initial model", logging.String("path", path), logging.Err(err))
		return
	}
	log.Info(ctx, "initial model loaded",
		logging.String("path", path),
		logging.String("run_id", snap.Evaluation.RunID),
		logging.Int("records", len(snap.Evaluation.Records)),
	)
}
