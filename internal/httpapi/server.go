package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/planfoundry/compliance-checker/core"
	"github.com/planfoundry/compliance-checker/ifc"
	"github.com/planfoundry/compliance-checker/internal/logging"
	"github.com/planfoundry/compliance-checker/internal/observability"
	"github.com/planfoundry/compliance-checker/model"
	"github.com/planfoundry/compliance-checker/store"
)

// defaultMaxModelBytes bounds uploaded model payloads.
const defaultMaxModelBytes = 64 << 20

// tracerName identifies this package's spans.
const tracerName = "httpapi"

// Config carries the server's collaborators. Store and SchoolTypes are
// required; the rest default to no-ops.
type Config struct {
	Store       *store.Store
	SchoolTypes []model.SchoolType
	Logger      logging.Logger
	Metrics     *observability.CheckCollector
	MaxBytes    int64
}

// Server exposes the checker over HTTP.
type Server struct {
	store       *store.Store
	schoolTypes []model.SchoolType
	log         logging.Logger
	metrics     *observability.CheckCollector
	maxBytes    int64
}

// NewServer wires a server and subscribes the metrics gauges to store
// events so snapshot counts stay current however a model gets loaded.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("httpapi: store is required")
	}
	if len(cfg.SchoolTypes) == 0 {
		return nil, fmt.Errorf("httpapi: school type catalog is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Noop()
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxModelBytes
	}

	s := &Server{
		store:       cfg.Store,
		schoolTypes: cfg.SchoolTypes,
		log:         log,
		metrics:     cfg.Metrics,
		maxBytes:    maxBytes,
	}

	if s.metrics != nil {
		s.store.Subscribe(func(e store.Event) {
			if e.Type != store.EventModelLoaded {
				return
			}
			s.metrics.SetModelCounts(e.Spaces, e.Storeys)
			s.metrics.RecordEvaluation()
		})
	}
	return s, nil
}

// Router builds the chi routing tree with the server's middleware stack.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware())
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/models", s.handleLoadModel)
		r.Get("/checks", s.handleChecks)
		r.Get("/spaces", s.handleSpaces)
		r.Get("/spaces.csv", s.handleSpacesCSV)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLoadModel parses an uploaded STEP model and installs it as the
// current snapshot.
func (s *Server) handleLoadModel(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "LoadModel")
	defer span.End()

	body := http.MaxBytesReader(w, r.Body, s.maxBytes)
	m, err := ifc.Load(body)
	if err != nil {
		writeError(ctx, w, s.log, fmt.Errorf("%w: %v", ErrUnparsableModel, err))
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload:" + logging.RequestIDFromContext(ctx)
	}
	snap, err := s.store.Load(m, source)
	if err != nil {
		writeError(ctx, w, s.log, err)
		return
	}

	ev := snap.Evaluation
	span.SetAttributes(
		attribute.String("checker.run_id", ev.RunID),
		attribute.Int("checker.records", len(ev.Records)),
	)
	s.log.Info(ctx, "model loaded",
		logging.String("run_id", ev.RunID),
		logging.String("source", source),
		logging.Int("spaces_seen", ev.SpacesSeen),
		logging.Int("records", len(ev.Records)),
		logging.Float64("scale", ev.Scale),
		logging.Bool("unit_defaulted", ev.Units.Defaulted),
	)
	writeJSON(w, http.StatusCreated, ev)
}

// checkResponse is the verdict envelope for one check request.
type checkResponse struct {
	RunID      string             `json:"run_id"`
	SchoolType string             `json:"school_type"`
	Passed     bool               `json:"passed"`
	Results    []model.RuleResult `json:"results"`
}

func (s *Server) handleChecks(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "EvaluateChecks")
	defer span.End()

	snap, ok := s.store.Current()
	if !ok {
		writeError(ctx, w, s.log, core.ErrNoModel)
		return
	}

	params, schoolTypeID, err := s.ruleParams(r)
	if err != nil {
		writeError(ctx, w, s.log, err)
		return
	}

	results := core.EvaluateRules(snap.Evaluation, params)
	if s.metrics != nil {
		s.metrics.RecordVerdicts(results)
	}

	passed := true
	for _, res := range results {
		passed = passed && res.Passed
	}
	span.SetAttributes(
		attribute.String("checker.school_type", schoolTypeID),
		attribute.Bool("checker.passed", passed),
	)
	s.log.Info(ctx, "check evaluated",
		logging.String("run_id", snap.Evaluation.RunID),
		logging.String("school_type", schoolTypeID),
		logging.Bool("passed", passed),
	)
	writeJSON(w, http.StatusOK, checkResponse{
		RunID:      snap.Evaluation.RunID,
		SchoolType: schoolTypeID,
		Passed:     passed,
		Results:    results,
	})
}

// ruleParams reads the check parameters off the query string.
func (s *Server) ruleParams(r *http.Request) (core.RuleParams, string, error) {
	q := r.URL.Query()

	typeID := q.Get("school_type")
	if typeID == "" {
		return core.RuleParams{}, "", fmt.Errorf("%w: school_type is required", ErrBadParameter)
	}
	schoolType, ok := core.SchoolTypeByID(s.schoolTypes, typeID)
	if !ok {
		return core.RuleParams{}, "", fmt.Errorf("%w: unknown school_type %q", ErrBadParameter, typeID)
	}

	maxStoreys := core.DefaultMaxClassroomStoreys
	if raw := q.Get("max_storeys"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return core.RuleParams{}, "", fmt.Errorf("%w: max_storeys must be a positive integer", ErrBadParameter)
		}
		maxStoreys = n
	}

	staff := 0
	if raw := q.Get("staff"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return core.RuleParams{}, "", fmt.Errorf("%w: staff must be a non-negative integer", ErrBadParameter)
		}
		staff = n
	}

	return core.RuleParams{
		SchoolType: schoolType,
		MaxStoreys: maxStoreys,
		StaffCount: staff,
	}, typeID, nil
}

func (s *Server) handleSpaces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, ok := s.store.Current()
	if !ok {
		writeError(ctx, w, s.log, core.ErrNoModel)
		return
	}
	writeJSON(w, http.StatusOK, snap.Evaluation)
}

func (s *Server) handleSpacesCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, ok := s.store.Current()
	if !ok {
		writeError(ctx, w, s.log, core.ErrNoModel)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="spaces.csv"`)
	if err := core.WriteCSV(w, snap.Evaluation.Records); err != nil {
		s.log.Error(ctx, "csv export failed", logging.Err(err))
	}
}
