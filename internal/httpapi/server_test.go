package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/planfoundry/compliance-checker/core"
	"github.com/planfoundry/compliance-checker/internal/observability"
	"github.com/planfoundry/compliance-checker/store"
)

// modelFixture is a minimal STEP model: one storey, one classroom with a
// stored quantity area, and one parking space without geometry.
const modelFixture = `ISO-10303-21;
HEADER;
FILE_SCHEMA(('IFC4'));
ENDSEC;
DATA;
#10=IFCBUILDINGSTOREY('st1',$,'Level 1',$,$,$,$,$,.ELEMENT.,0.);
#11=IFCSPACE('sp1',$,'101',$,$,$,$,'Classroom 101',.ELEMENT.,.INTERNAL.,$);
#12=IFCSPACE('sp2',$,'parking',$,$,$,$,$,.ELEMENT.,.INTERNAL.,$);
#20=IFCRELAGGREGATES('agg',$,$,$,#10,(#11,#12));
#30=IFCQUANTITYAREA('GrossFloorArea',$,$,48.,$);
#31=IFCELEMENTQUANTITY('eq',$,'BaseQuantities',$,$,(#30));
#32=IFCRELDEFINESBYPROPERTIES('def',$,$,$,(#11),#31);
#40=IFCUNITASSIGNMENT((#41));
#41=IFCSIUNIT(*,.LENGTHUNIT.,$,.METRE.);
ENDSEC;
END-ISO-10303-21;
`

func newTestServer(t *testing.T) (*Server, *observability.CheckCollector) {
	t.Helper()
	collector, err := observability.NewCheckCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCheckCollector: %v", err)
	}
	srv, err := NewServer(Config{
		Store:       store.NewStore(),
		SchoolTypes: core.DefaultSchoolTypes(),
		Metrics:     collector,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, collector
}

func loadModel(t *testing.T, router http.Handler) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/models", strings.NewReader(modelFixture))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("POST /v1/models status = %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestNewServerRequiresCollaborators(t *testing.T) {
	if _, err := NewServer(Config{SchoolTypes: core.DefaultSchoolTypes()}); err == nil {
		t.Fatalf("expected error without store")
	}
	if _, err := NewServer(Config{Store: store.NewStore()}); err == nil {
		t.Fatalf("expected error without school types")
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/healthz status = %d, want 200", rr.Code)
	}
}

func TestLoadModelAndListSpaces(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()
	loadModel(t, router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/spaces", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /v1/spaces status = %d", rr.Code)
	}

	var ev struct {
		RunID   string `json:"run_id"`
		Records []struct {
			GlobalID string   `json:"global_id"`
			Category string   `json:"category"`
			Storey   string   `json:"storey"`
			Area     *float64 `json:"area"`
		} `json:"records"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &ev); err != nil {
		t.Fatalf("decode spaces response: %v", err)
	}
	if ev.RunID == "" || len(ev.Records) != 2 {
		t.Fatalf("spaces response = %+v, want run ID and 2 records", ev)
	}

	byID := map[string]int{}
	for i, r := range ev.Records {
		byID[r.GlobalID] = i
	}
	classroom := ev.Records[byID["sp1"]]
	if classroom.Storey != "Level 1" || classroom.Area == nil || *classroom.Area != 48.0 {
		t.Fatalf("classroom record = %+v", classroom)
	}
	parking := ev.Records[byID["sp2"]]
	if parking.Category != "parking" || parking.Area != nil {
		t.Fatalf("parking record = %+v, want parking with unknown area", parking)
	}
}

func TestLoadModelRejectsGarbage(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/models", strings.NewReader("not a model"))
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("garbage upload status = %d, want 422", rr.Code)
	}
}

func TestChecksBeforeLoadConflicts(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()
	for _, path := range []string{"/v1/checks?school_type=1", "/v1/spaces", "/v1/spaces.csv"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusConflict {
			t.Fatalf("GET %s status = %d, want 409 before any load", path, rr.Code)
		}
	}
}

func TestChecksEvaluatesRules(t *testing.T) {
	srv, collector := newTestServer(t)
	router := srv.Router()
	loadModel(t, router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/checks?school_type=1&staff=0", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /v1/checks status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		RunID      string `json:"run_id"`
		SchoolType string `json:"school_type"`
		Passed     bool   `json:"passed"`
		Results    []struct {
			RuleID   string  `json:"rule_id"`
			Passed   bool    `json:"passed"`
			Measured float64 `json:"measured"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode checks response: %v", err)
	}
	if resp.SchoolType != "1" || len(resp.Results) != 3 {
		t.Fatalf("checks response = %+v, want 3 results for type 1", resp)
	}

	byRule := map[string]int{}
	for i, res := range resp.Results {
		byRule[res.RuleID] = i
	}
	// One exact classroom is not a permitted count for type 1.
	count := resp.Results[byRule["classroom-count"]]
	if count.Passed || count.Measured != 1 {
		t.Fatalf("classroom-count = %+v, want fail at 1", count)
	}
	// Zero staff need zero slots.
	park := resp.Results[byRule["parking-capacity"]]
	if !park.Passed {
		t.Fatalf("parking-capacity = %+v, want pass with no staff", park)
	}
	if resp.Passed {
		t.Fatalf("overall verdict should fail when any rule fails")
	}

	if got := testutil.ToFloat64(collector.RuleVerdicts.WithLabelValues("classroom-count", "fail")); got != 1 {
		t.Fatalf("rule_verdicts_total = %v, want 1", got)
	}
}

func TestChecksParameterValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()
	loadModel(t, router)

	for _, path := range []string{
		"/v1/checks",
		"/v1/checks?school_type=99",
		"/v1/checks?school_type=1&max_storeys=0",
		"/v1/checks?school_type=1&staff=-2",
		"/v1/checks?school_type=1&staff=abc",
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("GET %s status = %d, want 400", path, rr.Code)
		}
	}
}

func TestSpacesCSV(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()
	loadModel(t, router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/spaces.csv", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /v1/spaces.csv status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q, want text/csv", ct)
	}
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	if lines[0] != "global_id,name,storey,area_m2,category" {
		t.Fatalf("CSV header = %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("CSV has %d lines, want header + 2 records", len(lines))
	}
}

func TestRequestIDPropagation(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "caller-chosen-id")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if got := rr.Header().Get(requestIDHeader); got != "caller-chosen-id" {
		t.Fatalf("echoed request ID = %q", got)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Header().Get(requestIDHeader) == "" {
		t.Fatalf("missing generated request ID")
	}
}
