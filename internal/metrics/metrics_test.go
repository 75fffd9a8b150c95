package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/SocialCodeTFC/Backend/internal/model"
)

// findMetric は指定名・ラベルに一致するメトリクスを返す。
func findMetric(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return nil
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	matched := 0
	for _, lp := range m.GetLabel() {
		if v, ok := want[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(want)
}

func TestRecordAuthOutcome_CountsByResultAndKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthOutcome("login", "", true)
	c.RecordAuthOutcome("login", model.KindBadRequest, false)
	c.RecordAuthOutcome("login", model.KindBadRequest, false)

	success := findMetric(t, reg, "socialcode_auth_outcomes_total",
		map[string]string{"operation": "login", "result": "success"})
	if v := success.GetCounter().GetValue(); v != 1 {
		t.Errorf("success = %v, want 1", v)
	}

	failure := findMetric(t, reg, "socialcode_auth_outcomes_total",
		map[string]string{"operation": "login", "result": "failure", "kind": "bad_request"})
	if v := failure.GetCounter().GetValue(); v != 2 {
		t.Errorf("failure = %v, want 2", v)
	}
}

func TestObserveHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveHTTPRequest("GET", "/posts/{id}", 404, 15*time.Millisecond)

	count := findMetric(t, reg, "socialcode_http_requests_total",
		map[string]string{"method": "GET", "route": "/posts/{id}", "status_code": "404"})
	if v := count.GetCounter().GetValue(); v != 1 {
		t.Errorf("requests = %v, want 1", v)
	}

	hist := findMetric(t, reg, "socialcode_http_request_duration_seconds",
		map[string]string{"method": "GET", "route": "/posts/{id}"})
	if n := hist.GetHistogram().GetSampleCount(); n != 1 {
		t.Errorf("sample count = %d, want 1", n)
	}
}

func TestRecordCleanup(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCleanup(3, nil)
	c.RecordCleanup(0, errors.New("db down"))

	pruned := findMetric(t, reg, "socialcode_cleanup_accounts_pruned_total", nil)
	if v := pruned.GetCounter().GetValue(); v != 3 {
		t.Errorf("pruned = %v, want 3", v)
	}
	failed := findMetric(t, reg, "socialcode_cleanup_runs_total", map[string]string{"result": "failure"})
	if v := failed.GetCounter().GetValue(); v != 1 {
		t.Errorf("failed runs = %v, want 1", v)
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordAuthOutcome("register", "", true)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), "socialcode_auth_outcomes_total") {
		t.Error("response should contain socialcode_auth_outcomes_total")
	}
}
