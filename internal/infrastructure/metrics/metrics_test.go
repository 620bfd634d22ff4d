package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"xscan/internal/domain/model"
)

// value 从 registry 读取指标值，label 为空时取第一条
func value(t *testing.T, m *Metrics, name, label string) float64 {
	t.Helper()
	mfs, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if label != "" {
				match := false
				for _, lp := range metric.GetLabel() {
					if lp.GetValue() == label {
						match = true
					}
				}
				if !match {
					continue
				}
			}
			if c := metric.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				return g.GetValue()
			}
		}
	}
	return -1
}

func TestObserveScan(t *testing.T) {
	m := New()
	m.ObserveScan(&model.ScanReport{
		Participants:  []string{"gateio", "kucoin"},
		Opportunities: []model.OpportunityRecord{{ProfitPercent: 2.8}, {ProfitPercent: 1.1}},
		Warnings:      []model.Warning{{Exchange: "bitget", Op: "load_markets"}},
	}, 2*time.Second)
	m.ObserveScan(&model.ScanReport{}, time.Second)

	if got := value(t, m, "xscan_scans_total", "partial"); got != 1 {
		t.Errorf("expected 1 partial scan, got %v", got)
	}
	if got := value(t, m, "xscan_scans_total", "failed"); got != 1 {
		t.Errorf("expected 1 failed scan, got %v", got)
	}
	if got := value(t, m, "xscan_opportunities", ""); got != 2 {
		t.Errorf("failed scan should not reset opportunities gauge, got %v", got)
	}
	if got := value(t, m, "xscan_best_profit_percent", ""); got != 2.8 {
		t.Errorf("expected best profit 2.8, got %v", got)
	}
	if got := value(t, m, "xscan_source_failures_total", "bitget"); got != 1 {
		t.Errorf("expected 1 bitget failure, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "xscan_scans_total") {
		t.Error("metrics endpoint missing xscan_scans_total")
	}
}

func TestMountServesExtraRoutes(t *testing.T) {
	m := New()
	m.Mount("/scans/latest", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	mux := m.mux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/scans/latest", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("mounted route returned %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("metrics route returned %d", rec.Code)
	}
}
