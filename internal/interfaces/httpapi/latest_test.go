package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"xscan/internal/domain/model"
	"xscan/internal/infrastructure/storage"
)

type brokenHistory struct{}

func (brokenHistory) LatestScan(ctx context.Context) (*model.ScanReport, error) {
	return nil, errors.New("db locked")
}

func TestLatestHandler(t *testing.T) {
	mem := storage.NewMemory(0)
	h := LatestHandler(mem)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scans/latest", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 before any scan, got %d", rec.Code)
	}

	_ = mem.SaveScan(context.Background(), &model.ScanReport{
		ID:            "scan-7",
		Opportunities: []model.OpportunityRecord{{Pair: "BTC/USDT", ProfitPercent: 2.8, Chain: "BSC"}},
	})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scans/latest", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	var got model.ScanReport
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.ID != "scan-7" || len(got.Opportunities) != 1 || got.Opportunities[0].Chain != "BSC" {
		t.Errorf("unexpected body %+v", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/scans/latest", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	LatestHandler(brokenHistory{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scans/latest", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
