package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"xscan/internal/application/port"
)

// LatestHandler GET /scans/latest，返回最近一轮扫描的 JSON，尚无扫描时 204
func LatestHandler(h port.ScanHistory) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		rep, err := h.LatestScan(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("read latest scan failed")
			http.Error(w, "read latest scan failed", http.StatusInternalServerError)
			return
		}
		if rep == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rep); err != nil {
			log.Debug().Err(err).Msg("write latest scan failed")
		}
	})
}
