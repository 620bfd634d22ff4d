package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"xscan/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "xscan"

// Metrics 扫描指标，实现 port.ScanObserver
type Metrics struct {
	reg    *prometheus.Registry
	routes map[string]http.Handler

	ScansTotal     *prometheus.CounterVec
	ScanDuration   prometheus.Histogram
	Opportunities  prometheus.Gauge
	SourceFailures *prometheus.CounterVec
	BestProfit     prometheus.Gauge
}

// New 每个实例使用独立 registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		ScansTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Total number of scans by result",
		}, []string{"result"}),
		ScanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall time of a full scan",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		Opportunities: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "opportunities",
			Help:      "Opportunities accepted in the latest scan",
		}),
		SourceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Exchanges dropped from a scan",
		}, []string{"exchange"}),
		BestProfit: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_profit_percent",
			Help:      "Highest fee-adjusted profit percent of the latest scan",
		}),
	}
}

// ObserveScan 没有任何交易所参与的扫描记为 failed
func (m *Metrics) ObserveScan(report *model.ScanReport, took time.Duration) {
	result := "ok"
	if len(report.Participants) == 0 {
		result = "failed"
	} else if len(report.Warnings) > 0 {
		result = "partial"
	}
	m.ScansTotal.WithLabelValues(result).Inc()
	m.ScanDuration.Observe(took.Seconds())

	for _, w := range report.Warnings {
		if w.Exchange != "" {
			m.SourceFailures.WithLabelValues(w.Exchange).Inc()
		}
	}
	if result == "failed" {
		return
	}
	m.Opportunities.Set(float64(len(report.Opportunities)))
	best := 0.0
	if op, ok := report.Best(); ok {
		best = op.ProfitPercent
	}
	m.BestProfit.Set(best)
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Mount 在同一端口挂载额外路由，须在 Serve 之前调用
func (m *Metrics) Mount(pattern string, h http.Handler) {
	if m.routes == nil {
		m.routes = make(map[string]http.Handler)
	}
	m.routes[pattern] = h
}

func (m *Metrics) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	for pattern, h := range m.routes {
		mux.Handle(pattern, h)
	}
	return mux
}

// Serve 启动 /metrics 及已挂载的路由，ctx 结束时关闭
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: m.mux(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("metrics listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
