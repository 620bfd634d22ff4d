package scan

import (
	"context"
	"errors"
	"time"

	"xscan/internal/application/port"
	"xscan/internal/domain/model"

	"github.com/rs/zerolog/log"
)

const defaultInterval = 20 * time.Second

// Scanner 执行一轮扫描
type Scanner interface {
	Scan(ctx context.Context) (*model.ScanReport, error)
}

// Runner 定时扫描（自动刷新）并支持手动触发
type Runner struct {
	scanner  Scanner
	sinks    []port.Sink
	interval time.Duration
	trigger  chan struct{}
}

func NewRunner(scanner Scanner, interval time.Duration, sinks ...port.Sink) *Runner {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Runner{
		scanner:  scanner,
		sinks:    sinks,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger 请求立即扫描一次，已有待处理请求时忽略
func (r *Runner) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Once 扫描一次并输出
func (r *Runner) Once(ctx context.Context) error {
	report, err := r.scanner.Scan(ctx)
	if err != nil {
		return err
	}
	for _, s := range r.sinks {
		if err := s.WriteScan(report); err != nil {
			log.Warn().Err(err).Msg("sink write failed")
		}
	}
	return nil
}

// Run 立即扫描，之后每个 interval 扫描一次，直到 ctx 结束
// 未选择交易所时直接返回错误；交易所全部失败只记录日志，下一轮继续
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.Once(ctx); err != nil {
			if errors.Is(err, ErrNoExchangesSelected) {
				return err
			}
			log.Error().Err(err).Msg("scan failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-r.trigger:
			ticker.Reset(r.interval)
		}
	}
}
