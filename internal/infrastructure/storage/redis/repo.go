package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"xscan/internal/application/port"
	"xscan/internal/domain/model"
)

// 推送流的近似长度上限
const streamMaxLen = 10_000

type Repo struct {
	rdb       *redis.Client
	prefix    string
	ttl       time.Duration
	keyLatest string // prefix + ":latest"，field = symbol|buy|sell
	keyScan   string // prefix + ":scan"，最近一轮摘要
	oppStream string // prefix + ":opportunities"
	oppChan   string // prefix + ":opportunities:pub"
}

// ScanSummary 发布到频道的一轮扫描摘要
type ScanSummary struct {
	ID            string                   `json:"id"`
	FinishedAtMs  int64                    `json:"finished_at_ms"`
	Participants  []string                 `json:"participants"`
	Opportunities int                      `json:"opportunities"`
	Warnings      []model.Warning          `json:"warnings,omitempty"`
	Best          *model.OpportunityRecord `json:"best,omitempty"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Repo {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "xscan"
	}
	return &Repo{
		rdb:       rdb,
		prefix:    prefix,
		ttl:       ttl,
		keyLatest: prefix + ":latest",
		keyScan:   prefix + ":scan",
		oppStream: prefix + ":opportunities",
		oppChan:   prefix + ":opportunities:pub",
	}
}

func summarize(report *model.ScanReport) ScanSummary {
	s := ScanSummary{
		ID:            report.ID,
		FinishedAtMs:  report.FinishedAt.UnixMilli(),
		Participants:  report.Participants,
		Opportunities: len(report.Opportunities),
		Warnings:      report.Warnings,
	}
	if best, ok := report.Best(); ok {
		s.Best = best
	}
	return s
}

// SaveScan latest hash 整体替换为本轮机会，每条机会追加到 stream，摘要发布到频道
func (r *Repo) SaveScan(ctx context.Context, report *model.ScanReport) error {
	if report == nil {
		return nil
	}
	summary, err := json.Marshal(summarize(report))
	if err != nil {
		return err
	}
	ts := report.FinishedAt.UnixMilli()

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.keyLatest)
		for i := range report.Opportunities {
			o := &report.Opportunities[i]
			b, err := json.Marshal(o)
			if err != nil {
				return err
			}
			pipe.HSet(ctx, r.keyLatest, o.Key.String(), string(b))
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: r.oppStream,
				MaxLen: streamMaxLen,
				Approx: true,
				Values: map[string]any{
					"scan_id": report.ID,
					"ts_ms":   ts,
					"symbol":  o.Key.Symbol,
					"profit":  o.ProfitPercent,
					"payload": string(b),
				},
			})
		}
		pipe.Set(ctx, r.keyScan, string(summary), r.ttl)
		if r.ttl > 0 {
			pipe.Expire(ctx, r.keyLatest, r.ttl)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return r.rdb.Publish(ctx, r.oppChan, string(summary)).Err()
}

// Keys 返回使用到的 key，便于外部消费者订阅
func (r *Repo) Keys() (latest, scan, stream, channel string) {
	return r.keyLatest, r.keyScan, r.oppStream, r.oppChan
}

// Close 客户端由创建方管理
func (r *Repo) Close() error { return nil }

var _ port.OpportunityRepository = (*Repo)(nil)
