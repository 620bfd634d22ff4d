package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"xscan/internal/application/port"
	"xscan/internal/domain/model"
	"xscan/internal/infrastructure/storage"
)

// 每条机会写入的列数
const oppColumns = 18

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS scans (
  id TEXT PRIMARY KEY,
  started_at_ms BIGINT NOT NULL,
  finished_at_ms BIGINT NOT NULL,
  participants JSONB NOT NULL,
  warnings JSONB NOT NULL,
  opportunity_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scans_finished ON scans(finished_at_ms);

CREATE TABLE IF NOT EXISTS opportunities (
  id BIGSERIAL PRIMARY KEY,
  scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
  ord INTEGER NOT NULL,
  symbol TEXT NOT NULL,
  pair TEXT NOT NULL,
  buy_exchange TEXT NOT NULL,
  sell_exchange TEXT NOT NULL,
  buy_price DOUBLE PRECISION NOT NULL,
  sell_price DOUBLE PRECISION NOT NULL,
  spread_percent DOUBLE PRECISION NOT NULL,
  profit_percent DOUBLE PRECISION NOT NULL,
  buy_volume_usd DOUBLE PRECISION NOT NULL,
  sell_volume_usd DOUBLE PRECISION NOT NULL,
  chain TEXT NOT NULL,
  withdraw_ok BOOLEAN NOT NULL,
  deposit_ok BOOLEAN NOT NULL,
  stability TEXT NOT NULL,
  expiry TEXT NOT NULL,
  ts_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_opp_scan ON opportunities(scan_id);
CREATE INDEX IF NOT EXISTS idx_opp_symbol ON opportunities(symbol);
`)
	return err
}

func (r *Repo) SaveScan(ctx context.Context, report *model.ScanReport) error {
	if report == nil {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ts := report.FinishedAt.UnixMilli()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO scans(id, started_at_ms, finished_at_ms, participants, warnings, opportunity_count)
		VALUES($1, $2, $3, $4::jsonb, $5::jsonb, $6)
		ON CONFLICT(id) DO UPDATE SET
		finished_at_ms=EXCLUDED.finished_at_ms, participants=EXCLUDED.participants,
		warnings=EXCLUDED.warnings, opportunity_count=EXCLUDED.opportunity_count
	`, report.ID, report.StartedAt.UnixMilli(), ts,
		storage.EncodeStrings(report.Participants), storage.EncodeWarnings(report.Warnings), len(report.Opportunities))
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM opportunities WHERE scan_id=$1`, report.ID); err != nil {
		return err
	}

	if len(report.Opportunities) > 0 {
		query, args := insertOpportunities(report.ID, ts, report.Opportunities)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// insertOpportunities 生成单条多行 INSERT
func insertOpportunities(scanID string, ts int64, opps []model.OpportunityRecord) (string, []any) {
	var b strings.Builder
	b.WriteString(`INSERT INTO opportunities(scan_id, ord, symbol, pair, buy_exchange, sell_exchange, buy_price, sell_price,
spread_percent, profit_percent, buy_volume_usd, sell_volume_usd, chain, withdraw_ok, deposit_ok, stability, expiry, ts_ms) VALUES `)

	args := make([]any, 0, len(opps)*oppColumns)
	for i, o := range opps {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := 0; c < oppColumns; c++ {
			if c > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", i*oppColumns+c+1)
		}
		b.WriteByte(')')
		args = append(args, scanID, i, o.Key.Symbol, o.Pair, o.BuyExchange, o.SellExchange,
			o.BuyPrice, o.SellPrice, o.SpreadPercent, o.ProfitPercent, o.BuyVolumeUSD, o.SellVolumeUSD,
			o.Chain, o.WithdrawOK, o.DepositOK, o.Stability, o.Expiry, ts)
	}
	return b.String(), args
}

var _ port.OpportunityRepository = (*Repo)(nil)
