package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"xscan/internal/application/port"
	"xscan/internal/domain/model"
	"xscan/internal/infrastructure/storage"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

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
  started_at_ms INTEGER NOT NULL,
  finished_at_ms INTEGER NOT NULL,
  participants TEXT NOT NULL,
  warnings TEXT NOT NULL,
  opportunity_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scans_finished ON scans(finished_at_ms);

CREATE TABLE IF NOT EXISTS opportunities (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  scan_id TEXT NOT NULL,
  ord INTEGER NOT NULL,
  symbol TEXT NOT NULL,
  pair TEXT NOT NULL,
  buy_exchange TEXT NOT NULL,
  sell_exchange TEXT NOT NULL,
  buy_price REAL NOT NULL,
  sell_price REAL NOT NULL,
  spread_percent REAL NOT NULL,
  profit_percent REAL NOT NULL,
  buy_volume_usd REAL NOT NULL,
  sell_volume_usd REAL NOT NULL,
  chain TEXT NOT NULL,
  withdraw_ok INTEGER NOT NULL,
  deposit_ok INTEGER NOT NULL,
  stability TEXT NOT NULL,
  expiry TEXT NOT NULL,
  ts_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_opp_scan ON opportunities(scan_id);
CREATE INDEX IF NOT EXISTS idx_opp_symbol ON opportunities(symbol);
`)
	return err
}

// SaveScan 一轮扫描在一个事务内写入
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
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		finished_at_ms=excluded.finished_at_ms, participants=excluded.participants,
		warnings=excluded.warnings, opportunity_count=excluded.opportunity_count
	`, report.ID, report.StartedAt.UnixMilli(), ts,
		storage.EncodeStrings(report.Participants), storage.EncodeWarnings(report.Warnings), len(report.Opportunities))
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM opportunities WHERE scan_id=?`, report.ID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO opportunities(scan_id, ord, symbol, pair, buy_exchange, sell_exchange, buy_price, sell_price,
		spread_percent, profit_percent, buy_volume_usd, sell_volume_usd, chain, withdraw_ok, deposit_ok,
		stability, expiry, ts_ms)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, o := range report.Opportunities {
		if _, err := stmt.ExecContext(ctx, report.ID, i, o.Key.Symbol, o.Pair, o.BuyExchange, o.SellExchange,
			o.BuyPrice, o.SellPrice, o.SpreadPercent, o.ProfitPercent, o.BuyVolumeUSD, o.SellVolumeUSD,
			o.Chain, o.WithdrawOK, o.DepositOK, o.Stability, o.Expiry, ts); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LatestScan 最近一轮扫描（含机会，按利润排序），没有记录时返回 nil
func (r *Repo) LatestScan(ctx context.Context) (*model.ScanReport, error) {
	var (
		rep                  model.ScanReport
		startMs, finishMs    int64
		participants, warned string
		count                int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, started_at_ms, finished_at_ms, participants, warnings, opportunity_count
		FROM scans ORDER BY finished_at_ms DESC LIMIT 1
	`).Scan(&rep.ID, &startMs, &finishMs, &participants, &warned, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rep.StartedAt = msTime(startMs)
	rep.FinishedAt = msTime(finishMs)
	rep.Participants = storage.DecodeStrings(participants)
	rep.Warnings = storage.DecodeWarnings(warned)

	opps, err := r.Opportunities(ctx, rep.ID)
	if err != nil {
		return nil, err
	}
	rep.Opportunities = opps
	return &rep, nil
}

// Opportunities 某一轮扫描的全部机会
func (r *Repo) Opportunities(ctx context.Context, scanID string) ([]model.OpportunityRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, pair, buy_exchange, sell_exchange, buy_price, sell_price, spread_percent, profit_percent,
		buy_volume_usd, sell_volume_usd, chain, withdraw_ok, deposit_ok, stability, expiry
		FROM opportunities WHERE scan_id=? ORDER BY ord
	`, scanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OpportunityRecord
	for rows.Next() {
		var o model.OpportunityRecord
		if err := rows.Scan(&o.Key.Symbol, &o.Pair, &o.BuyExchange, &o.SellExchange, &o.BuyPrice, &o.SellPrice,
			&o.SpreadPercent, &o.ProfitPercent, &o.BuyVolumeUSD, &o.SellVolumeUSD, &o.Chain,
			&o.WithdrawOK, &o.DepositOK, &o.Stability, &o.Expiry); err != nil {
			return nil, err
		}
		o.Key.BuyExchange = o.BuyExchange
		o.Key.SellExchange = o.SellExchange
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountScans 已保存的扫描轮数
func (r *Repo) CountScans(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans`).Scan(&n)
	return n, err
}

func msTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var (
	_ port.OpportunityRepository = (*Repo)(nil)
	_ port.ScanHistory           = (*Repo)(nil)
)
