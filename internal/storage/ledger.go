// Package storage keeps the append-only audit ledger: every decision, order
// and closed trade, in an embedded SQLite database.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    tick      INTEGER  NOT NULL,
    at        DATETIME NOT NULL,
    market    TEXT     NOT NULL,
    action    TEXT     NOT NULL,
    price     REAL     NOT NULL,
    reason    TEXT     NOT NULL DEFAULT '',
    signals   TEXT     NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS orders (
    id              TEXT PRIMARY KEY,
    client_order_id TEXT,
    market          TEXT     NOT NULL,
    side            TEXT     NOT NULL,
    size            REAL     NOT NULL,
    price           REAL     NOT NULL,
    fee             REAL     NOT NULL DEFAULT 0,
    status          TEXT     NOT NULL,
    created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    market      TEXT     NOT NULL,
    entry_time  DATETIME NOT NULL,
    exit_time   DATETIME NOT NULL,
    entry_price REAL     NOT NULL,
    exit_price  REAL     NOT NULL,
    size        REAL     NOT NULL,
    fees        REAL     NOT NULL DEFAULT 0,
    margin_pct  REAL     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_market ON decisions(market, at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_market    ON trades(market, exit_time DESC);
`

// Ledger is the trading audit trail.
type Ledger struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database and applies the schema.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // sqlite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// RecordDecision appends one tick's decision.
func (l *Ledger) RecordDecision(ctx context.Context, d types.Decision) error {
	signals, err := json.Marshal(d.Signals)
	if err != nil {
		return fmt.Errorf("marshal decision signals: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO decisions (tick, at, market, action, price, reason, signals) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Tick, d.Timestamp.UTC(), d.Market, string(d.Action), d.Price, d.Reason, string(signals))
	if err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

// RecordOrder upserts an order; reconciliation may update a status later.
func (l *Ledger) RecordOrder(ctx context.Context, o types.Order) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO orders (id, client_order_id, market, side, size, price, fee, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET size = excluded.size, price = excluded.price,
		   fee = excluded.fee, status = excluded.status`,
		o.ID, o.ClientOrderID, o.Market, string(o.Side), o.Size, o.Price, o.Fee, string(o.Status), o.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("record order: %w", err)
	}
	return nil
}

// RecordTrade appends one closed round trip.
func (l *Ledger) RecordTrade(ctx context.Context, t types.TradeRecord) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO trades (market, entry_time, exit_time, entry_price, exit_price, size, fees, margin_pct)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Market, t.EntryTime.UTC(), t.ExitTime.UTC(), t.EntryPrice, t.ExitPrice, t.Size, t.Fees, t.MarginPct)
	if err != nil {
		return fmt.Errorf("record trade: %w", err)
	}
	return nil
}

// Trades returns the market's closed trades, oldest first.
func (l *Ledger) Trades(ctx context.Context, market string) ([]types.TradeRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT market, entry_time, exit_time, entry_price, exit_price, size, fees, margin_pct
		 FROM trades WHERE market = ? ORDER BY exit_time ASC`, market)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []types.TradeRecord
	for rows.Next() {
		var t types.TradeRecord
		var entry, exit time.Time
		if err := rows.Scan(&t.Market, &entry, &exit, &t.EntryPrice, &t.ExitPrice, &t.Size, &t.Fees, &t.MarginPct); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.EntryTime, t.ExitTime = entry.UTC(), exit.UTC()
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// LastDecision returns the most recent decision for the market, or false
// when none is recorded yet.
func (l *Ledger) LastDecision(ctx context.Context, market string) (types.Decision, bool, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT tick, at, market, action, price, reason, signals
		 FROM decisions WHERE market = ? ORDER BY id DESC LIMIT 1`, market)

	var d types.Decision
	var action, signals string
	var at time.Time
	err := row.Scan(&d.Tick, &at, &d.Market, &action, &d.Price, &d.Reason, &signals)
	if err == sql.ErrNoRows {
		return types.Decision{}, false, nil
	}
	if err != nil {
		return types.Decision{}, false, fmt.Errorf("scan decision: %w", err)
	}
	d.Timestamp = at.UTC()
	d.Action = types.Action(action)
	if err := json.Unmarshal([]byte(signals), &d.Signals); err != nil {
		d.Signals = nil
	}
	return d, true, nil
}
