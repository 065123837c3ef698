// Package sqlite implements the ports.TradeJournal interface as an
// append-only closed-trade log. The journal is audit output for the
// operator's history view; the portfolio never reads it back to rebuild
// state.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"riskcalc/internal/domain"
	"riskcalc/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Journal implements the ports.TradeJournal interface using SQLite.
type Journal struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite journal.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewJournal creates a new SQLite trade journal.
func NewJournal(cfg Config) (*Journal, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite journal")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/riskcalc.db" // Default path
	}

	// The in-memory DSN (used by tests) has no parent directory to create.
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			err = fmt.Errorf("failed to create data directory '%s': %w", dir, err)
			cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from a
	// single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{db: db, logger: cfg.Logger}
	if err := j.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize journal schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	cfg.Logger.Info(context.Background(), "SQLite trade journal ready", map[string]interface{}{"path": dbPath})
	return j, nil
}

func (j *Journal) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trade_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		position_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		mode TEXT NOT NULL,
		entry_price REAL NOT NULL,
		close_price REAL NOT NULL,
		quantity REAL NOT NULL,
		leverage REAL NOT NULL,
		margin REAL NOT NULL,
		pnl REAL NOT NULL,
		opened_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trade_history_closed_at ON trade_history (closed_at);
	`
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db != nil {
		j.logger.Info(context.Background(), "Closing SQLite trade journal")
		return j.db.Close()
	}
	return nil
}

// Record appends a closed trade and returns its assigned ID.
func (j *Journal) Record(ctx context.Context, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trade_history (position_id, symbol, side, mode, entry_price, close_price, quantity, leverage, margin, pnl, opened_at, closed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := j.db.ExecContext(ctx, query,
		trade.PositionID, trade.Symbol, string(trade.Side), string(trade.Mode),
		trade.EntryPrice, trade.ClosePrice, trade.Quantity, trade.Leverage,
		trade.Margin, trade.PNL, trade.OpenedAt, trade.ClosedAt)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to record trade for position #%d: %v", ports.ErrQueryFailed, trade.PositionID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get journal id for position #%d: %v", ports.ErrQueryFailed, trade.PositionID, err)
	}
	trade.ID = id
	return id, nil
}

// Recent returns up to limit trades, most recently closed first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]*domain.Trade, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
	SELECT id, position_id, symbol, side, mode, entry_price, close_price, quantity, leverage, margin, pnl, opened_at, closed_at
	FROM trade_history
	ORDER BY closed_at DESC, id DESC
	LIMIT ?`

	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query trade history: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		t := &domain.Trade{}
		var side, mode string
		if err := rows.Scan(&t.ID, &t.PositionID, &t.Symbol, &side, &mode,
			&t.EntryPrice, &t.ClosePrice, &t.Quantity, &t.Leverage,
			&t.Margin, &t.PNL, &t.OpenedAt, &t.ClosedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan trade row: %v", ports.ErrQueryFailed, err)
		}
		t.Side = domain.Side(side)
		t.Mode = domain.MarginMode(mode)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed iterating trade rows: %v", ports.ErrQueryFailed, err)
	}
	return trades, nil
}
