package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the audit trail to a SQLite database.
type SQLiteRecorder struct {
	db        *sql.DB
	mu        sync.Mutex
	sessionID string
	logger    *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
// Every row written through it carries a fresh session id.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, sessionID: uuid.NewString(), logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath), zap.String("session", r.sessionID))
	return r, nil
}

// SessionID identifies the process that wrote a row.
func (r *SQLiteRecorder) SessionID() string { return r.sessionID }

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS calculations (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			equation   TEXT NOT NULL,
			result     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_calculations_ts ON calculations(timestamp)`,

		`CREATE TABLE IF NOT EXISTS conversions (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			session_id    TEXT NOT NULL,
			amount        REAL,
			from_currency TEXT,
			to_currency   TEXT,
			converted     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_ts ON conversions(timestamp)`,

		`CREATE TABLE IF NOT EXISTS rate_updates (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			source     TEXT,
			status     TEXT,
			reason     TEXT,
			usd        REAL,
			ron        REAL,
			gbp        REAL,
			try        REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rate_updates_ts ON rate_updates(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCalculation(evt *CalculationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO calculations
		(timestamp, session_id, equation, result)
		VALUES (?,?,?,?)`,
		time.Now().Unix(), r.sessionID, evt.Equation, evt.Result,
	)
	return err
}

func (r *SQLiteRecorder) RecordConversion(evt *ConversionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO conversions
		(timestamp, session_id, amount, from_currency, to_currency, converted)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), r.sessionID, evt.Amount, evt.From, evt.To, evt.Converted,
	)
	return err
}

// RecordRateUpdate stores one fetch cycle. Missing rates are stored as NULL.
func (r *SQLiteRecorder) RecordRateUpdate(evt *RateUpdateEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rate := func(code string) sql.NullFloat64 {
		v, ok := evt.Rates[code]
		return sql.NullFloat64{Float64: v, Valid: ok}
	}
	_, err := r.db.Exec(`INSERT INTO rate_updates
		(timestamp, session_id, source, status, reason, usd, ron, gbp, try)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), r.sessionID, evt.Source, evt.Status, evt.Reason,
		rate("USD"), rate("RON"), rate("GBP"), rate("TRY"),
	)
	return err
}

// RecentCalculations returns up to limit rendered calculations, newest first.
func (r *SQLiteRecorder) RecentCalculations(limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT equation, result FROM calculations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var eq, res string
		if err := rows.Scan(&eq, &res); err != nil {
			return nil, err
		}
		out = append(out, eq+" = "+res)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
