package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ZeitFund/internal/logger"
	"ZeitFund/internal/model"
)

// SQLiteRecorder persists fund history to a SQLite database. Amounts are stored as
// decimal TEXT since they can exceed 64 bits.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logger.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logger.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = logger.Nop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the fund writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With("component", "recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info("sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS contributions (
			id                TEXT PRIMARY KEY,
			timestamp         INTEGER NOT NULL,
			depositor         TEXT NOT NULL,
			amount            TEXT NOT NULL,
			shares_after      TEXT NOT NULL,
			total_contributed TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contributions_depositor ON contributions(depositor, timestamp)`,

		`CREATE TABLE IF NOT EXISTS withdrawals (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			caller    TEXT NOT NULL,
			amount    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawals_ts ON withdrawals(timestamp)`,

		`CREATE TABLE IF NOT EXISTS dividends (
			id                TEXT PRIMARY KEY,
			timestamp         INTEGER NOT NULL,
			amount            TEXT NOT NULL,
			total_shares      TEXT NOT NULL,
			accumulator_after TEXT NOT NULL,
			vault_balance     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dividends_ts ON dividends(timestamp)`,

		`CREATE TABLE IF NOT EXISTS claims (
			id            TEXT PRIMARY KEY,
			timestamp     INTEGER NOT NULL,
			depositor     TEXT NOT NULL,
			amount        TEXT NOT NULL,
			checkpoint    TEXT NOT NULL,
			vault_balance TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_depositor ON claims(depositor, timestamp)`,

		`CREATE TABLE IF NOT EXISTS phase_changes (
			id                TEXT PRIMARY KEY,
			timestamp         INTEGER NOT NULL,
			from_phase        TEXT NOT NULL,
			to_phase          TEXT NOT NULL,
			total_contributed TEXT NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordContribution(evt *ContributionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO contributions
		(id, timestamp, depositor, amount, shares_after, total_contributed)
		VALUES (?,?,?,?,?,?)`,
		uuid.NewString(), unixMilli(evt.At), evt.Depositor.String(),
		evt.Amount.String(), evt.SharesAfter.String(), evt.TotalContributed.String(),
	)
	return err
}

func (r *SQLiteRecorder) RecordWithdrawal(evt *WithdrawalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO withdrawals (id, timestamp, caller, amount) VALUES (?,?,?,?)`,
		uuid.NewString(), unixMilli(evt.At), evt.Caller.String(), evt.Amount.String(),
	)
	return err
}

func (r *SQLiteRecorder) RecordDividend(evt *DividendEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO dividends
		(id, timestamp, amount, total_shares, accumulator_after, vault_balance)
		VALUES (?,?,?,?,?,?)`,
		uuid.NewString(), unixMilli(evt.At), evt.Amount.String(), evt.TotalShares.String(),
		evt.AccumulatorAfter.String(), evt.VaultBalance.String(),
	)
	return err
}

func (r *SQLiteRecorder) RecordClaim(evt *ClaimEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO claims
		(id, timestamp, depositor, amount, checkpoint, vault_balance)
		VALUES (?,?,?,?,?,?)`,
		uuid.NewString(), unixMilli(evt.At), evt.Depositor.String(), evt.Amount.String(),
		evt.Checkpoint.String(), evt.VaultBalance.String(),
	)
	return err
}

func (r *SQLiteRecorder) RecordPhaseChange(evt *PhaseEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO phase_changes
		(id, timestamp, from_phase, to_phase, total_contributed)
		VALUES (?,?,?,?,?)`,
		uuid.NewString(), unixMilli(evt.At), string(evt.From), string(evt.To), evt.TotalContributed.String(),
	)
	return err
}

// ClaimHistory returns a depositor's claims, oldest first.
func (r *SQLiteRecorder) ClaimHistory(depositor model.AccountID) ([]ClaimRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, amount FROM claims
		WHERE depositor = ? ORDER BY timestamp, rowid`, depositor.String())
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	var out []ClaimRecord
	for rows.Next() {
		var (
			rec    ClaimRecord
			ts     int64
			amount string
		)
		if err := rows.Scan(&rec.ID, &ts, &amount); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		amt, ok := math.NewIntFromString(amount)
		if !ok {
			return nil, fmt.Errorf("claim %s has malformed amount %q", rec.ID, amount)
		}
		rec.At = time.UnixMilli(ts).UTC()
		rec.Amount = amt
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixMilli()
}
