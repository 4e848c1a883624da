package decisionlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kibbyd/autonomy-plane/internal/reputation"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS autonomy_decision (
	row_id       INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       INTEGER NOT NULL,
	ts_ms        INTEGER NOT NULL,
	kind         TEXT NOT NULL,
	payload_doc  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_autonomy_decision_run
ON autonomy_decision(run_id, row_id);

CREATE TABLE IF NOT EXISTS self_revision_outcome (
	row_id        INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        INTEGER NOT NULL,
	ts_ms         INTEGER NOT NULL,
	outcome_class TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_self_revision_outcome_run
ON self_revision_outcome(run_id, row_id);
`

// #endregion schema

// #region store-struct
// Store is the append-only decision log in SQLite. Both tables have no update
// or delete path. database/sql serializes access to the single SQLite writer,
// so the store is safe for concurrent appenders across runs.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region append
// Append serializes the payload as a JSON document and writes one
// autonomy_decision row. The row is durable when Append returns.
func (s *Store) Append(ctx context.Context, runID, tsMs int64, kind string, payload any) (int64, error) {
	doc, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO autonomy_decision (run_id, ts_ms, kind, payload_doc)
		 VALUES (?, ?, ?, ?)`,
		runID, tsMs, kind, string(doc),
	)
	if err != nil {
		return 0, fmt.Errorf("append decision: %w", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append decision id: %w", err)
	}
	return rowID, nil
}

// #endregion append

// #region append-outcome
// AppendOutcome writes one self_revision_outcome row.
func (s *Store) AppendOutcome(ctx context.Context, runID, tsMs int64, class reputation.OutcomeClass) (int64, error) {
	if !class.Known() {
		return 0, fmt.Errorf("unknown outcome class %q", class)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO self_revision_outcome (run_id, ts_ms, outcome_class)
		 VALUES (?, ?, ?)`,
		runID, tsMs, string(class),
	)
	if err != nil {
		return 0, fmt.Errorf("append outcome: %w", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append outcome id: %w", err)
	}
	return rowID, nil
}

// #endregion append-outcome

// #region recent-outcomes
// RecentOutcomes returns the most recent up to n outcome rows for a run,
// newest first. Implements reputation.OutcomeReader.
func (s *Store) RecentOutcomes(ctx context.Context, runID int64, n int) ([]reputation.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, ts_ms, outcome_class
		 FROM self_revision_outcome
		 WHERE run_id = ?
		 ORDER BY row_id DESC LIMIT ?`,
		runID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("recent outcomes: %w", err)
	}
	defer rows.Close()

	var out []reputation.Outcome
	for rows.Next() {
		var o reputation.Outcome
		var class string
		if err := rows.Scan(&o.RunID, &o.TsMs, &class); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Class = reputation.OutcomeClass(class)
		out = append(out, o)
	}
	return out, rows.Err()
}

var _ reputation.OutcomeReader = (*Store)(nil)

// #endregion recent-outcomes

// #region recent-decisions
// Decision is one persisted autonomy_decision row with its raw payload doc.
type Decision struct {
	RowID   int64
	RunID   int64
	TsMs    int64
	Kind    string
	Payload json.RawMessage
}

// RecentDecisions returns the most recent up to n decision rows for a run,
// newest first. Used by the inspect tooling, not by the control loop.
func (s *Store) RecentDecisions(ctx context.Context, runID int64, n int) ([]Decision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_id, run_id, ts_ms, kind, payload_doc
		 FROM autonomy_decision
		 WHERE run_id = ?
		 ORDER BY row_id DESC LIMIT ?`,
		runID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("recent decisions: %w", err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		var doc string
		if err := rows.Scan(&d.RowID, &d.RunID, &d.TsMs, &d.Kind, &doc); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.Payload = json.RawMessage(doc)
		out = append(out, d)
	}
	return out, rows.Err()
}

// #endregion recent-decisions
