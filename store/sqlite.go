package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"transitview.dev/metrics/query"
)

type SQLiteConfig struct {
	OnDisk    bool
	Directory string
}

// SQLite-backed Store. On disk it survives process restarts, so a
// relaunched CLI session starts with the fingerprints of whatever it
// last fetched and dedups against them.
type SQLiteStore struct {
	SQLiteConfig

	db *sql.DB
}

func NewSQLiteStore(cfg ...SQLiteConfig) (*SQLiteStore, error) {
	onDisk := false
	directory := ""
	if len(cfg) > 0 {
		onDisk = cfg[0].OnDisk
		directory = cfg[0].Directory
	}

	sourceName := ":memory:"
	if onDisk {
		sourceName = directory + "/metrics.db"
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS scope_result (
    scope TEXT NOT NULL,
    status TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    data BLOB,
    error TEXT NOT NULL,
PRIMARY KEY (scope)
);

CREATE TABLE IF NOT EXISTS selection (
    id INTEGER NOT NULL CHECK (id = 1),
    params TEXT NOT NULL,
PRIMARY KEY (id)
);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &SQLiteStore{
		SQLiteConfig: SQLiteConfig{
			OnDisk:    onDisk,
			Directory: directory,
		},
		db: db,
	}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Every action replaces its slot wholesale (same semantics as the
// shared reducer), so INSERT OR REPLACE covers all transitions.
func (s *SQLiteStore) Dispatch(action Action) error {
	if action.Type == ActionUpdateParams {
		if action.Params == nil {
			return nil
		}
		params, err := json.Marshal(action.Params)
		if err != nil {
			return fmt.Errorf("marshaling params: %w", err)
		}
		_, err = s.db.Exec(
			"INSERT OR REPLACE INTO selection (id, params) VALUES (1, ?)",
			string(params),
		)
		if err != nil {
			return fmt.Errorf("writing selection: %w", err)
		}
		return nil
	}

	state := State{Results: map[Scope]Result{}}
	apply(&state, action)
	slot := state.Results[action.Scope]

	_, err := s.db.Exec(`
INSERT OR REPLACE INTO scope_result (scope, status, fingerprint, data, error)
VALUES (?, ?, ?, ?, ?)`,
		string(action.Scope),
		string(slot.Status),
		slot.Fingerprint,
		[]byte(slot.Data),
		slot.Error,
	)
	if err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}

func (s *SQLiteStore) State() (State, error) {
	state := NewState()

	var params string
	err := s.db.QueryRow("SELECT params FROM selection WHERE id = 1").Scan(&params)
	if err == nil {
		var p query.Params
		if err := json.Unmarshal([]byte(params), &p); err != nil {
			return State{}, fmt.Errorf("unmarshaling params: %w", err)
		}
		state.Params = p
	} else if err != sql.ErrNoRows {
		return State{}, fmt.Errorf("reading selection: %w", err)
	}

	rows, err := s.db.Query("SELECT scope, status, fingerprint, data, error FROM scope_result")
	if err != nil {
		return State{}, fmt.Errorf("reading results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var scope, status, fingerprint, errMsg string
		var data []byte
		if err := rows.Scan(&scope, &status, &fingerprint, &data, &errMsg); err != nil {
			return State{}, fmt.Errorf("scanning result: %w", err)
		}
		state.Results[Scope(scope)] = Result{
			Status:      Status(status),
			Fingerprint: fingerprint,
			Data:        data,
			Error:       errMsg,
		}
	}
	if err := rows.Err(); err != nil {
		return State{}, fmt.Errorf("reading results: %w", err)
	}

	return state, nil
}
