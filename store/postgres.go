package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"transitview.dev/metrics/query"
)

// Postgres-backed Store, for deployments where several dashboard
// processes share one state document.
type PSQLStore struct {
	db *sql.DB
}

// Creates a new Postgres Store using the provided connection string.
//
// If clearDB is true, existing state is dropped on startup. You
// probably only want this for testing.
func NewPSQLStore(connStr string, clearDB bool) (*PSQLStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if clearDB {
		_, err = db.Exec("DROP TABLE IF EXISTS scope_result; DROP TABLE IF EXISTS selection;")
		if err != nil {
			return nil, fmt.Errorf("clearing db: %w", err)
		}
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS scope_result (
    scope TEXT NOT NULL,
    status TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    data BYTEA,
    error TEXT NOT NULL,
PRIMARY KEY (scope)
);

CREATE TABLE IF NOT EXISTS selection (
    id INTEGER NOT NULL CHECK (id = 1),
    params TEXT NOT NULL,
PRIMARY KEY (id)
);`)
	if err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &PSQLStore{db: db}, nil
}

func (s *PSQLStore) Close() error {
	return s.db.Close()
}

func (s *PSQLStore) Dispatch(action Action) error {
	if action.Type == ActionUpdateParams {
		if action.Params == nil {
			return nil
		}
		params, err := json.Marshal(action.Params)
		if err != nil {
			return fmt.Errorf("marshaling params: %w", err)
		}
		_, err = s.db.Exec(`
INSERT INTO selection (id, params) VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET params = EXCLUDED.params`,
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
INSERT INTO scope_result (scope, status, fingerprint, data, error)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (scope) DO UPDATE SET
    status = EXCLUDED.status,
    fingerprint = EXCLUDED.fingerprint,
    data = EXCLUDED.data,
    error = EXCLUDED.error`,
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

func (s *PSQLStore) State() (State, error) {
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
