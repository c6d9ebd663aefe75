package data

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS auth_session (
	id INTEGER PRIMARY KEY,
	token VARCHAR NOT NULL,
	user_id INTEGER NOT NULL,
	username VARCHAR NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS filter_catalog (
	id INTEGER PRIMARY KEY,
	payload VARCHAR NOT NULL,
	fetched_at TIMESTAMP NOT NULL
);
`

// both tables hold a single row
const singletonRow = 1

func InitDuckDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "creating database directory")
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening duckdb")
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating schema")
	}

	return db, nil
}

type Repository struct {
	db *sql.DB
}

var duckDB *sql.DB

// NewDuckDBRepository returns a repository backed by the process-wide
// database handle, opening it at path on first use.
func NewDuckDBRepository(path string) (*Repository, error) {
	if duckDB == nil {
		db, err := InitDuckDB(path)
		if err != nil {
			return nil, err
		}
		duckDB = db
	}

	return &Repository{db: duckDB}, nil
}

func (r *Repository) Close() error {
	if r.db == duckDB {
		duckDB = nil
	}
	return r.db.Close()
}

// GetSession returns the persisted auth session, or nil when logged out
func (r *Repository) GetSession() (*AuthSession, error) {
	var s AuthSession
	err := r.db.QueryRow(
		`SELECT token, user_id, username, created_at FROM auth_session WHERE id = ?`,
		singletonRow,
	).Scan(&s.Token, &s.UserID, &s.Username, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading session")
	}
	return &s, nil
}

func (r *Repository) SaveSession(s *AuthSession) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO auth_session (id, token, user_id, username, created_at) VALUES (?, ?, ?, ?, ?)`,
		singletonRow, s.Token, s.UserID, s.Username, s.CreatedAt,
	)
	return errors.Wrap(err, "saving session")
}

func (r *Repository) DeleteSession() error {
	_, err := r.db.Exec(`DELETE FROM auth_session WHERE id = ?`, singletonRow)
	return errors.Wrap(err, "deleting session")
}

// GetCachedCatalog returns the cached filter catalog and when it was fetched.
// A nil catalog means nothing is cached.
func (r *Repository) GetCachedCatalog() (*FilterCatalog, time.Time, error) {
	var (
		payload   string
		fetchedAt time.Time
	)
	err := r.db.QueryRow(
		`SELECT payload, fetched_at FROM filter_catalog WHERE id = ?`,
		singletonRow,
	).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, errors.Wrap(err, "reading cached catalog")
	}

	var catalog FilterCatalog
	if err := json.Unmarshal([]byte(payload), &catalog); err != nil {
		return nil, time.Time{}, errors.Wrap(err, "decoding cached catalog")
	}
	return &catalog, fetchedAt, nil
}

func (r *Repository) SaveCatalog(catalog *FilterCatalog, fetchedAt time.Time) error {
	payload, err := json.Marshal(catalog)
	if err != nil {
		return errors.Wrap(err, "encoding catalog")
	}
	_, err = r.db.Exec(
		`INSERT OR REPLACE INTO filter_catalog (id, payload, fetched_at) VALUES (?, ?, ?)`,
		singletonRow, string(payload), fetchedAt.UTC(),
	)
	return errors.Wrap(err, "saving catalog")
}
