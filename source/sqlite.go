package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"imgbench/model"
)

const schema = `CREATE TABLE IF NOT EXISTS images (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT    NOT NULL UNIQUE,
	data BLOB    NOT NULL
)`

// pragmas applied on open. page_size only takes effect before the first
// table is created; the rest are per connection.
var pragmas = []string{
	"PRAGMA page_size = 8192",
	"PRAGMA cache_size = -2000",
	"PRAGMA temp_store = MEMORY",
	"PRAGMA mmap_size = 268435456",
}

// SQLite stores image blobs as rows of a single table keyed by name.
type SQLite struct {
	db   *sqlx.DB
	path string
}

// OpenSQLite opens (creating if needed) the blob database at path. A nil log
// uses the standard logger.
func OpenSQLite(path string, log logrus.FieldLogger) (*SQLite, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sqlx.Open("sqlite3", dsn)

	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "apply %q", p)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create images table")
	}

	log.WithField("path", path).Debug("opened blob database")

	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) GetBytes(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT data FROM images WHERE name = ?`, key)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(model.ErrNotFound, "blob %q", key)
	}

	if err != nil {
		return nil, classify(ctx, err, "select blob %q", key)
	}

	return data, nil
}

func (s *SQLite) ListKeys(ctx context.Context) ([]string, error) {
	var names []string

	if err := s.db.SelectContext(ctx, &names, `SELECT name FROM images ORDER BY id`); err != nil {
		return nil, classify(ctx, err, "list blobs")
	}

	return names, nil
}

func (s *SQLite) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO images (name, data) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data`, key, data)

	return classify(ctx, err, "insert blob %q", key)
}

func (s *SQLite) ClearAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM images`)

	return classify(ctx, err, "delete blobs")
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
