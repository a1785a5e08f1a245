package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/shorturl/pkg/core/domain"
	"github.com/wadjakorntonsri/shorturl/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	// A local SQLite file (or :memory: database) allows one writer at a time.
	// Funnel everything through one connection so concurrent requests queue
	// at the pool instead of failing with SQLITE_BUSY.
	if driverName == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS mappings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		original_url TEXT NOT NULL,
		short_code TEXT NOT NULL,
		short_url TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		visit_count INTEGER NOT NULL DEFAULT 0 CHECK (visit_count >= 0),
		CONSTRAINT uq_mappings_short_url UNIQUE (short_url),
		CONSTRAINT uq_mappings_short_code UNIQUE (short_code),
		CONSTRAINT uq_mappings_owner_original UNIQUE (owner_id, original_url)
	);
	CREATE INDEX IF NOT EXISTS idx_mappings_owner_original ON mappings(owner_id, original_url);
	`
	_, err := db.Exec(query)
	return err
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) Create(ctx context.Context, m *domain.Mapping) (int64, error) {
	query := `INSERT INTO mappings (original_url, short_code, short_url, owner_id, created_at, visit_count)
			  VALUES (?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, m.OriginalURL, m.ShortCode, m.ShortURL, m.OwnerID, m.CreatedAt, m.VisitCount)
	if err != nil {
		return 0, mapError("create", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.NewStorageError("create", err)
	}
	m.ID = id
	return id, nil
}

const selectColumns = `SELECT id, original_url, short_code, short_url, owner_id, created_at, visit_count FROM mappings`

type scanner interface {
	Scan(dest ...any) error
}

func scanMapping(row scanner) (*domain.Mapping, error) {
	var m domain.Mapping
	err := row.Scan(&m.ID, &m.OriginalURL, &m.ShortCode, &m.ShortURL, &m.OwnerID, &m.CreatedAt, &m.VisitCount)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*domain.Mapping, error) {
	m, err := scanMapping(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.NewStorageError("get by id", err)
	}
	return m, nil
}

func (r *SQLiteRepository) FindByShortURL(ctx context.Context, shortURL string) (*domain.Mapping, error) {
	m, err := scanMapping(r.db.QueryRowContext(ctx, selectColumns+` WHERE short_url = ?`, shortURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.NewStorageError("find by short url", err)
	}
	return m, nil
}

func (r *SQLiteRepository) exists(ctx context.Context, op, where string, args ...any) (bool, error) {
	var found bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM mappings WHERE `+where+`)`, args...).Scan(&found)
	if err != nil {
		return false, domain.NewStorageError(op, err)
	}
	return found, nil
}

func (r *SQLiteRepository) ExistsByOriginalURLAndOwner(ctx context.Context, originalURL, ownerID string) (bool, error) {
	return r.exists(ctx, "exists by original url", `owner_id = ? AND original_url = ?`, ownerID, originalURL)
}

// ExistsByShortCodeSubstring uses instr rather than LIKE so '%' and '_'
// in codes are matched literally.
func (r *SQLiteRepository) ExistsByShortCodeSubstring(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, "exists by short code substring", `instr(short_url, ?) > 0`, code)
}

func (r *SQLiteRepository) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, "exists by short code", `short_code = ?`, code)
}

func (r *SQLiteRepository) Update(ctx context.Context, m *domain.Mapping) error {
	query := `UPDATE mappings SET original_url = ?, short_code = ?, short_url = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, m.OriginalURL, m.ShortCode, m.ShortURL, m.ID)
	if err != nil {
		return mapError("update", err)
	}
	return affectedOne("update", res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mappings WHERE id = ?`, id)
	if err != nil {
		return domain.NewStorageError("delete", err)
	}
	return affectedOne("delete", res)
}

// IncrementVisit is a single UPDATE so concurrent increments never overwrite each other.
func (r *SQLiteRepository) IncrementVisit(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE mappings SET visit_count = visit_count + 1 WHERE id = ?`, id)
	if err != nil {
		return domain.NewStorageError("increment visit", err)
	}
	return affectedOne("increment visit", res)
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]domain.Mapping, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY id ASC`)
	if err != nil {
		return nil, domain.NewStorageError("list", err)
	}
	defer rows.Close()

	var mappings []domain.Mapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, domain.NewStorageError("list", err)
		}
		mappings = append(mappings, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("list", err)
	}
	return mappings, nil
}

func affectedOne(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewStorageError(op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// mapError turns unique constraint violations into domain errors. Both the
// modernc and libsql drivers report them as
// "UNIQUE constraint failed: mappings.<column>[, mappings.<column>]".
func mapError(op string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		switch {
		case strings.Contains(msg, "mappings.owner_id"):
			return domain.ErrDuplicateSource
		case strings.Contains(msg, "mappings.short_url"), strings.Contains(msg, "mappings.short_code"):
			return domain.ErrDuplicateCode
		}
	}
	return domain.NewStorageError(op, err)
}

var _ ports.MappingStore = (*SQLiteRepository)(nil)
