package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wadjakorntonsri/shorturl/pkg/core/domain"
	"github.com/wadjakorntonsri/shorturl/pkg/ports"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to dsn. The schema must already exist,
// see Migrate.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *domain.Mapping) (int64, error) {
	query := `INSERT INTO mappings (original_url, short_code, short_url, owner_id, created_at, visit_count)
			  VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	err := r.pool.QueryRow(ctx, query, m.OriginalURL, m.ShortCode, m.ShortURL, m.OwnerID, m.CreatedAt, m.VisitCount).Scan(&m.ID)
	if err != nil {
		return 0, mapError("create", err)
	}
	return m.ID, nil
}

const selectColumns = `SELECT id, original_url, short_code, short_url, owner_id, created_at, visit_count FROM mappings`

func scanMapping(row pgx.Row) (*domain.Mapping, error) {
	var m domain.Mapping
	if err := row.Scan(&m.ID, &m.OriginalURL, &m.ShortCode, &m.ShortURL, &m.OwnerID, &m.CreatedAt, &m.VisitCount); err != nil {
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, op, where string, arg any) (*domain.Mapping, error) {
	m, err := scanMapping(r.pool.QueryRow(ctx, selectColumns+` WHERE `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	return m, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Mapping, error) {
	return r.getOne(ctx, "get by id", `id = $1`, id)
}

func (r *PostgresRepository) FindByShortURL(ctx context.Context, shortURL string) (*domain.Mapping, error) {
	return r.getOne(ctx, "find by short url", `short_url = $1`, shortURL)
}

func (r *PostgresRepository) exists(ctx context.Context, op, where string, args ...any) (bool, error) {
	var found bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM mappings WHERE `+where+`)`, args...).Scan(&found); err != nil {
		return false, domain.NewStorageError(op, err)
	}
	return found, nil
}

func (r *PostgresRepository) ExistsByOriginalURLAndOwner(ctx context.Context, originalURL, ownerID string) (bool, error) {
	return r.exists(ctx, "exists by original url", `owner_id = $1 AND original_url = $2`, ownerID, originalURL)
}

func (r *PostgresRepository) ExistsByShortCodeSubstring(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, "exists by short code substring", `strpos(short_url, $1) > 0`, code)
}

func (r *PostgresRepository) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, "exists by short code", `short_code = $1`, code)
}

func (r *PostgresRepository) Update(ctx context.Context, m *domain.Mapping) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE mappings SET original_url = $1, short_code = $2, short_url = $3 WHERE id = $4`,
		m.OriginalURL, m.ShortCode, m.ShortURL, m.ID)
	if err != nil {
		return mapError("update", err)
	}
	return affectedOne(tag)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM mappings WHERE id = $1`, id)
	if err != nil {
		return domain.NewStorageError("delete", err)
	}
	return affectedOne(tag)
}

// IncrementVisit relies on the row lock taken by UPDATE, so concurrent
// increments serialize per mapping.
func (r *PostgresRepository) IncrementVisit(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE mappings SET visit_count = visit_count + 1 WHERE id = $1`, id)
	if err != nil {
		return domain.NewStorageError("increment visit", err)
	}
	return affectedOne(tag)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]domain.Mapping, error) {
	rows, err := r.pool.Query(ctx, selectColumns+` ORDER BY id ASC`)
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

func affectedOne(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "uq_mappings_owner_original":
			return domain.ErrDuplicateSource
		case "uq_mappings_short_url", "uq_mappings_short_code":
			return domain.ErrDuplicateCode
		}
	}
	return domain.NewStorageError(op, err)
}

var _ ports.MappingStore = (*PostgresRepository)(nil)
