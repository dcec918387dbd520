package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store/migrations"
	"github.com/serroba/shortlink/internal/visits"
)

const (
	hashIndex      = "short_urls_hash_key"
	activeURLIndex = "short_urls_active_url_key"
)

const recordColumns = `url, hash, protocol, domain, path, remove_token, active, created_at, deactivated_at`

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed URL store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Create(ctx context.Context, record *shortener.Record) error {
	query := `
		INSERT INTO short_urls (url, hash, protocol, domain, path, remove_token, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)
	`

	_, err := p.pool.Exec(ctx, query,
		record.URL,
		string(record.Hash),
		record.Protocol,
		record.Domain,
		record.Path,
		record.RemoveToken,
		record.CreatedAt,
	)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch pgErr.ConstraintName {
		case hashIndex:
			return shortener.ErrHashTaken
		case activeURLIndex:
			return shortener.ErrURLTaken
		}
	}

	return err
}

func (p *PostgresStore) FindActiveByHash(ctx context.Context, hash shortener.Hash) (*shortener.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM short_urls WHERE hash = $1 AND active`

	return p.findOne(ctx, query, string(hash))
}

func (p *PostgresStore) FindActiveByURL(ctx context.Context, url string) (*shortener.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM short_urls WHERE url = $1 AND active`

	return p.findOne(ctx, query, url)
}

func (p *PostgresStore) Deactivate(ctx context.Context, hash shortener.Hash, removeToken string) (bool, error) {
	query := `
		UPDATE short_urls
		SET active = FALSE, deactivated_at = now()
		WHERE hash = $1 AND remove_token = $2 AND active
	`

	tag, err := p.pool.Exec(ctx, query, string(hash), removeToken)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// Ping checks PostgreSQL connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) findOne(ctx context.Context, query string, arg string) (*shortener.Record, error) {
	var (
		record shortener.Record
		hash   string
	)

	err := p.pool.QueryRow(ctx, query, arg).Scan(
		&record.URL,
		&hash,
		&record.Protocol,
		&record.Domain,
		&record.Path,
		&record.RemoveToken,
		&record.Active,
		&record.CreatedAt,
		&record.DeactivatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	record.Hash = shortener.Hash(hash)

	return &record, nil
}

// PostgresVisitStore is a PostgreSQL implementation of visits.Store.
type PostgresVisitStore struct {
	pool *pgxpool.Pool
}

// NewPostgresVisitStore creates a new PostgreSQL-backed visit store.
func NewPostgresVisitStore(pool *pgxpool.Pool) *PostgresVisitStore {
	return &PostgresVisitStore{pool: pool}
}

func (p *PostgresVisitStore) Append(ctx context.Context, visit *visits.Visit) error {
	query := `
		INSERT INTO visits (id, url, hash, client_ip, user_agent, referrer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		visit.ID,
		visit.URL,
		string(visit.Hash),
		visit.ClientIP,
		visit.UserAgent,
		visit.Referrer,
		visit.CreatedAt,
	)

	return err
}

func (p *PostgresVisitStore) ListByHash(ctx context.Context, hash shortener.Hash) ([]visits.Visit, error) {
	query := `
		SELECT id, url, hash, client_ip, user_agent, referrer, created_at
		FROM visits
		WHERE hash = $1
		ORDER BY seq
	`

	rows, err := p.pool.Query(ctx, query, string(hash))
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (visits.Visit, error) {
		var (
			v    visits.Visit
			hash string
		)

		err := row.Scan(&v.ID, &v.URL, &hash, &v.ClientIP, &v.UserAgent, &v.Referrer, &v.CreatedAt)
		v.Hash = shortener.Hash(hash)

		return v, err
	})
}

var (
	_ shortener.Repository = (*PostgresStore)(nil)
	_ visits.Store         = (*PostgresVisitStore)(nil)
)
