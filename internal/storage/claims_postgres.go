package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ppiankov/claimlens/internal/model"
)

// PostgresClaimStore stores claims in PostgreSQL
type PostgresClaimStore struct {
	pool *pgxpool.Pool
}

// OpenPostgresClaimStore connects to databaseURL and migrates the claims table
func OpenPostgresClaimStore(ctx context.Context, databaseURL string) (*PostgresClaimStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PostgresClaimStore{pool: pool}
	if _, err := pool.Exec(ctx, claimTableDDL("BIGSERIAL PRIMARY KEY", "DOUBLE PRECISION")); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate claims: %w", err)
	}
	return store, nil
}

// NewPostgresClaimStore wraps an existing pool; the claims table must exist
func NewPostgresClaimStore(pool *pgxpool.Pool) *PostgresClaimStore {
	return &PostgresClaimStore{pool: pool}
}

// Get loads one claim
func (s *PostgresClaimStore) Get(ctx context.Context, id int64) (*model.Claim, error) {
	var c model.Claim
	err := s.pool.QueryRow(ctx, selectClaimsSQL()+" WHERE id = $1", id).Scan(claimScanTargets(&c)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get claim %d: %w", id, err)
	}
	return &c, nil
}

// List returns claims ordered by id
func (s *PostgresClaimStore) List(ctx context.Context, limit, offset int) ([]*model.Claim, error) {
	rows, err := s.pool.Query(ctx, selectClaimsSQL()+" ORDER BY id LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	claims := []*model.Claim{}
	for rows.Next() {
		var c model.Claim
		if err := rows.Scan(claimScanTargets(&c)...); err != nil {
			return nil, err
		}
		claims = append(claims, &c)
	}
	return claims, rows.Err()
}

// Insert stores a claim and returns its assigned id
func (s *PostgresClaimStore) Insert(ctx context.Context, claim *model.Claim) (int64, error) {
	placeholders := make([]string, len(claimColumns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO claims (%s) VALUES (%s) RETURNING id",
		strings.Join(claimColumns, ", "), strings.Join(placeholders, ", "))

	var id int64
	if err := s.pool.QueryRow(ctx, query, claimValues(claim)...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert claim: %w", err)
	}
	claim.ID = id
	return id, nil
}

// Count returns the number of stored claims
func (s *PostgresClaimStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM claims").Scan(&n)
	return n, err
}

// Close closes the pool
func (s *PostgresClaimStore) Close() error {
	s.pool.Close()
	return nil
}
