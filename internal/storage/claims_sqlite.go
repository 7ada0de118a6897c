package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/ppiankov/claimlens/internal/model"
)

// SQLiteClaimStore stores claims in a SQLite database
type SQLiteClaimStore struct {
	db *sql.DB
}

// OpenSQLiteClaimStore opens (and migrates) the claim database at path
func OpenSQLiteClaimStore(path string) (*SQLiteClaimStore, error) {
	dbPath, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	store := &SQLiteClaimStore{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate claims: %w", err)
	}
	return store, nil
}

func (s *SQLiteClaimStore) migrate() error {
	_, err := s.db.Exec(claimTableDDL("INTEGER PRIMARY KEY AUTOINCREMENT", "REAL"))
	return err
}

// Get loads one claim
func (s *SQLiteClaimStore) Get(ctx context.Context, id int64) (*model.Claim, error) {
	var c model.Claim
	err := s.db.QueryRowContext(ctx, selectClaimsSQL()+" WHERE id = ?", id).Scan(claimScanTargets(&c)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get claim %d: %w", id, err)
	}
	return &c, nil
}

// List returns claims ordered by id
func (s *SQLiteClaimStore) List(ctx context.Context, limit, offset int) ([]*model.Claim, error) {
	rows, err := s.db.QueryContext(ctx, selectClaimsSQL()+" ORDER BY id LIMIT ? OFFSET ?", limit, offset)
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
func (s *SQLiteClaimStore) Insert(ctx context.Context, claim *model.Claim) (int64, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(claimColumns)), ", ")
	query := fmt.Sprintf("INSERT INTO claims (%s) VALUES (%s)", strings.Join(claimColumns, ", "), placeholders)

	res, err := s.db.ExecContext(ctx, query, claimValues(claim)...)
	if err != nil {
		return 0, fmt.Errorf("insert claim: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	claim.ID = id
	return id, nil
}

// Count returns the number of stored claims
func (s *SQLiteClaimStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM claims").Scan(&n)
	return n, err
}

// Close closes the database
func (s *SQLiteClaimStore) Close() error {
	return s.db.Close()
}
