package storage

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/claimlens/internal/model"
)

func openTestClaims(t *testing.T) *SQLiteClaimStore {
	t.Helper()

	store, err := OpenSQLiteClaimStore(filepath.Join(t.TempDir(), "claims.db"))
	if err != nil {
		t.Fatalf("Failed to open claim store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func openTestIndex(t *testing.T) *PolicyIndex {
	t.Helper()

	idx, err := OpenPolicyIndex(filepath.Join(t.TempDir(), "policies.db"))
	if err != nil {
		t.Fatalf("Failed to open policy index: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func sampleClaim() *model.Claim {
	amount := 1250.75
	return &model.Claim{
		PatientID:      "P-100",
		MemberID:       "1EG4-TE5-MK73",
		PayerName:      "Medicare",
		DateOfService:  "2024-01-01",
		CPTCode:        "29881",
		CPTDescription: "Knee arthroscopy",
		ClaimAmount:    &amount,
		PolicyID:       "LCD-33722",
	}
}

func TestSQLiteClaimStore_InsertGet(t *testing.T) {
	store := openTestClaims(t)
	ctx := context.Background()

	claim := sampleClaim()
	id, err := store.Insert(ctx, claim)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id == 0 || claim.ID != id {
		t.Errorf("Expected assigned id, got %d (claim.ID=%d)", id, claim.ID)
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.MemberID != claim.MemberID || got.CPTDescription != claim.CPTDescription || got.PolicyID != "LCD-33722" {
		t.Errorf("Unexpected claim: %+v", got)
	}
	if v, ok := got.Amount(); !ok || v != 1250.75 {
		t.Errorf("Expected amount 1250.75, got %v (%v)", v, ok)
	}
}

func TestSQLiteClaimStore_NullAmount(t *testing.T) {
	store := openTestClaims(t)
	ctx := context.Background()

	id, err := store.Insert(ctx, &model.Claim{MemberID: "A1"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ClaimAmount != nil {
		t.Errorf("Expected nil amount, got %v", *got.ClaimAmount)
	}
}

func TestSQLiteClaimStore_NotFound(t *testing.T) {
	store := openTestClaims(t)

	if _, err := store.Get(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteClaimStore_ListCount(t *testing.T) {
	store := openTestClaims(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := store.Insert(ctx, sampleClaim()); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	n, err := store.Count(ctx)
	if err != nil || n != 5 {
		t.Errorf("Expected 5 claims, got %d (%v)", n, err)
	}

	page, err := store.List(ctx, 2, 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 2 || page[0].ID != 4 || page[1].ID != 5 {
		t.Errorf("Unexpected page: %d items", len(page))
	}
}

func TestPolicyIndex_UpsertAndNearest(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(idx.Upsert(ctx, model.PolicyRecord{ID: "LCD-33722", Metadata: map[string]string{"title": "Knee", "text": "knee policy"}}, []float32{1, 0, 0}))
	must(idx.Upsert(ctx, model.PolicyRecord{ID: "LCD-32849", Metadata: map[string]string{"title": "Colon", "text": "colon policy"}}, []float32{0, 1, 0}))

	matches, err := idx.Nearest(ctx, []float32{2, 0.1, 0}, 1)
	if err != nil {
		t.Fatalf("Nearest failed: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "LCD-33722" {
		t.Fatalf("Unexpected matches: %+v", matches)
	}
	if matches[0].Distance < 0 || matches[0].Distance > 0.01 {
		t.Errorf("Expected near-zero distance, got %f", matches[0].Distance)
	}
	if matches[0].Metadata["text"] != "knee policy" {
		t.Errorf("Expected metadata text, got %v", matches[0].Metadata)
	}

	// Orthogonal vectors are at distance 1
	matches, _ = idx.Nearest(ctx, []float32{0, 0, 1}, 2)
	for _, m := range matches {
		if math.Abs(m.Distance-1) > 1e-6 {
			t.Errorf("Expected distance 1 for %s, got %f", m.ID, m.Distance)
		}
	}
}

func TestPolicyIndex_FetchDeleteReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policies.db")
	ctx := context.Background()

	idx, err := OpenPolicyIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = idx.Upsert(ctx, model.PolicyRecord{ID: "POL-8253", Metadata: map[string]string{"text": "mri policy"}}, []float32{0.3, 0.4})
	_ = idx.Upsert(ctx, model.PolicyRecord{ID: "TMP", Metadata: map[string]string{"text": "x"}}, []float32{1, 1})
	if err := idx.Delete(ctx, "TMP"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	_ = idx.Close()

	reopened, err := OpenPolicyIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = reopened.Close() }()

	if reopened.Count() != 1 {
		t.Errorf("Expected 1 policy after reload, got %d", reopened.Count())
	}

	rec, err := reopened.FetchByID(ctx, "POL-8253")
	if err != nil {
		t.Fatalf("FetchByID failed: %v", err)
	}
	if rec.Text() != "mri policy" {
		t.Errorf("Unexpected text %q", rec.Text())
	}

	if _, err := reopened.FetchByID(ctx, "TMP"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	dir := t.TempDir()
	path, err := ExpandPath(filepath.Join(dir, "nested", "claims.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("Expected parent directory to exist: %v", err)
	}
}

func TestOpenClaims_Drivers(t *testing.T) {
	ctx := context.Background()

	repo, err := OpenClaims(ctx, model.StorageConfig{Driver: "sqlite", ClaimsDSN: filepath.Join(t.TempDir(), "c.db")})
	if err != nil {
		t.Fatalf("OpenClaims sqlite failed: %v", err)
	}
	_ = repo.Close()

	repo, err = OpenClaims(ctx, model.StorageConfig{Driver: "mongo"})
	if err == nil || repo != nil {
		t.Errorf("Expected error and nil repository for unknown driver, got %v, %v", repo, err)
	}
}
