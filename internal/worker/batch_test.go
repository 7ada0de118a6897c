package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/claimlens/internal/model"
)

// mockVerifier returns APPROVED for even ids, DENIED for odd, and fails id 13
type mockVerifier struct {
	mu   sync.Mutex
	seen map[int64]int
}

func (m *mockVerifier) Verify(ctx context.Context, id int64) (*model.VerificationResult, error) {
	time.Sleep(5 * time.Millisecond) // Simulate work
	m.mu.Lock()
	if m.seen == nil {
		m.seen = make(map[int64]int)
	}
	m.seen[id]++
	m.mu.Unlock()

	if id == 13 {
		return nil, errors.New("store unavailable")
	}
	if id%2 == 0 {
		return &model.VerificationResult{Verdict: model.VerdictApproved}, nil
	}
	return &model.VerificationResult{Verdict: model.VerdictDenied}, nil
}

func TestBatchVerifier_VerifyIDs(t *testing.T) {
	verifier := &mockVerifier{}
	batch := NewBatchVerifier(verifier, 3)

	ids := []int64{1, 2, 3, 4, 13, 6}
	results := batch.VerifyIDs(context.Background(), ids)

	if len(results) != len(ids) {
		t.Fatalf("expected %d results, got %d", len(ids), len(results))
	}
	for i, r := range results {
		if r.ClaimID != ids[i] {
			t.Errorf("expected claim %d at %d, got %d", ids[i], i, r.ClaimID)
		}
	}
	if results[4].Error == nil {
		t.Error("expected error for claim 13")
	}
	if results[1].Result.Verdict != model.VerdictApproved {
		t.Errorf("expected APPROVED for claim 2, got %s", results[1].Result.Verdict)
	}

	for _, id := range ids {
		if verifier.seen[id] != 1 {
			t.Errorf("claim %d verified %d times", id, verifier.seen[id])
		}
	}
}

func TestBatchVerifier_Empty(t *testing.T) {
	batch := NewBatchVerifier(&mockVerifier{}, 2)

	results := batch.VerifyIDs(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchVerifier_Cancelled(t *testing.T) {
	batch := NewBatchVerifier(&mockVerifier{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := batch.VerifyIDs(ctx, []int64{1, 2, 3, 4, 5, 6, 7, 8})
	if len(results) != 8 {
		t.Fatalf("expected a result per id, got %d", len(results))
	}
	for _, r := range results {
		if r == nil {
			t.Fatal("expected no nil results")
		}
	}
}

func TestSummarize(t *testing.T) {
	results := []*VerifyResult{
		{ClaimID: 1, Result: &model.VerificationResult{Verdict: model.VerdictApproved}},
		{ClaimID: 2, Result: &model.VerificationResult{Verdict: model.VerdictApproved}},
		{ClaimID: 3, Result: &model.VerificationResult{Verdict: model.VerdictWarning}},
		{ClaimID: 4, Result: &model.VerificationResult{RawOutput: "garbage"}},
		{ClaimID: 5, Error: errors.New("boom")},
	}

	s := Summarize(results)
	if s.Total != 5 || s.Errors != 1 || s.Unparsed != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.Verdicts[model.VerdictApproved] != 2 || s.Verdicts[model.VerdictWarning] != 1 {
		t.Errorf("unexpected verdict counts: %v", s.Verdicts)
	}
}

func writeIDs(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ids.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadIDsFromFile(t *testing.T) {
	path := writeIDs(t, "1\n# comment\n  2  \n\n3\n2\n")

	ids, err := ReadIDsFromFile(path)
	if err != nil {
		t.Fatalf("ReadIDsFromFile failed: %v", err)
	}

	expected := []int64{1, 2, 3}
	if len(ids) != len(expected) {
		t.Fatalf("expected %d ids, got %d", len(expected), len(ids))
	}
	for i, id := range ids {
		if id != expected[i] {
			t.Errorf("expected id %d at index %d, got %d", expected[i], i, id)
		}
	}
}

func TestReadIDsFromFile_Invalid(t *testing.T) {
	path := writeIDs(t, "1\nabc\n")

	if _, err := ReadIDsFromFile(path); err == nil {
		t.Error("expected error for invalid id")
	}
}

func TestReadIDsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadIDsFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs([]string{"7", " 42"})
	if err != nil || len(ids) != 2 || ids[1] != 42 {
		t.Errorf("unexpected ids %v (%v)", ids, err)
	}

	if _, err := ParseIDs([]string{"x"}); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestVerifyResult_GetError(t *testing.T) {
	expected := errors.New("verify failed")
	r := &VerifyResult{ClaimID: 1, Error: expected}
	if r.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r.GetError())
	}
}
