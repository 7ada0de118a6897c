package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/claimlens/internal/model"
)

// Verifier verifies a single claim
type Verifier interface {
	Verify(ctx context.Context, claimID int64) (*model.VerificationResult, error)
}

// VerifyJob represents a claim verification job
type VerifyJob struct {
	ClaimID  int64
	Verifier Verifier
}

// Execute executes the verification job
func (j *VerifyJob) Execute(ctx context.Context) Result {
	result, err := j.Verifier.Verify(ctx, j.ClaimID)
	return &VerifyResult{
		ClaimID: j.ClaimID,
		Result:  result,
		Error:   err,
	}
}

// VerifyResult is the outcome of one verification job
type VerifyResult struct {
	ClaimID int64                     `json:"claim_id"`
	Result  *model.VerificationResult `json:"result,omitempty"`
	Error   error                     `json:"-"`
}

// GetError returns the error from the verification
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchVerifier verifies many claims concurrently. Each job works on its own
// claim and result; nothing is shared between jobs.
type BatchVerifier struct {
	verifier    Verifier
	concurrency int
}

// NewBatchVerifier creates a new batch verifier
func NewBatchVerifier(verifier Verifier, concurrency int) *BatchVerifier {
	return &BatchVerifier{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// VerifyIDs verifies the given claims and returns results in input order
func (b *BatchVerifier) VerifyIDs(ctx context.Context, ids []int64) []*VerifyResult {
	if len(ids) == 0 {
		return []*VerifyResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, id := range ids {
		if !pool.Submit(&VerifyJob{ClaimID: id, Verifier: b.verifier}) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*VerifyResult, len(ids))
	for i, id := range ids {
		if i < len(results) && results[i] != nil {
			out[i] = results[i].(*VerifyResult)
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out[i] = &VerifyResult{ClaimID: id, Error: err}
	}

	return out
}

// Summary tallies batch outcomes
type Summary struct {
	Total    int                   `json:"total"`
	Verdicts map[model.Verdict]int `json:"verdicts"`
	Errors   int                   `json:"errors"`
	Unparsed int                   `json:"unparsed"` // Results without a verdict
}

// Summarize counts verdicts and errors across results
func Summarize(results []*VerifyResult) Summary {
	s := Summary{Total: len(results), Verdicts: make(map[model.Verdict]int)}
	for _, r := range results {
		switch {
		case r.Error != nil:
			s.Errors++
		case r.Result == nil || r.Result.Verdict == "":
			s.Unparsed++
		default:
			s.Verdicts[r.Result.Verdict]++
		}
	}
	return s
}

// ReadIDsFromFile reads claim ids from a file (one per line). Blank lines and
// # comments are skipped and duplicates removed.
func ReadIDsFromFile(filePath string) ([]int64, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []int64
	seen := make(map[int64]bool)

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid claim id %q", lineNum, line)
		}

		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return ids, nil
}

// ParseIDs parses claim ids from command-line arguments
func ParseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid claim id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
