// Demo program that runs representative claims through the verification
// pipeline offline, using a canned adjudicator instead of a completion service
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ppiankov/claimlens/internal/adjudicate"
	"github.com/ppiankov/claimlens/internal/coding"
	"github.com/ppiankov/claimlens/internal/model"
	"github.com/ppiankov/claimlens/internal/pipeline"
	"github.com/ppiankov/claimlens/internal/policy"
	"github.com/ppiankov/claimlens/internal/storage"
)

type memStore map[int64]*model.Claim

func (m memStore) Get(ctx context.Context, id int64) (*model.Claim, error) {
	c, ok := m[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return c, nil
}

// cannedCompleter approves everything it is asked about
type cannedCompleter struct{}

func (cannedCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return `{"verdict": "APPROVED", "confidence_score": 88, "reasoning": "Documentation supports the billed service.", "missing_criteria": [], "suggested_fix": ""}`, nil
}

func amount(v float64) *float64 { return &v }

func main() {
	fmt.Println("=== Claim Verification Scenarios ===")
	fmt.Println()

	claims := memStore{
		1: {ID: 1, CPTCode: "99213", DateOfService: "2024-01-01"},
		2: {ID: 2, MemberID: "M-2", DateOfService: "2024-01-01", DateOfSubmission: "2024-06-01"},
		3: {ID: 3, MemberID: "M-3", CPTCode: "58150", CPTDescription: "Total abdominal hysterectomy", PatientGender: "M", PlaceOfService: "11"},
		4: {ID: 4, MemberID: "M-4", CPTCode: "27447", ClaimAmount: amount(5000)},
		5: {ID: 5, MemberID: "M-5", CPTCode: "99285", ClaimAmount: amount(420), DateOfService: "2024-03-01", DateOfSubmission: "2024-03-15"},
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)
	p := pipeline.NewPipeline(pipeline.Dependencies{
		Claims:      claims,
		Coding:      coding.NewEngine(coding.Options{}, nil, logger),
		Resolver:    policy.NewResolverWithStrategies(logger),
		Adjudicator: adjudicate.New(cannedCompleter{}),
	}, pipeline.Options{}, logger)

	ctx := context.Background()
	for id := int64(1); id <= 6; id++ {
		fmt.Printf("Claim %d\n", id)
		fmt.Println(strings.Repeat("-", 60))

		run, err := p.Run(ctx, id)
		if err != nil {
			fmt.Printf("  ✗ %v\n\n", err)
			continue
		}

		r := run.Result
		fmt.Printf("  Verdict:     %s (%d/100)\n", r.Verdict, r.ConfidenceScore)
		fmt.Printf("  Final stage: %s\n", run.Final())
		if r.StepFailed != "" {
			fmt.Printf("  Step failed: %s\n", r.StepFailed)
		}
		if r.PolicySource != "" {
			fmt.Printf("  Policy:      %s\n", r.PolicySource)
		}
		for _, f := range r.CodingFlags {
			fmt.Printf("  ⚠️  %s\n", f)
		}
		fmt.Println()
	}

	fmt.Println("=== Scenarios Complete ===")
}
