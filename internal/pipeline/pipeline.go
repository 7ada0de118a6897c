// Package pipeline sequences the verification stages for a claim: the
// eligibility and timely-filing gates, the coding rules, policy resolution
// and clinical adjudication.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/claimlens/internal/adjudicate"
	"github.com/ppiankov/claimlens/internal/model"
	"github.com/ppiankov/claimlens/internal/policy"
	"github.com/ppiankov/claimlens/internal/storage"
	"github.com/ppiankov/claimlens/internal/validate"
	"github.com/rs/zerolog"
)

// ErrClaimNotFound is returned when the claim id is absent from the store
var ErrClaimNotFound = errors.New("claim not found")

const adjudicationFailedFix = "Check the completion service configuration (provider, model, credentials)."

// ClaimStore loads claims by id. Missing claims are reported as storage.ErrNotFound.
type ClaimStore interface {
	Get(ctx context.Context, id int64) (*model.Claim, error)
}

// FlagEvaluator runs the coding rules
type FlagEvaluator interface {
	Evaluate(ctx context.Context, claim *model.Claim) []model.Flag
}

// PolicyResolver finds the policy text for a claim
type PolicyResolver interface {
	Resolve(ctx context.Context, claim *model.Claim) (policy.Resolution, error)
}

// ClinicalAdjudicator produces the raw verdict output
type ClinicalAdjudicator interface {
	Adjudicate(ctx context.Context, claim *model.Claim, policyText string) (string, error)
}

// Dependencies are the collaborators of a pipeline
type Dependencies struct {
	Claims      ClaimStore
	Eligibility validate.Gate // Defaults to validate.NewEligibility()
	Filing      validate.Gate // Defaults to validate.NewTimelyFiling(90)
	Coding      FlagEvaluator
	Resolver    PolicyResolver
	Adjudicator ClinicalAdjudicator
}

// Options tunes pipeline behaviour
type Options struct {
	// StrictResolution returns semantic-resolution faults from Verify instead
	// of converting them into an adjudication-failed result.
	StrictResolution bool
}

// Pipeline orchestrates a single claim verification
type Pipeline struct {
	deps   Dependencies
	opts   Options
	logger zerolog.Logger
}

// NewPipeline creates a pipeline over the given collaborators
func NewPipeline(deps Dependencies, opts Options, logger zerolog.Logger) *Pipeline {
	if deps.Eligibility == nil {
		deps.Eligibility = validate.NewEligibility()
	}
	if deps.Filing == nil {
		deps.Filing = validate.NewTimelyFiling(validate.DefaultFilingDays)
	}
	return &Pipeline{deps: deps, opts: opts, logger: logger}
}

// Verify runs the pipeline for one claim and returns its result
func (p *Pipeline) Verify(ctx context.Context, claimID int64) (*model.VerificationResult, error) {
	run, err := p.Run(ctx, claimID)
	if err != nil {
		return nil, err
	}
	return run.Result, nil
}

// Run is like Verify but also reports the stages the claim passed through
func (p *Pipeline) Run(ctx context.Context, claimID int64) (*Run, error) {
	r := &Run{ClaimID: claimID, logger: p.logger}

	claim, err := p.deps.Claims.Get(ctx, claimID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && claim == nil) {
		r.enter(StageNotFound)
		return nil, fmt.Errorf("%w: %d", ErrClaimNotFound, claimID)
	}
	if err != nil {
		return nil, fmt.Errorf("load claim %d: %w", claimID, err)
	}
	r.enter(StageLoaded)

	r.enter(StageEligibility)
	if out := p.deps.Eligibility.Check(claim); out.Status == validate.Deny {
		return r.shortCircuit(out.Denial), nil
	}

	r.enter(StageFiling)
	if out := p.deps.Filing.Check(claim); out.Status == validate.Deny {
		return r.shortCircuit(out.Denial), nil
	}

	r.enter(StageCoding)
	flags := p.deps.Coding.Evaluate(ctx, claim)

	r.enter(StagePolicy)
	resolution, err := p.deps.Resolver.Resolve(ctx, claim)
	if err != nil {
		if p.opts.StrictResolution {
			return nil, fmt.Errorf("resolve policy for claim %d: %w", claimID, err)
		}
		return r.adjudicationFailed(err, flags, ""), nil
	}
	r.logger.Debug().
		Int64("claim_id", claimID).
		Bool("policy_found", resolution.Found()).
		Str("policy_source", resolution.Source).
		Msg("policy resolved")

	r.enter(StageAdjudication)
	raw, err := p.deps.Adjudicator.Adjudicate(ctx, claim, resolution.Text)
	if err != nil {
		return r.adjudicationFailed(err, flags, resolution.Source), nil
	}

	result := adjudicate.Parse(raw)
	result.SetFlags(flags)
	result.PolicySource = resolution.Source
	r.Result = result
	r.enter(StageMerged)
	return r, nil
}

func (r *Run) shortCircuit(d *validate.Denial) *Run {
	r.Result = d.Result()
	r.enter(StageShortCircuited)
	return r
}

func (r *Run) adjudicationFailed(err error, flags []model.Flag, source string) *Run {
	r.logger.Warn().Err(err).Int64("claim_id", r.ClaimID).Msg("adjudication failed")

	result := &model.VerificationResult{
		Verdict:         model.VerdictWarning,
		ConfidenceScore: 0,
		Reasoning:       fmt.Sprintf("LLM analysis failed: %v", err),
		MissingCriteria: []string{},
		SuggestedFix:    adjudicationFailedFix,
		PolicySource:    source,
		StepFailed:      model.StepLLM,
	}
	result.SetFlags(flags)
	r.Result = result
	r.enter(StageAdjudicationFailed)
	return r
}
