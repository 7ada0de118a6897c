// Package policy resolves the payer policy text that applies to a claim.
//
// Resolution is an ordered chain of strategies. The first strategy that
// matches wins; when none match the claim is adjudicated without a policy.
package policy

import (
	"context"
	"strings"

	"github.com/ppiankov/claimlens/internal/model"
	"github.com/rs/zerolog"
)

// DefaultRelevanceThreshold is the largest cosine distance accepted as a semantic match
const DefaultRelevanceThreshold = 0.45

// Index is the policy vector index
type Index interface {
	FetchByID(ctx context.Context, id string) (*model.PolicyRecord, error)
	Nearest(ctx context.Context, vector []float32, k int) ([]model.PolicyMatch, error)
}

// Encoder turns query text into an embedding vector
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Resolution is the resolved policy text and its provenance label.
// Text is empty when Source is "none".
type Resolution struct {
	Text   string
	Source string
}

// Found reports whether a policy body was resolved
func (r Resolution) Found() bool {
	return r.Text != ""
}

// Unmatched is the resolution used when no strategy matched
var Unmatched = Resolution{Source: model.PolicySourceNone}

// Strategy is one tier of the resolution chain. A strategy that cannot
// match returns ok=false so the next tier is tried; a returned error
// stops the chain.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, claim *model.Claim) (res Resolution, ok bool, err error)
}

// Resolver runs the strategy chain
type Resolver struct {
	strategies []Strategy
	logger     zerolog.Logger
}

// NewResolver builds the standard chain: exact match, then semantic match.
// A nil index yields a resolver that always returns Unmatched; a nil
// encoder disables the semantic tier.
func NewResolver(index Index, encoder Encoder, threshold float64, logger zerolog.Logger) *Resolver {
	r := &Resolver{logger: logger}
	if index == nil {
		return r
	}

	r.strategies = append(r.strategies, NewExactMatch(index, logger))
	if encoder != nil {
		r.strategies = append(r.strategies, NewSemanticMatch(index, encoder, threshold))
	}
	return r
}

// NewResolverWithStrategies builds a resolver over an explicit chain
func NewResolverWithStrategies(logger zerolog.Logger, strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies, logger: logger}
}

// Resolve returns the first matching policy. Only errors from strategies
// that propagate faults (the semantic tier) are returned.
func (r *Resolver) Resolve(ctx context.Context, claim *model.Claim) (Resolution, error) {
	for _, s := range r.strategies {
		res, ok, err := s.Resolve(ctx, claim)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			r.logger.Debug().
				Int64("claim_id", claim.ID).
				Str("strategy", s.Name()).
				Str("policy_source", res.Source).
				Msg("policy resolved")
			return res, nil
		}
	}
	return Unmatched, nil
}

// QueryText joins the claim's clinical context for semantic retrieval
func QueryText(claim *model.Claim) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{claim.CPTDescription, claim.ICDDescription, claim.MedicalSpecialty, claim.DenialReason} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " | ")
}
