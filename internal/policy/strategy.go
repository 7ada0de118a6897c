package policy

import (
	"context"
	"fmt"

	"github.com/ppiankov/claimlens/internal/model"
	"github.com/rs/zerolog"
)

// ExactMatch looks the claim's policy_id up directly. Lookup failures of any
// kind fall through to the next tier.
type ExactMatch struct {
	index  Index
	logger zerolog.Logger
}

// NewExactMatch creates the exact-match tier
func NewExactMatch(index Index, logger zerolog.Logger) *ExactMatch {
	return &ExactMatch{index: index, logger: logger}
}

func (s *ExactMatch) Name() string { return "exact_match" }

func (s *ExactMatch) Resolve(ctx context.Context, claim *model.Claim) (Resolution, bool, error) {
	if claim.PolicyID == "" {
		return Resolution{}, false, nil
	}

	record, err := s.index.FetchByID(ctx, claim.PolicyID)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Str("policy_id", claim.PolicyID).
			Msg("exact policy lookup failed, trying semantic match")
		return Resolution{}, false, nil
	}

	text := record.Text()
	if text == "" {
		return Resolution{}, false, nil
	}
	return Resolution{Text: text, Source: model.PolicySourceExact}, true, nil
}

// SemanticMatch embeds the claim's clinical context and accepts the nearest
// policy when it is within the relevance threshold. Embedding and query
// failures are returned to the caller.
type SemanticMatch struct {
	index     Index
	encoder   Encoder
	threshold float64
}

// NewSemanticMatch creates the semantic tier; threshold <= 0 uses the default
func NewSemanticMatch(index Index, encoder Encoder, threshold float64) *SemanticMatch {
	if threshold <= 0 {
		threshold = DefaultRelevanceThreshold
	}
	return &SemanticMatch{index: index, encoder: encoder, threshold: threshold}
}

func (s *SemanticMatch) Name() string { return "semantic_match" }

func (s *SemanticMatch) Resolve(ctx context.Context, claim *model.Claim) (Resolution, bool, error) {
	query := QueryText(claim)
	if query == "" {
		return Resolution{}, false, nil
	}

	vector, err := s.encoder.Encode(ctx, query)
	if err != nil {
		return Resolution{}, false, fmt.Errorf("embed policy query: %w", err)
	}

	matches, err := s.index.Nearest(ctx, vector, 1)
	if err != nil {
		return Resolution{}, false, fmt.Errorf("query policy index: %w", err)
	}
	if len(matches) == 0 {
		return Resolution{}, false, nil
	}

	best := matches[0]
	if best.Distance > s.threshold {
		return Resolution{}, false, nil
	}

	text := best.Metadata["text"]
	if text == "" {
		return Resolution{}, false, nil
	}
	return Resolution{Text: text, Source: model.SemanticSource(best.ID, best.Distance)}, true, nil
}
