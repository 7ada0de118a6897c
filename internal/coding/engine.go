package coding

import (
	"context"

	"github.com/ppiankov/claimlens/internal/model"
	"github.com/rs/zerolog"
)

// DefaultHighValueThreshold is the claim amount above which prior auth is expected
const DefaultHighValueThreshold = 1000

// Options tunes the rule engine
type Options struct {
	HighValueThreshold float64
	ExcerptChars       int
}

// Engine evaluates all coding rules for a claim
type Engine struct {
	rules   []Rule
	advisor *Advisor // nil when no completion service is configured
	logger  zerolog.Logger
}

// NewEngine creates a rule engine. A nil completer disables rules 4 and 6.
func NewEngine(opts Options, completer Completer, logger zerolog.Logger) *Engine {
	threshold := opts.HighValueThreshold
	if threshold <= 0 {
		threshold = DefaultHighValueThreshold
	}

	e := &Engine{
		rules: []Rule{
			GenderRule{},
			AgeRule{},
			PlaceOfServiceRule{},
			PriorAuthRule{Threshold: threshold},
		},
		logger: logger,
	}
	if completer != nil {
		e.advisor = NewAdvisor(completer, opts.ExcerptChars)
	}
	return e
}

// Evaluate runs every rule independently and returns the accumulated flags.
// Deterministic flags come first, followed by model-assisted flags.
func (e *Engine) Evaluate(ctx context.Context, claim *model.Claim) []model.Flag {
	flags := make([]model.Flag, 0, len(e.rules))

	for _, rule := range e.rules {
		if flag, ok := rule.Check(claim); ok {
			flags = append(flags, flag)
		}
	}

	if e.advisor == nil {
		return flags
	}

	advice := e.advisor.Review(ctx, claim)
	if advice.Degraded() {
		e.logger.Warn().
			Err(advice.Err).
			Int64("claim_id", claim.ID).
			Msg("advisory coding checks degraded; contributing no flags")
		return flags
	}

	return append(flags, advice.Flags...)
}
