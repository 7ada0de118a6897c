package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ppiankov/claimlens/internal/model"
)

// ClaimWriter is the subset of the claim store used for loading
type ClaimWriter interface {
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, claim *model.Claim) (int64, error)
}

// PolicyWriter is the subset of the policy index used for loading
type PolicyWriter interface {
	Upsert(ctx context.Context, record model.PolicyRecord, vector []float32) error
}

// Encoder embeds policy text
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Report summarizes a load
type Report struct {
	Inserted int
	Skipped  bool // Store already held data and force was not set
}

// Loader writes claims and policies with progress logging
type Loader struct {
	logger zerolog.Logger
}

// NewLoader creates a loader
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{logger: logger}
}

// Claims inserts claims into the store. A non-empty store is left untouched
// unless force is set.
func (l *Loader) Claims(ctx context.Context, store ClaimWriter, claims []*model.Claim, force bool) (Report, error) {
	existing, err := store.Count(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("count claims: %w", err)
	}
	if existing > 0 && !force {
		l.logger.Info().Int("existing", existing).Msg("Claim store already has data, skipping claim ingestion")
		return Report{Skipped: true}, nil
	}

	var report Report
	for i, claim := range claims {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, err := store.Insert(ctx, claim); err != nil {
			return report, fmt.Errorf("insert claim %d: %w", i+1, err)
		}
		report.Inserted++
	}

	l.logger.Info().Int("inserted", report.Inserted).Msg("Claims ingested")
	return report, nil
}

// Policies embeds each document and upserts it with title and text metadata
func (l *Loader) Policies(ctx context.Context, index PolicyWriter, enc Encoder, docs []PolicyDoc) (Report, error) {
	if enc == nil {
		return Report{}, fmt.Errorf("an embedding provider is required to index policies")
	}

	var report Report
	for _, doc := range docs {
		vec, err := enc.Encode(ctx, doc.Text)
		if err != nil {
			return report, fmt.Errorf("embed policy %s: %w", doc.ID, err)
		}

		record := model.PolicyRecord{
			ID:       doc.ID,
			Metadata: map[string]string{"title": doc.Title, "text": doc.Text},
		}
		if err := index.Upsert(ctx, record, vec); err != nil {
			return report, err
		}
		report.Inserted++
		l.logger.Debug().Str("policy_id", doc.ID).Int("dimensions", len(vec)).Msg("Indexed policy")
	}

	l.logger.Info().Int("indexed", report.Inserted).Msg("Policies ingested")
	return report, nil
}
