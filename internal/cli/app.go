package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ppiankov/claimlens/internal/adjudicate"
	"github.com/ppiankov/claimlens/internal/cache"
	"github.com/ppiankov/claimlens/internal/coding"
	"github.com/ppiankov/claimlens/internal/embedding"
	"github.com/ppiankov/claimlens/internal/llm"
	"github.com/ppiankov/claimlens/internal/model"
	"github.com/ppiankov/claimlens/internal/pipeline"
	"github.com/ppiankov/claimlens/internal/policy"
	"github.com/ppiankov/claimlens/internal/storage"
	"github.com/ppiankov/claimlens/internal/validate"
	"github.com/ppiankov/claimlens/internal/worker"
)

// app holds the wired collaborators shared by the subcommands
type app struct {
	cfg       *model.Config
	logger    zerolog.Logger
	claims    storage.ClaimRepository
	index     *storage.PolicyIndex // nil when no index path is configured
	encoder   embedding.Encoder    // nil when embeddings are disabled
	completer *llm.Completer
	pipeline  *pipeline.Pipeline
}

// newApp opens the stores and builds the verification pipeline
func newApp(ctx context.Context, cfg *model.Config, logger zerolog.Logger) (a *app, err error) {
	a = &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.claims, err = storage.OpenClaims(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open claim store: %w", err)
	}

	if cfg.Storage.PolicyIndexPath != "" {
		a.index, err = storage.OpenPolicyIndex(cfg.Storage.PolicyIndexPath)
		if err != nil {
			return nil, fmt.Errorf("open policy index: %w", err)
		}
	}

	a.encoder, err = newEncoder(cfg)
	if err != nil {
		return nil, err
	}

	a.completer, err = llm.NewCompleter(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, err
	}
	if cfg.RateLimiting.RequestsPerSecond > 0 {
		a.completer.WithThrottle(worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize))
	}
	if a.completer.IsEnabled() {
		logger.Debug().Str("provider", a.completer.ProviderName()).Msg("Completion provider enabled")
	} else {
		logger.Warn().Msg("No completion provider configured; adjudication will report failures")
	}

	a.pipeline = pipeline.NewPipeline(pipeline.Dependencies{
		Claims:      a.claims,
		Eligibility: validate.NewEligibility(),
		Filing:      validate.NewTimelyFiling(cfg.Rules.TimelyFilingDays),
		Coding:      coding.NewEngine(codingOptions(cfg), advisoryCompleter(a.completer), logger),
		Resolver:    a.resolver(),
		Adjudicator: adjudicate.New(a.completer),
	}, pipeline.Options{StrictResolution: cfg.Rules.StrictResolution}, logger)

	return a, nil
}

func codingOptions(cfg *model.Config) coding.Options {
	return coding.Options{
		HighValueThreshold: cfg.Rules.HighValueThreshold,
		ExcerptChars:       cfg.Rules.TranscriptExcerptChars,
	}
}

// advisoryCompleter returns an untyped nil when completions are disabled so
// the coding engine skips the advisory review
func advisoryCompleter(c *llm.Completer) coding.Completer {
	if !c.IsEnabled() {
		return nil
	}
	return c
}

func (a *app) resolver() *policy.Resolver {
	var index policy.Index
	if a.index != nil {
		index = a.index
	}
	var enc policy.Encoder
	if a.encoder != nil {
		enc = a.encoder
	}
	return policy.NewResolver(index, enc, a.cfg.Rules.SemanticRelevanceThreshold, a.logger)
}

// newEncoder builds the embedding encoder, wrapped in the vector cache when enabled
func newEncoder(cfg *model.Config) (embedding.Encoder, error) {
	enc, err := embedding.New(embedding.ConfigFromModel(cfg))
	if err != nil {
		return nil, fmt.Errorf("create embedding encoder: %w", err)
	}
	if enc == nil || !cfg.Cache.Enabled {
		return enc, nil
	}

	diskDir, err := expandHome(cfg.Cache.DiskDir)
	if err != nil {
		return nil, err
	}
	c := cache.NewLayeredCache(cfg.Cache.MemoryTTL, diskDir, cfg.Cache.DiskTTL)
	return embedding.NewCachedEncoder(enc, c, cfg.Embedding.Provider+"/"+cfg.Embedding.Model), nil
}

// Close releases the stores
func (a *app) Close() {
	if a.claims != nil {
		if err := a.claims.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close claim store")
		}
	}
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close policy index")
		}
	}
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
