package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimlens/internal/model"
	"github.com/ppiankov/claimlens/internal/worker"
)

var (
	concurrency  int
	idsFile      string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [claim-id...]",
	Short: "Verify many claims in parallel",
	Long: `Batch verifies claims concurrently with a fixed worker pool:
- Read claim ids from arguments or a file (one per line)
- Verify each claim independently
- Print one JSON line per claim and a verdict tally

Example:
  claimlens batch 1 2 3
  claimlens batch --file ids.txt --concurrency 8
  claimlens batch --file ids.txt --timeout 30m`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&idsFile, "file", "", "file with claim ids, one per line")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for the batch")
}

// batchLine is the JSON line written per claim
type batchLine struct {
	ClaimID int64                     `json:"claim_id"`
	Result  *model.VerificationResult `json:"result,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	ids, err := collectIDs(args, idsFile)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("no claim ids given (pass ids as arguments or use --file)")
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info().Int("claims", len(ids)).Int("workers", workers).Msg("Starting batch verification")

	start := time.Now()
	results := worker.NewBatchVerifier(a.pipeline, workers).VerifyIDs(ctx, ids)

	if err := writeBatchLines(os.Stdout, results); err != nil {
		return err
	}

	summary := worker.Summarize(results)
	printSummary(os.Stderr, summary, time.Since(start))
	return nil
}

func collectIDs(args []string, file string) ([]int64, error) {
	ids, err := worker.ParseIDs(args)
	if err != nil {
		return nil, err
	}
	if file == "" {
		return ids, nil
	}

	fromFile, err := worker.ReadIDsFromFile(file)
	if err != nil {
		return nil, fmt.Errorf("read claim ids: %w", err)
	}
	return append(ids, fromFile...), nil
}

func writeBatchLines(w io.Writer, results []*worker.VerifyResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		line := batchLine{ClaimID: r.ClaimID, Result: r.Result}
		if r.Error != nil {
			line.Error = r.Error.Error()
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}

func printSummary(w io.Writer, s worker.Summary, elapsed time.Duration) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Batch Complete\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Total:     %d claims\n", s.Total)

	verdicts := make([]string, 0, len(s.Verdicts))
	for v := range s.Verdicts {
		verdicts = append(verdicts, string(v))
	}
	sort.Strings(verdicts)
	for _, v := range verdicts {
		fmt.Fprintf(w, "  %-10s %d\n", v+":", s.Verdicts[model.Verdict(v)])
	}

	if s.Unparsed > 0 {
		fmt.Fprintf(w, "  Unparsed:  %d\n", s.Unparsed)
	}
	fmt.Fprintf(w, "  Errors:    %d\n", s.Errors)
	fmt.Fprintf(w, "  Elapsed:   %v\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
}
