package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimlens/internal/ingest"
	"github.com/ppiankov/claimlens/internal/model"
)

var (
	ingestPolicies string
	ingestSamples  bool
	ingestForce    bool
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [claims.csv|claims.parquet]",
	Short: "Load claims and payer policies",
	Long: `Ingest loads claims into the claim store and payer policies into the
policy index.

Claims are read from CSV (header row, names normalized to lower_snake_case)
or Parquet, chosen by file extension. They are only inserted when the store
is empty unless --force is given. Policies are embedded with the configured
embedding provider and upserted by policy id.

Example:
  claimlens ingest data/claims.csv --samples
  claimlens ingest data/claims.parquet --force
  claimlens ingest --policies policies.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestPolicies, "policies", "", "YAML or JSON file of policy documents")
	ingestCmd.Flags().BoolVar(&ingestSamples, "samples", false, "index the built-in sample policies")
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "insert claims even when the store already has data")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && ingestPolicies == "" && !ingestSamples {
		return fmt.Errorf("nothing to ingest (pass a claims file, --policies or --samples)")
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	loader := ingest.NewLoader(logger)

	if len(args) == 1 {
		claims, err := readClaims(args[0])
		if err != nil {
			return err
		}
		report, err := loader.Claims(ctx, a.claims, claims, ingestForce)
		if err != nil {
			return err
		}
		if report.Skipped {
			fmt.Fprintln(os.Stderr, "Claim store already has data; use --force to append")
		} else {
			fmt.Fprintf(os.Stderr, "✓ Imported %d claims\n", report.Inserted)
		}
	}

	var docs []ingest.PolicyDoc
	if ingestSamples {
		docs = append(docs, ingest.SamplePolicies()...)
	}
	if ingestPolicies != "" {
		fromFile, err := ingest.ReadPolicies(ingestPolicies)
		if err != nil {
			return err
		}
		docs = append(docs, fromFile...)
	}
	if len(docs) == 0 {
		return nil
	}

	if a.index == nil {
		return fmt.Errorf("storage.policy_index_path is not configured")
	}
	var enc ingest.Encoder
	if a.encoder != nil {
		enc = a.encoder
	}
	report, err := loader.Policies(ctx, a.index, enc, docs)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Indexed %d policies (%d total)\n", report.Inserted, a.index.Count())
	return nil
}

func readClaims(path string) ([]*model.Claim, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return ingest.ReadClaimsParquet(path)
	case ".csv", "":
		return ingest.ReadClaimsCSVFile(path)
	default:
		return nil, fmt.Errorf("unsupported claims file %s (expected .csv or .parquet)", path)
	}
}
