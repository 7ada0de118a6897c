package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimlens/internal/model"
)

var (
	verifyJSON    bool
	verifyTimeout time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <claim-id>",
	Short: "Verify a single claim",
	Long: `Verify runs one stored claim through the verification pipeline:
- Eligibility (member id present)
- Timely filing (submission within the filing window)
- Coding rules (gender, age, place of service, prior authorization)
- Policy resolution (exact policy id, then semantic match)
- Clinical adjudication by the completion model

Example:
  claimlens verify 42
  claimlens verify 42 --json
  claimlens verify 42 --strict-resolution`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print the result as JSON")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 2*time.Minute, "overall verification timeout")
	verifyCmd.Flags().Bool("strict-resolution", false, "fail when semantic policy resolution errors instead of reporting an adjudication failure")
	_ = viper.BindPFlag("rules.strict_resolution", verifyCmd.Flags().Lookup("strict-resolution"))
}

func runVerify(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid claim id %q", args[0])
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.pipeline.Run(ctx, id)
	if err != nil {
		return fmt.Errorf("verify claim %d: %w", id, err)
	}

	if verifyJSON {
		return writeJSON(os.Stdout, run.Result)
	}

	if verbose {
		stages := make([]string, len(run.Stages))
		for i, s := range run.Stages {
			stages[i] = string(s)
		}
		fmt.Fprintf(os.Stderr, "Stages: %s\n\n", strings.Join(stages, " → "))
	}
	printResult(os.Stdout, id, run.Result)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// verdictColor picks the terminal colour for a verdict
func verdictColor(v model.Verdict) *color.Color {
	switch v {
	case model.VerdictApproved:
		return color.New(color.FgGreen, color.Bold)
	case model.VerdictDenied:
		return color.New(color.FgRed, color.Bold)
	case model.VerdictWarning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}

// printResult renders a verification result for humans
func printResult(w io.Writer, claimID int64, r *model.VerificationResult) {
	verdict := string(r.Verdict)
	if verdict == "" {
		verdict = "UNPARSED"
	}

	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  Claim %d: %s (confidence %d/100)\n", claimID, verdictColor(r.Verdict).Sprint(verdict), r.ConfidenceScore)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")

	if r.StepFailed != "" {
		fmt.Fprintf(w, "  Step failed:    %s\n", r.StepFailed)
	}
	if r.PolicySource != "" {
		fmt.Fprintf(w, "  Policy source:  %s\n", r.PolicySource)
	}
	if r.Reasoning != "" {
		fmt.Fprintf(w, "\n  Reasoning:\n    %s\n", r.Reasoning)
	}
	if len(r.MissingCriteria) > 0 {
		fmt.Fprintln(w, "\n  Missing criteria:")
		for _, m := range r.MissingCriteria {
			fmt.Fprintf(w, "    - %s\n", m)
		}
	}
	if len(r.CodingFlags) > 0 {
		fmt.Fprintln(w, "\n  Coding flags:")
		for _, f := range r.CodingFlags {
			c := color.New(color.FgYellow)
			if strings.HasPrefix(f, string(model.SeverityDenied)) {
				c = color.New(color.FgRed)
			}
			fmt.Fprintf(w, "    %s\n", c.Sprint(f))
		}
	}
	if r.SuggestedFix != "" {
		fmt.Fprintf(w, "\n  Suggested fix:\n    %s\n", r.SuggestedFix)
	}
	if r.RawOutput != "" {
		fmt.Fprintf(w, "\n  Raw adjudicator output:\n    %s\n", r.RawOutput)
	}
	fmt.Fprintln(w)
}
