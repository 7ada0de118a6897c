package coding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/claimlens/internal/model"
)

// DefaultExcerptChars bounds the transcription sent to the completion service
const DefaultExcerptChars = 3000

// Completer is the completion service used for the model-assisted rules
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const advisorySystemPrompt = `You are a medical coding compliance auditor.
Evaluate the claim data below and return a JSON array of flag strings.
Only include flags that genuinely apply. Return an empty array [] if no issues found.

RULE 4 - Diagnosis vs. Procedure Logic:
Determine whether the diagnosis medically justifies the procedure.
If the diagnosis and procedure are clearly unrelated (e.g., "Headache" paired with "Cast Application, Leg"), add this exact flag:
"WARNING: Medical Necessity Mismatch (Diagnosis does not support Procedure)"

RULE 6 - Modifier Scout:
Review the transcription for evidence of:
  a) A bilateral procedure (both sides of the body) -> expected modifier -50
  b) Significant extra time or complexity -> expected modifier -22
If the transcription supports one of these but the current modifier does NOT include it, add:
"WARNING: Potential Missing Modifier -50 (Revenue Loss)" or
"WARNING: Potential Missing Modifier -22 (Revenue Loss)"

OUTPUT FORMAT - return ONLY a strict JSON array, no markdown fences:
["flag string 1", "flag string 2"]
or
[]`

// AdvisoryResult is the outcome of the batched model-assisted rules.
// A degraded result carries no flags and the error that caused it.
type AdvisoryResult struct {
	Flags   []model.Flag
	Skipped bool  // No diagnosis/procedure pair and no transcription
	Err     error // Call or parse failure
}

// Degraded reports whether the advisory call failed
func (r AdvisoryResult) Degraded() bool {
	return r.Err != nil
}

// Advisor runs rules 4 (medical necessity) and 6 (modifier scout) in one request
type Advisor struct {
	completer    Completer
	excerptChars int
}

// NewAdvisor creates an advisor; excerptChars <= 0 uses the default
func NewAdvisor(completer Completer, excerptChars int) *Advisor {
	if excerptChars <= 0 {
		excerptChars = DefaultExcerptChars
	}
	return &Advisor{completer: completer, excerptChars: excerptChars}
}

// Review asks the completion service for advisory flags. It never returns
// an error: failures produce a degraded result with zero flags.
func (a *Advisor) Review(ctx context.Context, claim *model.Claim) AdvisoryResult {
	hasNecessityData := claim.ICDDescription != "" && claim.CPTDescription != ""
	hasModifierData := claim.Transcription != ""
	if !hasNecessityData && !hasModifierData {
		return AdvisoryResult{Skipped: true}
	}

	raw, err := a.completer.Complete(ctx, advisorySystemPrompt, a.userPrompt(claim))
	if err != nil {
		return AdvisoryResult{Err: fmt.Errorf("advisory completion: %w", err)}
	}

	flags, err := parseAdvisoryFlags(raw)
	if err != nil {
		return AdvisoryResult{Err: err}
	}
	return AdvisoryResult{Flags: flags}
}

func (a *Advisor) userPrompt(claim *model.Claim) string {
	transcription := "N/A"
	if claim.Transcription != "" {
		transcription = truncateRunes(claim.Transcription, a.excerptChars)
	}

	return fmt.Sprintf(`Diagnosis (ICD): %s
Procedure (CPT): %s
Current Modifier: %s

Transcription (excerpt):
%s`,
		orDefault(claim.ICDDescription, "N/A"),
		orDefault(claim.CPTDescription, "N/A"),
		orDefault(claim.CPTModifier, "None"),
		transcription)
}

// parseAdvisoryFlags decodes a JSON array of flag strings, tolerating code fences
func parseAdvisoryFlags(raw string) ([]model.Flag, error) {
	clean := StripFences(raw)

	var items []any
	if err := json.Unmarshal([]byte(clean), &items); err != nil {
		return nil, fmt.Errorf("advisory response is not a JSON array: %w", err)
	}

	flags := make([]model.Flag, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			s = fmt.Sprint(item)
		}
		flags = append(flags, model.ParseFlag(s, advisoryRule(s)))
	}
	return flags, nil
}

func advisoryRule(s string) model.RuleID {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "modifier"):
		return model.RuleModifier
	case strings.Contains(lower, "medical necessity"):
		return model.RuleMedicalNecessity
	default:
		return model.RuleAdvisory
	}
}

// StripFences removes markdown code-fence markers around model output
func StripFences(raw string) string {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
