// Package adjudicate asks the completion service for a clinical verdict on a
// claim, grounded in the resolved payer policy when one is available.
package adjudicate

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ppiankov/claimlens/internal/coding"
	"github.com/ppiankov/claimlens/internal/model"
)

// Adjudicator builds the audit prompt and calls the completion service
type Adjudicator struct {
	completer coding.Completer
}

// New creates an adjudicator
func New(completer coding.Completer) *Adjudicator {
	return &Adjudicator{completer: completer}
}

// Adjudicate returns the raw model output. An empty policyText selects the
// policy-free branch. Errors are completion-call failures only.
func (a *Adjudicator) Adjudicate(ctx context.Context, claim *model.Claim, policyText string) (string, error) {
	var system, user string
	if policyText != "" {
		system, user = GroundedPrompt(claim, policyText)
	} else {
		system, user = GeneralPrompt(claim)
	}
	return a.completer.Complete(ctx, system, user)
}

// Parse converts model output into a result. Output that is not a JSON
// object is preserved in RawOutput with no verdict. Fields of an unexpected
// type are read leniently, and a verdict outside the known set is dropped
// with the output kept in RawOutput.
func Parse(raw string) *model.VerificationResult {
	clean := coding.StripFences(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(clean), &fields); err != nil || fields == nil {
		return unparsed(raw)
	}

	res := &model.VerificationResult{
		Verdict:         model.Verdict(strings.ToUpper(strings.TrimSpace(textField(fields["verdict"])))),
		ConfidenceScore: parseConfidence(fields["confidence_score"]),
		Reasoning:       textField(fields["reasoning"]),
		MissingCriteria: listField(fields["missing_criteria"]),
		SuggestedFix:    textField(fields["suggested_fix"]),
		CodingFlags:     []string{},
	}
	if res.Verdict != "" && !res.Verdict.Valid() {
		res.Verdict = ""
		res.RawOutput = raw
	}
	return res
}

func unparsed(raw string) *model.VerificationResult {
	return &model.VerificationResult{
		RawOutput:       raw,
		MissingCriteria: []string{},
		CodingFlags:     []string{},
	}
}

// textField reads a string, joining a list with "; " and rendering any
// other scalar as its JSON text
func textField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if t := textField(item); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, "; ")
	}

	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

// listField reads a list of strings; a single non-empty value becomes a
// one-element list
func listField(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		for _, item := range items {
			if t := textField(item); t != "" {
				out = append(out, t)
			}
		}
		return out
	}

	if t := textField(raw); t != "" {
		out = append(out, t)
	}
	return out
}

// parseConfidence accepts a number or numeric string and clamps to 0-100
func parseConfidence(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
		if err != nil {
			return 0
		}
	}

	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	}
	return int(f + 0.5)
}
