package model

import (
	"fmt"
	"strings"
)

// Verdict is the outcome of a claim verification
type Verdict string

const (
	VerdictApproved Verdict = "APPROVED"
	VerdictDenied   Verdict = "DENIED"
	VerdictWarning  Verdict = "WARNING"
)

// Valid reports whether v is one of the known verdicts
func (v Verdict) Valid() bool {
	switch v {
	case VerdictApproved, VerdictDenied, VerdictWarning:
		return true
	}
	return false
}

// Step labels recorded in VerificationResult.StepFailed
const (
	StepEligibility = "Eligibility Check"
	StepFiling      = "Timely Filing Check"
	StepLLM         = "LLM Analysis"
)

// Policy source labels
const (
	PolicySourceExact = "exact_match"
	PolicySourceNone  = "none"
)

// SemanticSource formats the provenance label for a semantic policy match
func SemanticSource(id string, distance float64) string {
	return fmt.Sprintf("semantic_match(%s, %.2f)", id, distance)
}

// VerificationResult is the output of a single verification run
type VerificationResult struct {
	Verdict         Verdict  `json:"verdict,omitempty"` // Empty when the adjudicator output could not be parsed
	ConfidenceScore int      `json:"confidence_score"`  // 0-100
	Reasoning       string   `json:"reasoning,omitempty"`
	MissingCriteria []string `json:"missing_criteria"`
	SuggestedFix    string   `json:"suggested_fix,omitempty"`
	CodingFlags     []string `json:"coding_flags"`
	PolicySource    string   `json:"policy_source,omitempty"` // Absent when a gate short-circuited
	StepFailed      string   `json:"step_failed,omitempty"`
	RawOutput       string   `json:"raw_output,omitempty"` // Unparsed adjudicator output

	// Flags holds the structured form of CodingFlags
	Flags []Flag `json:"-"`
}

// SetFlags records the coding flags in both structured and formatted form
func (r *VerificationResult) SetFlags(flags []Flag) {
	r.Flags = flags
	r.CodingFlags = make([]string, 0, len(flags))
	for _, f := range flags {
		r.CodingFlags = append(r.CodingFlags, f.String())
	}
}

// Severity of a coding flag
type Severity string

const (
	SeverityDenied  Severity = "DENIED"
	SeverityWarning Severity = "WARNING"
)

// RuleID identifies the coding rule that produced a flag
type RuleID string

const (
	RuleGender           RuleID = "gender_consistency"
	RuleAge              RuleID = "age_appropriateness"
	RulePlaceOfService   RuleID = "place_of_service"
	RuleMedicalNecessity RuleID = "medical_necessity"
	RulePriorAuth        RuleID = "prior_authorization"
	RuleModifier         RuleID = "modifier_scout"
	RuleAdvisory         RuleID = "advisory"
)

// Flag is a single coding-rule finding
type Flag struct {
	Severity Severity `json:"severity"`
	Rule     RuleID   `json:"rule"`
	Message  string   `json:"message"`
}

// String renders the flag in its external "SEVERITY: message" form
func (f Flag) String() string {
	return string(f.Severity) + ": " + f.Message
}

// ParseFlag converts an externally formatted flag string back into a Flag.
// Strings without a severity prefix are treated as warnings.
func ParseFlag(s string, rule RuleID) Flag {
	s = strings.TrimSpace(s)
	for _, sev := range []Severity{SeverityDenied, SeverityWarning} {
		prefix := string(sev) + ":"
		if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			return Flag{Severity: sev, Rule: rule, Message: strings.TrimSpace(s[len(prefix):])}
		}
	}
	return Flag{Severity: SeverityWarning, Rule: rule, Message: s}
}
