// Package validate implements the deterministic pre-submission gates.
// A gate either passes a claim on to the next stage or terminates
// verification with an authoritative denial.
package validate

import "github.com/ppiankov/claimlens/internal/model"

// Status is the tagged outcome of a gate
type Status int

const (
	Pass Status = iota
	Deny
)

// Denial describes why a gate rejected a claim
type Denial struct {
	Step            string
	Reasoning       string
	MissingCriteria []string
	SuggestedFix    string
}

// Outcome is returned by every gate
type Outcome struct {
	Status Status
	Denial *Denial // Set only when Status == Deny
}

// Passed returns a passing outcome
func Passed() Outcome {
	return Outcome{Status: Pass}
}

// Denied returns a terminal outcome carrying d
func Denied(d Denial) Outcome {
	return Outcome{Status: Deny, Denial: &d}
}

// Result converts a denial into the pipeline's terminal result.
// Gate denials are deterministic and always carry full confidence.
func (d *Denial) Result() *model.VerificationResult {
	return &model.VerificationResult{
		Verdict:         model.VerdictDenied,
		ConfidenceScore: 100,
		Reasoning:       d.Reasoning,
		MissingCriteria: append([]string{}, d.MissingCriteria...),
		SuggestedFix:    d.SuggestedFix,
		CodingFlags:     []string{},
		StepFailed:      d.Step,
	}
}

// Gate is a short-circuiting verification stage
type Gate interface {
	Name() string
	Check(claim *model.Claim) Outcome
}
