package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/claimlens/internal/model"
)

// medicareIDPattern: optional single letter, then a digit
var medicareIDPattern = regexp.MustCompile(`^[A-Za-z]?\d`)

// Eligibility rejects claims with a missing or malformed member identifier
type Eligibility struct{}

// NewEligibility creates the eligibility gate
func NewEligibility() *Eligibility {
	return &Eligibility{}
}

// Name returns the step label
func (g *Eligibility) Name() string {
	return model.StepEligibility
}

// Check validates the member identifier
func (g *Eligibility) Check(claim *model.Claim) Outcome {
	memberID := strings.TrimSpace(claim.MemberID)
	if memberID == "" {
		return Denied(Denial{
			Step:            model.StepEligibility,
			Reasoning:       "Member ID is missing from the claim.",
			MissingCriteria: []string{"Valid Member ID"},
			SuggestedFix:    "Ensure the claim includes a valid member ID before submission.",
		})
	}

	if strings.EqualFold(strings.TrimSpace(claim.PayerName), "medicare") && !medicareIDPattern.MatchString(memberID) {
		return Denied(Denial{
			Step: model.StepEligibility,
			Reasoning: fmt.Sprintf("Medicare Member ID '%s' does not match the expected format "+
				"(must start with a digit or a valid alpha prefix followed by digits).", claim.MemberID),
			MissingCriteria: []string{"Valid Medicare Member ID format"},
			SuggestedFix:    "Correct the Member ID to match the Medicare Beneficiary Identifier (MBI) format.",
		})
	}

	return Passed()
}
