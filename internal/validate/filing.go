package validate

import (
	"fmt"

	"github.com/ppiankov/claimlens/internal/model"
	"github.com/ppiankov/claimlens/internal/util"
)

// DefaultFilingDays is the timely filing limit
const DefaultFilingDays = 90

// TimelyFiling rejects claims submitted too long after the date of service
type TimelyFiling struct {
	limitDays int
}

// NewTimelyFiling creates the filing gate; limitDays <= 0 uses the default
func NewTimelyFiling(limitDays int) *TimelyFiling {
	if limitDays <= 0 {
		limitDays = DefaultFilingDays
	}
	return &TimelyFiling{limitDays: limitDays}
}

// Name returns the step label
func (g *TimelyFiling) Name() string {
	return model.StepFiling
}

// Check compares submission and service dates. If either date cannot be
// parsed the gate passes: the decision is deferred, not failed.
func (g *TimelyFiling) Check(claim *model.Claim) Outcome {
	service, ok := util.ParseDate(claim.DateOfService)
	if !ok {
		return Passed()
	}
	submitted, ok := util.ParseDate(claim.DateOfSubmission)
	if !ok {
		return Passed()
	}

	elapsed := util.DaysBetween(service, submitted)
	if elapsed <= g.limitDays {
		return Passed()
	}

	return Denied(Denial{
		Step: model.StepFiling,
		Reasoning: fmt.Sprintf("Claim was submitted %d days after the date of service, exceeding the %d-day timely filing limit.",
			elapsed, g.limitDays),
		MissingCriteria: []string{fmt.Sprintf("Timely filing within %d days of service", g.limitDays)},
		SuggestedFix:    "Re-submit with a valid appeal or proof of timely filing exception.",
	})
}
