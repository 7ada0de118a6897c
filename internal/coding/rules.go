// Package coding runs the revenue-integrity rules against a claim.
// Deterministic rules run in-process; the medical-necessity and modifier
// checks are delegated to the completion service in one batched request.
package coding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/claimlens/internal/model"
	"github.com/ppiankov/claimlens/internal/util"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	femaleOnlyKeywords = []string{"uterus", "ovary", "pap smear", "cesarean"}
	maleOnlyKeywords   = []string{"prostate", "testis"}

	adultOnlyKeywords     = []string{"geriatric", "medicare wellness", "colonoscopy"}
	pediatricOnlyKeywords = []string{"pediatric", "well-baby", "vaccine (pediatric)"}

	// Placeholders that mean "no prior authorization"
	emptyAuthValues = map[string]bool{"": true, "nan": true, "none": true, "n/a": true}

	leadingDigits = regexp.MustCompile(`^(\d+)`)
)

// CPT ranges that cannot be billed from an office or clinic
const (
	inpatientLow  = 99221
	inpatientHigh = 99233
	emergencyLow  = 99281
	emergencyHigh = 99285
)

// Rule is a deterministic coding check producing at most one flag
type Rule interface {
	ID() model.RuleID
	Check(claim *model.Claim) (model.Flag, bool)
}

// firstKeyword returns the first keyword contained in text, in list order
func firstKeyword(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

// GenderRule flags procedures restricted to the other sex
type GenderRule struct{}

func (GenderRule) ID() model.RuleID { return model.RuleGender }

func (r GenderRule) Check(claim *model.Claim) (model.Flag, bool) {
	desc := strings.ToLower(claim.CPTDescription)

	switch strings.ToUpper(strings.TrimSpace(claim.PatientGender)) {
	case "M":
		if kw, ok := firstKeyword(desc, femaleOnlyKeywords); ok {
			return model.Flag{
				Severity: model.SeverityDenied,
				Rule:     r.ID(),
				Message:  fmt.Sprintf("Gender Mismatch (Male patient billed for GYN procedure — CPT mentions '%s')", kw),
			}, true
		}
	case "F":
		if kw, ok := firstKeyword(desc, maleOnlyKeywords); ok {
			return model.Flag{
				Severity: model.SeverityDenied,
				Rule:     r.ID(),
				Message:  fmt.Sprintf("Gender Mismatch (Female patient billed for Male-only procedure — CPT mentions '%s')", kw),
			}, true
		}
	}
	return model.Flag{}, false
}

// AgeRule flags adult-only services for minors and pediatric services for seniors
type AgeRule struct{}

func (AgeRule) ID() model.RuleID { return model.RuleAge }

func (r AgeRule) Check(claim *model.Claim) (model.Flag, bool) {
	dob, ok := util.ParseDate(claim.PatientDOB)
	if !ok {
		return model.Flag{}, false
	}
	dos, ok := util.ParseDate(claim.DateOfService)
	if !ok {
		return model.Flag{}, false
	}

	age := floorDiv(util.DaysBetween(dob, dos), 365)
	desc := strings.ToLower(claim.CPTDescription)

	switch {
	case age < 18:
		if kw, ok := firstKeyword(desc, adultOnlyKeywords); ok {
			return model.Flag{
				Severity: model.SeverityWarning,
				Rule:     r.ID(),
				Message:  fmt.Sprintf("Age Mismatch (Pediatric patient aged %d billed for Adult service — CPT mentions '%s')", age, kw),
			}, true
		}
	case age > 65:
		if kw, ok := firstKeyword(desc, pediatricOnlyKeywords); ok {
			return model.Flag{
				Severity: model.SeverityWarning,
				Rule:     r.ID(),
				Message:  fmt.Sprintf("Age Mismatch (Senior patient aged %d billed for Pediatric service — CPT mentions '%s')", age, kw),
			}, true
		}
	}
	return model.Flag{}, false
}

// PlaceOfServiceRule flags hospital or ED codes billed from an office setting
type PlaceOfServiceRule struct{}

func (PlaceOfServiceRule) ID() model.RuleID { return model.RulePlaceOfService }

func (r PlaceOfServiceRule) Check(claim *model.Claim) (model.Flag, bool) {
	pos := strings.ToLower(claim.PlaceOfService)
	if !strings.Contains(pos, "office") && !strings.Contains(pos, "clinic") {
		return model.Flag{}, false
	}

	m := leadingDigits.FindStringSubmatch(strings.TrimSpace(claim.CPTCode))
	if m == nil {
		return model.Flag{}, false
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return model.Flag{}, false
	}

	if (code >= inpatientLow && code <= inpatientHigh) || (code >= emergencyLow && code <= emergencyHigh) {
		return model.Flag{
			Severity: model.SeverityDenied,
			Rule:     r.ID(),
			Message:  "Site of Service Mismatch (Hospital/ED code billed in Office setting)",
		}, true
	}
	return model.Flag{}, false
}

// PriorAuthRule flags high-value claims without a usable prior authorization
type PriorAuthRule struct {
	Threshold float64
}

func (PriorAuthRule) ID() model.RuleID { return model.RulePriorAuth }

func (r PriorAuthRule) Check(claim *model.Claim) (model.Flag, bool) {
	amount, ok := claim.Amount()
	if !ok || amount <= r.Threshold {
		return model.Flag{}, false
	}
	if !emptyAuthValues[strings.ToLower(strings.TrimSpace(claim.PriorAuthNumber))] {
		return model.Flag{}, false
	}

	return model.Flag{
		Severity: model.SeverityWarning,
		Rule:     r.ID(),
		Message:  fmt.Sprintf("Missing Prior Authorization for High-Value Claim (%s)", formatDollars(amount)),
	}, true
}

var dollarPrinter = message.NewPrinter(language.English)

// formatDollars renders an amount with thousands separators and no decimals
func formatDollars(amount float64) string {
	return dollarPrinter.Sprintf("$%.0f", amount)
}

// floorDiv divides rounding toward negative infinity
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
