package adjudicate

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimlens/internal/model"
)

const groundedSystemPrompt = `You are an expert Medical Auditor for insurance claims.
Your goal is to prevent denials by strictly comparing Doctor Notes against Payer Policies.

Input:
1. Doctor's Transcription
2. Payer Policy Text
3. Full Claim Details (CPT, ICD, modifiers, dates, prior auth, etc.)

Task:
1. Extract the specific medical criteria required by the Policy.
2. Check if the Doctor's Transcription explicitly mentions these criteria.
3. Verify the CPT code and modifier are consistent with the documentation.
4. Check if ICD diagnosis codes align with the procedure and policy requirements.
5. Flag any prior authorization issues if applicable.
6. Return a verdict: 'APPROVED', 'DENIED', or 'WARNING'.
7. If WARNING or DENIED, cite the specific missing phrase or criteria.`

const generalSystemPrompt = `You are an expert Medical Auditor for insurance claims.
No specific payer policy document is available for this claim.
Use your general knowledge of medical billing standards, CMS/Medicare
guidelines, and standard-of-care practices to audit the claim.

Task:
1. Assess whether the Doctor's Transcription supports the billed procedure.
2. Verify CPT code, modifier, and ICD diagnosis alignment.
3. Flag any documentation gaps or coding inconsistencies.
4. Return a verdict: 'APPROVED', 'DENIED', or 'WARNING'.
5. Be transparent that no specific policy was matched.`

const outputFormat = `OUTPUT FORMAT (JSON):
{
    "verdict": "APPROVED" | "DENIED" | "WARNING",
    "confidence_score": 0-100,
    "reasoning": "%s",
    "missing_criteria": ["List of missing elements if any"],
    "suggested_fix": "What the doctor should add to the note."
}`

// GroundedPrompt builds the policy-grounded audit prompt
func GroundedPrompt(claim *model.Claim, policyText string) (system, user string) {
	var b strings.Builder
	fmt.Fprintf(&b, "--- PAYER POLICY (%s) ---\n%s\n\n", orNA(claim.PolicyID), policyText)
	writeTranscription(&b, claim)
	writeClaimDetails(&b, claim)
	fmt.Fprintf(&b, outputFormat, "Brief explanation citing the policy.")
	return groundedSystemPrompt, b.String()
}

// GeneralPrompt builds the policy-free audit prompt
func GeneralPrompt(claim *model.Claim) (system, user string) {
	var b strings.Builder
	b.WriteString("--- NOTE: No specific payer policy was found for this claim. ---\n")
	b.WriteString("--- Performing general medical necessity review. ---\n\n")
	writeTranscription(&b, claim)
	writeClaimDetails(&b, claim)
	fmt.Fprintf(&b, outputFormat, "Brief explanation. Note that no specific policy was available.")
	return generalSystemPrompt, b.String()
}

func writeTranscription(b *strings.Builder, claim *model.Claim) {
	fmt.Fprintf(b, "--- DOCTOR'S TRANSCRIPTION ---\n%s\n\n", orNA(claim.Transcription))
}

func writeClaimDetails(b *strings.Builder, claim *model.Claim) {
	amount := "N/A"
	if v, ok := claim.Amount(); ok && v != 0 {
		amount = fmt.Sprintf("%g", v)
	}

	b.WriteString("--- CLAIM DETAILS ---\n")
	fmt.Fprintf(b, "CPT Code: %s\n", orNA(claim.CPTCode))
	fmt.Fprintf(b, "CPT Description: %s\n", orNA(claim.CPTDescription))
	fmt.Fprintf(b, "CPT Modifier: %s\n", orNone(claim.CPTModifier))
	fmt.Fprintf(b, "ICD Code: %s\n", orNA(claim.ICDCode))
	fmt.Fprintf(b, "ICD Description: %s\n", orNA(claim.ICDDescription))
	fmt.Fprintf(b, "Medical Specialty: %s\n", orNA(claim.MedicalSpecialty))
	fmt.Fprintf(b, "Denial Code: %s\n", orNone(claim.DenialCode))
	fmt.Fprintf(b, "Denial Reason: %s\n", orNone(claim.DenialReason))
	fmt.Fprintf(b, "Payer: %s\n", orNA(claim.PayerName))
	fmt.Fprintf(b, "Plan Type: %s\n", orNA(claim.PlanType))
	fmt.Fprintf(b, "Prior Auth Number: %s\n", orNone(claim.PriorAuthNumber))
	fmt.Fprintf(b, "Claim Amount: $%s\n", amount)
	fmt.Fprintf(b, "Date of Service: %s\n", orNA(claim.DateOfService))
	fmt.Fprintf(b, "Place of Service: %s\n", orNA(claim.PlaceOfService))
	fmt.Fprintf(b, "Facility: %s\n\n", orNA(claim.FacilityName))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
