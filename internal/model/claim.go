package model

// Claim is a medical insurance claim as stored before submission.
// The verification pipeline treats it as read-only input.
type Claim struct {
	ID          int64  `json:"id"`
	PatientID   string `json:"patient_id,omitempty"`
	ClaimNumber string `json:"claim_number,omitempty"`
	Description string `json:"description,omitempty"` // Doctor note summary
	Status      string `json:"status,omitempty"`

	// Identity / eligibility
	MemberID  string `json:"member_id"`
	PayerName string `json:"payer_name,omitempty"`
	PlanType  string `json:"plan_type,omitempty"`

	// Timing (free-text dates, see util.ParseDate)
	DateOfService    string `json:"date_of_service,omitempty"`
	DateOfSubmission string `json:"date_of_submission,omitempty"`
	PatientDOB       string `json:"patient_dob,omitempty"`

	// Clinical / coding
	CPTCode          string `json:"cpt_code,omitempty"`
	CPTDescription   string `json:"cpt_description,omitempty"`
	CPTModifier      string `json:"cpt_modifier,omitempty"`
	ICDCode          string `json:"icd_code,omitempty"`
	ICDDescription   string `json:"icd_description,omitempty"`
	PatientGender    string `json:"patient_gender,omitempty"`
	PlaceOfService   string `json:"place_of_service,omitempty"`
	FacilityName     string `json:"facility_name,omitempty"`
	ProviderNPI      string `json:"provider_npi,omitempty"`
	Transcription    string `json:"transcription,omitempty"`
	MedicalSpecialty string `json:"medical_specialty,omitempty"`

	// Financial / authorization
	ClaimAmount     *float64 `json:"claim_amount,omitempty"`
	PriorAuthNumber string   `json:"prior_auth_number,omitempty"`

	// Policy linkage
	PolicyID     string `json:"policy_id,omitempty"`
	DenialCode   string `json:"denial_code,omitempty"`
	DenialReason string `json:"denial_reason,omitempty"`
}

// Amount returns the claim amount and whether one was recorded.
func (c *Claim) Amount() (float64, bool) {
	if c.ClaimAmount == nil {
		return 0, false
	}
	return *c.ClaimAmount, true
}
