package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/ppiankov/claimlens/internal/model"
)

// ClaimRow is the parquet layout of a claim. Optional columns map to absent
// claim fields.
type ClaimRow struct {
	PatientID        *string  `parquet:"patient_id,optional"`
	ClaimNumber      *string  `parquet:"claim_number,optional"`
	Description      *string  `parquet:"description,optional"`
	Status           *string  `parquet:"status,optional"`
	MemberID         *string  `parquet:"member_id,optional"`
	PayerName        *string  `parquet:"payer_name,optional"`
	PlanType         *string  `parquet:"plan_type,optional"`
	DateOfService    *string  `parquet:"date_of_service,optional"`
	DateOfSubmission *string  `parquet:"date_of_submission,optional"`
	PatientDOB       *string  `parquet:"patient_dob,optional"`
	CPTCode          *string  `parquet:"cpt_code,optional"`
	CPTDescription   *string  `parquet:"cpt_description,optional"`
	CPTModifier      *string  `parquet:"cpt_modifier,optional"`
	ICDCode          *string  `parquet:"icd_code,optional"`
	ICDDescription   *string  `parquet:"icd_description,optional"`
	PatientGender    *string  `parquet:"patient_gender,optional"`
	PlaceOfService   *string  `parquet:"place_of_service,optional"`
	FacilityName     *string  `parquet:"facility_name,optional"`
	ProviderNPI      *string  `parquet:"provider_npi,optional"`
	Transcription    *string  `parquet:"transcription,optional"`
	MedicalSpecialty *string  `parquet:"medical_specialty,optional"`
	ClaimAmount      *float64 `parquet:"claim_amount,optional"`
	PriorAuthNumber  *string  `parquet:"prior_auth_number,optional"`
	PolicyID         *string  `parquet:"policy_id,optional"`
	DenialCode       *string  `parquet:"denial_code,optional"`
	DenialReason     *string  `parquet:"denial_reason,optional"`
}

// Claim converts the row, treating "nan" strings as absent
func (r ClaimRow) Claim() *model.Claim {
	s := func(p *string) string {
		if p == nil || missing(*p) {
			return ""
		}
		return *p
	}

	c := &model.Claim{
		PatientID:        s(r.PatientID),
		ClaimNumber:      s(r.ClaimNumber),
		Description:      s(r.Description),
		Status:           s(r.Status),
		MemberID:         s(r.MemberID),
		PayerName:        s(r.PayerName),
		PlanType:         s(r.PlanType),
		DateOfService:    s(r.DateOfService),
		DateOfSubmission: s(r.DateOfSubmission),
		PatientDOB:       s(r.PatientDOB),
		CPTCode:          s(r.CPTCode),
		CPTDescription:   s(r.CPTDescription),
		CPTModifier:      s(r.CPTModifier),
		ICDCode:          s(r.ICDCode),
		ICDDescription:   s(r.ICDDescription),
		PatientGender:    s(r.PatientGender),
		PlaceOfService:   s(r.PlaceOfService),
		FacilityName:     s(r.FacilityName),
		ProviderNPI:      s(r.ProviderNPI),
		Transcription:    s(r.Transcription),
		MedicalSpecialty: s(r.MedicalSpecialty),
		PriorAuthNumber:  s(r.PriorAuthNumber),
		PolicyID:         s(r.PolicyID),
		DenialCode:       s(r.DenialCode),
		DenialReason:     s(r.DenialReason),
	}
	if r.ClaimAmount != nil {
		amount := *r.ClaimAmount
		c.ClaimAmount = &amount
	}
	return c
}

// ReadClaimsParquet reads all claims from a parquet file
func ReadClaimsParquet(path string) ([]*model.Claim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := parquet.NewGenericReader[ClaimRow](f)
	defer func() { _ = reader.Close() }()

	claims := make([]*model.Claim, 0, reader.NumRows())
	buf := make([]ClaimRow, 1024)
	for {
		n, readErr := reader.Read(buf)
		for _, row := range buf[:n] {
			claims = append(claims, row.Claim())
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read parquet: %w", readErr)
		}
		if n == 0 {
			break
		}
	}
	return claims, nil
}
