// Package ingest loads claims and payer policies into the claim store and
// the policy index.
package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/claimlens/internal/model"
)

type fieldSetter func(c *model.Claim, v string) error

func text(dst func(c *model.Claim) *string) fieldSetter {
	return func(c *model.Claim, v string) error {
		*dst(c) = v
		return nil
	}
}

// claimSetters maps normalized column names to claim fields
var claimSetters = map[string]fieldSetter{
	"patient_id":         text(func(c *model.Claim) *string { return &c.PatientID }),
	"claim_number":       text(func(c *model.Claim) *string { return &c.ClaimNumber }),
	"description":        text(func(c *model.Claim) *string { return &c.Description }),
	"status":             text(func(c *model.Claim) *string { return &c.Status }),
	"member_id":          text(func(c *model.Claim) *string { return &c.MemberID }),
	"payer_name":         text(func(c *model.Claim) *string { return &c.PayerName }),
	"plan_type":          text(func(c *model.Claim) *string { return &c.PlanType }),
	"date_of_service":    text(func(c *model.Claim) *string { return &c.DateOfService }),
	"date_of_submission": text(func(c *model.Claim) *string { return &c.DateOfSubmission }),
	"patient_dob":        text(func(c *model.Claim) *string { return &c.PatientDOB }),
	"cpt_code":           text(func(c *model.Claim) *string { return &c.CPTCode }),
	"cpt_description":    text(func(c *model.Claim) *string { return &c.CPTDescription }),
	"cpt_modifier":       text(func(c *model.Claim) *string { return &c.CPTModifier }),
	"icd_code":           text(func(c *model.Claim) *string { return &c.ICDCode }),
	"icd_description":    text(func(c *model.Claim) *string { return &c.ICDDescription }),
	"patient_gender":     text(func(c *model.Claim) *string { return &c.PatientGender }),
	"place_of_service":   text(func(c *model.Claim) *string { return &c.PlaceOfService }),
	"facility_name":      text(func(c *model.Claim) *string { return &c.FacilityName }),
	"provider_npi":       text(func(c *model.Claim) *string { return &c.ProviderNPI }),
	"transcription":      text(func(c *model.Claim) *string { return &c.Transcription }),
	"medical_specialty":  text(func(c *model.Claim) *string { return &c.MedicalSpecialty }),
	"prior_auth_number":  text(func(c *model.Claim) *string { return &c.PriorAuthNumber }),
	"policy_id":          text(func(c *model.Claim) *string { return &c.PolicyID }),
	"denial_code":        text(func(c *model.Claim) *string { return &c.DenialCode }),
	"denial_reason":      text(func(c *model.Claim) *string { return &c.DenialReason }),
	"claim_amount": func(c *model.Claim, v string) error {
		amount, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimPrefix(v, "$"), ",", ""), 64)
		if err != nil {
			return fmt.Errorf("claim_amount %q: %w", v, err)
		}
		c.ClaimAmount = &amount
		return nil
	},
}

// NormalizeColumn lowercases a header and replaces spaces with underscores
func NormalizeColumn(name string) string {
	name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// missing reports whether a cell holds no value
func missing(v string) bool {
	return v == "" || strings.EqualFold(v, "nan")
}

// ReadClaimsCSV reads claims from CSV with a header row. Unknown columns are
// ignored; empty and "nan" cells leave the field unset.
func ReadClaimsCSV(r io.Reader) ([]*model.Claim, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // Variable fields

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	setters := make([]fieldSetter, len(headers))
	for i, h := range headers {
		setters[i] = claimSetters[NormalizeColumn(h)]
	}

	var claims []*model.Claim
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		// Skip empty rows
		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			continue
		}

		claim := &model.Claim{}
		for i, raw := range record {
			if i >= len(setters) || setters[i] == nil {
				continue
			}
			v := strings.TrimSpace(raw)
			if missing(v) {
				continue
			}
			if err := setters[i](claim, v); err != nil {
				return nil, fmt.Errorf("row %d: %w", row, err)
			}
		}
		claims = append(claims, claim)
	}

	return claims, nil
}

// ReadClaimsCSVFile reads claims from a CSV file on disk
func ReadClaimsCSVFile(path string) ([]*model.Claim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadClaimsCSV(bufio.NewReaderSize(f, 256*1024))
}
