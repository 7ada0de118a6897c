// Package storage persists claims and payer policies.
//
// Claims live in SQLite or PostgreSQL. Policies live in a SQLite-backed
// vector index whose embeddings are held in memory for exact cosine search.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/claimlens/internal/model"
)

// ErrNotFound is returned when a claim or policy id does not exist
var ErrNotFound = errors.New("not found")

// ClaimRepository is the full claim store contract used by ingestion and the API
type ClaimRepository interface {
	Get(ctx context.Context, id int64) (*model.Claim, error)
	List(ctx context.Context, limit, offset int) ([]*model.Claim, error)
	Insert(ctx context.Context, claim *model.Claim) (int64, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// OpenClaims opens the claim store selected by cfg.Driver
func OpenClaims(ctx context.Context, cfg model.StorageConfig) (ClaimRepository, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite", "sqlite3":
		store, err := OpenSQLiteClaimStore(cfg.ClaimsDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres", "postgresql", "pgx":
		store, err := OpenPostgresClaimStore(ctx, cfg.ClaimsDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s (supported: sqlite, postgres)", cfg.Driver)
	}
}

// ExpandPath expands a leading ~ and creates the parent directory
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return "", fmt.Errorf("create data dir: %w", err)
		}
	}
	return path, nil
}

// Claim columns in storage order, excluding id
var claimColumns = []string{
	"patient_id", "claim_number", "description", "status",
	"member_id", "payer_name", "plan_type",
	"date_of_service", "date_of_submission", "patient_dob",
	"cpt_code", "cpt_description", "cpt_modifier",
	"icd_code", "icd_description",
	"patient_gender", "place_of_service", "facility_name", "provider_npi",
	"transcription", "medical_specialty",
	"claim_amount", "prior_auth_number",
	"policy_id", "denial_code", "denial_reason",
}

// claimFields returns scan destinations matching claimColumns
func claimFields(c *model.Claim) []any {
	return []any{
		&c.PatientID, &c.ClaimNumber, &c.Description, &c.Status,
		&c.MemberID, &c.PayerName, &c.PlanType,
		&c.DateOfService, &c.DateOfSubmission, &c.PatientDOB,
		&c.CPTCode, &c.CPTDescription, &c.CPTModifier,
		&c.ICDCode, &c.ICDDescription,
		&c.PatientGender, &c.PlaceOfService, &c.FacilityName, &c.ProviderNPI,
		&c.Transcription, &c.MedicalSpecialty,
		&c.ClaimAmount, &c.PriorAuthNumber,
		&c.PolicyID, &c.DenialCode, &c.DenialReason,
	}
}

// claimValues returns insert values matching claimColumns
func claimValues(c *model.Claim) []any {
	return []any{
		c.PatientID, c.ClaimNumber, c.Description, c.Status,
		c.MemberID, c.PayerName, c.PlanType,
		c.DateOfService, c.DateOfSubmission, c.PatientDOB,
		c.CPTCode, c.CPTDescription, c.CPTModifier,
		c.ICDCode, c.ICDDescription,
		c.PatientGender, c.PlaceOfService, c.FacilityName, c.ProviderNPI,
		c.Transcription, c.MedicalSpecialty,
		c.ClaimAmount, c.PriorAuthNumber,
		c.PolicyID, c.DenialCode, c.DenialReason,
	}
}

func claimScanTargets(c *model.Claim) []any {
	return append([]any{&c.ID}, claimFields(c)...)
}

// claimTableDDL renders the claims table; idType and amountType are dialect specific
func claimTableDDL(idType, amountType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS claims (\n\tid %s", idType)
	for _, col := range claimColumns {
		if col == "claim_amount" {
			fmt.Fprintf(&b, ",\n\t%s %s", col, amountType)
			continue
		}
		fmt.Fprintf(&b, ",\n\t%s TEXT NOT NULL DEFAULT ''", col)
	}
	b.WriteString("\n)")
	return b.String()
}

func selectClaimsSQL() string {
	return "SELECT id, " + strings.Join(claimColumns, ", ") + " FROM claims"
}
