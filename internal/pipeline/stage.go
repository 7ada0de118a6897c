package pipeline

import (
	"github.com/ppiankov/claimlens/internal/model"
	"github.com/rs/zerolog"
)

// Stage is a state of the verification state machine
type Stage string

const (
	StageLoaded             Stage = "LOADED"
	StageEligibility        Stage = "ELIGIBILITY"
	StageFiling             Stage = "FILING"
	StageCoding             Stage = "CODING"
	StagePolicy             Stage = "POLICY"
	StageAdjudication       Stage = "ADJUDICATION"
	StageMerged             Stage = "MERGED"
	StageShortCircuited     Stage = "SHORT_CIRCUITED"
	StageAdjudicationFailed Stage = "ADJUDICATION_FAILED"
	StageNotFound           Stage = "CLAIM_NOT_FOUND"
)

// Run records one pass through the state machine
type Run struct {
	ClaimID int64
	Result  *model.VerificationResult
	Stages  []Stage

	logger zerolog.Logger
}

// Final returns the last stage entered
func (r *Run) Final() Stage {
	if len(r.Stages) == 0 {
		return ""
	}
	return r.Stages[len(r.Stages)-1]
}

func (r *Run) enter(s Stage) {
	r.Stages = append(r.Stages, s)
	r.logger.Debug().Int64("claim_id", r.ClaimID).Str("stage", string(s)).Msg("stage")
}
