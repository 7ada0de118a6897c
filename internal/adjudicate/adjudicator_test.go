package adjudicate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/claimlens/internal/model"
)

type recordingCompleter struct {
	system, user string
	response     string
	err          error
}

func (r *recordingCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	r.system, r.user = system, user
	return r.response, r.err
}

func TestAdjudicate_Branches(t *testing.T) {
	claim := &model.Claim{PolicyID: "LCD-33722", CPTCode: "29881", Transcription: "Meniscal tear confirmed on MRI."}

	c := &recordingCompleter{response: "{}"}
	a := New(c)

	if _, err := a.Adjudicate(context.Background(), claim, "Arthroscopy requires failed conservative therapy."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(c.user, "--- PAYER POLICY (LCD-33722) ---") {
		t.Errorf("grounded prompt missing policy header: %q", c.user)
	}
	if !strings.Contains(c.system, "Payer Policies") {
		t.Error("expected grounded system prompt")
	}

	if _, err := a.Adjudicate(context.Background(), claim, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(c.user, "No specific payer policy was found") {
		t.Errorf("general prompt missing note: %q", c.user)
	}
	if strings.Contains(c.user, "PAYER POLICY") {
		t.Error("general prompt must not include a policy section")
	}
	if !strings.Contains(c.system, "Be transparent that no specific policy was matched") {
		t.Error("expected policy-free system prompt")
	}
}

func TestAdjudicate_PromptPlaceholders(t *testing.T) {
	_, user := GeneralPrompt(&model.Claim{})

	for _, want := range []string{"CPT Code: N/A", "CPT Modifier: None", "Prior Auth Number: None", "Claim Amount: $N/A"} {
		if !strings.Contains(user, want) {
			t.Errorf("expected %q in prompt", want)
		}
	}

	amount := 1250.5
	_, user = GeneralPrompt(&model.Claim{ClaimAmount: &amount})
	if !strings.Contains(user, "Claim Amount: $1250.5") {
		t.Errorf("expected claim amount in prompt: %q", user)
	}
}

func TestAdjudicate_CallError(t *testing.T) {
	a := New(&recordingCompleter{err: errors.New("deployment not found")})
	if _, err := a.Adjudicate(context.Background(), &model.Claim{}, ""); err == nil {
		t.Error("expected completion error")
	}
}

func TestParse(t *testing.T) {
	raw := "```json\n{\"verdict\": \"denied\", \"confidence_score\": \"85\", \"reasoning\": \"No MRI documented.\", \"missing_criteria\": [\"MRI\"], \"suggested_fix\": \"Attach imaging.\"}\n```"

	res := Parse(raw)
	if res.Verdict != model.VerdictDenied {
		t.Errorf("expected DENIED, got %q", res.Verdict)
	}
	if res.ConfidenceScore != 85 {
		t.Errorf("expected 85, got %d", res.ConfidenceScore)
	}
	if len(res.MissingCriteria) != 1 || res.MissingCriteria[0] != "MRI" {
		t.Errorf("unexpected missing criteria %v", res.MissingCriteria)
	}
	if res.RawOutput != "" {
		t.Error("parsed output should not carry raw_output")
	}
}

func TestParse_Malformed(t *testing.T) {
	raw := "The claim looks fine to me."

	res := Parse(raw)
	if res.RawOutput != raw {
		t.Errorf("expected raw output preserved, got %q", res.RawOutput)
	}
	if res.Verdict != "" {
		t.Errorf("expected no verdict, got %q", res.Verdict)
	}
}

func TestParse_LenientFields(t *testing.T) {
	raw := `{"verdict": ["approved"], "confidence_score": 92, "reasoning": "Criteria met.", "missing_criteria": "None", "suggested_fix": ["Attach op note", "Add modifier"]}`

	res := Parse(raw)
	if res.Verdict != model.VerdictApproved {
		t.Errorf("expected APPROVED, got %q", res.Verdict)
	}
	if res.ConfidenceScore != 92 {
		t.Errorf("expected 92, got %d", res.ConfidenceScore)
	}
	if len(res.MissingCriteria) != 1 || res.MissingCriteria[0] != "None" {
		t.Errorf("unexpected missing criteria %v", res.MissingCriteria)
	}
	if res.SuggestedFix != "Attach op note; Add modifier" {
		t.Errorf("unexpected suggested fix %q", res.SuggestedFix)
	}
	if res.RawOutput != "" {
		t.Errorf("expected no raw output, got %q", res.RawOutput)
	}
}

func TestParse_UnknownVerdict(t *testing.T) {
	raw := `{"verdict": "maybe", "confidence_score": 50, "reasoning": "Unclear."}`

	res := Parse(raw)
	if res.Verdict != "" {
		t.Errorf("expected verdict cleared, got %q", res.Verdict)
	}
	if res.RawOutput != raw {
		t.Errorf("expected raw output preserved, got %q", res.RawOutput)
	}
	if res.Reasoning != "Unclear." || res.ConfidenceScore != 50 {
		t.Errorf("expected remaining fields kept, got %+v", res)
	}
}

func TestParse_NonObject(t *testing.T) {
	for _, raw := range []string{"null", "[1, 2]", "42", `"APPROVED"`} {
		res := Parse(raw)
		if res.Verdict != "" {
			t.Errorf("Parse(%s): expected no verdict, got %q", raw, res.Verdict)
		}
		if res.RawOutput != raw {
			t.Errorf("Parse(%s): expected raw output preserved, got %q", raw, res.RawOutput)
		}
		if res.MissingCriteria == nil || res.CodingFlags == nil {
			t.Errorf("Parse(%s): expected empty lists", raw)
		}
	}
}

func TestParseConfidence(t *testing.T) {
	tests := map[string]int{
		`90`:     90,
		`"72%"`:  72,
		`150`:    100,
		`-3`:     0,
		`"high"`: 0,
		`null`:   0,
	}
	for in, want := range tests {
		if got := parseConfidence([]byte(in)); got != want {
			t.Errorf("parseConfidence(%s) = %d, want %d", in, got, want)
		}
	}
}
