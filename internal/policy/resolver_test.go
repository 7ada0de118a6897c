package policy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/claimlens/internal/model"
	"github.com/rs/zerolog"
)

// fakeIndex implements Index
type fakeIndex struct {
	records    map[string]*model.PolicyRecord
	fetchErr   error
	matches    []model.PolicyMatch
	nearestErr error
	queried    int
}

func (f *fakeIndex) FetchByID(ctx context.Context, id string) (*model.PolicyRecord, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	r, ok := f.records[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return r, nil
}

func (f *fakeIndex) Nearest(ctx context.Context, vector []float32, k int) ([]model.PolicyMatch, error) {
	f.queried++
	if f.nearestErr != nil {
		return nil, f.nearestErr
	}
	return f.matches, nil
}

// fakeEncoder implements Encoder
type fakeEncoder struct {
	err       error
	lastQuery string
}

func (f *fakeEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	f.lastQuery = text
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func record(id, text string) *model.PolicyRecord {
	return &model.PolicyRecord{ID: id, Metadata: map[string]string{"title": id, "text": text}}
}

func match(id string, distance float64) model.PolicyMatch {
	return model.PolicyMatch{ID: id, Distance: distance, Metadata: map[string]string{"text": "policy " + id}}
}

func TestResolve_ExactMatchWins(t *testing.T) {
	index := &fakeIndex{
		records: map[string]*model.PolicyRecord{"LCD-33722": record("LCD-33722", "knee policy")},
		matches: []model.PolicyMatch{match("POL-8253", 0.01)},
	}
	r := NewResolver(index, &fakeEncoder{}, 0, zerolog.Nop())

	res, err := r.Resolve(context.Background(), &model.Claim{PolicyID: "LCD-33722", CPTDescription: "Knee arthroscopy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != model.PolicySourceExact {
		t.Errorf("expected exact_match, got %s", res.Source)
	}
	if res.Text != "knee policy" {
		t.Errorf("unexpected text %q", res.Text)
	}
	if index.queried != 0 {
		t.Error("semantic tier should not run after an exact match")
	}
}

func TestResolve_ExactFailureFallsThrough(t *testing.T) {
	tests := []struct {
		name  string
		index *fakeIndex
	}{
		{"unknown id", &fakeIndex{matches: []model.PolicyMatch{match("POL-8253", 0.2)}}},
		{"store error", &fakeIndex{fetchErr: errors.New("disk I/O error"), matches: []model.PolicyMatch{match("POL-8253", 0.2)}}},
		{"record without text", &fakeIndex{
			records: map[string]*model.PolicyRecord{"LCD-1": {ID: "LCD-1"}},
			matches: []model.PolicyMatch{match("POL-8253", 0.2)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.index, &fakeEncoder{}, 0, zerolog.Nop())
			res, err := r.Resolve(context.Background(), &model.Claim{PolicyID: "LCD-1", CPTDescription: "Office visit"})
			if err != nil {
				t.Fatalf("tier-1 failure must not propagate: %v", err)
			}
			if res.Source != "semantic_match(POL-8253, 0.20)" {
				t.Errorf("unexpected source %s", res.Source)
			}
		})
	}
}

func TestResolve_ThresholdBoundary(t *testing.T) {
	claim := &model.Claim{CPTDescription: "Colonoscopy"}

	accepted := NewResolver(&fakeIndex{matches: []model.PolicyMatch{match("LCD-32849", 0.45)}}, &fakeEncoder{}, 0.45, zerolog.Nop())
	res, err := accepted.Resolve(context.Background(), claim)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != "semantic_match(LCD-32849, 0.45)" {
		t.Errorf("distance 0.45 should be accepted, got %s", res.Source)
	}

	rejected := NewResolver(&fakeIndex{matches: []model.PolicyMatch{match("LCD-32849", 0.450001)}}, &fakeEncoder{}, 0.45, zerolog.Nop())
	res, err = rejected.Resolve(context.Background(), claim)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != model.PolicySourceNone || res.Found() {
		t.Errorf("distance 0.450001 should be rejected, got %+v", res)
	}
}

func TestResolve_SemanticFaultsPropagate(t *testing.T) {
	claim := &model.Claim{CPTDescription: "Colonoscopy"}

	r := NewResolver(&fakeIndex{}, &fakeEncoder{err: errors.New("embedding service down")}, 0, zerolog.Nop())
	if _, err := r.Resolve(context.Background(), claim); err == nil || !strings.Contains(err.Error(), "embedding service down") {
		t.Errorf("expected embedding error, got %v", err)
	}

	r = NewResolver(&fakeIndex{nearestErr: errors.New("index corrupt")}, &fakeEncoder{}, 0, zerolog.Nop())
	if _, err := r.Resolve(context.Background(), claim); err == nil {
		t.Error("expected query error to propagate")
	}
}

func TestResolve_NoQueryText(t *testing.T) {
	index := &fakeIndex{matches: []model.PolicyMatch{match("POL-8253", 0.1)}}
	r := NewResolver(index, &fakeEncoder{}, 0, zerolog.Nop())

	res, err := r.Resolve(context.Background(), &model.Claim{CPTDescription: "  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != Unmatched {
		t.Errorf("expected unmatched, got %+v", res)
	}
	if index.queried != 0 {
		t.Error("index should not be queried without query text")
	}
}

func TestResolve_NilIndex(t *testing.T) {
	r := NewResolver(nil, &fakeEncoder{}, 0, zerolog.Nop())
	res, err := r.Resolve(context.Background(), &model.Claim{PolicyID: "LCD-1", CPTDescription: "Colonoscopy"})
	if err != nil || res.Source != model.PolicySourceNone {
		t.Errorf("expected none without error, got %+v, %v", res, err)
	}
}

func TestQueryText(t *testing.T) {
	claim := &model.Claim{
		CPTDescription:   "Knee arthroscopy",
		ICDDescription:   "",
		MedicalSpecialty: "Orthopedic",
		DenialReason:     "Medical necessity not established",
	}

	want := "Knee arthroscopy | Orthopedic | Medical necessity not established"
	if got := QueryText(claim); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
