package ingest

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PolicyDoc is a payer policy document before embedding
type PolicyDoc struct {
	ID    string `yaml:"policy_id" json:"policy_id"`
	Title string `yaml:"title" json:"title"`
	Text  string `yaml:"text" json:"text"`
}

type policyFile struct {
	Policies []PolicyDoc `yaml:"policies"`
}

// ReadPolicies reads policy documents from a YAML or JSON file. The file may
// hold a bare list or a mapping with a "policies" key.
func ReadPolicies(path string) ([]PolicyDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policies: %w", err)
	}
	return ParsePolicies(data)
}

// ParsePolicies decodes policy documents. JSON is accepted as a YAML subset.
func ParsePolicies(data []byte) ([]PolicyDoc, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse policies: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	var docs []PolicyDoc
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&docs); err != nil {
			return nil, fmt.Errorf("decode policies: %w", err)
		}
	case yaml.MappingNode:
		var file policyFile
		if err := root.Decode(&file); err != nil {
			return nil, fmt.Errorf("decode policies: %w", err)
		}
		docs = file.Policies
	default:
		return nil, fmt.Errorf("parse policies: expected a list or a mapping")
	}

	for i := range docs {
		docs[i].ID = strings.TrimSpace(docs[i].ID)
		docs[i].Text = strings.TrimSpace(docs[i].Text)
		if docs[i].ID == "" {
			return nil, fmt.Errorf("policy %d: policy_id is required", i+1)
		}
	}
	return docs, nil
}

// SamplePolicies returns the built-in demonstration policies
func SamplePolicies() []PolicyDoc {
	return []PolicyDoc{
		{
			ID:    "LCD-33722",
			Title: "Surgical Treatment of Peyronie's Disease",
			Text: `POLICY LCD-33722: PENILE PROSTHESIS REPLACEMENT

Indications:
Replacement of an inflatable penile prosthesis is covered if the device malfunctions.

Coding Guidelines:
- Modifier -22 (Increased Procedural Services) may be reported if the procedure required significant additional time/effort due to dense scarring (fibrosis).
- Documentation must clearly state the time duration and the nature of the difficulty (e.g., "required 45 mins of dissection due to calcification").
- If Modifier -22 is missing despite documentation of complex lysis of adhesions, the claim may be denied for inconsistency.`,
		},
		{
			ID:    "LCD-32849",
			Title: "Non-Invasive Vascular Testing",
			Text: `POLICY LCD-32849: CEREBROVASCULAR EVALUATION

Medical Necessity:
- Covered for patients with transient ischemic attacks (TIA) or amaurosis fugax.
- Symptoms must be transient and focal.

Documentation Requirements:
- Provider must document specific visual symptoms (e.g., "curtain coming down").
- General "dizziness" without focal neuro signs is NOT sufficient for coverage.`,
		},
		{
			ID:    "POL-8253",
			Title: "Emergency Care for Insect Stings",
			Text: `POLICY POL-8253: CIGNA EMERGENCY GUIDELINES

Medical Necessity for Emergency Visits (Level 3/4):
- Simple insect stings (bee, wasp) with LOCAL reaction only (redness, swelling < 10cm) are considered minor and do not justify high-level emergency codes.
- Systemic symptoms (shortness of breath, tongue swelling, hypotension) MUST be present to justify higher acuity billing.
- If only local care (ice, antihistamine) is provided, the claim may be downcoded or denied as not medically necessary.`,
		},
	}
}
