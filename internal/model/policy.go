package model

// PolicyRecord is a payer policy stored in the vector index
type PolicyRecord struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata,omitempty"` // "title", "text", ...
}

// Text returns the policy body, or "" if none is stored
func (r *PolicyRecord) Text() string {
	if r == nil || r.Metadata == nil {
		return ""
	}
	return r.Metadata["text"]
}

// Title returns the policy title, or "" if none is stored
func (r *PolicyRecord) Title() string {
	if r == nil || r.Metadata == nil {
		return ""
	}
	return r.Metadata["title"]
}

// PolicyMatch is a nearest-neighbour hit from the vector index.
// Distance is cosine distance: 0 is identical, 2 is opposite.
type PolicyMatch struct {
	ID       string            `json:"id"`
	Distance float64           `json:"distance"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
