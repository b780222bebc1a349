package models

// MRL is a maximum residue limit entry, display-only reference data.
type MRL struct {
	Species string `json:"species"`
	Tissue  string `json:"tissue"`
	Limit   string `json:"limit"`
}

// Drug is an antibiotic reference record, optionally filtered by species.
type Drug struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Family   string `json:"family"`
	Category string `json:"category"`
	Comments string `json:"comments"`
	MRLs     []MRL  `json:"mrls,omitempty"`
}
