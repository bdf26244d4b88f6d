package store

import "time"

// Generation is one audit row per composed proposal.
type Generation struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	ProposalName  string    `json:"proposal_name"`
	ClientName    string    `json:"client_name"`
	ClientCountry string    `json:"client_country"`
	Currency      string    `json:"currency"`
	Total         int64     `json:"total"`
	Filename      string    `json:"filename"`
	DOCXKey       string    `json:"docx_key,omitempty"`
	PDFKey        string    `json:"pdf_key,omitempty"`
	RemovedRows   int       `json:"removed_rows"`
	Warnings      []string  `json:"warnings"`
	CreatedAt     time.Time `json:"created_at"`
}

// GenerationFilter narrows List. Zero values match everything.
type GenerationFilter struct {
	Kind  string
	Limit int
}
