// Package export turns a proposal request into a finished DOCX and, when asked,
// a PDF rendition of it.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"proposalkit/internal/catalog"
	"proposalkit/internal/compose"
	"proposalkit/internal/docx"
	"proposalkit/internal/pricing"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

const (
	MimeTypeDOCX = docx.MimeType
	MimeTypePDF  = "application/pdf"
)

// Client identifies who the proposal is addressed to.
type Client struct {
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email" yaml:"email"`
	Phone   string `json:"phone" yaml:"phone"`
	Country string `json:"country" yaml:"country"`
}

// Request carries the raw inputs for one proposal.
type Request struct {
	Kind   string `json:"kind" yaml:"kind"`
	Client Client `json:"client" yaml:"client"`
	// Date defaults to today.
	Date     time.Time        `json:"date" yaml:"date"`
	Currency string           `json:"currency" yaml:"currency"`
	Prices   map[string]int64 `json:"prices" yaml:"prices"`
	// Team maps role keys ("P1", "pm_no") to head counts.
	Team map[string]int `json:"team" yaml:"team"`
	// Special maps special field names to raw input: dates as 2006-01-02 or
	// 02-01-2006, amounts as whole numbers, anything else as text.
	Special map[string]string `json:"special" yaml:"special"`
	Tools   []string          `json:"tools" yaml:"tools"`
	PDF     bool              `json:"pdf" yaml:"pdf"`
}

// Input is the wire form of Request read by the HTTP API and the CLI. Date is
// kept as text so both surfaces accept the same layouts.
type Input struct {
	Client   Client            `json:"client" yaml:"client"`
	Date     string            `json:"date" yaml:"date"`
	Currency string            `json:"currency" yaml:"currency"`
	Prices   map[string]int64  `json:"prices" yaml:"prices"`
	Team     map[string]int    `json:"team" yaml:"team"`
	Special  map[string]string `json:"special" yaml:"special"`
	Tools    []string          `json:"tools" yaml:"tools"`
	PDF      bool              `json:"pdf" yaml:"pdf"`
}

// Request resolves the input for the proposal named by kind.
func (in Input) Request(kind string) (Request, error) {
	req := Request{
		Kind:     kind,
		Client:   in.Client,
		Currency: in.Currency,
		Prices:   in.Prices,
		Team:     in.Team,
		Special:  in.Special,
		Tools:    in.Tools,
		PDF:      in.PDF,
	}
	if raw := strings.TrimSpace(in.Date); raw != "" {
		date, err := ParseDate(raw)
		if err != nil {
			return Request{}, fmt.Errorf("%w: date %q", ErrInvalidRequest, in.Date)
		}
		req.Date = date
	}
	return req, nil
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// Generation is everything produced for one request.
type Generation struct {
	ID           string
	Definition   *catalog.Definition
	Currency     pricing.Currency
	Quote        pricing.Quote
	Placeholders compose.Placeholders
	Report       compose.Report
	DOCX         Result
	// PDF is nil when not requested or when conversion failed.
	PDF       *Result
	Warnings  []string
	CreatedAt time.Time
}

var (
	// ErrTemplateNotFound indicates the definition's template file is absent.
	ErrTemplateNotFound = errors.New("export template not found")
	// ErrInvalidRequest indicates malformed raw input such as a negative amount.
	ErrInvalidRequest = errors.New("export invalid request")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
