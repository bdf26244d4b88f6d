package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"proposalkit/internal/catalog"
	"proposalkit/internal/compose"
	"proposalkit/internal/docx"
	"proposalkit/internal/logger"
	"proposalkit/internal/pricing"
	"proposalkit/internal/util"
)

// Service provides proposal generation
type Service struct {
	catalog      *catalog.Registry
	templatesDir string
	pdf          PDFConverter
	log          *logger.Logger
	now          func() time.Time
	shortID      func() string
}

type Option func(*Service)

// WithPDFConverter enables PDF output. Without one, PDF requests only produce
// a warning.
func WithPDFConverter(c PDFConverter) Option {
	return func(s *Service) { s.pdf = c }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithShortID overrides the filename disambiguator.
func WithShortID(fn func() string) Option {
	return func(s *Service) { s.shortID = fn }
}

// NewService creates a generation service reading templates from templatesDir.
func NewService(reg *catalog.Registry, templatesDir string, opts ...Option) *Service {
	s := &Service{
		catalog:      reg,
		templatesDir: templatesDir,
		log:          logger.Nop(),
		now:          time.Now,
		shortID:      util.ShortID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Catalog() *catalog.Registry {
	return s.catalog
}

// Quote prices a request without touching any template.
func (s *Service) Quote(req Request) (*catalog.Definition, pricing.Quote, error) {
	def, err := s.catalog.Lookup(req.Kind)
	if err != nil {
		return nil, pricing.Quote{}, err
	}
	if err := req.Validate(); err != nil {
		return nil, pricing.Quote{}, err
	}
	return def, def.Quote(req.Prices, pricing.ParseCurrency(req.Currency)), nil
}

// Generate composes the definition's template with the request's values. A
// missing template fails the request; PDF problems only add warnings.
func (s *Service) Generate(ctx context.Context, req Request) (*Generation, error) {
	def, quote, err := s.Quote(req)
	if err != nil {
		return nil, err
	}
	now := s.now()
	date := req.Date
	if date.IsZero() {
		date = now
	}

	placeholders, err := BuildPlaceholders(def, req, quote, date, now)
	if err != nil {
		return nil, err
	}

	gen := &Generation{
		Definition:   def,
		Currency:     quote.Currency,
		Quote:        quote,
		Placeholders: placeholders,
		CreatedAt:    now,
	}
	if w := CheckPhone(req.Client.Country, req.Client.Phone); w != "" {
		gen.Warnings = append(gen.Warnings, w)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := s.openTemplate(def)
	if err != nil {
		return nil, err
	}
	gen.Report = compose.Compose(doc, placeholders, def.Policy())

	data, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("serialize proposal: %w", err)
	}
	id := s.shortID()
	gen.ID = id
	gen.DOCX = Result{
		Data:     data,
		Filename: Filename(def.Name, req.Client.Name, date, id, FormatDOCX),
		MimeType: MimeTypeDOCX,
	}

	if req.PDF {
		s.attachPDF(ctx, gen)
	}

	s.log.Info("proposal generated",
		"kind", def.Kind,
		"client", req.Client.Name,
		"client_email", req.Client.Email,
		"currency", string(quote.Currency),
		"filename", gen.DOCX.Filename,
		"rewritten", gen.Report.Rewritten,
		"removed_rows", gen.Report.RemovedRows,
		"warnings", len(gen.Warnings),
	)
	return gen, nil
}

func (s *Service) openTemplate(def *catalog.Definition) (*docx.Document, error) {
	path := filepath.Join(s.templatesDir, def.Template)
	doc, err := docx.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, def.Template)
	}
	if err != nil {
		return nil, fmt.Errorf("open template %s: %w", def.Template, err)
	}
	return doc, nil
}

func (s *Service) attachPDF(ctx context.Context, gen *Generation) {
	if s.pdf == nil {
		gen.Warnings = append(gen.Warnings, "pdf conversion is not enabled")
		return
	}
	title := gen.Definition.Name
	data, err := s.pdf.ConvertDOCX(ctx, gen.DOCX.Data, title)
	if err != nil {
		s.log.Warn("pdf conversion failed", "kind", gen.Definition.Kind, "error", err)
		gen.Warnings = append(gen.Warnings, "pdf conversion failed: "+err.Error())
		return
	}
	gen.PDF = &Result{
		Data:     data,
		Filename: swapExt(gen.DOCX.Filename, FormatPDF),
		MimeType: MimeTypePDF,
	}
}
