package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"proposalkit/internal/artifact"
	"proposalkit/internal/catalog"
	"proposalkit/internal/export"
	"proposalkit/internal/logger"
	"proposalkit/internal/pricing"
	"proposalkit/internal/store"
	"proposalkit/internal/util"
)

type auditStore interface {
	InsertGeneration(context.Context, store.Generation) error
	ListGenerations(context.Context, store.GenerationFilter) ([]store.Generation, error)
	GetGeneration(context.Context, string) (store.Generation, error)
	Ping(context.Context) error
}

type objectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Remove(ctx context.Context, key string) error
}

type linkStore interface {
	Create(ctx context.Context, objectKey, filename, mimeType string) (artifact.Link, error)
	Resolve(ctx context.Context, id string) (artifact.Link, error)
	Revoke(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Service generates proposals and hands the results to whichever delivery
// backends are configured. Every backend is optional.
type Service struct {
	generator *export.Service
	audit     auditStore
	objects   objectStore
	links     linkStore
	log       *logger.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithAuditStore(a auditStore) Option {
	return func(s *Service) { s.audit = a }
}

func WithObjectStore(o objectStore) Option {
	return func(s *Service) { s.objects = o }
}

func WithLinkStore(l linkStore) Option {
	return func(s *Service) { s.links = l }
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

func NewService(generator *export.Service, opts ...Option) *Service {
	s := &Service{
		generator: generator,
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delivery is the outcome of one generation request.
type Delivery struct {
	ID         string                          `json:"id"`
	Generation *export.Generation              `json:"-"`
	Links      map[export.Format]artifact.Link `json:"links,omitempty"`
	Warnings   []string                        `json:"warnings"`
}

func (s *Service) Catalog() []*catalog.Definition {
	return s.generator.Catalog().List()
}

func (s *Service) Definition(kind string) (*catalog.Definition, error) {
	return s.generator.Catalog().Lookup(kind)
}

func (s *Service) Quote(req export.Request) (*catalog.Definition, pricing.Quote, error) {
	return s.generator.Quote(req)
}

// Generate composes the proposal, then stores, links and records it. Only the
// composition itself can fail the request; delivery problems become warnings.
func (s *Service) Generate(ctx context.Context, req export.Request) (*Delivery, error) {
	gen, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	d := &Delivery{
		ID:         util.NewID("gen"),
		Generation: gen,
		Warnings:   append([]string{}, gen.Warnings...),
	}

	record := store.Generation{
		ID:            d.ID,
		Kind:          gen.Definition.Kind,
		ProposalName:  gen.Definition.Name,
		ClientName:    req.Client.Name,
		ClientCountry: req.Client.Country,
		Currency:      string(gen.Currency),
		Total:         gen.Quote.Total,
		Filename:      gen.DOCX.Filename,
		RemovedRows:   gen.Report.RemovedRows,
		CreatedAt:     gen.CreatedAt,
	}

	if s.objects != nil {
		record.DOCXKey = s.deliver(ctx, d, export.FormatDOCX, gen.DOCX)
		if gen.PDF != nil {
			record.PDFKey = s.deliver(ctx, d, export.FormatPDF, *gen.PDF)
		}
	}

	if s.audit != nil {
		record.Warnings = d.Warnings
		if err := s.audit.InsertGeneration(ctx, record); err != nil {
			s.log.Warn("generation audit failed", "id", d.ID, "error", err)
			d.Warnings = append(d.Warnings, "generation history unavailable")
		}
	}
	return d, nil
}

// deliver uploads one file and, when links are enabled, issues a download
// link for it. It returns the object key, or "" when the upload failed.
func (s *Service) deliver(ctx context.Context, d *Delivery, format export.Format, file export.Result) string {
	key := artifact.ObjectKey(d.ID, file.Filename, s.now())
	if err := s.objects.Put(ctx, key, file.Data, file.MimeType); err != nil {
		s.log.Warn("artifact upload failed", "id", d.ID, "format", string(format), "error", err)
		d.Warnings = append(d.Warnings, string(format)+" upload failed")
		return ""
	}
	if s.links == nil {
		return key
	}
	link, err := s.links.Create(ctx, key, file.Filename, file.MimeType)
	if err != nil {
		s.log.Warn("download link failed", "id", d.ID, "format", string(format), "error", err)
		d.Warnings = append(d.Warnings, string(format)+" download link unavailable")
		return key
	}
	if d.Links == nil {
		d.Links = make(map[export.Format]artifact.Link)
	}
	d.Links[format] = link
	return key
}

// Download opens the file behind a download link.
func (s *Service) Download(ctx context.Context, id string) (artifact.Link, io.ReadCloser, int64, error) {
	if s.links == nil || s.objects == nil {
		return artifact.Link{}, nil, 0, domainError(http.StatusServiceUnavailable, "DOWNLOADS_DISABLED", "Downloads are not enabled", nil)
	}
	link, err := s.links.Resolve(ctx, id)
	if err != nil {
		return artifact.Link{}, nil, 0, err
	}
	body, size, err := s.objects.Open(ctx, link.ObjectKey)
	if err != nil {
		return artifact.Link{}, nil, 0, err
	}
	return link, body, size, nil
}

// RevokeDownload expires a link early. The stored file is kept.
func (s *Service) RevokeDownload(ctx context.Context, id string) error {
	if s.links == nil {
		return domainError(http.StatusServiceUnavailable, "DOWNLOADS_DISABLED", "Downloads are not enabled", nil)
	}
	if _, err := s.links.Resolve(ctx, id); err != nil {
		return err
	}
	return s.links.Revoke(ctx, id)
}

// DeleteGeneration removes a generation's stored files. The audit row stays,
// and outstanding links resolve to FILE_NOT_FOUND afterwards.
func (s *Service) DeleteGeneration(ctx context.Context, id string) error {
	if s.audit == nil || s.objects == nil {
		return domainError(http.StatusServiceUnavailable, "HISTORY_DISABLED", "Generation history is not enabled", nil)
	}
	record, err := s.audit.GetGeneration(ctx, id)
	if err != nil {
		return err
	}
	var errs []error
	for _, key := range []string{record.DOCXKey, record.PDFKey} {
		if key == "" {
			continue
		}
		if err := s.objects.Remove(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) History(ctx context.Context, filter store.GenerationFilter) ([]store.Generation, error) {
	if s.audit == nil {
		return nil, domainError(http.StatusServiceUnavailable, "HISTORY_DISABLED", "Generation history is not enabled", nil)
	}
	return s.audit.ListGenerations(ctx, filter)
}

func (s *Service) GenerationRecord(ctx context.Context, id string) (store.Generation, error) {
	if s.audit == nil {
		return store.Generation{}, domainError(http.StatusServiceUnavailable, "HISTORY_DISABLED", "Generation history is not enabled", nil)
	}
	return s.audit.GetGeneration(ctx, id)
}

// Ready pings every configured backend. The map is keyed by backend name and
// holds nil for healthy ones.
func (s *Service) Ready(ctx context.Context) map[string]error {
	checks := map[string]error{}
	if s.audit != nil {
		checks["database"] = s.audit.Ping(ctx)
	}
	if s.links != nil {
		checks["redis"] = s.links.Ping(ctx)
	}
	return checks
}
