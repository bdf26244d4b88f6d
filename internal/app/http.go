package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"proposalkit/internal/export"
	"proposalkit/internal/logger"
	"proposalkit/internal/store"
)

const warningsHeader = "X-Proposal-Warnings"

type HTTPServer struct {
	service    *Service
	corsOrigin string
	log        *logger.Logger
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin, log: service.log}
}

func (s *HTTPServer) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestID(), recovery(s.log), requestLogger(s.log), cors(s.corsOrigin))
	router.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	})

	api := router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.HEAD("/health", s.handleHealth)
	api.GET("/ready", s.handleReady)

	api.GET("/proposals", s.handleListProposals)
	api.GET("/proposals/:kind", s.handleGetProposal)
	api.POST("/proposals/:kind/quote", s.handleQuote)
	api.POST("/proposals/:kind/generate", s.handleGenerate)

	api.GET("/generations", s.handleListGenerations)
	api.GET("/generations/:id", s.handleGetGeneration)
	api.DELETE("/generations/:id/files", s.handleDeleteGenerationFiles)

	api.GET("/downloads/:id", s.handleDownload)
	api.DELETE("/downloads/:id", s.handleRevokeDownload)
	return router
}

func (s *HTTPServer) handleHealth(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"ok": true})
}

func (s *HTTPServer) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ready := true
	checks := gin.H{}
	for name, err := range s.service.Ready(ctx) {
		if err != nil {
			ready = false
			checks[name] = gin.H{"status": "error", "error": err.Error()}
			continue
		}
		checks[name] = gin.H{"status": "ok"}
	}

	status, statusCode := "ready", http.StatusOK
	if !ready {
		status, statusCode = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(c, statusCode, gin.H{"ok": ready, "status": status, "checks": checks})
}

func (s *HTTPServer) handleListProposals(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"proposals": s.service.Catalog()})
}

func (s *HTTPServer) handleGetProposal(c *gin.Context) {
	def, err := s.service.Definition(c.Param("kind"))
	if err != nil {
		s.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, def)
}

func (s *HTTPServer) handleQuote(c *gin.Context) {
	req, ok := s.readRequest(c)
	if !ok {
		return
	}
	def, quote, err := s.service.Quote(req)
	if err != nil {
		s.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"kind": def.Kind, "name": def.Name, "quote": quote})
}

// handleGenerate returns the composed file itself unless ?format=json asks
// for the generation summary with download links. ?format=pdf streams the PDF
// when conversion succeeded and falls back to the DOCX otherwise.
func (s *HTTPServer) handleGenerate(c *gin.Context) {
	req, ok := s.readRequest(c)
	if !ok {
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.Query("format")))
	switch format {
	case "", "json", string(export.FormatDOCX):
	case string(export.FormatPDF):
		req.PDF = true
	default:
		writeError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "format must be 'docx', 'pdf' or 'json'", nil)
		return
	}

	d, err := s.service.Generate(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	gen := d.Generation

	if format == "json" {
		writeJSON(c, http.StatusOK, gin.H{
			"id":       d.ID,
			"kind":     gen.Definition.Kind,
			"name":     gen.Definition.Name,
			"filename": gen.DOCX.Filename,
			"quote":    gen.Quote,
			"report":   gen.Report,
			"links":    d.Links,
			"warnings": nonNil(d.Warnings),
		})
		return
	}

	file := gen.DOCX
	if format == string(export.FormatPDF) && gen.PDF != nil {
		file = *gen.PDF
	}
	c.Header("X-Generation-ID", d.ID)
	if len(d.Warnings) > 0 {
		c.Header(warningsHeader, strings.Join(d.Warnings, "; "))
	}
	writeFile(c, file.Filename, file.MimeType, int64(len(file.Data)), bytes.NewReader(file.Data))
}

func (s *HTTPServer) handleListGenerations(c *gin.Context) {
	filter := store.GenerationFilter{Kind: c.Query("kind")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be a non-negative integer", nil)
			return
		}
		filter.Limit = limit
	}
	items, err := s.service.History(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"generations": items})
}

func (s *HTTPServer) handleGetGeneration(c *gin.Context) {
	record, err := s.service.GenerationRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, record)
}

func (s *HTTPServer) handleDeleteGenerationFiles(c *gin.Context) {
	if err := s.service.DeleteGeneration(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) handleDownload(c *gin.Context) {
	link, body, size, err := s.service.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	defer body.Close()
	writeFile(c, link.Filename, link.MimeType, size, body)
}

func (s *HTTPServer) handleRevokeDownload(c *gin.Context) {
	if err := s.service.RevokeDownload(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// readRequest decodes the JSON body into a generation request for :kind.
func (s *HTTPServer) readRequest(c *gin.Context) (export.Request, bool) {
	var in export.Input
	if err := decodeBody(c.Request, &in); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return export.Request{}, false
	}
	req, err := in.Request(c.Param("kind"))
	if err != nil {
		s.fail(c, err)
		return export.Request{}, false
	}
	return req, true
}

func (s *HTTPServer) fail(c *gin.Context, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "request_id", getRequestID(c), "code", code, "error", err)
	}
	writeError(c, status, code, message, details)
}

func writeJSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func writeError(c *gin.Context, status int, code, message string, details any) {
	response := gin.H{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(c, status, response)
}

func writeFile(c *gin.Context, filename, mimeType string, size int64, body io.Reader) {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	c.DataFromReader(http.StatusOK, size, mimeType, body, map[string]string{
		"Content-Disposition": disposition,
	})
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	return nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
