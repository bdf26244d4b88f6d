package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"proposalkit/internal/artifact"
	"proposalkit/internal/catalog"
	"proposalkit/internal/export"
	"proposalkit/internal/store"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, catalog.ErrUnknownProposal):
		return http.StatusNotFound, "UNKNOWN_PROPOSAL", err.Error(), nil
	case errors.Is(err, export.ErrInvalidRequest):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil
	case errors.Is(err, export.ErrTemplateNotFound):
		return http.StatusNotFound, "TEMPLATE_NOT_FOUND", err.Error(), nil
	case errors.Is(err, artifact.ErrLinkNotFound):
		return http.StatusNotFound, "LINK_NOT_FOUND", "Download link not found or expired", nil
	case errors.Is(err, artifact.ErrObjectNotFound):
		return http.StatusNotFound, "FILE_NOT_FOUND", "Stored file not found", nil
	case errors.Is(err, store.ErrGenerationNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT", "Request timed out", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
