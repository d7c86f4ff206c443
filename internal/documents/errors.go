package documents

import (
	"errors"
	"net/http"

	"github.com/rajinweb/contract-esign-sub000/internal/fields"
	"github.com/rajinweb/contract-esign-sub000/pkg/payload"
	"github.com/rajinweb/contract-esign-sub000/pkg/repository"
)

// Domain errors for document operations.
var (
	ErrNotFound          = errors.New("document not found")
	ErrVersionNotFound   = errors.New("document version not found")
	ErrPayloadMissing    = errors.New("document version has no PDF content")
	ErrForbidden         = errors.New("document belongs to another user")
	ErrNotSigned         = errors.New("signed copy available once all recipients complete signing")
	ErrConflict          = errors.New("document has changed since it was loaded")
	ErrDuplicate         = errors.New("document already exists")
	ErrFileTooLarge      = errors.New("file exceeds maximum upload size")
	ErrInvalidFile       = errors.New("invalid file")
	ErrInvalidRecipients = errors.New("invalid recipient list")
	ErrInvalidStatus     = errors.New("invalid status transition")
	ErrInvalidID         = errors.New("invalid document id")
	ErrInvalidBase       = errors.New("invalid base version")
	ErrInvalidFilter     = errors.New("invalid filter")
)

// MapHTTPStatus maps document domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrVersionNotFound),
		errors.Is(err, ErrPayloadMissing):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict),
		errors.Is(err, ErrDuplicate),
		errors.Is(err, repository.ErrSerialization):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrNotSigned),
		errors.Is(err, ErrInvalidFile),
		errors.Is(err, ErrInvalidRecipients),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrInvalidBase),
		errors.Is(err, ErrInvalidFilter),
		errors.Is(err, fields.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, payload.ErrUnrecognized):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
