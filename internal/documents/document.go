// Package documents implements the document domain: the document and
// version aggregates, the save reconciliation state machine, and the signed
// download pipeline.
package documents

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/rajinweb/contract-esign-sub000/internal/fields"
	"github.com/rajinweb/contract-esign-sub000/pkg/payload"
)

// Document statuses.
const (
	StatusDraft     = "draft"
	StatusSent      = "sent"
	StatusSigned    = "signed"
	StatusCompleted = "completed"
	StatusVoided    = "voided"
	StatusRejected  = "rejected"
)

// Version statuses. Draft and save versions are open and mutable in place;
// every other status is closed.
const (
	VersionDraft = "draft"
	VersionSave  = "save"
	VersionFinal = "final"
	VersionSent  = "sent"
	VersionError = "error"
)

// Recipient statuses.
const (
	RecipientPending = "pending"
	RecipientSigned  = "signed"
)

// Document is the top-level aggregate. CurrentVersion always indexes an
// existing version.
type Document struct {
	ID             uuid.UUID   `json:"id"`
	OwnerID        string      `json:"ownerId"`
	Name           string      `json:"name"`
	FileName       string      `json:"fileName"`
	Status         string      `json:"status"`
	CurrentVersion int         `json:"currentVersion"`
	Recipients     []Recipient `json:"recipients"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Finalized reports whether every recipient has completed signing.
func (d Document) Finalized() bool {
	return d.Status == StatusSigned || d.Status == StatusCompleted
}

// Version is one snapshot of a document's bytes and fields.
type Version struct {
	DocumentID       uuid.UUID      `json:"documentId"`
	Version          int            `json:"version"`
	FilePath         string         `json:"filePath"`
	FileName         string         `json:"fileName"`
	Status           string         `json:"status"`
	Fields           []fields.Field `json:"fields"`
	PDFData          payload.Bytes  `json:"-"`
	PageCount        int            `json:"pageCount"`
	ChangeLog        string         `json:"changeLog"`
	SigningToken     *string        `json:"-"`
	SigningExpiresAt *time.Time     `json:"signingExpiresAt,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Open reports whether the version may be mutated in place.
func (v Version) Open() bool {
	return v.Status == VersionDraft || v.Status == VersionSave
}

// Recipient is a party to the signing workflow.
type Recipient struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	SignedAt   *time.Time `json:"signedAt,omitempty"`
	IPAddress  string     `json:"ipAddress,omitempty"`
	Order      int        `json:"order"`
	FieldCount int        `json:"fieldCount"`
}

// Signed reports whether the recipient has completed signing.
func (r Recipient) Signed() bool {
	return r.Status == RecipientSigned
}

// Equal compares recipients by value, including the signing time.
func (r Recipient) Equal(o Recipient) bool {
	if (r.SignedAt == nil) != (o.SignedAt == nil) {
		return false
	}
	if r.SignedAt != nil && !r.SignedAt.Equal(*o.SignedAt) {
		return false
	}
	a, b := r, o
	a.SignedAt, b.SignedAt = nil, nil
	return a == b
}

// signedLookup returns a predicate over recipient ids that have signed.
func signedLookup(list []Recipient) func(string) bool {
	signed := make(map[string]bool, len(list))
	for _, r := range list {
		if r.Signed() {
			signed[r.ID] = true
		}
	}
	return func(id string) bool { return signed[id] }
}

// countAssigned returns a copy of list with FieldCount set from the fields
// assigned to each recipient.
func countAssigned(list []Recipient, assigned []fields.Field) []Recipient {
	counts := make(map[string]int)
	for _, f := range assigned {
		if f.RecipientID != nil {
			counts[*f.RecipientID]++
		}
	}

	out := slices.Clone(list)
	for i := range out {
		out[i].FieldCount = counts[out[i].ID]
	}
	return out
}

// Session is the explicit per-request context handed to every save and
// download. It is built from the authenticated identity, never from
// ambient client state.
type Session struct {
	OwnerID   string
	RequestID string
}

// SaveCommand carries one save request. A nil DocumentID creates a new
// document. BaseVersion, when set, must equal the stored current version.
type SaveCommand struct {
	DocumentID  *uuid.UUID
	Name        string
	FileName    string
	ChangeLog   string
	Data        []byte
	Fields      []fields.Field
	Recipients  []Recipient
	BaseVersion *int
}

// Save outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeUnchanged = "unchanged"
	OutcomeUpdated   = "updated"
	OutcomeHealed    = "healed"
	OutcomeForked    = "forked"
)

// Response messages.
const (
	MessageCreated   = "Document created."
	MessageUnchanged = "No relevant changes detected; document is already up to date."
	MessageUpdated   = "Document saved."
	MessageHealed    = "Document file was missing and has been restored."
	MessageForked    = "Document was finalized; changes saved as a new version."
)

// SaveResult is the save response body.
type SaveResult struct {
	Success    bool      `json:"success"`
	DocumentID uuid.UUID `json:"documentId"`
	Version    int       `json:"version"`
	FileURL    string    `json:"fileUrl"`
	FileName   string    `json:"fileName"`
	Message    string    `json:"message"`
	Outcome    string    `json:"outcome"`
}

// SignedFile is a rendered signed copy ready for download.
type SignedFile struct {
	FileName string
	Data     []byte
}
