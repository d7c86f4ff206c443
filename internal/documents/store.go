package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/rajinweb/contract-esign-sub000/pkg/pagination"
)

// Revision is the document-level state written alongside a version.
type Revision struct {
	Name       string
	FileName   string
	Status     string
	Recipients []Recipient
	Version    Version
}

// Store is the persistence seam of the document domain.
type Store interface {
	// List returns the owner's documents without version content.
	List(ctx context.Context, owner string, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error)

	// Find returns document metadata only. No version payload is read.
	Find(ctx context.Context, id uuid.UUID) (*Document, error)

	// FindVersion returns one version including its PDF payload.
	FindVersion(ctx context.Context, id uuid.UUID, version int) (*Version, error)

	// Versions returns the version history without payloads, oldest first.
	Versions(ctx context.Context, id uuid.UUID) ([]Version, error)

	// Create inserts a document and its first version.
	Create(ctx context.Context, doc Document, first Version) (*Document, error)

	// UpdateVersion rewrites the current version in place. It fails with
	// ErrConflict when the version is no longer current or no longer open.
	UpdateVersion(ctx context.Context, id uuid.UUID, rev Revision) error

	// AppendVersion inserts rev.Version and advances the current version
	// pointer from base. It fails with ErrConflict when the stored pointer
	// is not base.
	AppendVersion(ctx context.Context, id uuid.UUID, base int, rev Revision) error

	// SetStatus updates the document status and, when versionStatus is not
	// empty, the status of the current version.
	SetStatus(ctx context.Context, id uuid.UUID, status, versionStatus string) (*Document, error)
}
