package documents

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/rajinweb/contract-esign-sub000/internal/fields"
	"github.com/rajinweb/contract-esign-sub000/internal/render"
	"github.com/rajinweb/contract-esign-sub000/internal/versions"
	"github.com/rajinweb/contract-esign-sub000/pkg/metrics"
	"github.com/rajinweb/contract-esign-sub000/pkg/pagination"
)

// System defines the public contract for document domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		s Session,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, s Session, id uuid.UUID) (*Document, error)
	Versions(ctx context.Context, s Session, id uuid.UUID) ([]Version, error)
	Save(ctx context.Context, s Session, cmd SaveCommand) (*SaveResult, error)
	Transition(ctx context.Context, s Session, id uuid.UUID, status string) (*Document, error)
	DownloadSigned(ctx context.Context, s Session, id uuid.UUID) (*SignedFile, error)
}

// transitions lists the document statuses reachable from each status and
// the status the current version takes on when the transition happens.
var transitions = map[string]map[string]string{
	StatusDraft: {
		StatusSent:     VersionSent,
		StatusVoided:   "",
		StatusRejected: "",
	},
	StatusSent: {
		StatusSigned:    VersionFinal,
		StatusCompleted: VersionFinal,
		StatusVoided:    "",
		StatusRejected:  "",
	},
	StatusSigned: {
		StatusCompleted: VersionFinal,
		StatusVoided:    "",
		StatusRejected:  "",
	},
	StatusCompleted: {
		StatusVoided: "",
	},
}

type repo struct {
	store      Store
	reconciler *Reconciler
	renderer   *render.Renderer
	metrics    *metrics.Metrics
	flight     singleflight.Group
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a document system backed by PostgreSQL.
func New(
	db *sql.DB,
	vs *versions.Store,
	renderer *render.Renderer,
	m *metrics.Metrics,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return newSystem(NewStore(db), vs, renderer, m, logger, pagination)
}

func newSystem(
	store Store,
	vs *versions.Store,
	renderer *render.Renderer,
	m *metrics.Metrics,
	logger *slog.Logger,
	pagination pagination.Config,
) *repo {
	logger = logger.With("system", "documents")
	return &repo{
		store:      store,
		reconciler: NewReconciler(store, vs, m, logger),
		renderer:   renderer,
		metrics:    m,
		logger:     logger,
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	s Session,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	if s.OwnerID == "" {
		return nil, ErrForbidden
	}
	page.Normalize(r.pagination)
	return r.store.List(ctx, s.OwnerID, page, filters)
}

func (r *repo) Find(ctx context.Context, s Session, id uuid.UUID) (*Document, error) {
	return r.owned(ctx, s, id)
}

func (r *repo) Versions(ctx context.Context, s Session, id uuid.UUID) ([]Version, error) {
	if _, err := r.owned(ctx, s, id); err != nil {
		return nil, err
	}
	return r.store.Versions(ctx, id)
}

func (r *repo) Save(ctx context.Context, s Session, cmd SaveCommand) (*SaveResult, error) {
	return r.reconciler.Save(ctx, s, cmd)
}

func (r *repo) Transition(ctx context.Context, s Session, id uuid.UUID, status string) (*Document, error) {
	doc, err := r.owned(ctx, s, id)
	if err != nil {
		return nil, err
	}

	next, ok := transitions[doc.Status]
	if !ok {
		return nil, fmt.Errorf("%w: %s is terminal", ErrInvalidStatus, doc.Status)
	}
	versionStatus, ok := next[status]
	if !ok {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, doc.Status, status)
	}

	updated, err := r.store.SetStatus(ctx, id, status, versionStatus)
	if err != nil {
		return nil, err
	}

	r.logger.Info("document status changed",
		"document_id", id, "from", doc.Status, "to", status, "request_id", s.RequestID)
	return updated, nil
}

// DownloadSigned renders the signed copy of the current version. Ownership
// is checked before any payload is read. Concurrent requests for the same
// version share one render.
func (r *repo) DownloadSigned(ctx context.Context, s Session, id uuid.UUID) (*SignedFile, error) {
	doc, err := r.owned(ctx, s, id)
	if err != nil {
		return nil, err
	}
	if !doc.Finalized() {
		return nil, ErrNotSigned
	}

	v, err := r.store.FindVersion(ctx, id, doc.CurrentVersion)
	if err != nil {
		return nil, err
	}
	if len(v.PDFData) == 0 {
		return nil, ErrPayloadMissing
	}

	key := fmt.Sprintf("%s:%d:%d", id, v.Version, v.UpdatedAt.UnixNano())
	out, err, shared := r.flight.Do(key, func() (any, error) {
		start := time.Now()
		data, err := r.renderer.Render(context.WithoutCancel(ctx), v.PDFData, v.Fields, certificate(doc, v))
		r.metrics.RecordRender(time.Since(start), err)
		return data, err
	})
	if err != nil {
		return nil, fmt.Errorf("render signed document: %w", err)
	}

	data := out.([]byte)
	r.logger.Info("signed copy rendered",
		"document_id", id, "version", v.Version, "bytes", len(data), "shared", shared)

	return &SignedFile{
		FileName: SignedFileName(doc.Name),
		Data:     data,
	}, nil
}

func (r *repo) owned(ctx context.Context, s Session, id uuid.UUID) (*Document, error) {
	if s.OwnerID == "" {
		return nil, ErrForbidden
	}
	doc, err := r.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != s.OwnerID {
		return nil, ErrForbidden
	}
	return doc, nil
}

// SignedFileName returns the download name of a document's signed copy.
func SignedFileName(name string) string {
	base := strings.TrimSuffix(versions.SanitizeFilename(name), ".pdf")
	return base + "-signed.pdf"
}

func certificate(doc *Document, v *Version) *render.Certificate {
	ordered := slices.Clone(doc.Recipients)
	slices.SortStableFunc(ordered, func(a, b Recipient) int {
		return a.Order - b.Order
	})

	completed := doc.UpdatedAt
	recipients := make([]render.AuditRecipient, 0, len(ordered))
	for _, rc := range ordered {
		if rc.SignedAt != nil && rc.SignedAt.After(completed) {
			completed = *rc.SignedAt
		}
		recipients = append(recipients, render.AuditRecipient{
			Name:      rc.Name,
			Email:     rc.Email,
			Role:      rc.Role,
			Status:    rc.Status,
			SignedAt:  rc.SignedAt,
			IPAddress: rc.IPAddress,
		})
	}

	return &render.Certificate{
		DocumentName: doc.Name,
		CompletedAt:  completed,
		Tally:        fields.Tally(v.Fields),
		Recipients:   recipients,
	}
}
