package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rajinweb/contract-esign-sub000/internal/render"
	"github.com/rajinweb/contract-esign-sub000/internal/versions"
	"github.com/rajinweb/contract-esign-sub000/pkg/metrics"
	"github.com/rajinweb/contract-esign-sub000/pkg/pagination"
	"github.com/rajinweb/contract-esign-sub000/pkg/storage"
)

// memStore is an in-memory Store that records every mutation and payload
// read.
type memStore struct {
	mu       sync.Mutex
	docs     map[uuid.UUID]Document
	versions map[uuid.UUID][]Version
	now      time.Time

	mutations    int
	payloadReads int
	failUpdate   error
}

func newMemStore() *memStore {
	return &memStore{
		docs:     map[uuid.UUID]Document{},
		versions: map[uuid.UUID][]Version{},
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *memStore) List(_ context.Context, owner string, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Document
	for _, d := range m.docs {
		if d.OwnerID != owner {
			continue
		}
		if !filters.Match(d) {
			continue
		}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Document) int { return b.UpdatedAt.Compare(a.UpdatedAt) })

	result := pagination.NewPageResult(out, len(out), page.Page, page.PageSize)
	return &result, nil
}

func (m *memStore) Find(_ context.Context, id uuid.UUID) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	d.Recipients = slices.Clone(d.Recipients)
	return &d, nil
}

func (m *memStore) FindVersion(_ context.Context, id uuid.UUID, version int) (*Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.payloadReads++
	for _, v := range m.versions[id] {
		if v.Version == version {
			v.Fields = slices.Clone(v.Fields)
			return &v, nil
		}
	}
	return nil, ErrVersionNotFound
}

func (m *memStore) Versions(_ context.Context, id uuid.UUID) ([]Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := slices.Clone(m.versions[id])
	for i := range out {
		out[i].PDFData = nil
	}
	return out, nil
}

func (m *memStore) Create(_ context.Context, doc Document, first Version) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mutations++
	now := m.tick()
	doc.CreatedAt, doc.UpdatedAt = now, now
	first.DocumentID = doc.ID
	first.CreatedAt, first.UpdatedAt = now, now

	m.docs[doc.ID] = doc
	m.versions[doc.ID] = []Version{first}
	return &doc, nil
}

func (m *memStore) UpdateVersion(_ context.Context, id uuid.UUID, rev Revision) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failUpdate != nil {
		return m.failUpdate
	}

	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}

	list := m.versions[id]
	idx := slices.IndexFunc(list, func(v Version) bool { return v.Version == rev.Version.Version })
	if idx < 0 || rev.Version.Version != d.CurrentVersion || !list[idx].Open() {
		return fmt.Errorf("%w: version %d is no longer open", ErrConflict, rev.Version.Version)
	}

	m.mutations++
	now := m.tick()

	v := rev.Version
	v.Status = list[idx].Status
	v.CreatedAt = list[idx].CreatedAt
	v.UpdatedAt = now
	list[idx] = v

	d.Name, d.FileName, d.Status, d.Recipients = rev.Name, rev.FileName, rev.Status, rev.Recipients
	d.UpdatedAt = now
	m.docs[id] = d
	return nil
}

func (m *memStore) AppendVersion(_ context.Context, id uuid.UUID, base int, rev Revision) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	if d.CurrentVersion != base {
		return fmt.Errorf("%w: current version is no longer %d", ErrConflict, base)
	}

	m.mutations++
	now := m.tick()

	v := rev.Version
	v.DocumentID = id
	v.CreatedAt, v.UpdatedAt = now, now
	m.versions[id] = append(m.versions[id], v)

	d.CurrentVersion = v.Version
	d.Name, d.FileName, d.Status, d.Recipients = rev.Name, rev.FileName, rev.Status, rev.Recipients
	d.UpdatedAt = now
	m.docs[id] = d
	return nil
}

func (m *memStore) SetStatus(_ context.Context, id uuid.UUID, status, versionStatus string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}

	m.mutations++
	now := m.tick()
	d.Status = status
	d.UpdatedAt = now
	m.docs[id] = d

	if versionStatus != "" {
		list := m.versions[id]
		for i := range list {
			if list[i].Version == d.CurrentVersion {
				list[i].Status = versionStatus
				list[i].UpdatedAt = now
			}
		}
	}
	return &d, nil
}

// setRecipients replaces the recipients of a document without counting a
// mutation, standing in for the external signing workflow.
func (m *memStore) setRecipients(id uuid.UUID, list []Recipient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.docs[id]
	d.Recipients = list
	m.docs[id] = d
}

func (m *memStore) version(t *testing.T, id uuid.UUID, n int) Version {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versions[id] {
		if v.Version == n {
			return v
		}
	}
	t.Fatalf("version %d of %s not stored", n, id)
	return Version{}
}

func (m *memStore) mutationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutations
}

func (m *memStore) payloadReadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payloadReads
}

type fixture struct {
	store    *memStore
	files    storage.System
	versions *versions.Store
	metrics  *metrics.Metrics
	sys      *repo
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	files, err := storage.New(&storage.Config{
		Backend: storage.BackendFilesystem,
		Root:    t.TempDir(),
	}, discardLogger())
	require.NoError(t, err)

	logger := discardLogger()
	store := newMemStore()
	vs := versions.New(files, logger, versions.Config{MaxCandidates: 5})
	m := metrics.New()

	off := false
	renderer := render.New(render.Config{Workers: 2, Compress: &off}, logger)

	return &fixture{
		store:    store,
		files:    files,
		versions: vs,
		metrics:  m,
		sys:      newSystem(store, vs, renderer, m, logger, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}),
	}
}

func (f *fixture) read(t *testing.T, key string) []byte {
	t.Helper()
	data, err := f.versions.Read(context.Background(), key)
	require.NoError(t, err)
	return data
}

func (f *fixture) exists(t *testing.T, key string) bool {
	t.Helper()
	ok, err := f.versions.Exists(context.Background(), key)
	require.NoError(t, err)
	return ok
}

// samplePDF produces a one page PDF whose content stream carries label.
// Each call yields distinct bytes.
func samplePDF(t *testing.T, label string) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(false)
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Text(72, 72, label)
	pdf.Text(72, 96, uuid.NewString())

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}
