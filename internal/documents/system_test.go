package documents

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajinweb/contract-esign-sub000/internal/fields"
	"github.com/rajinweb/contract-esign-sub000/pkg/pagination"
)

// signedDocument creates a document with a filled text field and moves it
// through sent to signed.
func signedDocument(t *testing.T, f *fixture) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	res, err := f.sys.Save(ctx, owner, SaveCommand{
		Name: "Lease Agreement",
		Data: samplePDF(t, "lease"),
		Fields: []fields.Field{
			{ID: "name", Type: fields.Text, Value: "Jane Doe", PageNumber: 1, X: 72, Y: 100, Width: 200, Height: 24, RecipientID: ptr("r1")},
			{ID: "ghost", Type: fields.Text, Value: "Nowhere", PageNumber: 4, X: 72, Y: 100, Width: 200, Height: 24},
		},
		Recipients: []Recipient{
			{ID: "r2", Name: "John Roe", Email: "john@example.com", Role: "witness", Status: RecipientPending, Order: 2},
			{ID: "r1", Name: "Jane Doe", Email: "jane@example.com", Role: "signer", Status: RecipientPending, Order: 1},
		},
	})
	require.NoError(t, err)

	_, err = f.sys.Transition(ctx, owner, res.DocumentID, StatusSent)
	require.NoError(t, err)

	signedAt := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	f.store.setRecipients(res.DocumentID, []Recipient{
		{ID: "r1", Name: "Jane Doe", Email: "jane@example.com", Role: "signer", Status: RecipientSigned, SignedAt: &signedAt, IPAddress: "203.0.113.7", Order: 1},
		{ID: "r2", Name: "John Roe", Email: "john@example.com", Role: "witness", Status: RecipientSigned, SignedAt: &signedAt, Order: 2},
	})

	_, err = f.sys.Transition(ctx, owner, res.DocumentID, StatusSigned)
	require.NoError(t, err)
	return res.DocumentID
}

func TestDownloadSigned(t *testing.T) {
	f := newFixture(t)
	id := signedDocument(t, f)

	file, err := f.sys.DownloadSigned(context.Background(), owner, id)
	require.NoError(t, err)

	assert.Equal(t, "Lease Agreement-signed.pdf", file.FileName)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF-")))
	assert.True(t, bytes.Contains(file.Data, []byte("(Jane Doe)")))
	assert.False(t, bytes.Contains(file.Data, []byte("(Nowhere)")))
	assert.True(t, bytes.Contains(file.Data, []byte("(Certificate of Completion)")))
	assert.True(t, bytes.Contains(file.Data, []byte("jane@example.com")))
	assert.True(t, bytes.Contains(file.Data, []byte("john@example.com")))

	assert.Equal(t, VersionFinal, f.store.version(t, id, 1).Status)
}

func TestDownloadSignedPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.sys.DownloadSigned(ctx, owner, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 404, MapHTTPStatus(err))
	})

	t.Run("other owner", func(t *testing.T) {
		f := newFixture(t)
		id := signedDocument(t, f)
		reads := f.store.payloadReadCount()

		_, err := f.sys.DownloadSigned(ctx, Session{OwnerID: "intruder"}, id)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, 403, MapHTTPStatus(err))
		assert.Equal(t, reads, f.store.payloadReadCount())
	})

	t.Run("not signed", func(t *testing.T) {
		f := newFixture(t)
		res := create(t, f, samplePDF(t, "lease"))

		_, err := f.sys.DownloadSigned(ctx, owner, res.DocumentID)
		assert.ErrorIs(t, err, ErrNotSigned)
		assert.Equal(t, 400, MapHTTPStatus(err))
		assert.Equal(t, "signed copy available once all recipients complete signing", err.Error())
	})

	t.Run("payload missing", func(t *testing.T) {
		f := newFixture(t)
		id := signedDocument(t, f)

		f.store.mu.Lock()
		f.store.versions[id][0].PDFData = nil
		f.store.mu.Unlock()

		_, err := f.sys.DownloadSigned(ctx, owner, id)
		assert.ErrorIs(t, err, ErrPayloadMissing)
		assert.Equal(t, 404, MapHTTPStatus(err))
	})

	t.Run("version missing", func(t *testing.T) {
		f := newFixture(t)
		id := signedDocument(t, f)

		f.store.mu.Lock()
		d := f.store.docs[id]
		d.CurrentVersion = 7
		f.store.docs[id] = d
		f.store.mu.Unlock()

		_, err := f.sys.DownloadSigned(ctx, owner, id)
		assert.ErrorIs(t, err, ErrVersionNotFound)
	})
}

func TestTransition(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		path    []string
		wantErr bool
		version string
	}{
		{"draft to sent", []string{StatusSent}, false, VersionSent},
		{"sent to completed", []string{StatusSent, StatusCompleted}, false, VersionFinal},
		{"draft to voided", []string{StatusVoided}, false, VersionDraft},
		{"draft to signed", []string{StatusSigned}, true, VersionDraft},
		{"voided is terminal", []string{StatusVoided, StatusSent}, true, VersionDraft},
		{"unknown status", []string{"archived"}, true, VersionDraft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			res := create(t, f, samplePDF(t, "lease"))

			var err error
			for _, status := range tt.path {
				_, err = f.sys.Transition(ctx, owner, res.DocumentID, status)
				if err != nil {
					break
				}
			}

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStatus)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.version, f.store.version(t, res.DocumentID, 1).Status)
		})
	}
}

func TestListAndVersions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := create(t, f, samplePDF(t, "lease"))
	_, err := f.sys.Save(ctx, Session{OwnerID: "owner-2"}, SaveCommand{Name: "Other", Data: samplePDF(t, "other")})
	require.NoError(t, err)

	page, err := f.sys.List(ctx, owner, pagination.PageRequest{}, Filters{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, res.DocumentID, page.Data[0].ID)
	assert.Equal(t, 20, page.PageSize)

	list, err := f.sys.Versions(ctx, owner, res.DocumentID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].PDFData)

	_, err = f.sys.Versions(ctx, Session{OwnerID: "owner-2"}, res.DocumentID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSignedFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Lease Agreement", "Lease Agreement-signed.pdf"},
		{"contract.pdf", "contract-signed.pdf"},
		{`bad"name`, "badname-signed.pdf"},
		{"", "document-signed.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SignedFileName(tt.in), tt.in)
	}
}
