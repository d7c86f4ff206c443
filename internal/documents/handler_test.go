package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajinweb/contract-esign-sub000/pkg/auth"
	"github.com/rajinweb/contract-esign-sub000/pkg/routes"
)

func newMux(f *fixture) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, f.sys.Handler(10<<20).Routes())
	return mux
}

func withIdentity(r *http.Request, subject string) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{Subject: subject}))
}

func saveRequest(t *testing.T, pdf []byte, form map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", "upload.pdf")
	require.NoError(t, err)
	_, err = part.Write(pdf)
	require.NoError(t, err)

	for k, v := range form {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents/save", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHandlerSave(t *testing.T) {
	f := newFixture(t)
	mux := newMux(f)
	pdf := samplePDF(t, "lease")

	form := map[string]string{
		"name":       "Lease Agreement",
		"fileName":   "lease.pdf",
		"fields":     `[{"id":"f1","type":"checkbox","value":true,"pageNumber":1,"x":10,"y":10,"width":12,"height":12}]`,
		"recipients": `[{"id":"r1","name":"Jane Doe","email":"jane@example.com","role":"signer","status":"pending","order":1}]`,
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, withIdentity(saveRequest(t, pdf, form), "owner-1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created SaveResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, "lease.pdf", created.FileName)
	assert.Contains(t, rec.Body.String(), `"fileUrl":"/api/storage/file?path=owner-1%2Flease.pdf"`)

	form["documentId"] = created.DocumentID.String()
	form["baseVersion"] = "1"
	delete(form, "fileName")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withIdentity(saveRequest(t, pdf, form), "owner-1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var again SaveResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.Equal(t, MessageUnchanged, again.Message)
}

func TestHandlerSaveErrors(t *testing.T) {
	f := newFixture(t)
	mux := newMux(f)
	pdf := samplePDF(t, "lease")

	tests := []struct {
		name     string
		form     map[string]string
		subject  string
		wantCode int
	}{
		{"no identity", map[string]string{}, "", http.StatusUnauthorized},
		{"bad fields", map[string]string{"fields": `{"id":1}`}, "owner-1", http.StatusBadRequest},
		{"bad recipients", map[string]string{"recipients": `nope`}, "owner-1", http.StatusBadRequest},
		{"bad document id", map[string]string{"documentId": "42"}, "owner-1", http.StatusBadRequest},
		{"bad base version", map[string]string{"baseVersion": "zero"}, "owner-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := saveRequest(t, pdf, tt.form)
			if tt.subject != "" {
				req = withIdentity(req, tt.subject)
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestHandlerSaveUploadErrors(t *testing.T) {
	f := newFixture(t)

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents/save", strings.NewReader(`{"name":"lease"}`))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		newMux(f).ServeHTTP(rec, withIdentity(req, "owner-1"))
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "invalid file")
	})

	t.Run("over limit", func(t *testing.T) {
		mux := http.NewServeMux()
		routes.Register(mux, f.sys.Handler(1024).Routes())

		req := saveRequest(t, bytes.Repeat([]byte("x"), 4096), map[string]string{"name": "lease"})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, withIdentity(req, "owner-1"))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "file exceeds maximum upload size")
	})
}

func TestHandlerDownloadSigned(t *testing.T) {
	f := newFixture(t)
	mux := newMux(f)
	id := signedDocument(t, f)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/documents/"+id.String()+"/signed", nil), "owner-1")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Lease Agreement-signed.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
}

func TestHandlerDownloadSignedNotReady(t *testing.T) {
	f := newFixture(t)
	mux := newMux(f)
	res := create(t, f, samplePDF(t, "lease"))

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/documents/"+res.DocumentID.String()+"/signed", nil), "owner-1")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"signed copy available once all recipients complete signing"}`, rec.Body.String())
}

func TestHandlerTransitionAndFind(t *testing.T) {
	f := newFixture(t)
	mux := newMux(f)
	res := create(t, f, samplePDF(t, "lease"))
	path := "/documents/" + res.DocumentID.String()

	req := withIdentity(httptest.NewRequest(http.MethodPost, path+"/status", strings.NewReader(`{"status":"sent"}`)), "owner-1")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, path, nil), "owner-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, StatusSent, doc.Status)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, path, nil), "owner-2"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, "/documents/not-a-uuid", nil), "owner-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, path+"/versions", nil), "owner-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pdfData")
}

func TestHandlerList(t *testing.T) {
	f := newFixture(t)
	mux := newMux(f)
	create(t, f, samplePDF(t, "lease"))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, "/documents?status=draft", nil), "owner-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Data  []Document `json:"data"`
		Total int        `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, "/documents?status=signed,completed", nil), "owner-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 0, page.Total)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, "/documents?updatedBefore=soon", nil), "owner-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents", nil).WithContext(context.Background()))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFiltersFromQuery(t *testing.T) {
	f, err := FiltersFromQuery(url.Values{"status": {"signed, completed"}, "fileName": {"lease"}})
	require.NoError(t, err)
	assert.Nil(t, f.Status)
	assert.Equal(t, []string{"signed", "completed"}, f.Statuses)
	require.NotNil(t, f.FileName)
	assert.Equal(t, "lease", *f.FileName)
	assert.True(t, f.Match(Document{Status: StatusCompleted}))
	assert.False(t, f.Match(Document{Status: StatusDraft}))

	f, err = FiltersFromQuery(url.Values{"status": {"draft"}})
	require.NoError(t, err)
	require.NotNil(t, f.Status)
	assert.True(t, f.Match(Document{Status: StatusDraft}))
	assert.False(t, f.Match(Document{Status: StatusSent}))
	assert.True(t, Filters{}.Match(Document{Status: StatusVoided}))
}

func TestFiltersRecipientAndUpdated(t *testing.T) {
	f, err := FiltersFromQuery(url.Values{
		"recipient":     {" jane@example.com "},
		"updatedSince":  {"2026-03-01T00:00:00Z"},
		"updatedBefore": {"2026-04-01T00:00:00Z"},
	})
	require.NoError(t, err)
	require.NotNil(t, f.Recipient)
	assert.Equal(t, "jane@example.com", *f.Recipient)

	doc := Document{
		Status:     StatusSent,
		Recipients: []Recipient{{ID: "r1", Email: "jane@example.com"}},
		UpdatedAt:  time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, f.Match(doc))

	other := doc
	other.Recipients = []Recipient{{ID: "r2", Email: "john@example.com"}}
	assert.False(t, f.Match(other))

	late := doc
	late.UpdatedAt = *f.UpdatedBefore
	assert.False(t, f.Match(late))

	early := doc
	early.UpdatedAt = *f.UpdatedSince
	assert.True(t, f.Match(early))

	_, err = FiltersFromQuery(url.Values{"updatedSince": {"yesterday"}})
	require.ErrorIs(t, err, ErrInvalidFilter)
	assert.Equal(t, http.StatusBadRequest, MapHTTPStatus(err))
}
