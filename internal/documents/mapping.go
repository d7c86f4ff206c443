package documents

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/rajinweb/contract-esign-sub000/internal/fields"
	"github.com/rajinweb/contract-esign-sub000/pkg/query"
	"github.com/rajinweb/contract-esign-sub000/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("owner_id", "OwnerID").
	Project("name", "Name").
	Project("file_name", "FileName").
	Project("status", "Status").
	Project("current_version", "CurrentVersion").
	Project("recipients", "Recipients").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

var versionProjection = query.
	NewProjectionMap("public", "document_versions", "v").
	Project("document_id", "DocumentID").
	Project("version", "Version").
	Project("file_path", "FilePath").
	Project("file_name", "FileName").
	Project("status", "Status").
	Project("fields", "Fields").
	Project("page_count", "PageCount").
	Project("change_log", "ChangeLog").
	Project("signing_token", "SigningToken").
	Project("signing_expires_at", "SigningExpiresAt").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

// payloadProjection extends versionProjection with the PDF bytes. It is
// only used where the payload is actually needed.
var payloadProjection = query.
	NewProjectionMap("public", "document_versions", "v").
	Project("document_id", "DocumentID").
	Project("version", "Version").
	Project("file_path", "FilePath").
	Project("file_name", "FileName").
	Project("status", "Status").
	Project("fields", "Fields").
	Project("page_count", "PageCount").
	Project("change_log", "ChangeLog").
	Project("signing_token", "SigningToken").
	Project("signing_expires_at", "SigningExpiresAt").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt").
	Project("pdf_data", "PDFData")

var versionSort = query.SortField{Field: "Version"}

// Filters contains optional filtering criteria for document queries.
// Nil fields are ignored. Status uses exact matching, Name and FileName
// case-insensitive contains matching. Recipient matches documents that list
// a recipient with exactly that email. UpdatedSince and UpdatedBefore bound
// UpdatedAt as a half-open range.
type Filters struct {
	Status        *string    `json:"status,omitempty"`
	Statuses      []string   `json:"statuses,omitempty"`
	Name          *string    `json:"name,omitempty"`
	FileName      *string    `json:"fileName,omitempty"`
	Recipient     *string    `json:"recipient,omitempty"`
	UpdatedSince  *time.Time `json:"updatedSince,omitempty"`
	UpdatedBefore *time.Time `json:"updatedBefore,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	statuses := make([]any, len(f.Statuses))
	for i, s := range f.Statuses {
		statuses[i] = s
	}

	if f.Recipient != nil && *f.Recipient != "" {
		b.WhereJSONContains("Recipients", []map[string]string{{"email": *f.Recipient}})
	}

	return b.
		WhereEquals("Status", f.Status).
		WhereIn("Status", statuses).
		WhereContains("Name", f.Name).
		WhereContains("FileName", f.FileName).
		WhereRange("UpdatedAt", f.UpdatedSince, f.UpdatedBefore)
}

// Match reports whether d satisfies the status, recipient and update-time
// filters. Name and FileName are left to the database.
func (f Filters) Match(d Document) bool {
	if f.Status != nil && d.Status != *f.Status {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, d.Status) {
		return false
	}
	if f.Recipient != nil && *f.Recipient != "" &&
		!slices.ContainsFunc(d.Recipients, func(r Recipient) bool { return r.Email == *f.Recipient }) {
		return false
	}
	if f.UpdatedSince != nil && d.UpdatedAt.Before(*f.UpdatedSince) {
		return false
	}
	if f.UpdatedBefore != nil && !d.UpdatedAt.Before(*f.UpdatedBefore) {
		return false
	}
	return true
}

// FiltersFromQuery extracts filter values from URL query parameters. Times
// are RFC 3339.
func FiltersFromQuery(values url.Values) (Filters, error) {
	var f Filters

	if s := values.Get("status"); strings.Contains(s, ",") {
		for part := range strings.SplitSeq(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.Statuses = append(f.Statuses, part)
			}
		}
	} else if s != "" {
		f.Status = &s
	}

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	fn := values.Get("fileName")
	if fn == "" {
		fn = values.Get("file_name")
	}
	if fn != "" {
		f.FileName = &fn
	}

	if r := strings.TrimSpace(values.Get("recipient")); r != "" {
		f.Recipient = &r
	}

	var err error
	if f.UpdatedSince, err = timeParam(values, "updatedSince"); err != nil {
		return Filters{}, err
	}
	if f.UpdatedBefore, err = timeParam(values, "updatedBefore"); err != nil {
		return Filters{}, err
	}

	return f, nil
}

func timeParam(values url.Values, key string) (*time.Time, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC 3339: %q", ErrInvalidFilter, key, raw)
	}
	return &t, nil
}

func scanDocument(s repository.Scanner) (Document, error) {
	var (
		d          Document
		recipients []byte
	)
	err := s.Scan(
		&d.ID,
		&d.OwnerID,
		&d.Name,
		&d.FileName,
		&d.Status,
		&d.CurrentVersion,
		&recipients,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return d, err
	}
	if err := decodeJSON(recipients, &d.Recipients); err != nil {
		return d, fmt.Errorf("decode recipients: %w", err)
	}
	return d, nil
}

func scanVersion(s repository.Scanner) (Version, error) {
	var v Version
	var raw []byte
	err := s.Scan(
		&v.DocumentID,
		&v.Version,
		&v.FilePath,
		&v.FileName,
		&v.Status,
		&raw,
		&v.PageCount,
		&v.ChangeLog,
		&v.SigningToken,
		&v.SigningExpiresAt,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return v, err
	}
	return v, decodeFields(raw, &v)
}

// scanVersionPayload normalizes pdf_data into payload.Bytes at read time.
func scanVersionPayload(s repository.Scanner) (Version, error) {
	var v Version
	var raw []byte
	err := s.Scan(
		&v.DocumentID,
		&v.Version,
		&v.FilePath,
		&v.FileName,
		&v.Status,
		&raw,
		&v.PageCount,
		&v.ChangeLog,
		&v.SigningToken,
		&v.SigningExpiresAt,
		&v.CreatedAt,
		&v.UpdatedAt,
		&v.PDFData,
	)
	if err != nil {
		return v, err
	}
	return v, decodeFields(raw, &v)
}

func decodeFields(raw []byte, v *Version) error {
	var list []fields.Field
	if err := decodeJSON(raw, &list); err != nil {
		return fmt.Errorf("decode fields of version %d: %w", v.Version, err)
	}
	v.Fields = list
	return nil
}

func decodeJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// encodeJSON marshals a slice column, writing [] instead of null.
func encodeJSON[T any](list []T) ([]byte, error) {
	if list == nil {
		list = []T{}
	}
	return json.Marshal(list)
}
