package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rajinweb/contract-esign-sub000/pkg/pagination"
	"github.com/rajinweb/contract-esign-sub000/pkg/query"
	"github.com/rajinweb/contract-esign-sub000/pkg/repository"
)

// pgStore is the PostgreSQL implementation of Store.
type pgStore struct {
	db *sql.DB
}

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) List(
	ctx context.Context,
	owner string,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("OwnerID", owner).
		WhereSearch(page.Search, "Name", "FileName").
		Tiebreak("ID")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)

	return repository.WithTxOptions(ctx, s.db, repository.ReadSnapshot,
		func(tx *sql.Tx) (*pagination.PageResult[Document], error) {
			total, err := repository.QueryOne(ctx, tx, countSQL, countArgs, repository.ScanValue[int])
			if err != nil {
				return nil, fmt.Errorf("count documents: %w", err)
			}

			docs, err := repository.QueryMany(ctx, tx, pageSQL, pageArgs, scanDocument)
			if err != nil {
				return nil, fmt.Errorf("query documents: %w", err)
			}

			result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
			return &result, nil
		})
}

func (s *pgStore) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, s.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (s *pgStore) FindVersion(ctx context.Context, id uuid.UUID, version int) (*Version, error) {
	q, args := query.
		NewBuilder(payloadProjection).
		WhereEquals("DocumentID", id).
		WhereEquals("Version", version).
		BuildSingleOrNull()

	v, err := repository.QueryOne(ctx, s.db, q, args, scanVersionPayload)
	if err != nil {
		return nil, repository.MapError(err, ErrVersionNotFound, ErrDuplicate)
	}
	return &v, nil
}

func (s *pgStore) Versions(ctx context.Context, id uuid.UUID) ([]Version, error) {
	q, args := query.
		NewBuilder(versionProjection, versionSort).
		WhereEquals("DocumentID", id).
		Build()

	list, err := repository.QueryMany(ctx, s.db, q, args, scanVersion)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	return list, nil
}

func (s *pgStore) Create(ctx context.Context, doc Document, first Version) (*Document, error) {
	recipients, err := encodeJSON(doc.Recipients)
	if err != nil {
		return nil, fmt.Errorf("encode recipients: %w", err)
	}
	fieldList, err := encodeJSON(first.Fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}

	insertDoc := fmt.Sprintf(`
		INSERT INTO public.documents AS d (id, owner_id, name, file_name, status, current_version, recipients)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, projection.Columns())

	insertVersion := `
		INSERT INTO public.document_versions
			(document_id, version, file_path, file_name, status, fields, pdf_data, page_count, change_log)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	d, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Document, error) {
		d, err := repository.QueryOne(ctx, tx, insertDoc, []any{
			doc.ID,
			doc.OwnerID,
			doc.Name,
			doc.FileName,
			doc.Status,
			doc.CurrentVersion,
			recipients,
		}, scanDocument)
		if err != nil {
			return Document{}, err
		}

		_, err = tx.ExecContext(ctx, insertVersion,
			doc.ID,
			first.Version,
			first.FilePath,
			first.FileName,
			first.Status,
			fieldList,
			first.PDFData,
			first.PageCount,
			first.ChangeLog,
		)
		return d, err
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (s *pgStore) UpdateVersion(ctx context.Context, id uuid.UUID, rev Revision) error {
	recipients, fieldList, err := encodeRevision(rev)
	if err != nil {
		return err
	}

	updateVersion := `
		UPDATE public.document_versions
		SET file_path = $3, file_name = $4, fields = $5, pdf_data = $6,
			page_count = $7, change_log = $8, updated_at = now()
		WHERE document_id = $1 AND version = $2
			AND status IN ('draft', 'save')
			AND version = (SELECT current_version FROM public.documents WHERE id = $1)`

	updateDoc := `
		UPDATE public.documents
		SET name = $2, file_name = $3, status = $4, recipients = $5, updated_at = now()
		WHERE id = $1`

	v := rev.Version
	_, err = repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(ctx, tx, updateVersion,
			id, v.Version, v.FilePath, v.FileName, fieldList, v.PDFData, v.PageCount, v.ChangeLog,
		); err != nil {
			if errors.Is(err, repository.ErrStale) {
				return struct{}{}, fmt.Errorf("%w: version %d is no longer open", ErrConflict, v.Version)
			}
			return struct{}{}, err
		}

		err := repository.ExecExpectOne(ctx, tx, updateDoc,
			id, rev.Name, rev.FileName, rev.Status, recipients,
		)
		return struct{}{}, err
	})

	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (s *pgStore) AppendVersion(ctx context.Context, id uuid.UUID, base int, rev Revision) error {
	recipients, fieldList, err := encodeRevision(rev)
	if err != nil {
		return err
	}

	advance := `
		UPDATE public.documents
		SET current_version = $3, name = $4, file_name = $5, status = $6,
			recipients = $7, updated_at = now()
		WHERE id = $1 AND current_version = $2`

	insertVersion := `
		INSERT INTO public.document_versions
			(document_id, version, file_path, file_name, status, fields, pdf_data, page_count, change_log)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	v := rev.Version
	_, err = repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(ctx, tx, advance,
			id, base, v.Version, rev.Name, rev.FileName, rev.Status, recipients,
		); err != nil {
			if errors.Is(err, repository.ErrStale) {
				return struct{}{}, fmt.Errorf("%w: current version is no longer %d", ErrConflict, base)
			}
			return struct{}{}, err
		}

		_, err := tx.ExecContext(ctx, insertVersion,
			id, v.Version, v.FilePath, v.FileName, v.Status, fieldList, v.PDFData, v.PageCount, v.ChangeLog,
		)
		return struct{}{}, err
	})

	return repository.MapError(err, ErrNotFound, ErrConflict)
}

func (s *pgStore) SetStatus(ctx context.Context, id uuid.UUID, status, versionStatus string) (*Document, error) {
	updateDoc := fmt.Sprintf(`
		UPDATE public.documents AS d
		SET status = $2, updated_at = now()
		WHERE d.id = $1
		RETURNING %s`, projection.Columns())

	updateVersion := `
		UPDATE public.document_versions
		SET status = $3, updated_at = now()
		WHERE document_id = $1 AND version = $2`

	d, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Document, error) {
		d, err := repository.QueryOne(ctx, tx, updateDoc, []any{id, status}, scanDocument)
		if err != nil {
			return Document{}, err
		}
		if versionStatus == "" {
			return d, nil
		}
		err = repository.ExecExpectOne(ctx, tx, updateVersion, id, d.CurrentVersion, versionStatus)
		return d, err
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func encodeRevision(rev Revision) (recipients, fieldList []byte, err error) {
	recipients, err = encodeJSON(rev.Recipients)
	if err != nil {
		return nil, nil, fmt.Errorf("encode recipients: %w", err)
	}
	fieldList, err = encodeJSON(rev.Version.Fields)
	if err != nil {
		return nil, nil, fmt.Errorf("encode fields: %w", err)
	}
	return recipients, fieldList, nil
}
