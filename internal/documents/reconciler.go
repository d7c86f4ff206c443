package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/rajinweb/contract-esign-sub000/internal/fields"
	"github.com/rajinweb/contract-esign-sub000/internal/render"
	"github.com/rajinweb/contract-esign-sub000/internal/versions"
	"github.com/rajinweb/contract-esign-sub000/pkg/metrics"
)

var outcomeMessages = map[string]string{
	OutcomeCreated:   MessageCreated,
	OutcomeUnchanged: MessageUnchanged,
	OutcomeUpdated:   MessageUpdated,
	OutcomeHealed:    MessageHealed,
	OutcomeForked:    MessageForked,
}

// FileURL returns the retrieval URL for a stored version file.
func FileURL(key string) string {
	return "/api/storage/file?path=" + url.QueryEscape(key)
}

// Reconciler decides for every save whether the edit continues the open
// version in place, heals a missing or corrupt version file, or forks a new version
// because the current one is closed.
type Reconciler struct {
	store    Store
	versions *versions.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(store Store, vs *versions.Store, m *metrics.Metrics, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		versions: vs,
		metrics:  m,
		logger:   logger.With("system", "reconciler"),
	}
}

// Save applies cmd on behalf of the session owner.
func (r *Reconciler) Save(ctx context.Context, s Session, cmd SaveCommand) (*SaveResult, error) {
	if s.OwnerID == "" {
		return nil, ErrForbidden
	}
	if len(cmd.Data) == 0 {
		return nil, fmt.Errorf("%w: no PDF content", ErrInvalidFile)
	}

	pages, err := render.PageCount(cmd.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	if cmd.DocumentID == nil {
		return r.create(ctx, s, cmd, pages)
	}

	doc, err := r.store.Find(ctx, *cmd.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != s.OwnerID {
		return nil, ErrForbidden
	}
	if cmd.BaseVersion != nil && *cmd.BaseVersion != doc.CurrentVersion {
		return nil, fmt.Errorf("%w: base version %d, current version %d",
			ErrConflict, *cmd.BaseVersion, doc.CurrentVersion)
	}

	current, err := r.store.FindVersion(ctx, doc.ID, doc.CurrentVersion)
	if err != nil {
		return nil, err
	}

	logger := r.logger.With(
		"document_id", doc.ID,
		"version", current.Version,
		"request_id", s.RequestID,
	)

	if current.Open() {
		return r.continueSession(ctx, logger, s, cmd, doc, current, pages)
	}
	return r.fork(ctx, logger, s, cmd, doc, current, pages)
}

func (r *Reconciler) create(ctx context.Context, s Session, cmd SaveCommand, pages int) (*SaveResult, error) {
	name := strings.TrimSpace(cmd.Name)
	fileName := strings.TrimSpace(cmd.FileName)
	if fileName == "" {
		fileName = name
	}
	if name == "" {
		name = strings.TrimSuffix(versions.SanitizeFilename(fileName), ".pdf")
	}

	res, err := r.versions.WriteNamed(ctx, s.OwnerID, fileName, cmd.Data)
	if err != nil {
		r.logger.Warn("named write failed, using stable writer",
			"file_name", fileName, "error", err)
		r.metrics.RecordFallback("named")

		res, err = r.versions.WriteStable(ctx, s.OwnerID, fileName, cmd.Data, 1)
		if err != nil {
			r.metrics.RecordFallback("stable")
			return nil, fmt.Errorf("store initial version: %w", err)
		}
	}

	doc := Document{
		ID:             uuid.New(),
		OwnerID:        s.OwnerID,
		Name:           name,
		FileName:       res.FileName,
		Status:         StatusDraft,
		CurrentVersion: 1,
		Recipients:     countAssigned(cmd.Recipients, cmd.Fields),
	}

	first := Version{
		Version:   1,
		FilePath:  res.Key,
		FileName:  res.FileName,
		Status:    VersionDraft,
		Fields:    cmd.Fields,
		PDFData:   cmd.Data,
		PageCount: pages,
		ChangeLog: changeLog(cmd.ChangeLog, "Initial version"),
	}

	created, err := r.store.Create(ctx, doc, first)
	if err != nil {
		if res.Written {
			r.logger.Warn("document insert failed, version file left in place",
				"key", res.Key, "error", err)
		}
		return nil, err
	}

	r.logger.Info("document created",
		"document_id", created.ID, "key", res.Key, "request_id", s.RequestID)
	return r.result(OutcomeCreated, created.ID, 1, res.Key, res.FileName), nil
}

func (r *Reconciler) continueSession(
	ctx context.Context,
	logger *slog.Logger,
	s Session,
	cmd SaveCommand,
	doc *Document,
	current *Version,
	pages int,
) (*SaveResult, error) {
	incoming := fields.Replay(cmd.Fields, current.Fields, signedLookup(doc.Recipients))
	recipients := r.mergeRecipients(doc.Recipients, cmd.Recipients, incoming)

	key := current.FilePath
	fileName := firstNonEmpty(current.FileName, doc.FileName)

	healed := false
	intact, err := r.intact(ctx, key, current.PDFData, cmd.Data)
	if err != nil {
		logger.Warn("version file check failed, treating as corrupt", "key", key, "error", err)
	}
	if !intact {
		res, err := r.heal(ctx, logger, s, doc, current, fileName, cmd.Data)
		if err != nil {
			return nil, err
		}
		key, fileName = res.Key, res.FileName
		healed = true
	}

	rename := cmd.FileName != "" && versions.SanitizeFilename(cmd.FileName) != fileName
	name := firstNonEmpty(strings.TrimSpace(cmd.Name), doc.Name)

	changed := healed ||
		rename ||
		name != doc.Name ||
		!fields.Equal(incoming, current.Fields) ||
		!bytes.Equal(cmd.Data, current.PDFData) ||
		!slices.EqualFunc(recipients, doc.Recipients, Recipient.Equal)

	if !changed {
		logger.Debug("save unchanged")
		return r.result(OutcomeUnchanged, doc.ID, current.Version, key, fileName), nil
	}

	switch {
	case rename:
		res, err := r.writeRenamed(ctx, logger, s, doc, current, cmd.FileName, cmd.Data)
		if err != nil {
			return nil, err
		}
		logger.Info("version renamed", "from", fileName, "to", res.FileName)
		key, fileName = res.Key, res.FileName
	case !healed:
		res, err := r.overwrite(ctx, logger, s, doc, current, key, fileName, cmd.Data)
		if err != nil {
			return nil, err
		}
		key, fileName = res.Key, res.FileName
	}

	next := *current
	next.FilePath = key
	next.FileName = fileName
	next.Fields = incoming
	next.PDFData = cmd.Data
	next.PageCount = pages
	if cmd.ChangeLog != "" {
		next.ChangeLog = cmd.ChangeLog
	}

	docFileName := doc.FileName
	if rename {
		docFileName = fileName
	}

	rev := Revision{
		Name:       name,
		FileName:   docFileName,
		Status:     doc.Status,
		Recipients: recipients,
		Version:    next,
	}
	if err := r.store.UpdateVersion(ctx, doc.ID, rev); err != nil {
		return nil, fmt.Errorf("update version %d: %w", current.Version, err)
	}

	if healed {
		logger.Info("version healed", "key", key)
		return r.result(OutcomeHealed, doc.ID, current.Version, key, fileName), nil
	}

	logger.Info("version updated", "key", key)
	return r.result(OutcomeUpdated, doc.ID, current.Version, key, fileName), nil
}

func (r *Reconciler) fork(
	ctx context.Context,
	logger *slog.Logger,
	s Session,
	cmd SaveCommand,
	doc *Document,
	current *Version,
	pages int,
) (*SaveResult, error) {
	next := current.Version + 1
	incoming := fields.Replay(cmd.Fields, current.Fields, signedLookup(doc.Recipients))
	recipients := r.mergeRecipients(doc.Recipients, cmd.Recipients, incoming)

	res, err := r.forkFile(ctx, logger, s, doc, current, next, cmd.Data)
	if err != nil {
		return nil, err
	}

	rev := Revision{
		Name:       firstNonEmpty(strings.TrimSpace(cmd.Name), doc.Name),
		FileName:   doc.FileName,
		Status:     StatusDraft,
		Recipients: recipients,
		Version: Version{
			DocumentID: doc.ID,
			Version:    next,
			FilePath:   res.Key,
			FileName:   res.FileName,
			Status:     VersionDraft,
			Fields:     incoming,
			PDFData:    cmd.Data,
			PageCount:  pages,
			ChangeLog:  changeLog(cmd.ChangeLog, fmt.Sprintf("Edited after version %d was finalized", current.Version)),
		},
	}

	if err := r.store.AppendVersion(ctx, doc.ID, current.Version, rev); err != nil {
		return nil, fmt.Errorf("append version %d: %w", next, err)
	}

	logger.Info("version forked", "new_version", next, "key", res.Key, "previous_status", current.Status)
	return r.result(OutcomeForked, doc.ID, next, res.Key, res.FileName), nil
}

// intact reports whether the file at key holds one of the known contents of
// the version: the stored payload or the incoming bytes.
func (r *Reconciler) intact(ctx context.Context, key string, known ...[]byte) (bool, error) {
	if key == "" {
		return false, nil
	}

	stored, err := r.versions.Read(ctx, key)
	if err != nil {
		if errors.Is(err, versions.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	for _, data := range known {
		if len(data) > 0 && bytes.Equal(stored, data) {
			return true, nil
		}
	}
	return false, nil
}

// heal restores a missing or corrupt version file from the incoming bytes:
// first under the recorded file name, then through the deterministic and
// stable writers.
func (r *Reconciler) heal(
	ctx context.Context,
	logger *slog.Logger,
	s Session,
	doc *Document,
	current *Version,
	fileName string,
	data []byte,
) (versions.Result, error) {
	logger.Warn("version file missing or corrupt, healing", "key", current.FilePath)

	if fileName != "" {
		res, err := r.versions.WriteNamed(ctx, s.OwnerID, fileName, data)
		if err == nil {
			return res, nil
		}
		logger.Warn("heal under recorded name failed", "file_name", fileName, "error", err)
		r.metrics.RecordFallback("named")
	}

	return r.durable(ctx, logger, s, doc, current.Version, fileName, data)
}

func (r *Reconciler) overwrite(
	ctx context.Context,
	logger *slog.Logger,
	s Session,
	doc *Document,
	current *Version,
	key, fileName string,
	data []byte,
) (versions.Result, error) {
	res, err := r.versions.Overwrite(ctx, key, data)
	if err == nil {
		return res, nil
	}

	logger.Warn("overwrite failed", "key", key, "error", err)
	r.metrics.RecordFallback("overwrite")
	return r.durable(ctx, logger, s, doc, current.Version, fileName, data)
}

func (r *Reconciler) writeRenamed(
	ctx context.Context,
	logger *slog.Logger,
	s Session,
	doc *Document,
	current *Version,
	fileName string,
	data []byte,
) (versions.Result, error) {
	res, err := r.versions.WriteNamed(ctx, s.OwnerID, fileName, data)
	if err == nil {
		return res, nil
	}

	logger.Warn("rename target unavailable", "file_name", fileName, "error", err)
	r.metrics.RecordFallback("named")

	res, err = r.versions.WriteStable(ctx, s.OwnerID, fileName, data, current.Version)
	if err == nil {
		return res, nil
	}

	r.metrics.RecordFallback("stable")
	return r.durable(ctx, logger, s, doc, current.Version, fileName, data)
}

// forkFile derives the new version's file from the most recent known-good
// source: the previous version's file, then the document's original file,
// then the incoming bytes. A copied file is then brought up to the incoming
// bytes so the file always matches the new version's payload.
func (r *Reconciler) forkFile(
	ctx context.Context,
	logger *slog.Logger,
	s Session,
	doc *Document,
	current *Version,
	next int,
	data []byte,
) (versions.Result, error) {
	target := versions.Key(s.OwnerID, versions.DeterministicName(doc.ID.String(), next))

	sources := []string{current.FilePath}
	if doc.FileName != "" {
		sources = append(sources, versions.Key(s.OwnerID, versions.SanitizeFilename(doc.FileName)))
	}

	for _, src := range sources {
		if src == "" || src == target {
			continue
		}
		ok, err := r.versions.Exists(ctx, src)
		if err != nil || !ok {
			continue
		}

		if _, err := r.versions.Copy(ctx, src, target); err != nil {
			logger.Warn("fork copy failed", "source", src, "target", target, "error", err)
			r.metrics.RecordFallback("copy")
			continue
		}

		res, err := r.versions.Overwrite(ctx, target, data)
		if err == nil {
			return res, nil
		}
		logger.Warn("fork overwrite failed", "target", target, "error", err)
		r.metrics.RecordFallback("overwrite")
		break
	}

	return r.durable(ctx, logger, s, doc, next, doc.FileName, data)
}

// durable writes data through the deterministic writer and, failing that,
// the stable writer whose timestamp candidate always succeeds on a working
// store.
func (r *Reconciler) durable(
	ctx context.Context,
	logger *slog.Logger,
	s Session,
	doc *Document,
	version int,
	baseName string,
	data []byte,
) (versions.Result, error) {
	res, err := r.versions.WriteDeterministic(ctx, s.OwnerID, doc.ID.String(), version, data)
	if err == nil {
		return res, nil
	}

	logger.Warn("deterministic write failed", "error", err)
	r.metrics.RecordFallback("deterministic")

	if baseName == "" {
		baseName = doc.ID.String()
	}

	res, stableErr := r.versions.WriteStable(ctx, s.OwnerID, baseName, data, version)
	if stableErr != nil {
		r.metrics.RecordFallback("stable")
		return versions.Result{}, fmt.Errorf("every version writer failed: %w", errors.Join(err, stableErr))
	}
	return res, nil
}

// mergeRecipients keeps the stored recipients when the request carries none
// and refreshes assigned field counts.
func (r *Reconciler) mergeRecipients(stored, incoming []Recipient, list []fields.Field) []Recipient {
	if incoming == nil {
		incoming = stored
	}
	return countAssigned(incoming, list)
}

func (r *Reconciler) result(outcome string, id uuid.UUID, version int, key, fileName string) *SaveResult {
	r.metrics.RecordSave(outcome)

	return &SaveResult{
		Success:    true,
		DocumentID: id,
		Version:    version,
		FileURL:    FileURL(key),
		FileName:   fileName,
		Message:    outcomeMessages[outcome],
		Outcome:    outcome,
	}
}

func changeLog(log, fallback string) string {
	if s := strings.TrimSpace(log); s != "" {
		return s
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
