// Package versions persists the PDF bytes of document versions.
//
// Every write is content-aware: a target already holding identical bytes is
// left alone and reported as not written, so retried saves never duplicate
// or corrupt stored files.
package versions

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/rajinweb/contract-esign-sub000/pkg/storage"
)

const contentType = "application/pdf"

// Result describes where a write landed.
type Result struct {
	Key      string `json:"key"`
	FileName string `json:"fileName"`
	// Written is false when the target already held identical content.
	Written bool `json:"written"`
}

// Store writes version files under per-owner storage roots.
type Store struct {
	storage       storage.System
	logger        *slog.Logger
	maxCandidates int
	now           func() time.Time
}

// New creates a Store over the given storage system.
func New(sys storage.System, logger *slog.Logger, cfg Config) *Store {
	n := cfg.MaxCandidates
	if n <= 0 {
		n = DefaultMaxCandidates
	}
	return &Store{
		storage:       sys,
		logger:        logger.With("system", "versions"),
		maxCandidates: n,
		now:           time.Now,
	}
}

// Key joins an owner root and a file name into a storage key.
func Key(owner, fileName string) string {
	root := OwnerRoot(owner)
	if root == "" {
		return fileName
	}
	return path.Join(root, fileName)
}

// DeterministicName returns the file name of a document version.
func DeterministicName(documentID string, version int) string {
	return fmt.Sprintf("%s_v%d.pdf", documentID, version)
}

// WriteDeterministic stores data as {documentID}_v{version}.pdf under the
// owner root. Identical existing content is a no-op; different content is
// replaced.
func (s *Store) WriteDeterministic(ctx context.Context, owner, documentID string, version int, data []byte) (Result, error) {
	name := DeterministicName(documentID, version)
	res, err := s.Overwrite(ctx, Key(owner, name), data)
	if err != nil {
		return Result{}, fmt.Errorf("deterministic write: %w", err)
	}
	return res, nil
}

// WriteStable stores data under a name derived from baseName that does not
// clobber other content. Candidates are tried in order: the version-suffixed
// name when preferredVersion > 1, the base name, a content-hash suffix, a
// bounded _v1.._vN scan, and finally a timestamp suffix. A candidate already
// holding identical content is reused.
func (s *Store) WriteStable(ctx context.Context, owner, baseName string, data []byte, preferredVersion int) (Result, error) {
	if len(data) == 0 {
		return Result{}, ErrEmptyContent
	}

	base := stem(SanitizeFilename(baseName))

	for _, name := range s.candidates(base, data, preferredVersion) {
		key := Key(owner, name)

		st, err := s.state(ctx, key, data)
		if err != nil {
			s.logger.Warn("stable candidate check failed", "key", key, "error", err)
			continue
		}

		switch st {
		case stateSame:
			return Result{Key: key, FileName: name}, nil
		case stateDifferent:
			continue
		}

		if err := s.upload(ctx, key, data); err != nil {
			s.logger.Warn("stable candidate write failed", "key", key, "error", err)
			continue
		}
		return Result{Key: key, FileName: name, Written: true}, nil
	}

	name := fmt.Sprintf("%s_%d.pdf", base, s.now().UnixNano())
	key := Key(owner, name)
	if err := s.upload(ctx, key, data); err != nil {
		return Result{}, fmt.Errorf("stable write: %w", err)
	}

	s.logger.Warn("stable writer fell back to timestamp name", "key", key)
	return Result{Key: key, FileName: name, Written: true}, nil
}

// WriteNamed stores data at the sanitized file name under the owner root.
// It returns ErrExists when a different file already occupies the name.
func (s *Store) WriteNamed(ctx context.Context, owner, fileName string, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, ErrEmptyContent
	}

	name := SanitizeFilename(fileName)
	key := Key(owner, name)

	st, err := s.state(ctx, key, data)
	if err != nil {
		return Result{}, err
	}

	switch st {
	case stateSame:
		return Result{Key: key, FileName: name}, nil
	case stateDifferent:
		return Result{}, fmt.Errorf("%w: %s", ErrExists, name)
	}

	if err := s.upload(ctx, key, data); err != nil {
		return Result{}, err
	}
	return Result{Key: key, FileName: name, Written: true}, nil
}

// Overwrite replaces the content at key unless it is already identical.
func (s *Store) Overwrite(ctx context.Context, key string, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, ErrEmptyContent
	}

	res := Result{Key: key, FileName: path.Base(key)}

	st, err := s.state(ctx, key, data)
	if err != nil {
		return Result{}, err
	}
	if st == stateSame {
		return res, nil
	}

	if err := s.upload(ctx, key, data); err != nil {
		return Result{}, err
	}
	res.Written = true
	return res, nil
}

// Copy duplicates the file at src to dst.
func (s *Store) Copy(ctx context.Context, src, dst string) (Result, error) {
	data, err := s.Read(ctx, src)
	if err != nil {
		return Result{}, fmt.Errorf("copy source %s: %w", src, err)
	}
	return s.Overwrite(ctx, dst, data)
}

// Exists reports whether a file is stored at key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	return s.storage.Exists(ctx, key)
}

// Read returns the content stored at key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := storage.ReadAll(ctx, s.storage, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *Store) candidates(base string, data []byte, preferredVersion int) []string {
	names := make([]string, 0, s.maxCandidates+3)
	if preferredVersion > 1 {
		names = append(names, fmt.Sprintf("%s_v%d.pdf", base, preferredVersion))
	}
	names = append(names, base+".pdf", fmt.Sprintf("%s_%s.pdf", base, ContentHash(data)))
	for i := 1; i <= s.maxCandidates; i++ {
		names = append(names, fmt.Sprintf("%s_v%d.pdf", base, i))
	}
	return names
}

type contentState int

const (
	stateAbsent contentState = iota
	stateSame
	stateDifferent
)

func (s *Store) state(ctx context.Context, key string, data []byte) (contentState, error) {
	existing, err := storage.ReadAll(ctx, s.storage, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return stateAbsent, nil
		}
		return stateAbsent, err
	}
	if bytes.Equal(existing, data) {
		return stateSame, nil
	}
	return stateDifferent, nil
}

func (s *Store) upload(ctx context.Context, key string, data []byte) error {
	return s.storage.Upload(ctx, key, bytes.NewReader(data), contentType)
}

// ContentHash returns the first 12 hex characters of the SHA-256 of data.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12]
}
