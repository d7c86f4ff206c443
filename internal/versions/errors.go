package versions

import "errors"

var (
	// ErrExists indicates a different file already occupies the requested name.
	ErrExists = errors.New("a different file already exists with this name")
	// ErrNotFound indicates no file is stored at the requested key.
	ErrNotFound = errors.New("version file not found")
	// ErrEmptyContent indicates an attempt to store an empty payload.
	ErrEmptyContent = errors.New("version content is empty")
)
