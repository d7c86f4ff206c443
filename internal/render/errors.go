package render

import "errors"

var (
	// ErrInvalidPDF indicates source bytes that cannot be read as a PDF.
	ErrInvalidPDF = errors.New("invalid PDF")
	// ErrImport indicates a failure importing source pages into the output.
	ErrImport = errors.New("import source pages")
)
