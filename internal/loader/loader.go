// Package loader turns an uploaded file into ordered page-like text units.
// The dispatch is a closed set keyed on the file extension; each strategy
// returns langchaingo schema documents carrying a positional metadata field.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/schema"
)

var (
	// ErrUnsupportedFormat is returned when the file extension matches no
	// known strategy.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrLoad wraps failures to read or parse a file of a supported format.
	ErrLoad = errors.New("load document failed")
)

// Load inspects the extension (case-insensitive) and runs the matching
// strategy. It reads the file and nothing else.
func Load(path string) ([]schema.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return loadPDF(path)
	case ".txt":
		return loadText(path)
	case ".docx":
		return loadWord(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func loadErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrLoad, op, err)
}
