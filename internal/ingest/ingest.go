package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

// Options controls how raw bytes become a table.
type Options struct {
	// Delimiter for delimited text. If 0, sniffed from the file name and header line.
	Delimiter rune
	// Number pins locale separators; zero fields auto-detect per value.
	Number table.NumberFormat
	// Sheet selects an XLSX worksheet by name; empty means the first sheet.
	Sheet string
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
}

// DefaultOptions returns options suitable for most uploads.
func DefaultOptions() Options { return Options{} }

// Reader turns file contents into a table.
type Reader interface {
	CanRead(filename string) bool
	Read(data []byte, filename string, opt Options) (*table.Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// ErrUnsupported indicates the file type cannot be ingested.
var ErrUnsupported = errors.New("unsupported file format")

// ReadAny loads a table from raw bytes, choosing a reader by file name.
func ReadAny(data []byte, filename string) (*table.Table, error) {
	return ReadAnyWith(data, filename, DefaultOptions())
}

// ReadAnyWith is ReadAny with explicit options. Unknown extensions fall back to CSV.
func ReadAnyWith(data []byte, filename string, opt Options) (*table.Table, error) {
	if len(data) == 0 {
		return nil, apperr.Ingestion(nil, "%s is empty", filename)
	}
	if strings.EqualFold(filepath.Ext(filename), ".xls") {
		return nil, apperr.Ingestion(ErrUnsupported, "legacy .xls workbook %s (save it as .xlsx)", filename)
	}
	for _, r := range registry {
		if r.CanRead(filename) {
			t, err := r.Read(data, filename, opt)
			if err != nil {
				return nil, apperr.Ingestion(err, "read %s", filename)
			}
			return t, nil
		}
	}
	if !utf8.Valid(data) {
		return nil, apperr.Ingestion(ErrUnsupported, "unsupported file type for %s", filename)
	}
	t, err := csvReader{}.Read(data, filename, opt)
	if err != nil {
		return nil, apperr.Ingestion(fmt.Errorf("%w: %v", ErrUnsupported, err), "unsupported file type for %s", filename)
	}
	return t, nil
}

// ReadFile reads path from disk and ingests it.
func ReadFile(path string, opt Options) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Ingestion(err, "read file")
	}
	return ReadAnyWith(data, filepath.Base(path), opt)
}
