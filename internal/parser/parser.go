package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// ErrUnsupportedFormat is returned by ForFile for unknown extensions.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// DefaultMaxTableDepth bounds nested table loading. A top-level table is
// depth 1.
const DefaultMaxTableDepth = 5

// Loader converts raw document bytes into a flat block stream.
type Loader interface {
	Load(r io.Reader, filename string) (*doctree.Document, error)
}

// Options tune every loader returned by ForFile.
type Options struct {
	MaxTableDepth int
	// PDFFallback shells out to pdftotext when the Go PDF reader fails.
	PDFFallback bool
}

func (o Options) maxDepth() int {
	if o.MaxTableDepth <= 0 {
		return DefaultMaxTableDepth
	}
	return o.MaxTableDepth
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate loader for a filename.
func ForFile(filename string, opts Options) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextLoader{}, nil
	case ".md", ".markdown":
		return &MarkdownLoader{MaxTableDepth: opts.maxDepth()}, nil
	case ".csv":
		return &CSVLoader{}, nil
	case ".html", ".htm":
		return &HTMLLoader{MaxTableDepth: opts.maxDepth()}, nil
	case ".pdf":
		return &PDFLoader{FallbackPdftotext: opts.PDFFallback}, nil
	case ".docx":
		return &DOCXLoader{MaxTableDepth: opts.maxDepth()}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
