package upload

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// File describes one uploaded file after it has been persisted.
type File struct {
	FieldName    string `json:"fieldName"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	Location     string `json:"location"`
}

// Storage persists one uploaded file stream and returns its location.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader) (location string, err error)
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithMaxFileSize caps the size of a single uploaded part in bytes.
func WithMaxFileSize(limit int64) ParserOption {
	return func(p *Parser) {
		if limit > 0 {
			p.maxFileSize = limit
		}
	}
}

// Parser reads multipart bodies part by part, streaming file parts into the
// backend without buffering them whole in memory.
type Parser struct {
	storage     Storage
	maxFileSize int64
}

// NewParser creates a multipart parser backed by the given storage.
func NewParser(storage Storage, opts ...ParserOption) *Parser {
	if storage == nil {
		panic("upload: storage is required")
	}
	p := &Parser{
		storage:     storage,
		maxFileSize: 32 << 20, // 32MB per file
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts every file part of a multipart request. Non-file parts are
// skipped; the caller binds them separately as form values if needed.
func (p *Parser) Parse(r *http.Request) ([]File, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMultipart, err)
	}

	var files []File
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotMultipart, err)
		}

		if part.FileName() == "" {
			_ = part.Close()
			continue
		}

		f, err := p.savePart(r.Context(), part.FormName(), part.FileName(), part.Header.Get("Content-Type"), part)
		_ = part.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	return files, nil
}

func (p *Parser) savePart(ctx context.Context, field, filename, mimeType string, r io.Reader) (File, error) {
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(filename))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
	}

	// Reading one byte past the cap detects oversized parts without
	// trusting client-provided lengths.
	counted := &countingReader{r: io.LimitReader(r, p.maxFileSize+1)}
	location, err := p.storage.Save(ctx, SanitizeFilename(filename), counted)
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	if counted.n > p.maxFileSize {
		return File{}, fmt.Errorf("%w: %q", ErrTooLarge, filename)
	}

	return File{
		FieldName:    field,
		OriginalName: filename,
		MimeType:     mimeType,
		Size:         counted.n,
		Location:     location,
	}, nil
}

// SanitizeFilename strips path components and characters unsafe for storage keys.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "unnamed"
	}
	name = strings.ReplaceAll(name, "..", "")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "unnamed"
	}
	return b.String()
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
