package files

import (
	"context"
	"fmt"
	"path/filepath"

	"salesbi/internal/dataprocessing"
)

// Source kinds, used as the "source" metric attribute
const (
	KindFile   = "file"
	KindSheets = "sheets"
	KindUpload = "upload"
)

// Document is a raw table and where it was read from
type Document struct {
	Name  string
	Kind  string
	Table *dataprocessing.RawTable
}

// Source yields the raw sales or reference table
type Source interface {
	Kind() string
	Load(ctx context.Context) (*Document, error)
}

// FileSource reads a local spreadsheet. With no path it reads the newest
// spreadsheet in dir.
type FileSource struct {
	path      string
	dir       string
	sheet     string
	discovery *Discovery
}

// NewFileSource creates a file source. sheet may be blank.
func NewFileSource(path, dir, sheet string) *FileSource {
	return &FileSource{
		path:      path,
		dir:       dir,
		sheet:     sheet,
		discovery: NewDiscovery(""),
	}
}

// Kind implements Source
func (s *FileSource) Kind() string { return KindFile }

// Resolve returns the file Load would read
func (s *FileSource) Resolve() (string, error) {
	if s.path != "" {
		return s.path, nil
	}
	if s.dir == "" {
		return "", fmt.Errorf("%w: no file or directory configured", ErrNoSpreadsheet)
	}
	latest, err := s.discovery.LatestSpreadsheet(s.dir)
	if err != nil {
		return "", err
	}
	return latest.Path, nil
}

// Load implements Source
func (s *FileSource) Load(ctx context.Context) (*Document, error) {
	path, err := s.Resolve()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, err := dataprocessing.ParseFile(path, s.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return &Document{Name: path, Kind: KindFile, Table: table}, nil
}

// UploadSource parses a spreadsheet received through the API
type UploadSource struct {
	name  string
	data  []byte
	sheet string
}

// NewUploadSource creates an upload source. name supplies the format by its
// extension.
func NewUploadSource(name string, data []byte, sheet string) *UploadSource {
	return &UploadSource{name: name, data: data, sheet: sheet}
}

// Kind implements Source
func (s *UploadSource) Kind() string { return KindUpload }

// Load implements Source
func (s *UploadSource) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, err := dataprocessing.ParseBytes(s.name, s.data, s.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", s.name, err)
	}
	return &Document{Name: s.name, Kind: KindUpload, Table: table}, nil
}

// LoadCatalog reads a reference table from src and indexes it. Unreadable
// prices are returned as issues, not errors.
func LoadCatalog(ctx context.Context, src Source) (*dataprocessing.Catalog, []*dataprocessing.MalformedRowError, error) {
	doc, err := src.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	catalog, issues, err := dataprocessing.BuildCatalog(doc.Table)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build catalogue from %s: %w", doc.Name, err)
	}
	return catalog, issues, nil
}
