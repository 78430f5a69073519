package files

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesbi/internal/dataprocessing"
	"salesbi/internal/shared/testutil"
)

func TestFileSourcePath(t *testing.T) {
	path := testutil.WriteSalesWorkbook(t, t.TempDir())

	doc, err := NewFileSource(path, "", "").Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, path, doc.Name)
	assert.Equal(t, KindFile, doc.Kind)
	assert.Equal(t, testutil.SalesSheet, doc.Table.Sheet)
	assert.Equal(t, testutil.SalesHeaders, doc.Table.Headers)
	assert.Equal(t, len(testutil.SalesRows()), doc.Table.Len())
}

func TestFileSourceLatestInDir(t *testing.T) {
	dir := t.TempDir()
	csvPath := testutil.WriteSalesCSV(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leia-me.txt"), []byte("x"), 0644))

	src := NewFileSource("", dir, "")
	resolved, err := src.Resolve()
	require.NoError(t, err)
	assert.Equal(t, csvPath, resolved)

	doc, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(testutil.SalesRows()), doc.Table.Len())
}

func TestFileSourceErrors(t *testing.T) {
	_, err := NewFileSource("", "", "").Load(context.Background())
	assert.True(t, errors.Is(err, ErrNoSpreadsheet))

	_, err = NewFileSource("", t.TempDir(), "").Load(context.Background())
	assert.True(t, errors.Is(err, ErrNoSpreadsheet))

	pdf := filepath.Join(t.TempDir(), "vendas.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0644))
	_, err = NewFileSource(pdf, "", "").Load(context.Background())
	assert.True(t, errors.Is(err, dataprocessing.ErrUnsupportedFormat))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFileSource(testutil.WriteSalesCSV(t, t.TempDir()), "", "").Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUploadSource(t *testing.T) {
	data, err := os.ReadFile(testutil.WriteSalesWorkbook(t, t.TempDir()))
	require.NoError(t, err)

	doc, err := NewUploadSource("vendas.xlsx", data, "").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindUpload, doc.Kind)
	assert.Equal(t, "vendas.xlsx", doc.Name)
	assert.Equal(t, len(testutil.SalesRows()), doc.Table.Len())

	_, err = NewUploadSource("vendas.docx", data, "").Load(context.Background())
	assert.True(t, errors.Is(err, dataprocessing.ErrUnsupportedFormat))
}

func TestLoadCatalog(t *testing.T) {
	path := testutil.WriteReferenceCSV(t, t.TempDir())

	catalog, issues, err := LoadCatalog(context.Background(), NewFileSource(path, "", ""))
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, 2, catalog.Len())

	product, ok := catalog.Lookup("7")
	require.True(t, ok)
	assert.Equal(t, 50.0, product.ReferencePrice)
	assert.Equal(t, "Bolachas", product.Group)
}

func TestLoadCatalogMissingColumns(t *testing.T) {
	path := testutil.WriteSalesCSV(t, t.TempDir())
	_, _, err := LoadCatalog(context.Background(), NewFileSource(path, "", ""))
	assert.Error(t, err)
}
