package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesbi/internal/shared/testutil"
)

func TestManagerSaveUpload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	logger, logs := testutil.NewTestLogger(t)
	m := NewManager(dir, logger)
	m.now = func() time.Time { return time.Date(2025, 12, 20, 14, 30, 0, 0, time.UTC) }

	path, err := m.SaveUpload("Vendas Dezembro.XLSX", []byte("PK\x03\x04data"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "20251220T143000_Vendas Dezembro.xlsx"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK\x03\x04data", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be gone")

	testutil.AssertLogAttr(t, logs, "path", path)

	latest, err := NewDiscovery("").LatestSpreadsheet(m.BaseDir())
	require.NoError(t, err)
	assert.Equal(t, path, latest.Path)
}

func TestManagerSaveUploadStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, nil)

	path, err := m.SaveUpload("../../etc/vendas.csv", []byte("a;b"))
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
}

func TestManagerSaveUploadRejectsNonSpreadsheet(t *testing.T) {
	m := NewManager(t.TempDir(), nil)

	for _, name := range []string{"", "notes.txt", "vendas"} {
		_, err := m.SaveUpload(name, []byte("x"))
		assert.Error(t, err, name)
	}
}
