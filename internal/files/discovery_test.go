package files

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, mod time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

func TestIsSpreadsheet(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"vendas.xlsx", true},
		{"VENDAS.XLS", true},
		{"vendas.xlsm", true},
		{"vendas.csv", true},
		{"vendas.pdf", false},
		{"vendas", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSpreadsheet(tt.name))
		})
	}
}

func TestFindSpreadsheets(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)

	touch(t, dir, "novembro.xlsx", base.Add(2*time.Hour))
	touch(t, dir, "outubro.xls", base)
	touch(t, dir, "dezembro.csv", base.Add(4*time.Hour))
	touch(t, dir, "notas.pdf", base.Add(5*time.Hour))
	touch(t, dir, "~$novembro.xlsx", base.Add(6*time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "arquivo.xlsx"), 0755))

	files, err := NewDiscovery("").FindSpreadsheets(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"outubro.xls", "novembro.xlsx", "dezembro.csv"}, names)
}

func TestFindSpreadsheetsRelativeToBase(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "data"), 0755))
	touch(t, filepath.Join(base, "data"), "vendas.xlsx", time.Now())

	files, err := NewDiscovery(base).FindSpreadsheets("data")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(base, "data", "vendas.xlsx"), files[0].Path)
}

func TestFindSpreadsheetsMissingDir(t *testing.T) {
	_, err := NewDiscovery("").FindSpreadsheets(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLatestSpreadsheet(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	touch(t, dir, "a.xlsx", base)
	want := touch(t, dir, "b.csv", base.Add(time.Hour))

	latest, err := NewDiscovery("").LatestSpreadsheet(dir)
	require.NoError(t, err)
	assert.Equal(t, want, latest.Path)

	_, err = NewDiscovery("").LatestSpreadsheet(t.TempDir())
	assert.True(t, errors.Is(err, ErrNoSpreadsheet))
}

func TestGetLatestFile(t *testing.T) {
	_, ok := GetLatestFile(nil)
	assert.False(t, ok)

	now := time.Now()
	latest, ok := GetLatestFile([]FileInfo{
		{Name: "a", ModTime: now},
		{Name: "b", ModTime: now.Add(time.Minute)},
		{Name: "c", ModTime: now.Add(time.Minute)},
	})
	require.True(t, ok)
	assert.Equal(t, "c", latest.Name)
}
