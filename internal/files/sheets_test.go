package files

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"salesbi/internal/shared/testutil"
)

const valuesResponse = `{
  "range": "Vendas!A1:N3",
  "majorDimension": "ROWS",
  "values": [
    ["Numero NF", "Tipo Movimento", "Data Emissao", "Total Produto", "CPF/CNPJ", "Razao Social", "Vendedor"],
    ["1001", "NF Venda", 45964, 500, "11.111.111/0001-11", "Mercado Sol", "ANA"],
    ["1002", "NF Venda", 45971, 300.5, "22.222.222/0001-22", "Padaria Lua", "ANA"]
  ]
}`

func newTestSheetsSource(t *testing.T, handler http.HandlerFunc) *SheetsSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger, _ := testutil.NewTestLogger(t)
	src, err := NewSheetsSource(context.Background(), SheetsConfig{
		SpreadsheetID: "sheet-123",
		Range:         "Vendas!A:N",
	}, logger, option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)
	return src
}

func TestSheetsSourceLoad(t *testing.T) {
	var query string
	var path string
	src := newTestSheetsSource(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(valuesResponse))
	})

	doc, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.Contains(path, "sheet-123"))
	assert.Contains(t, query, "valueRenderOption=UNFORMATTED_VALUE")
	assert.Equal(t, KindSheets, doc.Kind)
	assert.Equal(t, "sheets:sheet-123", doc.Name)
	assert.Equal(t, "Vendas!A1:N3", doc.Table.Sheet)
	require.Equal(t, 2, doc.Table.Len())
	assert.Equal(t, []string{"1002", "NF Venda", "45971", "300.5", "22.222.222/0001-22", "Padaria Lua", "ANA"}, doc.Table.Rows[1])
}

func TestSheetsSourceFetchError(t *testing.T) {
	src := newTestSheetsSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied","status":"PERMISSION_DENIED"}}`))
	})

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet-123")
}

func TestSheetsSourceEmptyRange(t *testing.T) {
	src := newTestSheetsSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Vendas!A1:N1","majorDimension":"ROWS"}`))
	})

	_, err := src.Load(context.Background())
	assert.Error(t, err)
}

func TestNewSheetsSourceRequiresID(t *testing.T) {
	_, err := NewSheetsSource(context.Background(), SheetsConfig{}, nil)
	assert.Error(t, err)
}
