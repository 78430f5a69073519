package dataprocessing

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// writeWorkbook builds an xlsx with a cover sheet and a sales sheet whose
// header sits below a title row
func writeWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "Capa"))
	require.NoError(t, f.SetCellValue("Capa", "A1", "Relatório de vendas"))

	_, err := f.NewSheet("Vendas")
	require.NoError(t, err)
	rows := [][]interface{}{
		{"Exportado em 01/02/2026"},
		{"Número NF", "Tipo Mov", "Data Emissão", "Total Produto", "CPF/CNPJ", "Vendedor"},
		{"1001", "NF Venda", 46009, 1500.5, "123", "ANA"},
		{},
		{"1002", "NF Dev.Venda", "19/12/2025", "150,00", "456", "BRUNO"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Vendas", cell, &row))
	}
	return f
}

func TestParseXLSX(t *testing.T) {
	f := writeWorkbook(t)
	path := filepath.Join(t.TempDir(), "vendas.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := ParseFile(path, "")
	require.NoError(t, err)

	assert.Equal(t, "Vendas", table.Sheet, "sheet with the best header is picked")
	assert.Equal(t, 1, table.HeaderRow)
	assert.Equal(t, "Número NF", table.Headers[0])
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "46009", table.Rows[0][2], "dates arrive as raw serials")
	assert.Equal(t, "1500.5", table.Rows[0][3])
	assert.Equal(t, 3, table.RowNumber(0))
	assert.Equal(t, 5, table.RowNumber(2))

	t.Run("named sheet", func(t *testing.T) {
		table, err := ParseFile(path, "Capa")
		require.NoError(t, err)
		assert.Equal(t, "Capa", table.Sheet)
	})

	t.Run("missing sheet", func(t *testing.T) {
		_, err := ParseFile(path, "Nope")
		assert.Error(t, err)
	})
}

func TestParseBytesSniffsContent(t *testing.T) {
	f := writeWorkbook(t)
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	table, err := ParseBytes("upload", buf.Bytes(), "")
	require.NoError(t, err)
	assert.Equal(t, "Vendas", table.Sheet)

	table, err = ParseBytes("", []byte("Numero_NF;TipoMov\n1;NF Venda\n"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Numero_NF", "TipoMov"}, table.Headers)

	_, err = ParseBytes("vendas.pdf", []byte("%PDF"), "")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ParseBytes("", []byte{0x00, 0x01, 0x02}, "")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseCSV(t *testing.T) {
	t.Run("latin1 semicolon", func(t *testing.T) {
		text := "Número NF;Razão Social;Total Produto\n1001;Açougue São José;1.234,56\n"
		latin1, err := charmap.ISO8859_1.NewEncoder().String(text)
		require.NoError(t, err)

		table, err := ParseCSV(strings.NewReader(latin1))
		require.NoError(t, err)
		assert.Equal(t, []string{"Número NF", "Razão Social", "Total Produto"}, table.Headers)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, "Açougue São José", table.Rows[0][1])
		assert.Equal(t, "1.234,56", table.Rows[0][2])
		assert.Equal(t, NumbersDisplay, table.Numbers)
	})

	t.Run("utf8 bom comma", func(t *testing.T) {
		table, err := ParseCSV(strings.NewReader("\xEF\xBB\xBFNumero_NF,TipoMov\n1,NF Venda\n"))
		require.NoError(t, err)
		assert.Equal(t, "Numero_NF", table.Headers[0])
		assert.Equal(t, "csv", table.Sheet)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrNoHeader)
	})
}

func TestParseFileUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendas.json")
	_, err := ParseFile(path, "")
	assert.Error(t, err)
}

func TestTableFromValues(t *testing.T) {
	values := [][]interface{}{
		{"Numero_NF", "TotalProduto", "Ativo"},
		{"1001", 1500.5, true},
		{nil, float64(46009)},
	}

	table, err := TableFromValues("Sheet1", values)
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", table.Sheet)
	assert.Equal(t, []string{"1001", "1500.5", "true"}, table.Rows[0])
	assert.Equal(t, []string{"", "46009"}, table.Rows[1])
	assert.Equal(t, NumbersRaw, table.Numbers)

	_, err = TableFromValues("Sheet1", nil)
	assert.ErrorIs(t, err, ErrNoHeader)
}
