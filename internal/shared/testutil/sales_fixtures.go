package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// SalesSheet is the sheet name used by the sales fixtures
const SalesSheet = "Vendas"

// SalesHeaders is the header row of the sales fixture
var SalesHeaders = []string{
	"Numero NF", "Tipo Movimento", "Data Emissao", "Total Produto", "CPF/CNPJ",
	"Razao Social", "Cidade", "UF", "Vendedor", "Codigo Produto", "Produto",
	"Qtd", "Preco Unitario", "Data Vencimento",
}

// SalesRows returns the sales fixture: five lines on four invoices, one of
// them a return, across two salespeople, three customers and two months.
func SalesRows() [][]string {
	return [][]string{
		{"1001", "NF Venda", "03/11/2025", "500,00", "11.111.111/0001-11", "Mercado Sol", "Recife", "PE", "ANA", "3", "Biscoito", "5", "100,00", "03/12/2025"},
		{"1001", "NF Venda", "03/11/2025", "200,00", "11.111.111/0001-11", "Mercado Sol", "Recife", "PE", "ANA", "7", "Bolacha", "4", "50,00", "03/12/2025"},
		{"1002", "NF Venda", "10/12/2025", "300,00", "22.222.222/0001-22", "Padaria Lua", "Olinda", "PE", "ANA", "7", "Bolacha", "6", "50,00", "07/01/2026;14/01/2026"},
		{"1003", "NF Venda", "15/12/2025", "800,00", "33.333.333/0001-33", "Atacado Mar", "Natal", "RN", "BRUNO", "3", "Biscoito", "8", "100,00", "12/01/2026"},
		{"1004", "NF Dev.Venda", "20/12/2025", "100,00", "33.333.333/0001-33", "Atacado Mar", "Natal", "RN", "BRUNO", "3", "Biscoito", "1", "100,00", ""},
	}
}

// ReferenceHeaders is the header row of the reference catalogue fixture
var ReferenceHeaders = []string{"Codigo Produto", "Preco Referencia", "Grupo", "Descricao"}

// ReferenceRows returns the reference catalogue fixture
func ReferenceRows() [][]string {
	return [][]string{
		{"3", "100,00", "Biscoitos", "Biscoito Maizena 400g"},
		{"7", "50,00", "Bolachas", "Bolacha Agua e Sal 200g"},
	}
}

// WriteSalesCSV writes the sales fixture as a semicolon separated file and
// returns its path
func WriteSalesCSV(t *testing.T, dir string) string {
	t.Helper()
	return writeCSV(t, filepath.Join(dir, "vendas.csv"), SalesHeaders, SalesRows())
}

// WriteReferenceCSV writes the reference catalogue fixture and returns its path
func WriteReferenceCSV(t *testing.T, dir string) string {
	t.Helper()
	return writeCSV(t, filepath.Join(dir, "referencia.csv"), ReferenceHeaders, ReferenceRows())
}

// WriteSalesWorkbook writes the sales fixture to an xlsx workbook, below a
// title row, and returns its path
func WriteSalesWorkbook(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "vendas.xlsx")

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), SalesSheet); err != nil {
		t.Fatalf("failed to name sheet: %v", err)
	}
	if err := f.SetCellValue(SalesSheet, "A1", "Relatorio de Vendas"); err != nil {
		t.Fatalf("failed to write title: %v", err)
	}
	rows := append([][]string{SalesHeaders}, SalesRows()...)
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("invalid cell: %v", err)
		}
		if err := f.SetSheetRow(SalesSheet, ref, &cells); err != nil {
			t.Fatalf("failed to write row %d: %v", i, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
	return path
}

func writeCSV(t *testing.T, path string, headers []string, rows [][]string) string {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Comma = ';'
	if err := w.Write(headers); err != nil {
		t.Fatalf("failed to write headers: %v", err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("failed to write rows: %v", err)
	}
	return path
}
