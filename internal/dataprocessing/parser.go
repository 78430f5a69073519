package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// ErrUnsupportedFormat is returned for files that are not xlsx, xls or csv
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// Rows scanned when looking for the header row
const headerSearchDepth = 20

// RawTable is one sheet as strings. Headers is the detected header row and
// Rows every row below it, blank rows included, so positions map back to
// sheet rows.
type RawTable struct {
	Sheet     string
	HeaderRow int
	Headers   []string
	Rows      [][]string
	// Numbers is how numeric cells were written; CSV files hold display text
	Numbers NumberFormat
}

// RowNumber returns the 1-based sheet row of Rows[i]
func (t *RawTable) RowNumber(i int) int {
	return t.HeaderRow + i + 2
}

// Len returns the number of rows below the header
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ParseFile reads a spreadsheet by extension. sheet selects an xlsx/xls
// sheet by name; blank picks the sheet whose header matches best.
func ParseFile(path, sheet string) (*RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ParseXLSX(f, sheet)
	case ".xls":
		return ParseXLS(f, sheet)
	case ".csv", ".txt":
		return ParseCSV(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ParseBytes reads an uploaded spreadsheet. The format comes from the file
// name extension, or from the content when the name has none.
func ParseBytes(name string, data []byte, sheet string) (*RawTable, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return ParseXLSX(bytes.NewReader(data), sheet)
	case ".xls":
		return ParseXLS(bytes.NewReader(data), sheet)
	case ".csv", ".txt":
		return ParseCSV(bytes.NewReader(data))
	case "":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}

	switch {
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return ParseXLSX(bytes.NewReader(data), sheet)
	case bytes.HasPrefix(data, []byte{0xD0, 0xCF, 0x11, 0xE0}):
		return ParseXLS(bytes.NewReader(data), sheet)
	case len(data) > 0 && !bytes.ContainsRune(data[:min(len(data), 512)], 0):
		return ParseCSV(bytes.NewReader(data))
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ParseXLSX reads an Office Open XML workbook. Cells are read raw, so
// numbers keep a dot decimal separator and dates arrive as serial numbers.
func ParseXLSX(r io.Reader, sheet string) (*RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if sheet != "" {
		names = []string{sheet}
	}

	var best *RawTable
	for _, name := range names {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			if sheet != "" {
				return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
			}
			continue
		}
		best = betterTable(best, name, rows)
	}
	if best == nil {
		return nil, ErrNoHeader
	}
	return best, nil
}

// ParseXLS reads a legacy BIFF8 workbook
func ParseXLS(r io.ReadSeeker, sheet string) (*RawTable, error) {
	workbook, err := xls.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xls workbook: %w", err)
	}

	var best *RawTable
	for i := 0; i < workbook.GetNumberSheets(); i++ {
		s, err := workbook.GetSheet(i)
		if err != nil || s == nil {
			continue
		}
		name := s.GetName()
		if sheet != "" && name != sheet {
			continue
		}

		var rows [][]string
		for _, row := range s.GetRows() {
			var cells []string
			for _, cell := range row.GetCols() {
				if cell == nil {
					cells = append(cells, "")
					continue
				}
				cells = append(cells, cell.GetString())
			}
			rows = append(rows, cells)
		}
		best = betterTable(best, name, rows)
	}
	if best == nil {
		if sheet != "" {
			return nil, fmt.Errorf("sheet %q not found", sheet)
		}
		return nil, ErrNoHeader
	}
	return best, nil
}

// ParseCSV reads a delimited text file. UTF-8 (with or without BOM) and
// ISO-8859-1 are accepted; the delimiter is ';', ',' or tab, whichever the
// first line uses most.
func ParseCSV(r io.Reader) (*RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	if !utf8.Valid(data) {
		if data, err = charmap.ISO8859_1.NewDecoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("failed to decode csv: %w", err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	table := tableFromRows("csv", rows)
	if table == nil {
		return nil, ErrNoHeader
	}
	table.Numbers = NumbersDisplay
	return table, nil
}

func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, count := ',', bytes.Count(line, []byte(","))
	for _, d := range []rune{';', '\t'} {
		if c := bytes.Count(line, []byte(string(d))); c > count {
			best, count = d, c
		}
	}
	return best
}

// TableFromValues builds a table from a values grid such as a Google Sheets
// range
func TableFromValues(sheet string, values [][]interface{}) (*RawTable, error) {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		rows[i] = cells
	}
	table := tableFromRows(sheet, rows)
	if table == nil {
		return nil, ErrNoHeader
	}
	return table, nil
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// betterTable keeps whichever sheet has the header matching more fields
func betterTable(current *RawTable, name string, rows [][]string) *RawTable {
	candidate := tableFromRows(name, rows)
	if candidate == nil {
		return current
	}
	if current == nil || len(ResolveHeaders(candidate.Headers)) > len(ResolveHeaders(current.Headers)) {
		return candidate
	}
	return current
}

// tableFromRows finds the header row: the first of the leading rows naming
// at least two known fields, else the first non-blank row. Returns nil for
// a sheet without any non-blank row.
func tableFromRows(sheet string, rows [][]string) *RawTable {
	header := -1
	for i := 0; i < len(rows) && i < headerSearchDepth; i++ {
		if len(ResolveHeaders(rows[i])) >= 2 {
			header = i
			break
		}
	}
	if header < 0 {
		for i, row := range rows {
			if !IsBlankRow(row) {
				header = i
				break
			}
		}
	}
	if header < 0 {
		return nil
	}

	headers := make([]string, len(rows[header]))
	for i, h := range rows[header] {
		headers[i] = trimCell(h)
	}
	return &RawTable{
		Sheet:     sheet,
		HeaderRow: header,
		Headers:   headers,
		Rows:      rows[header+1:],
	}
}
