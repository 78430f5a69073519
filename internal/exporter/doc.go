// Package exporter writes reports as CSV files and xlsx workbooks.
//
// Every report is first converted to a Table by BuildTable. A Table is then
// written either as CSV (UTF-8 with BOM, so spreadsheet tools detect the
// encoding) or as one sheet of a workbook:
//
//	table, err := exporter.BuildTable(domain.ReportCommission, rows)
//	err = exporter.WriteCSV(w, table)
//
//	err = exporter.WriteWorkbook(w, tables)
package exporter
