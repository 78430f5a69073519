// Package dataprocessing turns raw sales spreadsheets into analytics.
//
// # Pipeline
//
// A run reads one sheet into a RawTable, resolves its header through the
// column alias table, then normalizes and derives every row:
//
//	table, err := dataprocessing.ParseFile("vendas.xlsx", "")
//	catalog, _, err := dataprocessing.BuildCatalog(refTable)
//	ds, err := processor.Process(ctx, "vendas.xlsx", table, catalog)
//
// Malformed cells never abort a run. They are defaulted and reported on the
// Dataset as MalformedRowError values.
//
// # Reports
//
// Reports read a View, the filtered slice of a dataset:
//
//	view := dataprocessing.NewView(ds.Transactions, criteria)
//	rows, err := dataprocessing.Compute(domain.ReportRevenueByRegion, view, opts)
//
// Revenue metrics use one line per invoice (DedupeByInvoice). Line level
// reports such as price trend and commission use every line.
package dataprocessing
