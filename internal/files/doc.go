// Package files locates and loads the spreadsheets the pipeline reads.
//
// Discovery finds spreadsheets on disk and picks the most recent one.
// Manager keeps copies of uploaded spreadsheets. The Source implementations
// turn a local file, an upload or a Google Sheets range into a raw table:
//
//	src := files.NewFileSource(cfg.Source.Path, cfg.Source.Dir, cfg.Source.Sheet)
//	doc, err := src.Load(ctx)
//	ds, err := processor.Process(ctx, doc.Name, doc.Table, catalog)
package files
