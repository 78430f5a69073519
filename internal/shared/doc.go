// Package shared holds helpers used by more than one package that belong to
// no single layer.
//
// The testutil subpackage provides a capturing slog handler and sales
// spreadsheet fixtures:
//
//	logger, logs := testutil.NewTestLogger(t)
//	path := testutil.WriteSalesWorkbook(t, t.TempDir())
//
// testutil must not import the pipeline packages, so that their own tests can
// use it.
package shared
