// Package services implements the business logic layer of salesbi. It sits
// between the HTTP handlers and the CLI on one side and the processing
// pipeline on the other, so both front ends share one set of rules.
//
// # Services
//
//	- ReportService: loads, caches and reloads the dataset, accepts uploads,
//	  and computes and exports reports over an immutable snapshot
//	- HealthService: liveness, readiness and version information
//
// # Dataset lifecycle
//
// The dataset is loaded lazily on first use and kept for CacheTTL. Concurrent
// reloads share one load. A failed refresh keeps serving the previous
// snapshot; with nothing loaded the error surfaces as ErrSourceUnavailable,
// or ErrNoDataset when no source is configured. Uploaded spreadsheets replace
// the snapshot and stay until the next explicit reload or upload.
//
// # Parameters
//
// ReportParams carries the report filters. Handlers read it with
// ParamsFromQuery, validate it with the shared validator tags and convert it
// with Criteria:
//
//	params, err := services.ParamsFromQuery(r.URL.Query())
//	if err == nil {
//	    err = validator.Struct(params)
//	}
//	result, err := reports.Report(ctx, "revenue_by_region", params)
//
// # Testing
//
// Sources are mocked with testify:
//
//	src := &MockSource{}
//	src.On("Load", mock.Anything).Return(doc, nil)
//	svc := NewReportService(src, processor, ReportServiceConfig{}, logger)
package services
