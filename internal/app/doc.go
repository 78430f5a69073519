// Package app wires salesbi together: configuration, logging, telemetry,
// sources, services, HTTP routes and the server lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from environment and config.yaml
//	2. Initialize logging and OpenTelemetry
//	3. Pick the sales and reference sources (Google Sheets or files)
//	4. Build the report and health services
//	5. Set up middleware and routes
//	6. Create the HTTP server
//
// # Usage
//
//	app, err := app.NewApplication(ctx)
//	if err != nil {
//	    return err
//	}
//	return app.Run()
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM. In-flight requests are completed within
// the shutdown timeout, the metrics collector is stopped and telemetry is
// flushed. The package never calls os.Exit.
package app
