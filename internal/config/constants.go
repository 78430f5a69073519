package config

// Application constants
const (
	// Application Info
	AppName    = "salesbi"
	AppVersion = "1.0.0"

	// Processing
	MaxReportedIssues = 100
	CancelCheckEvery  = 1000

	// Export
	ExportFilePrefix = "sales-report"
	DateLayout       = "2006-01-02"
)
