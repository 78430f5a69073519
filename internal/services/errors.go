package services

import "errors"

// Report service errors
var (
	// ErrNoDataset is returned when nothing has been loaded and no source is
	// configured to load from
	ErrNoDataset = errors.New("no dataset loaded")

	// ErrSourceUnavailable wraps failures to fetch or parse the configured
	// source while no earlier dataset can be served
	ErrSourceUnavailable = errors.New("sales source unavailable")

	// ErrEmptyUpload is returned for an upload without content
	ErrEmptyUpload = errors.New("uploaded file is empty")
)
