// Package domain defines domain-level errors for the ingest feature.
package domain

import "errors"

// Batch-scoped failures. Any of these stops an upload before a single row is parsed.
var (
	// ErrFileTooLarge indicates the upload exceeds the configured size ceiling.
	ErrFileTooLarge = errors.New("file exceeds the maximum upload size")

	// ErrUnsupportedFileType indicates the upload is neither a .csv file nor text/csv.
	ErrUnsupportedFileType = errors.New("unsupported file type: expected .csv or text/csv")

	// ErrUndecodableFile indicates the file content could not be decoded into rows.
	ErrUndecodableFile = errors.New("failed to parse CSV file")

	// ErrDatasetNotFound is returned when a dataset does not exist or has expired.
	ErrDatasetNotFound = errors.New("dataset not found")
)
