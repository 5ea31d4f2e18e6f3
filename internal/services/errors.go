package services

import "errors"

// Dashboard service errors
var (
	// ErrNoUploads is returned for a batch without files.
	ErrNoUploads = errors.New("no files uploaded")

	// ErrNoDataset is returned when a chart or export is requested before a
	// batch produced data.
	ErrNoDataset = errors.New("no consolidated dataset")
)
