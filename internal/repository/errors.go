package repository

import "errors"

// Branchable outcomes surfaced by repositories so handlers can distinguish
// conflicts from plain failures.
var (
	// ErrJobAlreadyQueued means a live (pending/processing) job already
	// exists for the project; the conditional insert lost to it.
	ErrJobAlreadyQueued = errors.New("a live scrape job already exists for this project")

	// ErrDuplicateReport means the (project, reporter) pair already filed
	// a report.
	ErrDuplicateReport = errors.New("reporter already filed a report for this project")
)
