package common

import (
	"errors"
)

// Common error constants
var (
	// ErrInvalidURL is returned when a submitted scraping URL does not parse
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrTenantRequired is returned when an operation is attempted without a tenant
	ErrTenantRequired = errors.New("tenant context required")

	// ErrUnsupportedFormat is returned when an import file format is not recognised
	ErrUnsupportedFormat = errors.New("unsupported import format")

	// ErrInvalidTransition is returned when a job status transition would move backward
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrRunInProgress is returned when a processing run is already active for the tenant
	ErrRunInProgress = errors.New("processing run already in progress")
)
