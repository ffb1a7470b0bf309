package config

import "errors"

// Validation errors returned by Config.Validate.
var (
	ErrEmptyQueryURL    = errors.New("query URL cannot be empty")
	ErrEmptyWhere       = errors.New("where clause cannot be empty (use 1=1 to select all)")
	ErrInvalidPageSize  = errors.New("page size must be positive")
	ErrInvalidTimeout   = errors.New("timeout must be positive")
	ErrEmptyOutputFile  = errors.New("output file cannot be empty")
	ErrNoProcessCommand = errors.New("process command cannot be empty unless processing is skipped")
)
