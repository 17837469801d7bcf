package stats

import "errors"

var (
	ErrInvalidRoute    = errors.New("route is missing or not a valid path")
	ErrInvalidDuration = errors.New("durationMs must be a positive number of milliseconds")
	ErrInvalidScope    = errors.New("scope must be either session or route")
	ErrMissingRoute    = errors.New("route is required when scope is route")
	ErrInvalidRange    = errors.New("unknown range preset")
	ErrUnknownSite     = errors.New("unknown site identifier")
)
