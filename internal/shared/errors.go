package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidArchive  = fmt.Errorf("invalid archive")
	ErrMissingStoreDir = fmt.Errorf("missing 'db' folder in archive")

	// Store errors
	ErrStoreOpen = fmt.Errorf("history store open failed")
	ErrStoreRead = fmt.Errorf("history store read failed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrRemoteService      = fmt.Errorf("remote service error")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrAppendFailed       = fmt.Errorf("playlist append failed")

	// Per-song errors, never fatal
	ErrNoMatch = fmt.Errorf("no catalog match")
)

// ErrorKind classifies an error for callers that map failures to responses or exit codes.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInput
	KindStore
	KindRemote
	KindMatch
)

func (k ErrorKind) String() string {
	switch k {
	case KindInput:
		return "input_validation"
	case KindStore:
		return "store_access"
	case KindRemote:
		return "remote_service"
	case KindMatch:
		return "match_failure"
	default:
		return "unknown"
	}
}

// Classify reports which error class err belongs to.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrMissingConfig),
		errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrMissingArgument),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrInvalidArchive),
		errors.Is(err, ErrMissingStoreDir),
		errors.Is(err, ErrMissingCredentials),
		errors.Is(err, ErrInvalidCredentials):
		return KindInput
	case errors.Is(err, ErrStoreOpen), errors.Is(err, ErrStoreRead):
		return KindStore
	case errors.Is(err, ErrRemoteService),
		errors.Is(err, ErrAPIRequest),
		errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, ErrAppendFailed):
		return KindRemote
	case errors.Is(err, ErrNoMatch):
		return KindMatch
	default:
		return KindUnknown
	}
}
