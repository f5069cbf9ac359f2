// Package errors defines all exported error sentinels for the combogen library.
//
// This is the single source of truth for error values. The top-level
// combogen package, the CLI and the config loader all import from here,
// ensuring errors.Is checks work across package boundaries.
//
// Errors returned by combogen wrap one of the kind sentinels (ErrConfiguration,
// ErrIO, ErrEmptyDictionary, ErrResourceExhausted) and, where one exists, the
// underlying cause, so both errors.Is(err, ErrIO) and
// errors.Is(err, fs.ErrNotExist) hold for a missing dictionary file.
package errors

import "errors"

// Error kinds
var (
	ErrConfiguration     = errors.New("combogen: invalid configuration")
	ErrIO                = errors.New("combogen: i/o failure")
	ErrEmptyDictionary   = errors.New("combogen: dictionary has no usable lines")
	ErrResourceExhausted = errors.New("combogen: resource exhausted")
)

// Configuration errors
var (
	ErrMissingArgument   = errors.New("combogen: missing required argument")
	ErrInvalidLength     = errors.New("combogen: invalid length specification")
	ErrInvalidCount      = errors.New("combogen: invalid item count")
	ErrInvalidBufferSize = errors.New("combogen: invalid buffer size")
)

// Runtime errors
var (
	ErrWrite            = errors.New("combogen: output write failed")
	ErrDictionaryClosed = errors.New("combogen: dictionary is closed")
)
