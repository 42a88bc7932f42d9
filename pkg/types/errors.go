package types

import "errors"

// Construction errors. These are fatal to Initialize.
var (
	ErrMissingVersion     = errors.New("version identifier is missing")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrUnknownSchema      = errors.New("unknown schema")
	ErrInvalidDocument    = errors.New("not a valid vinv document")
)

// Mutation errors. The Document is left unchanged.
var (
	ErrInvalidRecord = errors.New("record attributes do not match the record schema")
	ErrDuplicateID   = errors.New("record id already exists")
	ErrUninitialized = errors.New("inventory is not initialized")
)

// ErrMalformedInput reports text that could not be decoded. The codec
// recovers from it by falling back to the default document.
var ErrMalformedInput = errors.New("malformed inventory input")
