package scheme

import "errors"

// Parse failures wrap one of these sentinels depending on which part of
// the version string was rejected.
var (
	ErrMalformedCore     = errors.New("malformed version core")
	ErrMalformedModifier = errors.New("malformed version modifier")
	ErrMalformedMetadata = errors.New("malformed build metadata")
)

// Bump failures wrap one of these sentinels.
var (
	ErrNoOperation     = errors.New("bump request contains no operation")
	ErrInvalidChannel  = errors.New("invalid prerelease channel")
	ErrInvalidMetadata = errors.New("invalid build metadata")
)
