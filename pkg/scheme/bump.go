package scheme

import (
	"fmt"
	"strings"
)

// Increment names the core component a bump raises.
type Increment string

const (
	Major Increment = "MAJOR"
	Minor Increment = "MINOR"
	Patch Increment = "PATCH"
)

// ParseIncrement normalizes a user-supplied increment name. The empty
// string maps to the absent increment.
func ParseIncrement(s string) (Increment, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "MAJOR":
		return Major, nil
	case "MINOR":
		return Minor, nil
	case "PATCH":
		return Patch, nil
	}
	return "", fmt.Errorf("unknown increment %q, want MAJOR, MINOR or PATCH", s)
}

// Counter returns a pointer to n, for filling the optional counter
// fields of a BumpRequest.
func Counter(n uint64) *uint64 {
	return &n
}

// BumpRequest describes one bump. Zero-valued fields are absent: no
// increment, no prerelease channel, no devrelease, no postrelease, no
// metadata.
type BumpRequest struct {
	Increment   Increment
	Prerelease  string
	Devrelease  *uint64
	Postrelease bool
	Metadata    string
}

func (r BumpRequest) isEmpty() bool {
	return r.Increment == "" && r.Prerelease == "" && r.Devrelease == nil && !r.Postrelease
}

// Bump derives the next version from the current one. The request must
// name at least one of increment, prerelease, devrelease or
// postrelease; metadata alone does not change a version. The current
// version's metadata is never carried into the result.
func (v Version) Bump(req BumpRequest) (Version, error) {
	if req.isEmpty() {
		return Version{}, fmt.Errorf("bumping %q: %w", v, ErrNoOperation)
	}
	if req.Prerelease != "" {
		if err := ValidateChannel(req.Prerelease); err != nil {
			return Version{}, err
		}
	}
	if req.Metadata != "" && !metadataPattern.MatchString(req.Metadata) {
		return Version{}, fmt.Errorf("build metadata %q is not a [0-9A-Za-z-] word: %w", req.Metadata, ErrInvalidMetadata)
	}

	next := v.Core()
	incremented := true
	switch req.Increment {
	case Major:
		next.major, next.minor, next.patch = v.major+1, 0, 0
	case Minor:
		next.minor, next.patch = v.minor+1, 0
	case Patch:
		next.patch = v.patch + 1
	case "":
		incremented = false
	default:
		return Version{}, fmt.Errorf("unknown increment %q, want MAJOR, MINOR or PATCH", req.Increment)
	}

	switch {
	case req.Prerelease == "":
		// An increment-free bump refines the current chain, so an
		// existing prerelease survives it.
		if !incremented && v.pre != nil {
			pre := *v.pre
			next.pre = &pre
		}
	case !incremented && v.pre != nil && v.pre.label == req.Prerelease:
		next.pre = &prerelease{label: req.Prerelease, number: v.pre.number + 1}
	default:
		next.pre = &prerelease{label: req.Prerelease}
	}

	if req.Postrelease {
		var n uint64
		if !incremented && v.post != nil {
			n = *v.post + 1
		}
		next.post = &n
	}

	if req.Devrelease != nil {
		n := *req.Devrelease
		next.dev = &n
	}

	next.metadata = req.Metadata
	return next, nil
}
