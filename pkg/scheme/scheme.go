/*
Package scheme implements the version model used by the bump engine:
a semantic core triple with optional prerelease, postrelease and
devrelease counters plus opaque build metadata, formatted in one of two
dialects that differ only in how build metadata is delimited.
*/
package scheme

import (
	"fmt"
	"strings"
)

// Scheme selects a formatting dialect. The zero value is SemVer2.
type Scheme struct {
	npm bool
}

var (
	// SemVer2 delimits build metadata with '+', like semver.org.
	SemVer2 = Scheme{}

	// SemVer2Npm delimits build metadata with '-' so that the full
	// version string survives tools that strip '+' suffixes from npm
	// package versions. Every other rule is identical to SemVer2.
	SemVer2Npm = Scheme{npm: true}
)

func (s Scheme) Name() string {
	if s.npm {
		return "semver2-npm"
	}
	return "semver2"
}

func (s Scheme) String() string {
	return s.Name()
}

func (s Scheme) metadataDelimiter() byte {
	if s.npm {
		return '-'
	}
	return '+'
}

// ByName resolves a scheme from its configuration name. The empty
// string resolves to SemVer2.
func ByName(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "semver2", "semver":
		return SemVer2, nil
	case "semver2-npm", "semver2npm", "npm":
		return SemVer2Npm, nil
	}
	return Scheme{}, fmt.Errorf("unknown version scheme %q", name)
}

// New constructs a final release version with the given core triple.
func (s Scheme) New(major, minor, patch uint64) Version {
	return Version{scheme: s, major: major, minor: minor, patch: patch}
}

// MustParse is a Parse that panics on malformed input, for use with
// version literals known to be valid.
func (s Scheme) MustParse(text string) Version {
	v, err := s.Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// channelOrder is the precedence of the recognized prerelease channels,
// lowest first. Unrecognized channel names take part in equality checks
// only.
var channelOrder = []string{"alpha", "beta", "rc"}

// ChannelRank reports the position of a channel in the fixed precedence
// list, or false if the channel is not a recognized name.
func ChannelRank(label string) (int, bool) {
	for i, name := range channelOrder {
		if name == label {
			return i, true
		}
	}
	return 0, false
}

// NextChannel returns the channel that follows label in the precedence
// list. The last recognized channel and any unrecognized channel have
// no successor.
func NextChannel(label string) (string, bool) {
	rank, ok := ChannelRank(label)
	if !ok || rank+1 >= len(channelOrder) {
		return "", false
	}
	return channelOrder[rank+1], true
}

// ValidateChannel reports whether label is usable as a prerelease
// channel: non-empty, alphanumeric, and not one of the reserved
// modifier names.
func ValidateChannel(label string) error {
	if label == "" {
		return fmt.Errorf("prerelease channel is empty: %w", ErrInvalidChannel)
	}
	if !labelPattern.MatchString(label) {
		return fmt.Errorf("prerelease channel %q contains characters outside [0-9A-Za-z]: %w", label, ErrInvalidChannel)
	}
	if label == postLabel || label == devLabel {
		return fmt.Errorf("prerelease channel %q is a reserved modifier name: %w", label, ErrInvalidChannel)
	}
	return nil
}
