package scheme

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	postLabel = "post"
	devLabel  = "dev"
)

var (
	corePattern     = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)$`)
	numberPattern   = regexp.MustCompile(`^(0|[1-9]\d*)$`)
	labelPattern    = regexp.MustCompile(`^[0-9A-Za-z]+$`)
	metadataPattern = regexp.MustCompile(`^[0-9A-Za-z-]+$`)
)

// Version is an immutable parsed version. The zero value is 0.0.0 in
// the SemVer2 dialect.
type Version struct {
	scheme   Scheme
	major    uint64
	minor    uint64
	patch    uint64
	pre      *prerelease
	post     *uint64
	dev      *uint64
	metadata string
}

type prerelease struct {
	label  string
	number uint64
}

// modifiers holds the dash-introduced counters of a version string
// while they are being parsed, before they are attached to a Version.
type modifiers struct {
	pre  *prerelease
	post *uint64
	dev  *uint64
}

// Parse reads a version string into the scheme's version model. A
// single leading "v" is tolerated and not preserved. Both dialects
// accept the same inputs; the scheme only determines how the result is
// formatted again.
func (s Scheme) Parse(text string) (Version, error) {
	v := Version{scheme: s}
	rest := strings.TrimPrefix(text, "v")

	if i := strings.IndexByte(rest, '+'); i >= 0 {
		meta := rest[i+1:]
		if !metadataPattern.MatchString(meta) {
			return Version{}, fmt.Errorf("build metadata %q of %q is not a non-empty [0-9A-Za-z-] word: %w", meta, text, ErrMalformedMetadata)
		}
		v.metadata = meta
		rest = rest[:i]
	}

	core := rest
	tail := ""
	dashed := false
	if i := strings.IndexByte(rest, '-'); i >= 0 {
		core, tail = rest[:i], rest[i+1:]
		dashed = true
	}

	m := corePattern.FindStringSubmatch(core)
	if m == nil {
		return Version{}, fmt.Errorf("core of %q is not a dotted numeric triple: %w", text, ErrMalformedCore)
	}
	var err error
	if v.major, err = parseNumber(m[1]); err != nil {
		return Version{}, fmt.Errorf("major component of %q: %w", text, ErrMalformedCore)
	}
	if v.minor, err = parseNumber(m[2]); err != nil {
		return Version{}, fmt.Errorf("minor component of %q: %w", text, ErrMalformedCore)
	}
	if v.patch, err = parseNumber(m[3]); err != nil {
		return Version{}, fmt.Errorf("patch component of %q: %w", text, ErrMalformedCore)
	}

	if dashed {
		if err := v.parseTail(tail, text); err != nil {
			return Version{}, err
		}
	}
	return v, nil
}

// parseTail interprets everything that followed the first '-'. When the
// '+' form of metadata was already consumed the tail must be a pure
// modifier chain. Otherwise the tail is read, in order of preference,
// as a modifier chain, as a modifier chain followed by '-' and
// metadata, or as bare metadata. Metadata never contains '.' and
// modifier chains never contain '-', so the readings do not overlap.
func (v *Version) parseTail(tail, input string) error {
	if tail == "" {
		return fmt.Errorf("%q has a trailing '-' with nothing after it: %w", input, ErrMalformedModifier)
	}

	if v.metadata != "" {
		mods, err := parseModifiers(tail, input)
		if err != nil {
			return err
		}
		v.apply(mods)
		return nil
	}

	if mods, err := parseModifiers(tail, input); err == nil {
		v.apply(mods)
		return nil
	}

	if i := strings.IndexByte(tail, '-'); i >= 0 {
		if mods, err := parseModifiers(tail[:i], input); err == nil {
			meta := tail[i+1:]
			if !metadataPattern.MatchString(meta) {
				return fmt.Errorf("build metadata %q of %q is not a non-empty [0-9A-Za-z-] word: %w", meta, input, ErrMalformedMetadata)
			}
			v.apply(mods)
			v.metadata = meta
			return nil
		}
	}

	if !strings.Contains(tail, ".") && metadataPattern.MatchString(tail) {
		v.metadata = tail
		return nil
	}

	_, err := parseModifiers(tail, input)
	return err
}

func (v *Version) apply(mods modifiers) {
	v.pre = mods.pre
	v.post = mods.post
	v.dev = mods.dev
}

// parseModifiers reads a dot-joined chain of label/index pairs. "post"
// and "dev" select their counters; any other label names a prerelease
// channel. Each kind may appear at most once, in any order.
func parseModifiers(s, input string) (modifiers, error) {
	var mods modifiers
	tokens := strings.Split(s, ".")
	if len(tokens)%2 != 0 {
		return modifiers{}, fmt.Errorf("modifiers %q of %q do not form label.index pairs: %w", s, input, ErrMalformedModifier)
	}
	for i := 0; i < len(tokens); i += 2 {
		label, index := tokens[i], tokens[i+1]
		if !labelPattern.MatchString(label) {
			return modifiers{}, fmt.Errorf("modifier label %q of %q is not a [0-9A-Za-z] word: %w", label, input, ErrMalformedModifier)
		}
		if !numberPattern.MatchString(index) {
			return modifiers{}, fmt.Errorf("modifier index %q of %q is not a non-negative number: %w", index, input, ErrMalformedModifier)
		}
		n, err := parseNumber(index)
		if err != nil {
			return modifiers{}, fmt.Errorf("modifier index %q of %q: %w", index, input, ErrMalformedModifier)
		}
		switch label {
		case postLabel:
			if mods.post != nil {
				return modifiers{}, fmt.Errorf("%q repeats the post modifier: %w", input, ErrMalformedModifier)
			}
			mods.post = &n
		case devLabel:
			if mods.dev != nil {
				return modifiers{}, fmt.Errorf("%q repeats the dev modifier: %w", input, ErrMalformedModifier)
			}
			mods.dev = &n
		default:
			if mods.pre != nil {
				return modifiers{}, fmt.Errorf("%q carries more than one prerelease channel: %w", input, ErrMalformedModifier)
			}
			mods.pre = &prerelease{label: label, number: n}
		}
	}
	return mods, nil
}

func parseNumber(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

// String serializes the version in its scheme's dialect. Modifiers
// always appear in prerelease, post, dev order regardless of the order
// they were parsed in.
func (v Version) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", v.major, v.minor, v.patch)
	sep := byte('-')
	if v.pre != nil {
		fmt.Fprintf(&b, "%c%s.%d", sep, v.pre.label, v.pre.number)
		sep = '.'
	}
	if v.post != nil {
		fmt.Fprintf(&b, "%c%s.%d", sep, postLabel, *v.post)
		sep = '.'
	}
	if v.dev != nil {
		fmt.Fprintf(&b, "%c%s.%d", sep, devLabel, *v.dev)
		sep = '.'
	}
	if v.metadata != "" {
		b.WriteByte(v.scheme.metadataDelimiter())
		b.WriteString(v.metadata)
	}
	return b.String()
}

func (v Version) Scheme() Scheme { return v.scheme }
func (v Version) Major() uint64  { return v.major }
func (v Version) Minor() uint64  { return v.minor }
func (v Version) Patch() uint64  { return v.patch }

// Prerelease returns the prerelease channel and index, if any.
func (v Version) Prerelease() (label string, number uint64, ok bool) {
	if v.pre == nil {
		return "", 0, false
	}
	return v.pre.label, v.pre.number, true
}

// Postrelease returns the postrelease counter, if any.
func (v Version) Postrelease() (uint64, bool) {
	if v.post == nil {
		return 0, false
	}
	return *v.post, true
}

// Devrelease returns the devrelease counter, if any.
func (v Version) Devrelease() (uint64, bool) {
	if v.dev == nil {
		return 0, false
	}
	return *v.dev, true
}

func (v Version) Metadata() string { return v.metadata }

// IsFinal reports whether the version carries no prerelease, post or
// dev modifier. Build metadata does not affect finality.
func (v Version) IsFinal() bool {
	return v.pre == nil && v.post == nil && v.dev == nil
}

func (v Version) IsPrerelease() bool { return v.pre != nil }

// Core returns the version reduced to its numeric triple, with the
// same scheme.
func (v Version) Core() Version {
	return Version{scheme: v.scheme, major: v.major, minor: v.minor, patch: v.patch}
}

// WithMetadata returns a copy of the version carrying the given build
// metadata, or with metadata removed when meta is empty. Unlike Bump
// this changes nothing else, which suits hotfix tags that mark an
// existing release rather than produce a new one.
func (v Version) WithMetadata(meta string) (Version, error) {
	if meta != "" && !metadataPattern.MatchString(meta) {
		return Version{}, fmt.Errorf("build metadata %q is not a [0-9A-Za-z-] word: %w", meta, ErrInvalidMetadata)
	}
	v.metadata = meta
	return v, nil
}

// In returns the same version rendered under another scheme.
func (v Version) In(s Scheme) Version {
	v.scheme = s
	return v
}

// Compare orders two versions: -1 when v is lower than o, 0 when they
// are equal, 1 when v is higher. The core triple is compared
// numerically, a final version sorts above any prerelease of the same
// triple, postreleases sort above their base, devreleases sort below
// theirs. Build metadata and the scheme are ignored.
func (v Version) Compare(o Version) int {
	if d := compareNumbers(v.major, o.major); d != 0 {
		return d
	}
	if d := compareNumbers(v.minor, o.minor); d != 0 {
		return d
	}
	if d := compareNumbers(v.patch, o.patch); d != 0 {
		return d
	}
	if d := comparePre(v.pre, o.pre); d != 0 {
		return d
	}
	if d := compareCounter(v.post, o.post, false); d != 0 {
		return d
	}
	return compareCounter(v.dev, o.dev, true)
}

// Equal reports whether the versions compare as the same release.
// Build metadata is ignored, matching Compare.
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// LessThan reports whether v sorts before o.
func (v Version) LessThan(o Version) bool {
	return v.Compare(o) < 0
}

func compareNumbers(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func comparePre(a, b *prerelease) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	if d := strings.Compare(a.label, b.label); d != 0 {
		return d
	}
	return compareNumbers(a.number, b.number)
}

// compareCounter orders optional counters. With belowBase set an
// absent counter sorts above a present one, which places devreleases
// before the version they lead up to.
func compareCounter(a, b *uint64, belowBase bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		if belowBase {
			return 1
		}
		return -1
	case b == nil:
		if belowBase {
			return -1
		}
		return 1
	}
	return compareNumbers(*a, *b)
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The scheme already
// present on the receiver is kept, so an unmarshaled zero Version uses
// the SemVer2 dialect.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := v.scheme.Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
