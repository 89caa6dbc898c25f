/*
Package files rewrites the version strings tracked in project files
when a bump lands, so manifests and source constants stay in step with
the configured version.
*/
package files

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/engineai-dev/commitizen/pkg/logging"
)

// Target names a file whose contents carry the project version. An
// entry has the form "path" or "path:regex". The regex selects the
// lines to rewrite; without one, every line containing the current
// version is rewritten. The path itself cannot contain a colon.
type Target struct {
	Path    string
	pattern *regexp.Regexp
}

func ParseTarget(entry string) (Target, error) {
	path, expr, found := strings.Cut(entry, ":")
	if path == "" {
		return Target{}, fmt.Errorf("version file entry %q has no path", entry)
	}
	t := Target{Path: path}
	if found && expr != "" {
		pattern, err := regexp.Compile(expr)
		if err != nil {
			return Target{}, fmt.Errorf("failed to compile line filter for %s: %w", path, err)
		}
		t.pattern = pattern
	}
	return t, nil
}

// matches reports whether a line is eligible for rewriting.
func (t Target) matches(line, current string) bool {
	if t.pattern != nil {
		return t.pattern.MatchString(line)
	}
	return strings.Contains(line, current)
}

type Rewriter struct {
	logger *logging.Logger
}

func NewRewriter(logger *logging.Logger) *Rewriter {
	return &Rewriter{logger: logger}
}

// Apply replaces current with next in every configured target and
// reports the total number of rewritten lines. Targets whose filter
// matches no line are logged and skipped; unreadable targets abort.
func (r *Rewriter) Apply(entries []string, current, next string) (int, error) {
	total := 0
	for _, entry := range entries {
		target, err := ParseTarget(entry)
		if err != nil {
			return total, err
		}
		changed, err := r.rewrite(target, current, next)
		if err != nil {
			return total, err
		}
		if changed == 0 {
			r.logger.Warn("No lines carrying %s found in %s", current, target.Path)
			continue
		}
		r.logger.Info("Updated %d version line(s) in %s", changed, target.Path)
		total += changed
	}
	return total, nil
}

func (r *Rewriter) rewrite(target Target, current, next string) (int, error) {
	info, err := os.Stat(target.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat version file %s: %w", target.Path, err)
	}
	contents, err := os.ReadFile(target.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to read version file %s: %w", target.Path, err)
	}

	changed := 0
	lines := strings.SplitAfter(string(contents), "\n")
	for i, line := range lines {
		if !target.matches(line, current) {
			continue
		}
		rewritten := strings.ReplaceAll(line, current, next)
		if rewritten != line {
			lines[i] = rewritten
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}

	if err := os.WriteFile(target.Path, []byte(strings.Join(lines, "")), info.Mode()); err != nil {
		return 0, fmt.Errorf("failed to write version file %s: %w", target.Path, err)
	}
	return changed, nil
}
