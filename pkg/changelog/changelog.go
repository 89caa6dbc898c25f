package changelog

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/leodido/go-conventionalcommits"
	ccparser "github.com/leodido/go-conventionalcommits/parser"

	"github.com/engineai-dev/commitizen/pkg/scheme"
)

// Entry is one merged change, usually a pull request, destined for the
// release notes.
type Entry struct {
	Number      int
	Date        string
	Author      string
	Title       string
	Description string
	Tickets     []string
}

type CrossLink struct {
	Name    string
	Version string
	URL     string
}

type Generator struct {
	ticketMatcher *regexp.Regexp
}

func NewGenerator(jiraBoards []string) *Generator {
	var ticketMatcher *regexp.Regexp
	if len(jiraBoards) > 0 {
		pattern := fmt.Sprintf("(?i)\\b(%s)[-\\s]\\d+\\b", strings.Join(jiraBoards, "|"))
		ticketMatcher = regexp.MustCompile(pattern)
	}

	return &Generator{
		ticketMatcher: ticketMatcher,
	}
}

func (g *Generator) ExtractTickets(text string) []string {
	if g.ticketMatcher == nil {
		return []string{}
	}

	matches := g.ticketMatcher.FindAllString(text, -1)
	return removeDuplicates(matches)
}

func ParsePRNumber(commitMessage string) (int, error) {
	patterns := []string{
		`\bpull request #(\d+)\b`,
		`\(#(\d+)\)`,
		`(?:^|\s)#(\d+)\b`,
	}

	for _, pattern := range patterns {
		re := regexp.MustCompile(pattern)
		matches := re.FindStringSubmatch(commitMessage)
		if len(matches) > 1 {
			return strconv.Atoi(matches[1])
		}
	}

	return 0, fmt.Errorf("no PR number found in commit message: %s", commitMessage)
}

func newCommitMachine() conventionalcommits.Machine {
	return ccparser.NewMachine(
		conventionalcommits.WithTypes(conventionalcommits.TypesConventional),
		conventionalcommits.WithBestEffort(),
	)
}

// parseCommit reads one message as a conventional commit, or nil when
// it is not one.
func parseCommit(machine conventionalcommits.Machine, message string) *conventionalcommits.ConventionalCommit {
	res, _ := machine.Parse([]byte(message))
	if res == nil {
		return nil
	}
	commit, ok := res.(*conventionalcommits.ConventionalCommit)
	if !ok {
		return nil
	}
	return commit
}

// DetectIncrement derives the core increment a set of commit messages
// asks for, following the conventional commits convention: a breaking
// change selects MAJOR, a feat selects MINOR, a fix, perf or refactor
// selects PATCH. Messages that are not conventional commits are
// ignored. The second return is false when no message selected an
// increment.
func DetectIncrement(messages []string) (scheme.Increment, bool) {
	machine := newCommitMachine()

	best := scheme.Increment("")
	for _, message := range messages {
		commit := parseCommit(machine, message)
		if commit == nil {
			continue
		}
		switch {
		case commit.IsBreakingChange():
			return scheme.Major, true
		case commit.Type == "feat":
			best = scheme.Minor
		case commit.Type == "fix" || commit.Type == "perf" || commit.Type == "refactor":
			if best == "" {
				best = scheme.Patch
			}
		}
	}
	return best, best != ""
}

// commitKind maps a message to its release notes group, with "" for
// messages that are not conventional commits.
func commitKind(machine conventionalcommits.Machine, message string) string {
	commit := parseCommit(machine, message)
	if commit == nil {
		return ""
	}
	if commit.IsBreakingChange() {
		return "breaking"
	}
	return commit.Type
}

// sectionOrder fixes how commit type groups appear in release notes.
var sectionOrder = map[string]int{
	"breaking": 0,
	"feat":     1,
	"fix":      2,
	"perf":     3,
	"refactor": 4,
}

var sectionTitles = map[string]string{
	"breaking": "Breaking Changes",
	"feat":     "Features",
	"fix":      "Fixes",
	"perf":     "Performance",
	"refactor": "Refactoring",
}

// BuildChangeSections groups entries by the conventional commit type of
// their title and renders one markdown section per group. Entries
// without a conventional type are collected under Other.
func BuildChangeSections(entries []Entry) string {
	machine := newCommitMachine()
	groups := make(map[string][]Entry)
	for _, entry := range entries {
		kind := commitKind(machine, entry.Title)
		if _, known := sectionOrder[kind]; !known {
			kind = "other"
		}
		groups[kind] = append(groups[kind], entry)
	}
	if len(groups) == 0 {
		return ""
	}

	kinds := make([]string, 0, len(groups))
	for kind := range groups {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		ri, ok := sectionOrder[kinds[i]]
		if !ok {
			ri = len(sectionOrder)
		}
		rj, ok := sectionOrder[kinds[j]]
		if !ok {
			rj = len(sectionOrder)
		}
		return ri < rj
	})

	var builder strings.Builder
	for _, kind := range kinds {
		title, ok := sectionTitles[kind]
		if !ok {
			title = "Other"
		}
		builder.WriteString(fmt.Sprintf("### %s\n\n", title))
		for _, entry := range groups[kind] {
			builder.WriteString(fmt.Sprintf("- %s (#%d)\n", escapeMarkdownTable(entry.Title), entry.Number))
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

func BuildCrossLinksString(crossLinks []CrossLink) string {
	if len(crossLinks) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString("## Related Releases\n\n")

	for _, link := range crossLinks {
		builder.WriteString(fmt.Sprintf("- [%s v%s](%s)\n", link.Name, link.Version, link.URL))
	}
	builder.WriteString("\n------\n\n")
	return builder.String()
}

func normalizeTicket(ticket string) string {
	normalized := strings.ToUpper(ticket)
	normalized = strings.ReplaceAll(normalized, " ", "-")
	return normalized
}

func BuildEntriesTableString(entries []Entry, jiraEnabled bool, jiraOrgId string) string {
	var builder strings.Builder

	header := "| PR # | Author | Title | Merged Date |"
	separator := "|------|--------|-------|-------------|"

	if jiraEnabled {
		header += " Ticket # |"
		separator += "----------|"
	}
	builder.WriteString(header + "\n")
	builder.WriteString(separator + "\n")

	for _, entry := range entries {
		// Collapse long descriptions behind the title
		escapedTitle := escapeMarkdownTable(entry.Title)
		titleCell := escapedTitle
		if entry.Description != "" {
			escapedDescription := escapeMarkdownTable(entry.Description)
			titleCell = fmt.Sprintf("<details><summary>%s</summary><br>%s</details>", escapedTitle, escapedDescription)
		}

		line := fmt.Sprintf("| #%d | %s | %s | %s |",
			entry.Number,
			escapeMarkdownTable(entry.Author),
			titleCell,
			entry.Date)

		if jiraEnabled {
			var ticketLinks []string
			for _, ticket := range entry.Tickets {
				normalizedTicket := normalizeTicket(ticket)
				url := fmt.Sprintf("https://%s.atlassian.net/browse/%s", jiraOrgId, normalizedTicket)
				ticketLinks = append(ticketLinks, fmt.Sprintf("[%s](%s)", normalizedTicket, url))
			}
			line += fmt.Sprintf(" %s |", strings.Join(ticketLinks, ", "))
		}
		builder.WriteString(line + "\n")
	}
	builder.WriteString("\n")

	return builder.String()
}

// BuildReleaseNotes renders the full release notes body: cross links,
// grouped change sections and the pull request table.
func BuildReleaseNotes(entries []Entry, crossLinks []CrossLink, jiraEnabled bool, jiraOrgId string) string {
	var builder strings.Builder
	builder.WriteString(BuildCrossLinksString(crossLinks))
	if sections := BuildChangeSections(entries); sections != "" {
		builder.WriteString("## Changes\n\n")
		builder.WriteString(sections)
	}
	if len(entries) > 0 {
		builder.WriteString(BuildEntriesTableString(entries, jiraEnabled, jiraOrgId))
	}
	return builder.String()
}

// EditChangelog writes the rendered release notes to a temp file, opens
// $EDITOR on it and returns the edited contents.
func EditChangelog(entries []Entry, crossLinks []CrossLink, jiraEnabled bool, jiraOrgId string) (string, error) {
	tmpfile, err := os.CreateTemp("", "changelog-*.md")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpfile.Name())

	changelogText := BuildReleaseNotes(entries, crossLinks, jiraEnabled, jiraOrgId)
	if _, err := tmpfile.Write([]byte(changelogText)); err != nil {
		return "", fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpfile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi" // fallback to vi
	}

	cmd := exec.Command(editor, tmpfile.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run editor: %w", err)
	}

	editedContent, err := os.ReadFile(tmpfile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read edited file: %w", err)
	}

	return string(editedContent), nil
}

func escapeMarkdownTable(text string) string {
	// Escape pipe characters that would break table formatting
	text = strings.ReplaceAll(text, "|", "\\|")
	// Replace newlines with spaces to prevent table row breaks
	text = strings.ReplaceAll(text, "\n", "<br>")
	text = strings.ReplaceAll(text, "\r", "")
	// Replace multiple spaces with single space
	text = regexp.MustCompile(`\s+`).ReplaceAllString(text, " ")
	// Trim whitespace
	text = strings.TrimSpace(text)
	return text
}

func removeDuplicates(input []string) []string {
	seen := make(map[string]struct{})
	result := []string{}

	for _, str := range input {
		upper := strings.ToUpper(str)
		if _, ok := seen[upper]; !ok {
			seen[upper] = struct{}{}
			result = append(result, str)
		}
	}

	return result
}
