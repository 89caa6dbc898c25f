package changelog

import (
	"strings"
	"testing"

	"github.com/engineai-dev/commitizen/pkg/scheme"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name       string
		jiraBoards []string
		hasRegex   bool
	}{
		{"with JIRA boards", []string{"TEST", "PROJ"}, true},
		{"without JIRA boards", []string{}, false},
		{"nil JIRA boards", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := NewGenerator(tt.jiraBoards)

			hasRegex := generator.ticketMatcher != nil
			if hasRegex != tt.hasRegex {
				t.Errorf("Expected hasRegex=%v, got: %v", tt.hasRegex, hasRegex)
			}
		})
	}
}

func TestExtractTickets(t *testing.T) {
	generator := NewGenerator([]string{"TEST", "PROJ"})

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "single ticket",
			text:     "This fixes TEST-123",
			expected: []string{"TEST-123"},
		},
		{
			name:     "multiple tickets",
			text:     "This fixes TEST-123 and PROJ-456",
			expected: []string{"TEST-123", "PROJ-456"},
		},
		{
			name:     "no tickets",
			text:     "No tickets mentioned here",
			expected: []string{},
		},
		{
			name:     "duplicate tickets",
			text:     "TEST-123 and TEST-123 again",
			expected: []string{"TEST-123"},
		},
		{
			name:     "wrong board prefix",
			text:     "This fixes WRONG-123",
			expected: []string{},
		},
		{
			name:     "ticket in URL",
			text:     "Fixed, see https://company.atlassian.net/browse/PROJ-456",
			expected: []string{"PROJ-456"},
		},
		{
			name:     "case insensitive",
			text:     "Fixed TeSt-456 and proj-123",
			expected: []string{"TeSt-456", "proj-123"},
		},
		{
			name:     "space separator",
			text:     "This fixes TEST 123",
			expected: []string{"TEST 123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tickets := generator.ExtractTickets(tt.text)

			if len(tickets) != len(tt.expected) {
				t.Errorf("Expected %d tickets, got: %d", len(tt.expected), len(tickets))
			}

			for i, expected := range tt.expected {
				if i >= len(tickets) || tickets[i] != expected {
					t.Errorf("Expected ticket %s at index %d, got: %v", expected, i, tickets)
				}
			}
		})
	}
}

func TestParsePRNumber(t *testing.T) {
	tests := []struct {
		name          string
		commitMessage string
		expected      int
		expectError   bool
	}{
		{
			name:          "merge pull request",
			commitMessage: "Merge pull request #123 from branch",
			expected:      123,
		},
		{
			name:          "PR number in parentheses",
			commitMessage: "Fix bug (#456)",
			expected:      456,
		},
		{
			name:          "simple hash reference",
			commitMessage: "Fix issue #789",
			expected:      789,
		},
		{
			name:          "no PR number",
			commitMessage: "Regular commit message",
			expectError:   true,
		},
		{
			name:          "no PR number with hash in word",
			commitMessage: "color:#123456",
			expectError:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prNumber, err := ParsePRNumber(tt.commitMessage)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}

			if prNumber != tt.expected {
				t.Errorf("Expected PR number %d, got: %d", tt.expected, prNumber)
			}
		})
	}
}

func TestDetectIncrement(t *testing.T) {
	tests := []struct {
		name      string
		messages  []string
		expected  scheme.Increment
		detected  bool
	}{
		{
			name:     "fix selects patch",
			messages: []string{"fix: handle empty tag list"},
			expected: scheme.Patch,
			detected: true,
		},
		{
			name:     "feat selects minor",
			messages: []string{"feat: add npm dialect"},
			expected: scheme.Minor,
			detected: true,
		},
		{
			name:     "breaking change selects major",
			messages: []string{"feat!: drop the v1 config format"},
			expected: scheme.Major,
			detected: true,
		},
		{
			name:     "feat outranks fix",
			messages: []string{"fix: guard nil entry", "feat: colored output", "fix: typo"},
			expected: scheme.Minor,
			detected: true,
		},
		{
			name:     "breaking outranks everything",
			messages: []string{"fix: guard nil entry", "feat!: new wire format", "feat: colored output"},
			expected: scheme.Major,
			detected: true,
		},
		{
			name:     "perf and refactor select patch",
			messages: []string{"perf: cache the ticket matcher", "refactor: split builders"},
			expected: scheme.Patch,
			detected: true,
		},
		{
			name:     "chore and docs select nothing",
			messages: []string{"chore: bump deps", "docs: fix readme"},
			detected: false,
		},
		{
			name:     "non-conventional messages are ignored",
			messages: []string{"Merge pull request #12 from org/branch", "wip"},
			detected: false,
		},
		{
			name:     "empty input",
			messages: nil,
			detected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			increment, detected := DetectIncrement(tt.messages)
			if detected != tt.detected {
				t.Fatalf("Expected detected=%v, got: %v", tt.detected, detected)
			}
			if detected && increment != tt.expected {
				t.Errorf("Expected increment %s, got: %s", tt.expected, increment)
			}
		})
	}
}

func TestBuildChangeSections(t *testing.T) {
	entries := []Entry{
		{Number: 1, Title: "feat: add npm dialect"},
		{Number: 2, Title: "fix: keep metadata out of comparisons"},
		{Number: 3, Title: "Update readme"},
		{Number: 4, Title: "feat!: drop the v1 config format"},
	}

	result := BuildChangeSections(entries)

	for _, want := range []string{
		"### Breaking Changes",
		"### Features",
		"### Fixes",
		"### Other",
		"- feat: add npm dialect (#1)",
		"- fix: keep metadata out of comparisons (#2)",
		"- Update readme (#3)",
		"- feat!: drop the v1 config format (#4)",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected sections to contain %q, got: %s", want, result)
		}
	}

	breaking := strings.Index(result, "### Breaking Changes")
	features := strings.Index(result, "### Features")
	fixes := strings.Index(result, "### Fixes")
	other := strings.Index(result, "### Other")
	if !(breaking < features && features < fixes && fixes < other) {
		t.Errorf("Expected sections in breaking, features, fixes, other order, got: %s", result)
	}
}

func TestBuildChangeSectionsEmpty(t *testing.T) {
	if result := BuildChangeSections(nil); result != "" {
		t.Errorf("Expected empty sections for no entries, got: %q", result)
	}
}

func TestBuildCrossLinksString(t *testing.T) {
	crossLinks := []CrossLink{
		{
			Name:    "Related Repo",
			Version: "1.2.3",
			URL:     "https://github.com/org/repo/releases/tag/v1.2.3",
		},
	}

	result := BuildCrossLinksString(crossLinks)

	if !strings.Contains(result, "## Related Releases") {
		t.Error("Expected cross-links section in release notes")
	}
	if !strings.Contains(result, "Related Repo v1.2.3") {
		t.Error("Expected cross-link to Related Repo")
	}
}

func TestBuildCrossLinksStringEmpty(t *testing.T) {
	result := BuildCrossLinksString([]CrossLink{})
	if result != "" {
		t.Error("Expected empty string for no cross-links")
	}
}

func TestBuildEntriesTableString(t *testing.T) {
	entries := []Entry{
		{
			Number:      123,
			Date:        "2023-01-01",
			Author:      "testuser",
			Title:       "Fix important bug",
			Description: "This fixes a critical issue",
			Tickets:     []string{"test-456"},
		},
		{
			Number:      124,
			Date:        "2023-01-02",
			Author:      "anotheruser",
			Title:       "Add new feature",
			Description: "",
			Tickets:     []string{},
		},
	}

	result := BuildEntriesTableString(entries, true, "my-org")

	if !strings.Contains(result, "| PR # | Author | Title | Merged Date | Ticket # |") {
		t.Error("Expected table header in release notes")
	}
	if !strings.Contains(result, "| #123 | testuser | <details><summary>Fix important bug</summary><br>This fixes a critical issue</details> | 2023-01-01 | [TEST-456](https://my-org.atlassian.net/browse/TEST-456) |") {
		t.Error("Expected PR #123 in table format with details/summary tags and normalized ticket")
	}
	if !strings.Contains(result, "| #124 | anotheruser | Add new feature | 2023-01-02 |  |") {
		t.Error("Expected PR #124 in table format (no description, so no details tags)")
	}
}

func TestBuildEntriesTableStringJiraDisabled(t *testing.T) {
	entries := []Entry{
		{
			Number:      123,
			Date:        "2023-01-01",
			Author:      "testuser",
			Title:       "Fix important bug",
			Description: "This fixes a critical issue",
			Tickets:     []string{"TEST-456"},
		},
	}

	result := BuildEntriesTableString(entries, false, "")

	if strings.Contains(result, "| PR # | Author | Title | Merged Date | Ticket # |") {
		t.Error("Did not expect ticket column in table header")
	}
	if strings.Contains(result, "TEST-456") {
		t.Error("Did not expect ticket reference in table")
	}
	if !strings.Contains(result, "| #123 | testuser | <details><summary>Fix important bug</summary><br>This fixes a critical issue</details> | 2023-01-01 |") {
		t.Error("Expected PR #123 in table format without ticket number")
	}
}

func TestBuildReleaseNotes(t *testing.T) {
	entries := []Entry{
		{Number: 1, Date: "2023-01-01", Author: "a", Title: "feat: add npm dialect"},
		{Number: 2, Date: "2023-01-02", Author: "b", Title: "fix: nil entry crash"},
	}
	crossLinks := []CrossLink{
		{Name: "Widget API", Version: "2.0.0", URL: "https://github.com/org/widget-api/releases/tag/v2.0.0"},
	}

	result := BuildReleaseNotes(entries, crossLinks, false, "")

	related := strings.Index(result, "## Related Releases")
	changes := strings.Index(result, "## Changes")
	table := strings.Index(result, "| PR # |")
	if related < 0 || changes < 0 || table < 0 {
		t.Fatalf("Expected related releases, changes and table sections, got: %s", result)
	}
	if !(related < changes && changes < table) {
		t.Errorf("Expected related releases before changes before table, got: %s", result)
	}
}

func TestEscapeMarkdownTable(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "pipe character",
			input:    "Title with | pipe",
			expected: "Title with \\| pipe",
		},
		{
			name:     "newlines",
			input:    "Title with\nnewline\r\nand carriage return",
			expected: "Title with<br>newline<br>and carriage return",
		},
		{
			name:     "multiple spaces",
			input:    "Title   with    multiple    spaces",
			expected: "Title with multiple spaces",
		},
		{
			name:     "whitespace trimming",
			input:    "  Title with leading and trailing spaces  ",
			expected: "Title with leading and trailing spaces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := escapeMarkdownTable(tt.input)
			if result != tt.expected {
				t.Errorf("escapeMarkdownTable(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizeTicket(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Otter 35", "OTTER-35"},
		{"otter-35", "OTTER-35"},
		{"OTTER-35", "OTTER-35"},
		{"TEST 123", "TEST-123"},
	}

	for _, tt := range tests {
		if result := normalizeTicket(tt.input); result != tt.expected {
			t.Errorf("normalizeTicket(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestRemoveDuplicates(t *testing.T) {
	input := []string{"TEST-123", "test-123", "PROJ-456", "TEST-123"}
	expected := []string{"TEST-123", "PROJ-456"}

	result := removeDuplicates(input)

	if len(result) != len(expected) {
		t.Errorf("Expected %d unique items, got: %d", len(expected), len(result))
	}

	for i, expectedItem := range expected {
		if i >= len(result) || result[i] != expectedItem {
			t.Errorf("Expected item %s at index %d, got: %v", expectedItem, i, result)
		}
	}
}
