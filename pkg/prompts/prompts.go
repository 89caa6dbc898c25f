package prompts

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/engineai-dev/commitizen/pkg/changelog"
	"github.com/engineai-dev/commitizen/pkg/scheme"
)

// Action names what the operator picked for a repository.
type Action string

const (
	ActionSkip   Action = "skip"
	ActionBump   Action = "bump"
	ActionHotfix Action = "hotfix"
)

// BumpChoice is one selectable next version.
type BumpChoice struct {
	Label   string
	Action  Action
	Version scheme.Version
}

// HotfixInfo holds SHA and suffix for hotfix releases
type HotfixInfo struct {
	SHA    string
	Suffix string
}

func bumped(v scheme.Version, req scheme.BumpRequest) scheme.Version {
	next, err := v.Bump(req)
	if err != nil {
		return v
	}
	return next
}

// BumpChoices builds the selectable candidates for the current version.
// A version in a prerelease chain additionally offers continuing the
// chain, promoting it to the next channel and finalizing it.
func BumpChoices(current scheme.Version) []BumpChoice {
	choices := []BumpChoice{
		{Label: "Skip release", Action: ActionSkip, Version: current},
	}

	if label, _, ok := current.Prerelease(); ok {
		choices = append(choices, BumpChoice{
			Label:   fmt.Sprintf("Continue %s", label),
			Action:  ActionBump,
			Version: bumped(current, scheme.BumpRequest{Prerelease: label}),
		})
		if next, ok := scheme.NextChannel(label); ok {
			choices = append(choices, BumpChoice{
				Label:   fmt.Sprintf("Promote to %s", next),
				Action:  ActionBump,
				Version: bumped(current, scheme.BumpRequest{Prerelease: next}),
			})
		}
		choices = append(choices, BumpChoice{
			Label:   "Finalize",
			Action:  ActionBump,
			Version: current.Core(),
		})
	}

	choices = append(choices,
		BumpChoice{Label: "Patch", Action: ActionBump, Version: bumped(current, scheme.BumpRequest{Increment: scheme.Patch})},
		BumpChoice{Label: "Minor", Action: ActionBump, Version: bumped(current, scheme.BumpRequest{Increment: scheme.Minor})},
		BumpChoice{Label: "Major", Action: ActionBump, Version: bumped(current, scheme.BumpRequest{Increment: scheme.Major})},
		BumpChoice{Label: "New alpha", Action: ActionBump, Version: bumped(current, scheme.BumpRequest{Increment: scheme.Minor, Prerelease: "alpha"})},
		BumpChoice{Label: "Post release", Action: ActionBump, Version: bumped(current, scheme.BumpRequest{Postrelease: true})},
		BumpChoice{Label: "Hotfix", Action: ActionHotfix, Version: current},
	)

	return choices
}

// PromptForVersionBump shows the recent activity of a repository and asks
// which version to release next.
func PromptForVersionBump(repoName string, current scheme.Version, entries []changelog.Entry) (scheme.Version, Action, *HotfixInfo, error) {
	fmt.Printf("\n--- %s ---\n", repoName)
	fmt.Printf("Last version: %s, %d PR's since then\n", current, len(entries))

	for _, entry := range entries {
		fmt.Printf(" - #%d %s\n", entry.Number, entry.Title)
	}

	choices := BumpChoices(current)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   fmt.Sprintf("%s {{ .Label | cyan | underline }} ({{ .Version | green }})", promptui.Styler(promptui.FGGreen)("⇨")),
		Inactive: "  {{ .Label | cyan }} ({{ .Version | green }})",
		Selected: fmt.Sprintf("%s {{ .Label }} to {{ .Version | green | cyan }}", promptui.IconGood),
	}

	prompt := promptui.Select{
		Label: fmt.Sprintf(
			"Last version was %s, shall we bump",
			current,
		),
		Items:     choices,
		Templates: templates,
	}

	i, _, err := prompt.Run()
	if err != nil {
		fmt.Printf("Prompt failed %v\n", err)
		return scheme.Version{}, "", nil, err
	}

	choice := choices[i]
	switch choice.Action {
	case ActionSkip:
		return current, ActionSkip, nil, nil
	case ActionHotfix:
		sha, suffix, err := PromptForHotfix(current)
		if err != nil {
			return scheme.Version{}, "", nil, err
		}

		hotfixVersion, err := current.WithMetadata(suffix)
		if err != nil {
			return scheme.Version{}, "", nil, fmt.Errorf("failed to create hotfix version: %w", err)
		}

		return hotfixVersion, ActionHotfix, &HotfixInfo{SHA: sha, Suffix: suffix}, nil
	}

	return choice.Version, ActionBump, nil, nil
}

// ConfirmRelease asks before a release is created. Answering q quits the
// whole run.
func ConfirmRelease(repoName string, v scheme.Version) (bool, error) {
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Create release %s for %s", v, repoName),
		IsConfirm: true,
	}

	result, err := prompt.Run()
	if result == "q" {
		os.Exit(0)
	}
	if err != nil { // no selection, just enter
		return false, nil
	}
	return result == "y", nil
}

// PromptToDelete asks for confirmation before a release is deleted.
// Answering q quits the whole run.
func PromptToDelete(releaseName string, isDraft bool) (bool, error) {
	templates := &promptui.PromptTemplates{
		Invalid: "{{ . }} was not modified or removed",
		Success: fmt.Sprintf("%s {{ . }} removed", promptui.IconGood),
	}

	var draftLabel = ""
	if isDraft {
		draftLabel = "[DRAFT] "
	}

	prompt := promptui.Prompt{
		Label: fmt.Sprintf("Delete %sRelease: %s",
			draftLabel,
			releaseName),
		IsConfirm: true,
		Templates: templates,
	}

	result, err := prompt.Run()
	if result == "q" {
		os.Exit(0)
	}
	if err != nil { // no selection, just enter
		return false, nil
	}
	return result == "y", nil
}

// PromptForHotfix asks for the commit SHA and the metadata suffix of a
// hotfix release.
func PromptForHotfix(current scheme.Version) (string, string, error) {
	fmt.Printf("Last version: %s\n", current)

	prompt := promptui.Prompt{
		Label: "Enter the SHA for the hotfix",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("a commit SHA is required")
			}
			return nil
		},
	}
	sha, err := prompt.Run()
	if err != nil {
		fmt.Printf("Prompt failed %v\n", err)
		return "", "", err
	}

	prompt = promptui.Prompt{
		Label: "Enter the suffix for the hotfix version",
		Validate: func(input string) error {
			_, err := current.WithMetadata(input)
			return err
		},
	}
	suffix, err := prompt.Run()
	if err != nil {
		fmt.Printf("Prompt failed %v\n", err)
		return "", "", err
	}

	return sha, suffix, nil
}
