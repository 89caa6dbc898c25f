package release

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v28/github"

	"github.com/engineai-dev/commitizen/pkg/changelog"
	ghclient "github.com/engineai-dev/commitizen/pkg/github"
	"github.com/engineai-dev/commitizen/pkg/logging"
	"github.com/engineai-dev/commitizen/pkg/prompts"
	"github.com/engineai-dev/commitizen/pkg/scheme"
)

type Manager struct {
	client    *ghclient.Client
	logger    *logging.Logger
	generator *changelog.Generator
	jiraOrgId string
}

func NewManager(client *ghclient.Client, logger *logging.Logger, jiraBoards []string, jiraOrgId string) *Manager {
	return &Manager{
		client:    client,
		logger:    logger,
		generator: changelog.NewGenerator(jiraBoards),
		jiraOrgId: jiraOrgId,
	}
}

// Repository is one release target plus everything resolved about it.
type Repository struct {
	*ghclient.Repository
	Alias            string
	Scheme           scheme.Scheme
	TagPrefix        string
	Branch           string
	JiraEnabled      bool
	CrossLinkEnabled bool
	ChangelogEnabled bool

	// Filled in by ResolveVersions.
	Latest    scheme.Version
	Stable    scheme.Version
	Fresh     bool
	CommitSHA string
}

func (r *Repository) GetDisplayName() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Name
}

// TagName renders the release tag for a version.
func (r *Repository) TagName(v scheme.Version) string {
	return r.TagPrefix + v.String()
}

// Release is the outcome for one repository.
type Release struct {
	Repository *Repository
	Version    scheme.Version
	Changelog  []changelog.Entry
	Created    bool
}

// ResolveVersions fills in the repository's latest and stable released
// versions plus the branch head the next release will be cut from. A
// repository without readable releases starts over at 0.0.0.
func (m *Manager) ResolveVersions(ctx context.Context, repo *Repository) error {
	if repo.Branch == "" {
		repo.Branch = "main"
	}

	latest, stable, err := m.client.ResolveVersions(ctx, repo.Repository, repo.Scheme, repo.TagPrefix)
	switch {
	case err == nil:
		repo.Latest, repo.Stable = latest, stable
	case errors.Is(err, ghclient.ErrNoReleases), errors.Is(err, ghclient.ErrNoVersionTags):
		m.logger.Debug("No usable releases for %s, starting at 0.0.0: %v", repo.Repository, err)
		repo.Latest = repo.Scheme.New(0, 0, 0)
		repo.Stable = repo.Latest
		repo.Fresh = true
	default:
		return fmt.Errorf("failed to resolve versions: %w", err)
	}

	if repo.CommitSHA == "" {
		sha, err := m.client.GetBranchSHA(ctx, repo.Repository, repo.Branch)
		if err != nil {
			return fmt.Errorf("failed to resolve the head of %s: %w", repo.Branch, err)
		}
		repo.CommitSHA = sha
	}

	return nil
}

func (m *Manager) HasChanges(ctx context.Context, repo *Repository) (bool, error) {
	// For a fresh repository (no previous release), check if there are any PRs in the last month
	if repo.Fresh {
		oneMonthAgo := time.Now().AddDate(0, -1, 0)
		prs, err := m.client.GetRecentMergedPRs(ctx, repo.Repository, oneMonthAgo)
		if err != nil {
			// If we can't get recent PRs, assume there are changes to avoid blocking
			m.logger.Debug("Failed to get recent PRs for %s, assuming changes exist: %v", repo.Repository, err)
			return true, nil
		}
		return len(prs) > 0, nil
	}

	comparison, err := m.client.CompareCommits(ctx, repo.Repository, repo.TagName(repo.Latest), repo.CommitSHA)
	if err != nil {
		return false, err
	}

	return len(comparison.Commits) > 0, nil
}

// GenerateChangelog collects one entry per pull request the next
// release would ship. A final target diffs from the last stable
// version so the notes cover the whole prerelease chain; any other
// target diffs from the latest release.
func (m *Manager) GenerateChangelog(ctx context.Context, repo *Repository, target scheme.Version) ([]changelog.Entry, error) {
	var entries []changelog.Entry

	if repo.Fresh {
		m.logger.Debug("No previous releases found for %s, using PRs from last month", repo.Repository)

		oneMonthAgo := time.Now().AddDate(0, -1, 0)
		prs, err := m.client.GetRecentMergedPRs(ctx, repo.Repository, oneMonthAgo)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent PRs: %w", err)
		}

		for _, pr := range prs {
			entries = append(entries, m.entryFromPR(repo, pr.GetNumber(), pr))
		}

		return entries, nil
	}

	base := repo.Latest
	if target.IsFinal() {
		base = repo.Stable
	}

	comparison, err := m.client.CompareCommits(ctx, repo.Repository, repo.TagName(base), repo.CommitSHA)
	if err != nil {
		return nil, err
	}

	for _, commit := range comparison.Commits {
		prNumber, err := changelog.ParsePRNumber(commit.GetCommit().GetMessage())
		if err != nil {
			m.logger.Debug("Skipping commit %s: %v", shortSHA(commit.GetSHA()), err)
			continue
		}

		pr, err := m.client.GetPullRequest(ctx, repo.Repository, prNumber)
		if err != nil {
			m.logger.Debug("Failed to get PR #%d: %v", prNumber, err)
			continue
		}

		entries = append(entries, m.entryFromPR(repo, prNumber, pr))
	}

	return entries, nil
}

func (m *Manager) entryFromPR(repo *Repository, number int, pr *github.PullRequest) changelog.Entry {
	entry := changelog.Entry{
		Number:      number,
		Date:        pr.GetMergedAt().Format("2006-01-02"),
		Author:      pr.GetUser().GetLogin(),
		Title:       pr.GetTitle(),
		Description: pr.GetBody(),
	}

	if repo.JiraEnabled {
		entry.Tickets = append(entry.Tickets, m.generator.ExtractTickets(pr.GetTitle())...)
	}

	return entry
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func entryTitles(entries []changelog.Entry) []string {
	titles := make([]string, 0, len(entries))
	for _, entry := range entries {
		titles = append(titles, entry.Title)
	}
	return titles
}

// detectRequest derives a bump request from the conventional commit
// titles, falling back to a patch bump when none of them carry a
// recognized type.
func (m *Manager) detectRequest(repo *Repository, entries []changelog.Entry) scheme.BumpRequest {
	if inc, ok := changelog.DetectIncrement(entryTitles(entries)); ok {
		m.logger.Info("Conventional commit titles suggest a %s bump for %s", inc, repo.GetDisplayName())
		return scheme.BumpRequest{Increment: inc}
	}
	m.logger.Info("No conventional commit types found for %s, defaulting to a patch bump", repo.GetDisplayName())
	return scheme.BumpRequest{Increment: scheme.Patch}
}

// warnOnChannelRegression flags a bump that moves an existing chain to
// a lower channel, like rc back to alpha.
func (m *Manager) warnOnChannelRegression(repo *Repository, next scheme.Version) {
	currentLabel, _, ok := repo.Latest.Prerelease()
	if !ok {
		return
	}
	nextLabel, _, ok := next.Prerelease()
	if !ok || !repo.Latest.Core().Equal(next.Core()) {
		return
	}

	currentRank, okCurrent := scheme.ChannelRank(currentLabel)
	nextRank, okNext := scheme.ChannelRank(nextLabel)
	if okCurrent && okNext && nextRank < currentRank {
		m.logger.Warn("Bumping %s from %s to %s moves the chain back from %s to %s",
			repo.GetDisplayName(), repo.Latest, next, currentLabel, nextLabel)
	}
}

func (m *Manager) ensureTagFree(ctx context.Context, repo *Repository, tag string) error {
	releases, err := m.client.ListReleases(ctx, repo.Repository)
	if err != nil {
		return fmt.Errorf("failed to list releases: %w", err)
	}
	if existing := ghclient.FindReleaseByTag(releases, tag); existing != nil {
		return fmt.Errorf("release %s already exists for %s", tag, repo.Repository)
	}
	return nil
}

// CreateRelease publishes newVersion with generated notes. The release
// is marked as a prerelease on GitHub when the version is not final.
func (m *Manager) CreateRelease(ctx context.Context, repo *Repository, newVersion scheme.Version,
	entries []changelog.Entry, crossLinks []changelog.CrossLink) error {

	return m.createRelease(ctx, repo, newVersion, entries, crossLinks, "")
}

// CreateHotfixRelease publishes newVersion from a specific commit
// instead of the branch head.
func (m *Manager) CreateHotfixRelease(ctx context.Context, repo *Repository, newVersion scheme.Version,
	entries []changelog.Entry, crossLinks []changelog.CrossLink, targetSHA string) error {

	return m.createRelease(ctx, repo, newVersion, entries, crossLinks, targetSHA)
}

func (m *Manager) createRelease(ctx context.Context, repo *Repository, newVersion scheme.Version,
	entries []changelog.Entry, crossLinks []changelog.CrossLink, targetSHA string) error {

	tagName := repo.TagName(newVersion)
	if err := m.ensureTagFree(ctx, repo, tagName); err != nil {
		return err
	}

	releaseNotes := changelog.BuildReleaseNotes(entries, crossLinks, repo.JiraEnabled, m.jiraOrgId)

	isDraft := false
	isPrerelease := !newVersion.IsFinal()

	release := &github.RepositoryRelease{
		TagName:    &tagName,
		Name:       &tagName,
		Body:       &releaseNotes,
		Draft:      &isDraft,
		Prerelease: &isPrerelease,
	}

	var err error
	if targetSHA != "" {
		_, err = m.client.CreateReleaseFromSHA(ctx, repo.Repository, release, targetSHA)
	} else {
		_, err = m.client.CreateRelease(ctx, repo.Repository, release)
	}
	if err != nil {
		return fmt.Errorf("failed to create release: %w", err)
	}

	if repo.ChangelogEnabled {
		if err := m.client.PrependChangelogFile(ctx, repo.Repository, repo.Branch, tagName, releaseNotes); err != nil {
			m.logger.Warn("Failed to update the changelog file for %s: %v", repo.Repository, err)
		}
	}

	m.logger.Info("Successfully created release %s for %s", tagName, repo.Repository)
	return nil
}

// ProcessRelease runs the whole flow for one repository without
// prompting: resolve versions, collect the changelog, bump and publish.
// An empty request derives the increment from the conventional commit
// titles.
func (m *Manager) ProcessRelease(ctx context.Context, repo *Repository, req scheme.BumpRequest,
	allRepos []*Repository) (*Release, error) {

	if err := m.ResolveVersions(ctx, repo); err != nil {
		return nil, fmt.Errorf("failed to resolve versions: %w", err)
	}

	hasChanges, err := m.HasChanges(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to check for changes: %w", err)
	}

	if !hasChanges {
		m.logger.Info("No changes found for %s since %s", repo.Repository, repo.TagName(repo.Latest))
		return &Release{
			Repository: repo,
			Version:    repo.Latest,
			Changelog:  []changelog.Entry{},
		}, nil
	}

	entries, err := m.GenerateChangelog(ctx, repo, repo.Latest)
	if err != nil {
		return nil, fmt.Errorf("failed to generate changelog: %w", err)
	}

	if req == (scheme.BumpRequest{}) {
		req = m.detectRequest(repo, entries)
	}

	newVersion, err := repo.Latest.Bump(req)
	if err != nil {
		return nil, fmt.Errorf("failed to bump %s: %w", repo.Latest, err)
	}

	entries = m.extendForFinal(ctx, repo, newVersion, entries)
	m.warnOnChannelRegression(repo, newVersion)

	var crossLinks []changelog.CrossLink
	if repo.CrossLinkEnabled && len(allRepos) > 1 {
		crossLinks = m.generateCrossLinks(ctx, repo, allRepos)
	}

	if err := m.CreateRelease(ctx, repo, newVersion, entries, crossLinks); err != nil {
		return nil, err
	}

	return &Release{
		Repository: repo,
		Version:    newVersion,
		Changelog:  entries,
		Created:    true,
	}, nil
}

// ProcessReleaseInteractive is ProcessRelease with the target version
// picked at the prompt instead of derived from a request.
func (m *Manager) ProcessReleaseInteractive(ctx context.Context, repo *Repository, allRepos []*Repository) (*Release, error) {
	if err := m.ResolveVersions(ctx, repo); err != nil {
		return nil, fmt.Errorf("failed to resolve versions: %w", err)
	}

	hasChanges, err := m.HasChanges(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to check for changes: %w", err)
	}

	if !hasChanges {
		m.logger.Info("No changes found for %s since %s", repo.Repository, repo.TagName(repo.Latest))
		return &Release{
			Repository: repo,
			Version:    repo.Latest,
			Changelog:  []changelog.Entry{},
		}, nil
	}

	entries, err := m.GenerateChangelog(ctx, repo, repo.Latest)
	if err != nil {
		m.logger.Warn("Failed to generate changelog for %s: %v", repo.Repository, err)
		m.logger.Info("Proceeding with interactive prompt without changelog data")
		entries = []changelog.Entry{} // Use empty changelog
	}

	if inc, ok := changelog.DetectIncrement(entryTitles(entries)); ok {
		m.logger.Info("Conventional commit titles suggest a %s bump", inc)
	}

	repoDisplayName := repo.GetDisplayName()
	newVersion, action, hotfixInfo, err := prompts.PromptForVersionBump(repoDisplayName, repo.Latest, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to get version bump choice: %w", err)
	}

	if action == prompts.ActionSkip {
		m.logger.Info("Skipping release for %s", repoDisplayName)
		return &Release{
			Repository: repo,
			Version:    repo.Latest,
			Changelog:  entries,
		}, nil
	}

	confirmed, err := prompts.ConfirmRelease(repoDisplayName, newVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm release: %w", err)
	}
	if !confirmed {
		m.logger.Info("Skipping release for %s", repoDisplayName)
		return &Release{
			Repository: repo,
			Version:    repo.Latest,
			Changelog:  entries,
		}, nil
	}

	entries = m.extendForFinal(ctx, repo, newVersion, entries)
	m.warnOnChannelRegression(repo, newVersion)

	var crossLinks []changelog.CrossLink
	if repo.CrossLinkEnabled && len(allRepos) > 1 {
		crossLinks = m.generateCrossLinks(ctx, repo, allRepos)
	}

	if action == prompts.ActionHotfix && hotfixInfo != nil {
		m.logger.Info("Creating hotfix release for %s: %s (SHA: %s)", repoDisplayName, newVersion, hotfixInfo.SHA)
		if err := m.CreateHotfixRelease(ctx, repo, newVersion, entries, crossLinks, hotfixInfo.SHA); err != nil {
			return nil, err
		}
	} else {
		if err := m.CreateRelease(ctx, repo, newVersion, entries, crossLinks); err != nil {
			return nil, err
		}
	}

	return &Release{
		Repository: repo,
		Version:    newVersion,
		Changelog:  entries,
		Created:    true,
	}, nil
}

// extendForFinal regenerates the changelog from the last stable release
// when the chosen target finalizes a prerelease chain, so the notes
// cover every change since the previous final release.
func (m *Manager) extendForFinal(ctx context.Context, repo *Repository, target scheme.Version,
	entries []changelog.Entry) []changelog.Entry {

	if !target.IsFinal() || repo.Stable.Equal(repo.Latest) {
		return entries
	}

	refreshed, err := m.GenerateChangelog(ctx, repo, target)
	if err != nil {
		m.logger.Warn("Failed to extend the changelog back to %s: %v", repo.TagName(repo.Stable), err)
		return entries
	}
	return refreshed
}

// DeleteReleasesInteractive walks the repository's releases newest
// first and deletes the ones the operator confirms.
func (m *Manager) DeleteReleasesInteractive(ctx context.Context, repo *Repository) error {
	releases, err := m.client.ListReleases(ctx, repo.Repository)
	if err != nil {
		return fmt.Errorf("failed to list releases: %w", err)
	}
	if len(releases) == 0 {
		m.logger.Info("No releases found for %s", repo.Repository)
		return nil
	}

	for _, release := range releases {
		name := release.GetName()
		if name == "" {
			name = release.GetTagName()
		}

		confirmed, err := prompts.PromptToDelete(name, release.GetDraft())
		if err != nil {
			return fmt.Errorf("failed to confirm deletion: %w", err)
		}
		if !confirmed {
			continue
		}

		if err := m.client.DeleteRelease(ctx, repo.Repository, release.GetID()); err != nil {
			return fmt.Errorf("failed to delete release %s: %w", name, err)
		}
		m.logger.Info("Deleted release %s from %s", name, repo.Repository)
	}

	return nil
}

func (m *Manager) generateCrossLinks(ctx context.Context, currentRepo *Repository, allRepos []*Repository) []changelog.CrossLink {
	var links []changelog.CrossLink

	for _, repo := range allRepos {
		// Skip the current repository - don't include it in its own cross-links
		if repo == currentRepo {
			continue
		}

		tag, err := m.client.LatestForeignTag(ctx, repo.Repository)
		if err != nil {
			m.logger.Debug("Skipping cross-link for %s: %v", repo.Repository, err)
			continue
		}

		releaseURL := fmt.Sprintf("https://github.com/%s/%s/releases/tag/%s",
			repo.Owner, repo.Name, tag)

		links = append(links, changelog.CrossLink{
			Name:    repo.GetDisplayName(),
			Version: strings.TrimPrefix(tag, "v"),
			URL:     releaseURL,
		})
	}

	return links
}
