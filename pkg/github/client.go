package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v28/github"
	"golang.org/x/oauth2"
)

// Repository identifies a GitHub repository.
type Repository struct {
	Owner string
	Name  string
}

// ParseRepoSpec reads an "owner/repo" spec.
func ParseRepoSpec(spec string) (*Repository, error) {
	parts := strings.Split(spec, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid repository spec %q, want owner/repo", spec)
	}
	return &Repository{Owner: parts[0], Name: parts[1]}, nil
}

func (r *Repository) String() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// Client wraps the GitHub API for release management.
type Client struct {
	gh *github.Client
}

func New(token string) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &Client{gh: github.NewClient(tc)}
}

// NewFromGitHub wraps an existing API client, which lets tests point at
// a local server.
func NewFromGitHub(gh *github.Client) *Client {
	return &Client{gh: gh}
}

func (c *Client) ListReleases(ctx context.Context, repo *Repository) ([]*github.RepositoryRelease, error) {
	releases, _, err := c.gh.Repositories.ListReleases(ctx, repo.Owner, repo.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases for %s: %w", repo, err)
	}
	return releases, nil
}

func (c *Client) GetLatestRelease(ctx context.Context, repo *Repository) (*github.RepositoryRelease, error) {
	release, _, err := c.gh.Repositories.GetLatestRelease(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest release for %s: %w", repo, err)
	}
	return release, nil
}

func (c *Client) CompareCommits(ctx context.Context, repo *Repository, base, head string) (*github.CommitsComparison, error) {
	comparison, _, err := c.gh.Repositories.CompareCommits(ctx, repo.Owner, repo.Name, base, head)
	if err != nil {
		return nil, fmt.Errorf("failed to compare %s...%s for %s: %w", base, head, repo, err)
	}
	return comparison, nil
}

func (c *Client) GetPullRequest(ctx context.Context, repo *Repository, number int) (*github.PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get PR #%d for %s: %w", number, repo, err)
	}
	return pr, nil
}

// GetRecentMergedPRs returns pull requests merged after the given time,
// newest first.
func (c *Client) GetRecentMergedPRs(ctx context.Context, repo *Repository, since time.Time) ([]*github.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	prs, _, err := c.gh.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list PRs for %s: %w", repo, err)
	}

	var merged []*github.PullRequest
	for _, pr := range prs {
		if pr.MergedAt != nil && pr.GetMergedAt().After(since) {
			merged = append(merged, pr)
		}
	}
	return merged, nil
}

func (c *Client) CreateRelease(ctx context.Context, repo *Repository, release *github.RepositoryRelease) (*github.RepositoryRelease, error) {
	created, _, err := c.gh.Repositories.CreateRelease(ctx, repo.Owner, repo.Name, release)
	if err != nil {
		return nil, fmt.Errorf("failed to create release for %s: %w", repo, err)
	}
	return created, nil
}

// CreateReleaseFromSHA creates a release whose tag points at a specific
// commit instead of a branch head.
func (c *Client) CreateReleaseFromSHA(ctx context.Context, repo *Repository, release *github.RepositoryRelease, sha string) (*github.RepositoryRelease, error) {
	release.TargetCommitish = &sha
	created, _, err := c.gh.Repositories.CreateRelease(ctx, repo.Owner, repo.Name, release)
	if err != nil {
		return nil, fmt.Errorf("failed to create release at %s for %s: %w", sha, repo, err)
	}
	return created, nil
}

func (c *Client) DeleteRelease(ctx context.Context, repo *Repository, id int64) error {
	if _, err := c.gh.Repositories.DeleteRelease(ctx, repo.Owner, repo.Name, id); err != nil {
		return fmt.Errorf("failed to delete release %d for %s: %w", id, repo, err)
	}
	return nil
}

// GetBranchSHA returns the commit SHA a branch currently points at.
func (c *Client) GetBranchSHA(ctx context.Context, repo *Repository, branch string) (string, error) {
	b, _, err := c.gh.Repositories.GetBranch(ctx, repo.Owner, repo.Name, branch)
	if err != nil {
		return "", fmt.Errorf("failed to get branch %s for %s: %w", branch, repo, err)
	}
	return b.GetCommit().GetSHA(), nil
}

// PrependChangelogFile pushes a new section on top of CHANGELOG.md on
// the given ref.
func (c *Client) PrependChangelogFile(ctx context.Context, repo *Repository, ref, tag, body string) error {
	fileContent, _, _, err := c.gh.Repositories.GetContents(ctx, repo.Owner, repo.Name, "CHANGELOG.md", &github.RepositoryContentGetOptions{
		Ref: ref,
	})
	if err != nil {
		return fmt.Errorf("failed to read CHANGELOG.md for %s: %w", repo, err)
	}

	oldContent, err := fileContent.GetContent()
	if err != nil {
		return fmt.Errorf("failed to decode CHANGELOG.md for %s: %w", repo, err)
	}

	updatedContent := fmt.Sprintf("## [%s - %s](%s)\n\n%s\n\n---\n\n%s",
		tag,
		time.Now().Format("2006-01-02"),
		fmt.Sprintf("https://github.com/%s/%s/releases/tag/%s", repo.Owner, repo.Name, tag),
		body,
		oldContent)

	_, _, err = c.gh.Repositories.UpdateFile(ctx, repo.Owner, repo.Name, "CHANGELOG.md", &github.RepositoryContentFileOptions{
		Content: []byte(updatedContent),
		Message: github.String(fmt.Sprintf("chore(changelog): update for release %s", tag)),
		SHA:     fileContent.SHA,
	})
	if err != nil {
		return fmt.Errorf("failed to update CHANGELOG.md for %s: %w", repo, err)
	}
	return nil
}
