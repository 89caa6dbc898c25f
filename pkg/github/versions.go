package github

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver"
	gh "github.com/google/go-github/v28/github"

	"github.com/engineai-dev/commitizen/pkg/scheme"
)

// Resolution failure kinds, for errors.Is against the wrapped errors
// ResolveVersions returns.
var (
	ErrNoReleases    = errors.New("no releases found")
	ErrNoVersionTags = errors.New("no readable version tags found")
)

// ResolveVersions walks a repository's releases and returns the most
// recent version plus the most recent final version, read with the
// given scheme after stripping tagPrefix. Tags the scheme cannot read
// are skipped. A repository that has never shipped a final release
// reports its latest version as stable.
func (c *Client) ResolveVersions(ctx context.Context, repo *Repository, s scheme.Scheme, tagPrefix string) (latest, stable scheme.Version, err error) {
	releases, err := c.ListReleases(ctx, repo)
	if err != nil {
		return scheme.Version{}, scheme.Version{}, err
	}
	if len(releases) == 0 {
		return scheme.Version{}, scheme.Version{}, fmt.Errorf("%w for %s", ErrNoReleases, repo)
	}

	haveLatest := false
	haveStable := false
	for _, release := range releases {
		tag := release.GetTagName()
		if tag == "" {
			continue
		}
		v, parseErr := s.Parse(strings.TrimPrefix(tag, tagPrefix))
		if parseErr != nil {
			continue
		}
		if !haveLatest {
			latest = v
			haveLatest = true
		}
		if !haveStable && v.IsFinal() {
			stable = v
			haveStable = true
		}
		if haveLatest && haveStable {
			break
		}
	}

	if !haveLatest {
		return scheme.Version{}, scheme.Version{}, fmt.Errorf("%w for %s", ErrNoVersionTags, repo)
	}
	if !haveStable {
		stable = latest
	}
	return latest, stable, nil
}

// LatestForeignTag returns the highest release tag of a repository that
// does not have to follow our scheme, for cross-linking sibling
// releases. Tags are ordered loosely as semver.
func (c *Client) LatestForeignTag(ctx context.Context, repo *Repository) (string, error) {
	releases, err := c.ListReleases(ctx, repo)
	if err != nil {
		return "", err
	}

	type tagged struct {
		tag     string
		version *semver.Version
	}
	var candidates []tagged
	for _, release := range releases {
		tag := release.GetTagName()
		if tag == "" {
			continue
		}
		v, parseErr := semver.NewVersion(strings.TrimPrefix(tag, "v"))
		if parseErr != nil {
			continue
		}
		candidates = append(candidates, tagged{tag: tag, version: v})
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no semver release tags found for %s", repo)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].version.LessThan(candidates[j].version)
	})
	return candidates[len(candidates)-1].tag, nil
}

// FindReleaseByTag returns the release carrying the given tag, or nil
// when none does.
func FindReleaseByTag(releases []*gh.RepositoryRelease, tag string) *gh.RepositoryRelease {
	for _, release := range releases {
		if release.GetTagName() == tag {
			return release
		}
	}
	return nil
}
