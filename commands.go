package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	blang "github.com/blang/semver"
	goversion "github.com/hashicorp/go-version"
	"github.com/spf13/cobra"

	"github.com/engineai-dev/commitizen/pkg/files"
	ghclient "github.com/engineai-dev/commitizen/pkg/github"
	"github.com/engineai-dev/commitizen/pkg/logging"
	"github.com/engineai-dev/commitizen/pkg/release"
	"github.com/engineai-dev/commitizen/pkg/scheme"
)

func loggerFromFlags(cmd *cobra.Command) *logging.Logger {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return logging.NewWithLevel(logging.DebugLevel)
	}
	return logging.New()
}

func mustLoadConfig(cmd *cobra.Command) *Config {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := LoadFromPath(path)
	CheckError(err)
	CheckError(cfg.Validate())
	return cfg
}

// requestFromFlags assembles a bump request from the bump command's
// flags. The devrelease counter is only part of the request when its
// flag was given, so that an explicit 0 still starts a devrelease.
func requestFromFlags(cmd *cobra.Command) (scheme.BumpRequest, error) {
	incrementName, _ := cmd.Flags().GetString("increment")
	increment, err := scheme.ParseIncrement(incrementName)
	if err != nil {
		return scheme.BumpRequest{}, err
	}

	req := scheme.BumpRequest{Increment: increment}
	req.Prerelease, _ = cmd.Flags().GetString("prerelease")
	req.Postrelease, _ = cmd.Flags().GetBool("postrelease")
	req.Metadata, _ = cmd.Flags().GetString("metadata")
	if cmd.Flags().Changed("devrelease") {
		n, _ := cmd.Flags().GetUint64("devrelease")
		req.Devrelease = scheme.Counter(n)
	}
	return req, nil
}

func bumpConfiguredVersion(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(cmd)
	logger := loggerFromFlags(cmd)

	current, err := cfg.CurrentVersion()
	CheckError(err)

	req, err := requestFromFlags(cmd)
	CheckError(err)

	next, err := current.Bump(req)
	CheckError(err)

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		fmt.Println(next)
		return
	}

	// The config file's own version entry is rewritten along with the
	// configured version files.
	targets := append([]string{}, cfg.VersionFiles...)
	if cfg.Path() != "" {
		targets = append(targets, cfg.Path()+":^version")
	}

	_, err = files.NewRewriter(logger).Apply(targets, current.String(), next.String())
	CheckError(err)

	fmt.Println(next)
}

func checkVersionString(cmd *cobra.Command, args []string) {
	schemeName, _ := cmd.Flags().GetString("scheme")
	s, err := scheme.ByName(schemeName)
	CheckError(err)

	input := args[0]

	v, engineErr := s.Parse(input)
	if engineErr != nil {
		fmt.Printf("%-14s invalid: %v\n", s.Name()+":", engineErr)
	} else {
		fmt.Printf("%-14s valid, canonical form %s\n", s.Name()+":", v)
	}

	if sv, err := blang.Parse(strings.TrimPrefix(input, "v")); err != nil {
		fmt.Printf("%-14s invalid: %v\n", "strict semver:", err)
	} else {
		fmt.Printf("%-14s valid (%s)\n", "strict semver:", sv)
	}

	if hv, err := goversion.NewVersion(input); err != nil {
		fmt.Printf("%-14s invalid: %v\n", "lenient:", err)
	} else {
		fmt.Printf("%-14s valid (%s)\n", "lenient:", hv)
	}

	if engineErr != nil {
		os.Exit(1)
	}
}

// resolveRepositories expands a project name, the name of a configured
// repository or a raw owner/repo spec into release targets.
func resolveRepositories(cfg *Config, cmd *cobra.Command, args []string) (string, []*release.Repository, error) {
	spec := args[0]

	s, err := cfg.ResolveScheme()
	if err != nil {
		return "", nil, err
	}

	if strings.Contains(spec, "/") {
		ghRepo, err := ghclient.ParseRepoSpec(spec)
		if err != nil {
			return "", nil, err
		}
		repo := &release.Repository{
			Repository: ghRepo,
			Scheme:     s,
			TagPrefix:  cfg.TagPrefix,
			Branch:     cfg.GetBranch(spec),
		}
		return spec, []*release.Repository{repo}, nil
	}

	providedProject, _ := cmd.Flags().GetString("project")
	projectName, err := cfg.GetProjectName(providedProject, args)
	if err != nil {
		if providedProject != "" {
			return "", nil, err
		}
		// Not a project name; maybe the short name of a configured repo.
		projectName, err = cfg.FindProjectByRepository(spec)
		if err != nil {
			return "", nil, err
		}
	}

	only := ""
	if spec != projectName {
		only = spec
	}

	repoConfigs, err := cfg.GetProjectRepos(projectName)
	if err != nil {
		return "", nil, err
	}

	var repos []*release.Repository
	for _, rc := range repoConfigs {
		if only != "" && rc.Repo != only && !strings.HasSuffix(rc.Repo, "/"+only) {
			continue
		}
		ghRepo, err := ghclient.ParseRepoSpec(rc.Repo)
		if err != nil {
			return "", nil, fmt.Errorf("project %s: %w", projectName, err)
		}
		repos = append(repos, &release.Repository{
			Repository:       ghRepo,
			Alias:            rc.Alias,
			Scheme:           s,
			TagPrefix:        cfg.TagPrefix,
			Branch:           cfg.GetBranch(rc.Repo),
			JiraEnabled:      rc.Jira,
			CrossLinkEnabled: rc.CrossLink,
			ChangelogEnabled: rc.Changelog,
		})
	}
	if len(repos) == 0 {
		return "", nil, fmt.Errorf("no repositories matched %s in project %s", spec, projectName)
	}
	return projectName, repos, nil
}

func releaseSpecifiedProject(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(cmd)
	CheckError(cfg.ValidateForRelease())
	logger := loggerFromFlags(cmd)

	name, repos, err := resolveRepositories(cfg, cmd, args)
	CheckError(err)

	manager := release.NewManager(ghclient.New(cfg.GHToken), logger, cfg.JiraBoards, cfg.JiraOrgId)
	auto, _ := cmd.Flags().GetBool("auto")

	ctx := context.Background()
	var releases []*release.Release
	for _, repo := range repos {
		var rel *release.Release
		var err error
		if auto {
			rel, err = manager.ProcessRelease(ctx, repo, scheme.BumpRequest{}, repos)
		} else {
			rel, err = manager.ProcessReleaseInteractive(ctx, repo, repos)
		}
		if err != nil {
			logger.Error("Failed to release %s: %v", repo.GetDisplayName(), err)
			continue
		}
		releases = append(releases, rel)
	}

	announceVersions(name, releases)
}

func deleteProjectReleases(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(cmd)
	CheckError(cfg.ValidateForRelease())
	logger := loggerFromFlags(cmd)

	_, repos, err := resolveRepositories(cfg, cmd, args)
	CheckError(err)

	manager := release.NewManager(ghclient.New(cfg.GHToken), logger, cfg.JiraBoards, cfg.JiraOrgId)

	ctx := context.Background()
	for _, repo := range repos {
		fmt.Printf("\n--- %s ---\n", repo.GetDisplayName())
		if err := manager.DeleteReleasesInteractive(ctx, repo); err != nil {
			logger.Error("Failed to delete releases for %s: %v", repo.GetDisplayName(), err)
		}
	}
}

func announceVersions(name string, releases []*release.Release) {
	if len(releases) == 0 {
		return
	}
	fmt.Printf("\n=== %s ===\n", name)
	for _, rel := range releases {
		status := "unchanged"
		if rel.Created {
			status = "released"
		}
		fmt.Printf("%-30s %-10s %s\n", rel.Repository.GetDisplayName(), status, rel.Repository.TagName(rel.Version))
	}
}

func configureCliCommands() {
	var rootCmd = &cobra.Command{
		Use:   "commitizen",
		Short: "commitizen",
		Long:  "Bump, format and release semantic versions with prerelease, postrelease and devrelease modifiers.",
	}
	rootCmd.PersistentFlags().String("config", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	bumpCmd := &cobra.Command{
		Use:   "bump",
		Short: "bump the configured version",
		Args:  cobra.NoArgs,
		Run:   bumpConfiguredVersion,
	}
	bumpCmd.Flags().StringP("increment", "i", "", "core component to raise: MAJOR, MINOR or PATCH")
	bumpCmd.Flags().StringP("prerelease", "p", "", "prerelease channel, like alpha, beta or rc")
	bumpCmd.Flags().Uint64("devrelease", 0, "devrelease counter")
	bumpCmd.Flags().Bool("postrelease", false, "start or advance a postrelease")
	bumpCmd.Flags().String("metadata", "", "build metadata to attach")
	bumpCmd.Flags().Bool("dry-run", false, "print the next version without rewriting files")
	rootCmd.AddCommand(bumpCmd)

	checkCmd := &cobra.Command{
		Use:   "check <version>",
		Short: "report how a version string parses",
		Args:  cobra.ExactArgs(1),
		Run:   checkVersionString,
	}
	checkCmd.Flags().String("scheme", "", "scheme to check against: semver2 or semver2-npm")
	rootCmd.AddCommand(checkCmd)

	releaseCmd := &cobra.Command{
		Use:   "release <project|owner/repo>",
		Short: "release project(s)",
		Args:  cobra.MinimumNArgs(1),
		Run:   releaseSpecifiedProject,
	}
	releaseCmd.Flags().String("project", "", "project the repository belongs to")
	releaseCmd.Flags().Bool("auto", false, "derive the bump from conventional commit titles instead of prompting")
	rootCmd.AddCommand(releaseCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "delete [thing]",
	}
	deleteCmd.AddCommand(&cobra.Command{
		Use:   "releases <project|owner/repo>",
		Short: "delete releases after confirmation",
		Args:  cobra.MinimumNArgs(1),
		Run:   deleteProjectReleases,
	})
	rootCmd.AddCommand(deleteCmd)

	rootCmd.Execute()
}
