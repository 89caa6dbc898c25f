package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/engineai-dev/commitizen/pkg/files"
	"github.com/engineai-dev/commitizen/pkg/scheme"
)

type Config struct {
	Version      string                  `mapstructure:"version"`
	Scheme       string                  `mapstructure:"scheme"`
	TagPrefix    string                  `mapstructure:"tag_prefix"`
	VersionFiles []string                `mapstructure:"version_files"`
	GHToken      string                  `mapstructure:"gh_token"`
	Projects     map[string][]RepoConfig `mapstructure:"projects"`
	JiraBoards   []string                `mapstructure:"jira_boards"`
	JiraOrgId    string                  `mapstructure:"jira_org_id"`
	Branches     map[string]string       `mapstructure:"branches"`

	path string
}

type RepoConfig struct {
	Repo      string `mapstructure:"repo"`
	Alias     string `mapstructure:"alias"`
	Jira      bool   `mapstructure:"jira"`
	CrossLink bool   `mapstructure:"crossLink"`
	Changelog bool   `mapstructure:"changelog"`
}

func LoadFromPath(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".commitizen")
		v.SetConfigType("yaml")

		if cwd, err := os.Getwd(); err == nil {
			v.AddConfigPath(cwd)
		}

		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(homeDir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if configPath != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file .commitizen.yml from current or home directory: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.path = v.ConfigFileUsed()

	return &cfg, nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) ResolveScheme() (scheme.Scheme, error) {
	return scheme.ByName(c.Scheme)
}

// CurrentVersion parses the configured version under the configured
// scheme.
func (c *Config) CurrentVersion() (scheme.Version, error) {
	s, err := c.ResolveScheme()
	if err != nil {
		return scheme.Version{}, err
	}
	if c.Version == "" {
		return scheme.Version{}, fmt.Errorf("no version entry in configuration")
	}
	v, err := s.Parse(c.Version)
	if err != nil {
		return scheme.Version{}, fmt.Errorf("failed to parse configured version: %w", err)
	}
	return v, nil
}

func (c *Config) GetProjectRepos(projectName string) ([]RepoConfig, error) {
	repos, exists := c.Projects[projectName]
	if !exists {
		return nil, fmt.Errorf("project %s not found in configuration", projectName)
	}
	return repos, nil
}

func (c *Config) GetBranch(repoSpec string) string {
	if branch, exists := c.Branches[repoSpec]; exists {
		return branch
	}
	return "main"
}

// FindProjectByRepository returns the project name that contains the given repository.
// The repoName can be either the short name (e.g., "my-repo") or the full name (e.g., "owner/my-repo").
func (c *Config) FindProjectByRepository(repoName string) (string, error) {
	var matchingProjects []string

	for projectName, repos := range c.Projects {
		for _, repo := range repos {
			// Check if it matches the full repo spec or just the repo name part
			if repo.Repo == repoName {
				matchingProjects = append(matchingProjects, projectName)
				break
			}
			// Extract just the repo name from "owner/repo" format
			parts := strings.Split(repo.Repo, "/")
			if len(parts) == 2 && parts[1] == repoName {
				matchingProjects = append(matchingProjects, projectName)
				break
			}
		}
	}

	if len(matchingProjects) == 0 {
		return "", fmt.Errorf("repository '%s' not found in any project", repoName)
	}
	if len(matchingProjects) > 1 {
		return "", fmt.Errorf("repository '%s' found in multiple projects (%v), please specify one using --project flag", repoName, matchingProjects)
	}
	return matchingProjects[0], nil
}

func (c *Config) GetProjectName(providedProject string, args []string) (string, error) {
	// If project flag is provided, use it
	if providedProject != "" {
		if _, exists := c.Projects[providedProject]; !exists {
			return "", fmt.Errorf("project '%s' not found in configuration", providedProject)
		}
		return providedProject, nil
	}

	// If project name is provided as argument, use it
	if len(args) > 0 {
		projectName := args[0]
		if _, exists := c.Projects[projectName]; !exists {
			return "", fmt.Errorf("project '%s' not found in configuration", projectName)
		}
		return projectName, nil
	}

	// If no project name provided, check if there's only one project
	if len(c.Projects) == 1 {
		for projectName := range c.Projects {
			return projectName, nil
		}
	}

	// Multiple projects exist, require an explicit selection
	var projectNames []string
	for name := range c.Projects {
		projectNames = append(projectNames, name)
	}
	return "", fmt.Errorf("multiple projects found (%v), please specify one using --project flag or as argument", projectNames)
}

// Validate checks the parts of the configuration every command relies
// on. Release-only requirements live in ValidateForRelease.
func (c *Config) Validate() error {
	s, err := c.ResolveScheme()
	if err != nil {
		return err
	}

	if c.Version != "" {
		if _, err := s.Parse(c.Version); err != nil {
			return fmt.Errorf("configured version is invalid: %w", err)
		}
	}

	for _, entry := range c.VersionFiles {
		if _, err := files.ParseTarget(entry); err != nil {
			return err
		}
	}

	jiraEnabledRepoFound := false
	for projectName, repos := range c.Projects {
		if len(repos) == 0 {
			return fmt.Errorf("project %s has no repositories configured", projectName)
		}

		for i, repo := range repos {
			if repo.Repo == "" {
				return fmt.Errorf("project %s, repo %d: repo field is required", projectName, i)
			}
			if repo.Jira {
				jiraEnabledRepoFound = true
			}
		}
	}

	if jiraEnabledRepoFound && c.JiraOrgId == "" {
		return fmt.Errorf("jira_org_id is required when a project has jira enabled")
	}

	return nil
}

// ValidateForRelease checks the additional fields the GitHub release
// flow needs.
func (c *Config) ValidateForRelease() error {
	if c.GHToken == "" {
		return fmt.Errorf("gh_token is required in configuration")
	}
	return nil
}
