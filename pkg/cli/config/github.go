package config

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/release-sync/pkg/domain/types"
	githubinfra "github.com/m-mizutani/release-sync/pkg/infra/github"
	"github.com/urfave/cli/v3"
)

// GitHub holds GitHub API configuration
type GitHub struct {
	APIURL     string
	Repository string
	Token      string `masq:"secret"`

	AppID          int64
	InstallationID int64
	PrivateKey     string `masq:"secret"`
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "api-url",
			Usage:       "GitHub API base URL",
			Value:       types.DefaultAPIBaseURL,
			Destination: &c.APIURL,
			Sources:     cli.EnvVars("RELEASE_SYNC_API_URL", "GITHUB_API_URL"),
		},
		&cli.StringFlag{
			Name:        "repository",
			Aliases:     []string{"r"},
			Usage:       "Target repository in owner/name form",
			Destination: &c.Repository,
			Sources:     cli.EnvVars("RELEASE_SYNC_REPOSITORY", "GITHUB_REPOSITORY"),
		},
		&cli.StringFlag{
			Name:        "token",
			Usage:       "GitHub token (required unless GitHub App credentials are given)",
			Destination: &c.Token,
			Sources:     cli.EnvVars("RELEASE_SYNC_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "app-id",
			Usage:       "GitHub App ID",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("RELEASE_SYNC_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "app-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("RELEASE_SYNC_APP_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "app-private-key",
			Usage:       "GitHub App private key (PEM content)",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("RELEASE_SYNC_APP_PRIVATE_KEY"),
		},
	}
}

func (c *GitHub) hasApp() bool {
	return c.AppID != 0 || c.InstallationID != 0 || c.PrivateKey != ""
}

// Validate checks the repository identifier and authentication settings
func (c *GitHub) Validate() error {
	if _, err := githubinfra.ParseRepository(c.Repository); err != nil {
		return err
	}

	if c.Token != "" {
		return nil
	}
	if !c.hasApp() {
		return goerr.New("authentication token is required")
	}
	if c.AppID == 0 || c.InstallationID == 0 || c.PrivateKey == "" {
		return goerr.New("GitHub App auth requires app-id, app-installation-id and app-private-key")
	}
	return nil
}

// Repo returns the parsed repository identifier
func (c *GitHub) Repo() (githubinfra.Repository, error) {
	return githubinfra.ParseRepository(c.Repository)
}

// ResolveToken returns the configured token, or exchanges App credentials
// for an installation token when no token is set
func (c *GitHub) ResolveToken(ctx context.Context) (string, error) {
	if c.Token != "" {
		return c.Token, nil
	}
	if !c.hasApp() {
		return "", goerr.New("authentication token is required")
	}

	key := []byte(c.PrivateKey)
	if data, err := os.ReadFile(c.PrivateKey); err == nil {
		key = data
	}

	token, err := githubinfra.InstallationToken(ctx, c.APIURL, c.AppID, c.InstallationID, key)
	if err != nil {
		return "", err
	}
	return token, nil
}
