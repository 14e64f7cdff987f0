package github

import (
	"context"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/m-mizutani/goerr/v2"
)

// InstallationToken exchanges GitHub App credentials for an installation
// access token, usable as a bearer token for the rest of the run
func InstallationToken(ctx context.Context, baseURL string, appID, installationID int64, privateKey []byte) (string, error) {
	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create GitHub App transport",
			goerr.V("app_id", appID),
			goerr.V("installation_id", installationID),
		)
	}
	if baseURL != "" {
		itr.BaseURL = strings.TrimRight(baseURL, "/")
	}

	token, err := itr.Token(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to get installation token",
			goerr.V("app_id", appID),
			goerr.V("installation_id", installationID),
		)
	}

	return token, nil
}
