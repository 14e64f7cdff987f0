package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/release-sync/pkg/cli/config"
	"github.com/m-mizutani/release-sync/pkg/domain/model"
)

func TestGitHub_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.GitHub
		wantErr bool
	}{
		{
			name: "token auth",
			cfg:  config.GitHub{Repository: "octo/hello", Token: "t"},
		},
		{
			name: "app auth",
			cfg:  config.GitHub{Repository: "octo/hello", AppID: 1, InstallationID: 2, PrivateKey: "pem"},
		},
		{
			name:    "missing token",
			cfg:     config.GitHub{Repository: "octo/hello"},
			wantErr: true,
		},
		{
			name:    "partial app auth",
			cfg:     config.GitHub{Repository: "octo/hello", AppID: 1},
			wantErr: true,
		},
		{
			name:    "malformed repository",
			cfg:     config.GitHub{Repository: "octo", Token: "t"},
			wantErr: true,
		},
		{
			name:    "missing repository",
			cfg:     config.GitHub{Token: "t"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				gt.Error(t, err)
			} else {
				gt.NoError(t, err)
			}
		})
	}
}

func TestGitHub_ResolveToken(t *testing.T) {
	cfg := config.GitHub{Repository: "octo/hello", Token: "direct-token"}
	token, err := cfg.ResolveToken(context.Background())
	gt.NoError(t, err)
	gt.Value(t, token).Equal("direct-token")

	_, err = (&config.GitHub{Repository: "octo/hello"}).ResolveToken(context.Background())
	gt.Error(t, err)

	_, err = (&config.GitHub{AppID: 1, InstallationID: 2, PrivateKey: "not a key"}).ResolveToken(context.Background())
	gt.Error(t, err)
}

func TestGitHub_Repo(t *testing.T) {
	repo, err := (&config.GitHub{Repository: "octo/hello"}).Repo()
	gt.NoError(t, err)
	gt.Value(t, repo.Owner).Equal("octo")
	gt.Value(t, repo.Name).Equal("hello")
}

func TestRetry_Policy(t *testing.T) {
	cfg := config.Retry{MaxRetries: 8, BaseDelayMs: 2000, MaxDelayMs: 120000, UploadDelayMs: 700}
	policy, err := cfg.Policy()
	gt.NoError(t, err)
	gt.Value(t, policy).Equal(model.DefaultRetryPolicy())
	gt.Value(t, cfg.UploadDelay()).Equal(700 * time.Millisecond)

	_, err = (&config.Retry{MaxRetries: -1, BaseDelayMs: 2000, MaxDelayMs: 120000}).Policy()
	gt.Error(t, err)

	_, err = (&config.Retry{MaxRetries: 1, BaseDelayMs: 0, MaxDelayMs: 120000}).Policy()
	gt.Error(t, err)

	gt.Value(t, (&config.Retry{UploadDelayMs: -5}).UploadDelay()).Equal(time.Duration(0))
}
