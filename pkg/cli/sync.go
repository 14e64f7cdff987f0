package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/release-sync/pkg/cli/config"
	"github.com/m-mizutani/release-sync/pkg/infra/artifact"
	githubinfra "github.com/m-mizutani/release-sync/pkg/infra/github"
	"github.com/m-mizutani/release-sync/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdSync() *cli.Command {
	var (
		githubCfg config.GitHub
		retryCfg  config.Retry
		syncCfg   config.Sync
	)

	var flags []cli.Flag
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, retryCfg.Flags()...)
	flags = append(flags, syncCfg.Flags()...)

	return &cli.Command{
		Name:    "sync",
		Aliases: []string{"s"},
		Usage:   "Replace release assets with local artifacts",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := githubCfg.Validate(); err != nil {
				return goerr.Wrap(err, "invalid GitHub configuration")
			}
			policy, err := retryCfg.Policy()
			if err != nil {
				return goerr.Wrap(err, "invalid retry configuration")
			}
			repo, err := githubCfg.Repo()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("Starting release sync",
				"repository", repo.String(),
				"tag", syncCfg.Tag,
				"dir", syncCfg.Dir,
				"max_retries", policy.MaxRetries,
				"base_delay_ms", policy.BaseDelayMs,
				"upload_delay_ms", retryCfg.UploadDelay().Milliseconds(),
			)

			token, err := githubCfg.ResolveToken(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to resolve GitHub token")
			}

			requester, err := githubinfra.NewRequester(policy)
			if err != nil {
				return err
			}
			client, err := githubinfra.NewClient(requester, githubCfg.APIURL, repo, token)
			if err != nil {
				return goerr.Wrap(err, "failed to create GitHub client")
			}

			uc := usecase.NewReleaseSync(client, artifact.NewOSDirectory(syncCfg.Dir),
				usecase.WithTag(syncCfg.Tag),
				usecase.WithTargetCommitish(syncCfg.TargetCommitish),
				usecase.WithUploadDelay(retryCfg.UploadDelay()),
			)

			report, err := uc.Sync(ctx)
			if err != nil {
				return err
			}

			logger.Info("Release assets synced",
				"repository", repo.String(),
				"tag", report.TagName,
				"release_id", report.ReleaseID,
				"release_created", report.ReleaseCreated,
				"uploaded", report.Uploaded,
				"replaced", report.Replaced,
			)
			return nil
		},
	}
}
