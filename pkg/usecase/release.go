package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/release-sync/pkg/domain/interfaces"
	"github.com/m-mizutani/release-sync/pkg/domain/model"
	"github.com/m-mizutani/release-sync/pkg/utils/clock"
)

const (
	// DefaultTag is the release tag synced when none is configured
	DefaultTag = "latest"

	// DefaultUploadDelay paces consecutive uploads
	DefaultUploadDelay = 700 * time.Millisecond
)

// config holds internal release sync configuration
type config struct {
	tag             string
	targetCommitish string
	uploadDelay     time.Duration
	clock           clock.Clock
}

// Option is a functional option for the release sync use case
type Option func(*config)

// WithTag sets the release tag to sync
func WithTag(tag string) Option {
	return func(c *config) {
		c.tag = tag
	}
}

// WithTargetCommitish pins a newly created release to a commit or branch
func WithTargetCommitish(commitish string) Option {
	return func(c *config) {
		c.targetCommitish = commitish
	}
}

// WithUploadDelay sets the pause between consecutive uploads
func WithUploadDelay(d time.Duration) Option {
	return func(c *config) {
		c.uploadDelay = d
	}
}

// WithClock sets the clock used for upload pacing
func WithClock(clk clock.Clock) Option {
	return func(c *config) {
		c.clock = clk
	}
}

type releaseSync struct {
	client interfaces.ReleaseClient
	source interfaces.ArtifactSource
	cfg    config
}

// NewReleaseSync creates a new instance of ReleaseSyncUseCase
func NewReleaseSync(client interfaces.ReleaseClient, source interfaces.ArtifactSource, opts ...Option) interfaces.ReleaseSyncUseCase {
	cfg := config{
		tag:         DefaultTag,
		uploadDelay: DefaultUploadDelay,
		clock:       clock.Real(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &releaseSync{
		client: client,
		source: source,
		cfg:    cfg,
	}
}

// Sync resolves the release, then deletes and re-uploads every local
// artifact in file name order. The first failure aborts the run.
func (uc *releaseSync) Sync(ctx context.Context) (*model.SyncReport, error) {
	logger := ctxlog.From(ctx)

	release, created, err := uc.resolveRelease(ctx)
	if err != nil {
		return nil, err
	}

	report := &model.SyncReport{
		ReleaseID:      release.ID,
		TagName:        uc.cfg.tag,
		ReleaseCreated: created,
	}

	artifacts, err := uc.source.List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list artifacts")
	}

	if len(artifacts) == 0 {
		logger.Info("No artifacts to upload", "tag", uc.cfg.tag)
		return report, nil
	}

	logger.Info("Syncing artifacts",
		"tag", uc.cfg.tag,
		"release_id", release.ID,
		"count", len(artifacts),
	)

	for i, artifact := range artifacts {
		replaced, err := uc.syncArtifact(ctx, release, artifact)
		if err != nil {
			return nil, err
		}

		report.Uploaded = append(report.Uploaded, artifact.FileName)
		if replaced {
			report.Replaced = append(report.Replaced, artifact.FileName)
		}

		if i < len(artifacts)-1 {
			if err := clock.Sleep(ctx, uc.cfg.clock, uc.cfg.uploadDelay); err != nil {
				return nil, goerr.Wrap(err, "interrupted between uploads")
			}
		}
	}

	logger.Info("Release sync completed",
		"tag", uc.cfg.tag,
		"release_id", release.ID,
		"uploaded", len(report.Uploaded),
		"replaced", len(report.Replaced),
	)

	return report, nil
}

// resolveRelease fetches the release by tag, creating it on 404
func (uc *releaseSync) resolveRelease(ctx context.Context) (*model.Release, bool, error) {
	logger := ctxlog.From(ctx)

	release, err := uc.client.GetReleaseByTag(ctx, uc.cfg.tag)
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to get release", goerr.V("tag", uc.cfg.tag))
	}
	if release != nil {
		logger.Info("Found release",
			"tag", uc.cfg.tag,
			"release_id", release.ID,
			"assets", len(release.Assets),
		)
		return release, false, nil
	}

	logger.Info("Release not found, creating",
		"tag", uc.cfg.tag,
		"target_commitish", uc.cfg.targetCommitish,
	)

	release, err = uc.client.CreateRelease(ctx, &model.NewRelease{
		TagName:         uc.cfg.tag,
		Name:            uc.cfg.tag,
		TargetCommitish: uc.cfg.targetCommitish,
	})
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to create release", goerr.V("tag", uc.cfg.tag))
	}

	logger.Info("Created release", "tag", uc.cfg.tag, "release_id", release.ID)
	return release, true, nil
}

// syncArtifact deletes a same-named asset if the snapshot has one, then uploads
func (uc *releaseSync) syncArtifact(ctx context.Context, release *model.Release, artifact *model.LocalArtifact) (bool, error) {
	logger := ctxlog.From(ctx)

	existing, replaced := release.AssetByName(artifact.FileName)
	if replaced {
		logger.Info("Deleting existing asset",
			"file", artifact.FileName,
			"asset_id", existing.ID,
		)
		if err := uc.client.DeleteReleaseAsset(ctx, existing.ID); err != nil {
			return false, goerr.Wrap(err, "failed to delete existing asset",
				goerr.V("file", artifact.FileName),
				goerr.V("asset_id", existing.ID),
			)
		}
	}

	if err := uc.source.Load(ctx, artifact); err != nil {
		return false, goerr.Wrap(err, "failed to load artifact", goerr.V("file", artifact.FileName))
	}

	logger.Info("Uploading asset",
		"file", artifact.FileName,
		"content_type", artifact.ContentType,
		"size_bytes", len(artifact.Content),
	)

	asset, err := uc.client.UploadReleaseAsset(ctx, release, artifact)
	if err != nil {
		return false, goerr.Wrap(err, "failed to upload asset", goerr.V("file", artifact.FileName))
	}

	logger.Debug("Uploaded asset", "file", artifact.FileName, "asset_id", asset.ID)
	return replaced, nil
}
