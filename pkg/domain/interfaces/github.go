package interfaces

import (
	"context"

	"github.com/m-mizutani/release-sync/pkg/domain/model"
)

// ReleaseClient defines the release operations used by the sync controller
type ReleaseClient interface {
	// GetReleaseByTag fetches a release by its tag name. A missing release
	// is reported as (nil, nil).
	GetReleaseByTag(ctx context.Context, tag string) (*model.Release, error)

	// CreateRelease creates a published, non-prerelease release
	CreateRelease(ctx context.Context, release *model.NewRelease) (*model.Release, error)

	// DeleteReleaseAsset deletes an asset by its ID
	DeleteReleaseAsset(ctx context.Context, assetID int64) error

	// UploadReleaseAsset uploads an artifact to the release's upload endpoint
	UploadReleaseAsset(ctx context.Context, release *model.Release, artifact *model.LocalArtifact) (*model.ReleaseAsset, error)
}
