package interfaces

import (
	"context"

	"github.com/m-mizutani/release-sync/pkg/domain/model"
)

// ArtifactSource enumerates and reads local build artifacts
type ArtifactSource interface {
	// List returns candidate artifacts sorted by file name, without content
	List(ctx context.Context) ([]*model.LocalArtifact, error)

	// Load reads the artifact's bytes into its Content field
	Load(ctx context.Context, artifact *model.LocalArtifact) error
}
