package interfaces

import (
	"context"

	"github.com/m-mizutani/release-sync/pkg/domain/model"
)

// ReleaseSyncUseCase defines the release asset synchronization
type ReleaseSyncUseCase interface {
	// Sync resolves the target release and replaces its assets with the local artifacts
	Sync(ctx context.Context) (*model.SyncReport, error)
}
