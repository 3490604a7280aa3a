package dataset

import (
	"context"

	"ctox-dashboard/internal/tabular"
	"ctox-dashboard/pkg/models"
)

// RemoteSource is the part of the file connector the loader needs
type RemoteSource interface {
	LatestExcelIn(ctx context.Context, folderPath string) (models.LatestFileResult, error)
	List(ctx context.Context, folderPath string) ([]models.RemoteEntry, error)
	ReadTabular(ctx context.Context, path string) (*tabular.Table, error)
}

// ConnectorFactory builds a RemoteSource for one load. An error means no
// remote library is available and only the local folders are used.
type ConnectorFactory func(ctx context.Context) (RemoteSource, error)

// DatasetLoader produces a raw load result
type DatasetLoader interface {
	Load(ctx context.Context) Result
}
