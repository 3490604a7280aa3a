package download

import (
	"context"

	"ctox-dashboard/internal/dashboard"
	"ctox-dashboard/internal/tabular"
	"ctox-dashboard/pkg/models"
)

// Exporter produces the table behind a download; satisfied by
// *dashboard.Service
type Exporter interface {
	Export(ctx context.Context, name, analysisKind string, f dashboard.Filter) (*dashboard.Export, error)
}

// RemoteWriter uploads a table as a workbook; satisfied by *graph.Connector
type RemoteWriter interface {
	WriteTabular(ctx context.Context, path string, table *tabular.Table, overwrite bool) (models.RemoteEntry, error)
}

// WriterFactory builds the remote writer used by one publish
type WriterFactory func(ctx context.Context) (RemoteWriter, error)
