package dashboard

import (
	"context"

	"ctox-dashboard/internal/dataset"
)

// DataSource serves the classified dataset; satisfied by *dataset.Cache
type DataSource interface {
	Get(ctx context.Context) *dataset.Dataset
	Invalidate()
}
