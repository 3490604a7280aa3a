package download

import (
	"context"
	"fmt"
	"io"

	"ctox-dashboard/internal/dashboard"
	"ctox-dashboard/internal/dataset"
	"ctox-dashboard/internal/tabular"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type Service struct {
	exporter Exporter
	writers  WriterFactory
	clock    clockwork.Clock
	log      *zap.Logger
}

// NewService creates a download service. writers may be nil, in which case
// publishing fails with dataset.ErrNoRemote.
func NewService(exporter Exporter, writers WriterFactory, clock clockwork.Clock, log *zap.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{exporter: exporter, writers: writers, clock: clock, log: log}
}

// FileName returns <prefix>_<yyyymmdd>.xlsx for today
func (s *Service) FileName(prefix string) string {
	return fmt.Sprintf("%s_%s%s", prefix, s.clock.Now().Format("20060102"), xlsxExt)
}

// Prepare resolves the export for a download request
func (s *Service) Prepare(ctx context.Context, name, analysisKind string, f dashboard.Filter) (*dashboard.Export, error) {
	return s.exporter.Export(ctx, name, analysisKind, f)
}

// WriteWorkbook writes the export as a single-sheet workbook
func (s *Service) WriteWorkbook(w io.Writer, export *dashboard.Export) error {
	if err := tabular.Write(w, export.Table, export.Sheet); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Publish uploads the export to PublishFolder in the remote library,
// replacing a file of the same name
func (s *Service) Publish(ctx context.Context, name, analysisKind string, f dashboard.Filter) (*PublishResponse, error) {
	export, err := s.Prepare(ctx, name, analysisKind, f)
	if err != nil {
		return nil, err
	}

	if s.writers == nil {
		return nil, dataset.ErrNoRemote
	}
	writer, err := s.writers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dataset.ErrNoRemote, err)
	}

	path := PublishFolder + "/" + s.FileName(export.FilePrefix)
	entry, err := writer.WriteTabular(ctx, path, export.Table, true)
	if err != nil {
		return nil, fmt.Errorf("failed to publish %s: %w", path, err)
	}

	s.log.Info("workbook published", zap.String("path", path), zap.Int("rows", export.Table.Len()))
	return &PublishResponse{Path: path, Entry: entry}, nil
}
