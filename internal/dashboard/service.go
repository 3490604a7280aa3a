// Package dashboard serves the classified datasets and their analyses over
// HTTP.
package dashboard

import (
	"context"
	"fmt"

	"ctox-dashboard/internal/analysis"
	"ctox-dashboard/internal/dataset"
	"ctox-dashboard/internal/tabular"
)

// DefaultStateLimit is the number of states returned by StatusByState
const DefaultStateLimit = 10

// Service answers dashboard queries from the cached dataset
type Service struct {
	source DataSource
}

func NewService(source DataSource) *Service {
	return &Service{source: source}
}

// data returns the dataset, or a *NoDataError when both tables are empty
func (s *Service) data(ctx context.Context) (*dataset.Dataset, error) {
	ds := s.source.Get(ctx)
	if ds.Empty() {
		var warnings []string
		if ds != nil {
			warnings = ds.Warnings
		}
		return nil, &NoDataError{Warnings: warnings}
	}
	return ds, nil
}

// filtered returns both tables narrowed by f
func (s *Service) filtered(ctx context.Context, f Filter) (companies, labs *tabular.Table, err error) {
	ds, err := s.data(ctx)
	if err != nil {
		return nil, nil, err
	}
	return dataset.ApplyFilters(ds.Companies, f.State, f.City), dataset.ApplyFilters(ds.Labs, f.State, f.City), nil
}

// Sources reports the files behind the current dataset and the load warnings.
// It answers even when nothing could be loaded.
func (s *Service) Sources(ctx context.Context) *dataset.Dataset {
	return s.source.Get(ctx)
}

// Reload drops the cached dataset and loads it again
func (s *Service) Reload(ctx context.Context) *dataset.Dataset {
	s.source.Invalidate()
	return s.source.Get(ctx)
}

func (s *Service) Overview(ctx context.Context, f Filter) (analysis.Overview, error) {
	companies, labs, err := s.filtered(ctx, f)
	if err != nil {
		return analysis.Overview{}, err
	}
	return analysis.BuildOverview(companies, labs), nil
}

// Filters lists the states and cities offered by the filter controls
func (s *Service) Filters(ctx context.Context) (analysis.Options, error) {
	ds, err := s.data(ctx)
	if err != nil {
		return analysis.Options{}, err
	}
	return analysis.FilterOptions(ds.Labs), nil
}

// Labs lists the filtered labs with the company counts of their cities
func (s *Service) Labs(ctx context.Context, f Filter) (*tabular.Table, error) {
	ds, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	return analysis.LabListing(dataset.ApplyFilters(ds.Labs, f.State, f.City), ds.Companies), nil
}

// Companies lists the filtered companies with the lab counts of their cities
func (s *Service) Companies(ctx context.Context, f Filter) (*tabular.Table, error) {
	ds, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	return analysis.CompanyListing(dataset.ApplyFilters(ds.Companies, f.State, f.City), ds.Labs), nil
}

// Analysis runs a cross analysis over the filtered tables
func (s *Service) Analysis(ctx context.Context, kind string, f Filter) (analysis.Report, *tabular.Table, error) {
	report, err := analysis.Lookup(kind)
	if err != nil {
		return analysis.Report{}, nil, err
	}
	companies, labs, err := s.filtered(ctx, f)
	if err != nil {
		return report, nil, err
	}
	t, err := report.Run(companies, labs)
	if err != nil {
		return report, nil, err
	}
	return report, t, nil
}

// StatusByState counts active and inactive records per state of one dataset
func (s *Service) StatusByState(ctx context.Context, name string, limit int, f Filter) ([]analysis.StateStatus, error) {
	kind, ok := dataset.ParseKind(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	companies, labs, err := s.filtered(ctx, f)
	if err != nil {
		return nil, err
	}
	t := companies
	if kind == dataset.Labs {
		t = labs
	}
	return analysis.StatusByState(t, limit), nil
}

func (s *Service) Collections(ctx context.Context, f Filter) (analysis.CollectionStats, error) {
	_, labs, err := s.filtered(ctx, f)
	if err != nil {
		return analysis.CollectionStats{}, err
	}
	return analysis.Collections(labs), nil
}

// Export returns a filtered dataset listing, or an analysis result when
// analysisKind is set, named for a spreadsheet download
func (s *Service) Export(ctx context.Context, name, analysisKind string, f Filter) (*Export, error) {
	if analysisKind != "" {
		report, t, err := s.Analysis(ctx, analysisKind, f)
		if err != nil {
			return nil, err
		}
		return &Export{FilePrefix: report.FilePrefix, Sheet: report.Sheet, Table: t}, nil
	}

	kind, ok := dataset.ParseKind(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	var (
		t   *tabular.Table
		err error
	)
	if kind == dataset.Labs {
		t, err = s.Labs(ctx, f)
	} else {
		t, err = s.Companies(ctx, f)
	}
	if err != nil {
		return nil, err
	}
	return &Export{FilePrefix: string(kind), Sheet: exportSheets[kind], Table: t}, nil
}

var exportSheets = map[dataset.Kind]string{
	dataset.Companies: "Empresas",
	dataset.Labs:      "PCLs",
}
