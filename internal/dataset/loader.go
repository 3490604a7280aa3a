package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ctox-dashboard/internal/providers/graph"
	"ctox-dashboard/internal/tabular"

	"go.uber.org/zap"
)

// maxListedItems bounds the names quoted in a "no spreadsheet" warning
const maxListedItems = 5

// Loader resolves the newest spreadsheet of each dataset from the remote
// library, falling back to local folders
type Loader struct {
	factory ConnectorFactory
	local   *localFolders
	log     *zap.Logger
}

// NewLoader creates a loader. factory may be nil for local-only operation;
// localRoot holds the two dataset folders.
func NewLoader(factory ConnectorFactory, localRoot string, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		factory: factory,
		local:   newLocalFolders(localRoot),
		log:     log,
	}
}

// Load returns both raw tables with any warnings. It never fails: datasets
// that cannot be resolved come back as empty tables.
func (l *Loader) Load(ctx context.Context) Result {
	res := Result{Companies: tabular.New(), Labs: tabular.New()}
	warn := func(msg string) {
		l.log.Warn("dataset load warning", zap.String("warning", msg))
		res.Warnings = append(res.Warnings, msg)
	}

	remote := l.remote(ctx)
	for _, kind := range Kinds {
		var (
			table *tabular.Table
			info  *FileInfo
		)
		if remote != nil {
			table, info = l.loadRemote(ctx, remote, kind, warn)
		}
		if table == nil {
			table, info = l.loadLocal(kind, warn)
		}
		if table == nil {
			continue
		}

		switch kind {
		case Companies:
			res.Companies, res.Sources.Companies = table, info
		case Labs:
			res.Labs, res.Sources.Labs = table, info
		}
	}

	l.log.Info("datasets loaded",
		zap.Int("companies", res.Companies.Len()),
		zap.Int("labs", res.Labs.Len()),
		zap.Int("warnings", len(res.Warnings)))
	return res
}

// remote builds the connector. A construction failure means "no remote
// configured" and is not reported as a warning.
func (l *Loader) remote(ctx context.Context) RemoteSource {
	if l.factory == nil {
		return nil
	}
	src, err := l.factory(ctx)
	if err != nil {
		l.log.Info("remote library unavailable, using local folders", zap.Error(err))
		return nil
	}
	return src
}

func (l *Loader) loadRemote(ctx context.Context, remote RemoteSource, kind Kind, warn func(string)) (*tabular.Table, *FileInfo) {
	folder := kind.RemotePath()

	latest, err := remote.LatestExcelIn(ctx, folder)
	if err != nil {
		warn(fmt.Sprintf("failed to access folder %q in the remote library: %v", folder, err))
		return nil, nil
	}
	if !latest.Found() {
		warn(l.describeFolder(ctx, remote, folder))
		return nil, nil
	}

	table, err := remote.ReadTabular(ctx, latest.FullPath)
	if err != nil {
		warn(fmt.Sprintf("failed to load %s from the remote library: %v", latest.FileName, err))
		return nil, nil
	}

	l.log.Info("loaded remote spreadsheet",
		zap.String("dataset", string(kind)),
		zap.String("file", latest.FullPath),
		zap.Int("rows", table.Len()))
	return table, &FileInfo{
		Name:         latest.FileName,
		Path:         latest.FullPath,
		Origin:       OriginRemote,
		LastModified: latest.LastModified,
	}
}

// describeFolder re-lists a folder without spreadsheets to explain what it
// holds
func (l *Loader) describeFolder(ctx context.Context, remote RemoteSource, folder string) string {
	entries, err := remote.List(ctx, folder)
	if err != nil && !errors.Is(err, graph.ErrNotFound) {
		return fmt.Sprintf("failed to access folder %q in the remote library: %v", folder, err)
	}
	if len(entries) == 0 {
		return fmt.Sprintf("folder %q not found or empty in the remote library", folder)
	}

	names := make([]string, 0, maxListedItems)
	for _, e := range entries {
		if len(names) == maxListedItems {
			break
		}
		names = append(names, e.Name)
	}
	return fmt.Sprintf("no Excel file found in %q in the remote library. Items found: %s", folder, strings.Join(names, ", "))
}

func (l *Loader) loadLocal(kind Kind, warn func(string)) (*tabular.Table, *FileInfo) {
	table, info, err := l.local.read(kind.Folder())
	if err != nil {
		warn(err.Error())
		return nil, nil
	}

	l.log.Info("loaded local spreadsheet",
		zap.String("dataset", string(kind)),
		zap.String("file", info.Path),
		zap.Int("rows", table.Len()))
	return table, info
}
