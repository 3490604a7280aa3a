package dataset

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"ctox-dashboard/internal/tabular"
)

var errNoLocalFile = errors.New("no local spreadsheet")

// localFolders reads dataset spreadsheets from <root>/<folder>
type localFolders struct {
	root string
	open func(name string) (io.ReadCloser, error)
}

func newLocalFolders(root string) *localFolders {
	if root == "" {
		root = "."
	}
	return &localFolders{
		root: root,
		open: func(name string) (io.ReadCloser, error) { return os.Open(name) },
	}
}

// read parses the most recently modified .xlsx of a folder
func (lf *localFolders) read(folder string) (*tabular.Table, *FileInfo, error) {
	dir := filepath.Join(lf.root, folder)
	name, modTime, err := newestSpreadsheet(dir)
	if err != nil {
		return nil, nil, err
	}
	path := filepath.Join(dir, name)

	f, err := lf.open(path)
	if err != nil {
		return nil, nil, localReadError(name, err)
	}
	defer f.Close()

	table, err := tabular.Read(f)
	if err != nil {
		return nil, nil, localReadError(name, err)
	}

	return table, &FileInfo{
		Name:         name,
		Path:         path,
		Origin:       OriginLocal,
		LastModified: modTime.UTC().Format(time.RFC3339),
	}, nil
}

// newestSpreadsheet picks the .xlsx with the latest modification time.
// Excel owner files (~$name.xlsx) are skipped.
func newestSpreadsheet(dir string) (string, time.Time, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", time.Time{}, fmt.Errorf("%w: local folder %q not found", errNoLocalFile, dir)
		}
		return "", time.Time{}, fmt.Errorf("failed to read local folder %q: %w", dir, err)
	}

	var (
		newest  string
		newestT time.Time
	)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~$") || !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestT) {
			newest, newestT = name, info.ModTime()
		}
	}

	if newest == "" {
		return "", time.Time{}, fmt.Errorf("%w: no .xlsx file in local folder %q", errNoLocalFile, dir)
	}
	return newest, newestT, nil
}

func localReadError(name string, err error) error {
	if isLocked(err) {
		return fmt.Errorf("%w: %q is open in another program (probably Excel); close it and reload", ErrFileLocked, name)
	}
	return fmt.Errorf("failed to load %s: %w", name, err)
}

// isLocked reports whether err means the file is held by another process
func isLocked(err error) bool {
	return errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETXTBSY) ||
		isSharingViolation(err)
}
