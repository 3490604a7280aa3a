package graph

import (
	"context"
	"errors"

	"ctox-dashboard/pkg/models"

	"go.uber.org/zap"
)

// LatestExcelIn returns the most recently modified .xlsx file of a folder.
// A missing folder or a folder without spreadsheets yields the zero
// LatestFileResult; any other listing failure is returned.
func (c *Connector) LatestExcelIn(ctx context.Context, folderPath string) (models.LatestFileResult, error) {
	entries, err := c.List(ctx, folderPath)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.LatestFileResult{}, nil
		}
		return models.LatestFileResult{}, err
	}

	result := LatestSpreadsheet(folderPath, entries)
	if result.Found() {
		c.log.Debug("selected latest spreadsheet",
			zap.String("folder", folderPath),
			zap.String("file", result.FileName),
			zap.String("last_modified", result.LastModified))
	}
	return result, nil
}

// LatestSpreadsheet picks the spreadsheet with the greatest ISO-8601
// modification time. Ties keep the first entry seen.
func LatestSpreadsheet(folderPath string, entries []models.RemoteEntry) models.LatestFileResult {
	var latest *models.RemoteEntry
	for i := range entries {
		e := &entries[i]
		if !e.IsSpreadsheet() {
			continue
		}
		if latest == nil || e.LastModified > latest.LastModified {
			latest = e
		}
	}
	if latest == nil {
		return models.LatestFileResult{}
	}

	return models.LatestFileResult{
		FullPath:     folderPath + "/" + latest.Name,
		FileName:     latest.Name,
		LastModified: latest.LastModified,
	}
}
