package graph

import (
	"context"
	"net/http"
	"testing"

	"ctox-dashboard/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestSpreadsheet(t *testing.T) {
	entries := []models.RemoteEntry{
		{Name: "a.xlsx", IsFile: true, LastModified: "2024-01-01T00:00:00Z"},
		{Name: "b.xlsx", IsFile: true, LastModified: "2024-03-01T00:00:00Z"},
		{Name: "c.csv", IsFile: true, LastModified: "2024-05-01T00:00:00Z"},
		{Name: "Old.XLSX", IsFolder: true, LastModified: "2024-06-01T00:00:00Z"},
	}

	got := LatestSpreadsheet("X", entries)
	assert.Equal(t, models.LatestFileResult{FullPath: "X/b.xlsx", FileName: "b.xlsx", LastModified: "2024-03-01T00:00:00Z"}, got)
	assert.True(t, got.Found())
}

func TestLatestSpreadsheet_TiesAndEmpty(t *testing.T) {
	entries := []models.RemoteEntry{
		{Name: "first.xlsx", IsFile: true, LastModified: "2024-03-01T00:00:00Z"},
		{Name: "second.XLSX", IsFile: true, LastModified: "2024-03-01T00:00:00Z"},
	}
	assert.Equal(t, "first.xlsx", LatestSpreadsheet("X", entries).FileName)

	assert.False(t, LatestSpreadsheet("X", nil).Found())
	assert.False(t, LatestSpreadsheet("X", []models.RemoteEntry{{Name: "notes.txt", IsFile: true}}).Found())
}

func TestLatestExcelIn(t *testing.T) {
	fg := newFakeGraph(t)
	fg.handleJSON(http.MethodGet, userDrive+"/root:/Documents/X:/children", http.StatusOK, map[string]any{"value": []map[string]any{
		{"name": "a.xlsx", "file": map[string]string{}, "lastModifiedDateTime": "2024-01-01T00:00:00Z"},
		{"name": "b.xlsx", "file": map[string]string{}, "lastModifiedDateTime": "2024-03-01T00:00:00Z"},
		{"name": "c.csv", "file": map[string]string{}, "lastModifiedDateTime": "2024-05-01T00:00:00Z"},
	}})
	fg.handleJSON(http.MethodGet, userDrive+"/root:/Documents/Broken:/children", http.StatusInternalServerError, nil)

	c := fg.connector(oneDriveConfig(), nil)
	ctx := context.Background()

	got, err := c.LatestExcelIn(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, "X/b.xlsx", got.FullPath)
	assert.Equal(t, "b.xlsx", got.FileName)

	missing, err := c.LatestExcelIn(ctx, "Missing")
	require.NoError(t, err)
	assert.False(t, missing.Found())

	_, err = c.LatestExcelIn(ctx, "Broken")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}
