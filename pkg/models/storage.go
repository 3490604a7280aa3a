package models

import "strings"

// RemoteEntry represents a child item returned by a drive listing
type RemoteEntry struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	IsFolder     bool   `json:"is_folder"`
	IsFile       bool   `json:"is_file"`
	Size         int64  `json:"size,omitempty"`
	LastModified string `json:"last_modified"` // ISO-8601 as reported by the provider
	WebURL       string `json:"web_url,omitempty"`
}

// IsSpreadsheet reports whether the entry is a selectable .xlsx data file
func (e RemoteEntry) IsSpreadsheet() bool {
	return e.IsFile && !e.IsFolder && strings.HasSuffix(strings.ToLower(e.Name), ".xlsx")
}

// LatestFileResult is the newest spreadsheet found in a folder.
// The zero value is the not-found sentinel.
type LatestFileResult struct {
	FullPath     string `json:"full_path,omitempty"`
	FileName     string `json:"file_name,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

// Found reports whether a file was selected
func (r LatestFileResult) Found() bool {
	return r.FullPath != ""
}
