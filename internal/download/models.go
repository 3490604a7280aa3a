package download

import (
	"ctox-dashboard/internal/dataset"
	"ctox-dashboard/pkg/models"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	xlsxExt         = ".xlsx"

	// PublishFolder receives published workbooks in the remote library
	PublishFolder = dataset.ParentFolder + "/Exports"
)

// PublishResponse describes an uploaded workbook
type PublishResponse struct {
	Path  string             `json:"path"`
	Entry models.RemoteEntry `json:"entry"`
}
