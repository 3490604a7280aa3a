package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"ctox-dashboard/internal/dataset"
	"ctox-dashboard/pkg/models"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

const checkTimeout = 2 * time.Minute

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the connection to the remote library",
	Long: `Builds the connector from the configured secrets and lists the library
root, the "Data Analysis" folder and both dataset folders, reporting the
newest spreadsheet found in each dataset folder.`,
	RunE: runCheck,
}

// checkSource is the part of the connector the check exercises
type checkSource interface {
	List(ctx context.Context, folderPath string) ([]models.RemoteEntry, error)
	LatestExcelIn(ctx context.Context, folderPath string) (models.LatestFileResult, error)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	conn, err := newConnector(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to create connection: %w", err)
	}
	mode, _ := conn.Mode()

	return checkConnection(ctx, cmd.OutOrStdout(), conn, string(mode))
}

// checkConnection prints each folder listing and the newest spreadsheet of
// the dataset folders. It fails only when the library root cannot be listed.
func checkConnection(ctx context.Context, w io.Writer, src checkSource, mode string) error {
	fmt.Fprintf(w, "Connection created (mode: %s)\n\n", mode)

	folders := []string{"", dataset.ParentFolder}
	for _, kind := range dataset.Kinds {
		folders = append(folders, kind.RemotePath())
	}

	for i, folder := range folders {
		label := folder
		if label == "" {
			label = "(library root)"
		}
		entries, err := src.List(ctx, folder)
		if err != nil {
			if i == 0 {
				return fmt.Errorf("failed to list the library root: %w", err)
			}
			fmt.Fprintf(w, "%s: error: %v\n\n", label, err)
			continue
		}

		fmt.Fprintf(w, "%s: %d items\n", label, len(entries))
		renderEntries(w, entries)
		fmt.Fprintln(w)
	}

	for _, kind := range dataset.Kinds {
		folder := kind.RemotePath()
		latest, err := src.LatestExcelIn(ctx, folder)
		switch {
		case err != nil:
			fmt.Fprintf(w, "Latest spreadsheet in %s: error: %v\n", folder, err)
		case !latest.Found():
			fmt.Fprintf(w, "Latest spreadsheet in %s: none\n", folder)
		default:
			fmt.Fprintf(w, "Latest spreadsheet in %s: %s (modified %s)\n", folder, latest.FileName, latest.LastModified)
		}
	}
	return nil
}

func renderEntries(w io.Writer, entries []models.RemoteEntry) {
	if len(entries) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Type", "Name", "Size", "Modified"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)

	for _, e := range entries {
		kind := "file"
		if e.IsFolder {
			kind = "folder"
		}
		table.Append([]string{kind, e.Name, strconv.FormatInt(e.Size, 10), e.LastModified})
	}
	table.Render()
}
