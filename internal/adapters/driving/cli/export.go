package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqbridge/internal/core/ports/driving"
)

var (
	exportTab         string
	exportSpreadsheet string

	downloadFolder string
	downloadStatus string
	downloadOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the enriched extraction to the spreadsheet",
	Long: `Extract the request records, enrich them with directory contacts and
rewrite the export tab of the shared spreadsheet.`,
	RunE: runExport,
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Write the selected records to an XLSX file",
	RunE:  runDownload,
}

func init() {
	exportCmd.Flags().StringVar(&exportTab, "tab", "", "target tab (default from config)")
	exportCmd.Flags().StringVar(&exportSpreadsheet, "spreadsheet", "", "target spreadsheet id (default from config)")
	rootCmd.AddCommand(exportCmd)

	downloadCmd.Flags().StringVar(&downloadFolder, "folder", "", "folder id to select")
	downloadCmd.Flags().StringVar(&downloadStatus, "status", "", "status id to select")
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file (default is the generated name)")
	rootCmd.AddCommand(downloadCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	if svc.Export == nil {
		return errors.New("export service not configured")
	}

	result, err := svc.Export.ExportToSheet(commandContext(cmd), driving.ExportRequest{
		SpreadsheetID: exportSpreadsheet,
		Tab:           exportTab,
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	cmd.Printf("Exported %d rows (%d columns) to tab %q.\n", result.Rows, result.Columns, result.Tab)
	cmd.Printf("Enriched: %d\n", result.Enriched)
	if result.Verified != nil {
		cmd.Printf("Verified: %t\n", *result.Verified)
	}
	for _, w := range result.Warnings {
		cmd.Printf("Warning: %s\n", w)
	}
	return nil
}

func runDownload(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	if svc.Export == nil {
		return errors.New("export service not configured")
	}

	download, err := svc.Export.DownloadExcel(commandContext(cmd), driving.DownloadRequest{
		FolderID: downloadFolder,
		StatusID: downloadStatus,
	})
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	path := downloadOutput
	if path == "" {
		path = download.FileName
	}
	if err := os.WriteFile(path, download.Data, 0o644); err != nil { //nolint:gosec // G306: workbook is not secret
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	cmd.Printf("Wrote %d rows to %s\n", download.Rows, path)
	return nil
}
