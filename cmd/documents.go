package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzielin/tender-harvester/internal/api"
	"github.com/mzielin/tender-harvester/internal/clock/system"
	"github.com/mzielin/tender-harvester/internal/harvest"
)

// newDocumentsCmd creates the 'documents' subcommand: resolve document
// metadata and download attachments for explicit ids, an ids file, or every
// tender already on disk.
func newDocumentsCmd() *cobra.Command {
	var (
		tenderIDs    []string
		idsFile      string
		auto         bool
		glob         string
		overwrite    bool
		metadataOnly bool
		ignoreCache  bool
	)

	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Fetch document metadata and download attachments",
		Long: `Resolves the document list for each tender and downloads every
attachment that is not already on disk. With --auto it processes every
tender directory matching --glob instead of explicit ids. Re-running is
safe: cached metadata and existing files are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			ids, err := collectTenderIDs(tenderIDs, idsFile)
			if err != nil {
				return err
			}
			if !auto && len(ids) == 0 {
				return fmt.Errorf("no tender ids given; use --tender-id, --ids-file or --auto")
			}
			if auto && len(ids) > 0 {
				return fmt.Errorf("--auto cannot be combined with explicit tender ids")
			}

			docs := api.NewDocumentsFetcher(
				app.Client,
				app.Config.API.Endpoints.Documents,
				app.Config.API.DocumentsParam,
				app.Logger,
			)
			downloader := harvest.NewDownloader(app.Client, app.Store, app.Config.API.Endpoints.Download, app.Logger)
			service := harvest.NewService(docs, downloader, app.Store, system.New(), app.Logger)

			if metadataOnly {
				if auto {
					return fmt.Errorf("--metadata-only requires explicit tender ids")
				}
				var outcomes []harvest.Outcome
				for _, id := range ids {
					outcomes = append(outcomes, service.DownloadDocumentInfo(cmd.Context(), id, overwrite))
				}
				printSummary(cmd, harvest.Summarize(outcomes))
				return nil
			}

			opts := harvest.Options{
				Overwrite:         overwrite,
				UseCachedMetadata: !ignoreCache,
			}

			var outcomes []harvest.Outcome
			if auto {
				outcomes, err = service.DownloadForExistingTenders(cmd.Context(), glob, opts)
				if err != nil {
					return fmt.Errorf("discover local tenders: %w", err)
				}
			} else {
				outcomes = service.DownloadForBatch(cmd.Context(), ids, opts)
			}

			printSummary(cmd, harvest.Summarize(outcomes))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tenderIDs, "tender-id", nil, "tender id (repeatable, comma separated values allowed)")
	cmd.Flags().StringVar(&idsFile, "ids-file", "", "file with one tender id per line")
	cmd.Flags().BoolVar(&auto, "auto", false, "process every tender already stored locally")
	cmd.Flags().StringVar(&glob, "glob", "*", "tender directory pattern used with --auto")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "re-download files and re-fetch metadata that already exist")
	cmd.Flags().BoolVar(&metadataOnly, "metadata-only", false, "fetch document metadata without downloading files")
	cmd.Flags().BoolVar(&ignoreCache, "ignore-cache", false, "always fetch metadata live instead of using documents.json")

	return cmd
}

func printSummary(cmd *cobra.Command, s harvest.Summary) {
	fmt.Fprintf(cmd.OutOrStdout(),
		"Tenders: %d total, %d completed, %d without documents, %d skipped, %d failed\nDocuments: %d found, %d on disk\n",
		s.Total, s.Completed, s.NoDocuments, s.SkippedExisting, s.Errors,
		s.DocumentsFound, s.DocumentsDownloaded,
	)
}
