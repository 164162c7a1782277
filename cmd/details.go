package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mzielin/tender-harvester/internal/api"
)

// newDetailsCmd creates the 'details' subcommand: fetch full tender details
// for explicit ids and persist them as tender.json.
func newDetailsCmd() *cobra.Command {
	var (
		tenderIDs []string
		idsFile   string
	)

	cmd := &cobra.Command{
		Use:   "details",
		Short: "Fetch and store details for specific tenders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			ids, err := collectTenderIDs(tenderIDs, idsFile)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return fmt.Errorf("no tender ids given; use --tender-id or --ids-file")
			}

			fetcher := api.NewDetailsFetcher(
				app.Client,
				app.Config.API.Endpoints.Details,
				app.Config.API.DetailsParam,
				app.Logger,
			)

			saved := 0
			for _, id := range ids {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				record := fetcher.Fetch(cmd.Context(), id)
				if record == nil {
					app.Logger.Warn("no details for tender", zap.String("tender_id", id))
					continue
				}
				if err := app.Store.SaveTender(id, record); err != nil {
					app.Logger.Error("save tender failed",
						zap.String("tender_id", id),
						zap.Error(err),
					)
					continue
				}
				saved++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved details for %d/%d tenders\n", saved, len(ids))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tenderIDs, "tender-id", nil, "tender id (repeatable, comma separated values allowed)")
	cmd.Flags().StringVar(&idsFile, "ids-file", "", "file with one tender id per line")

	return cmd
}
