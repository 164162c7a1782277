package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mzielin/tender-harvester/internal/api"
)

// newTendersCmd creates the 'tenders' subcommand. It crawls the listing
// endpoint for every configured province and persists both the raw page
// dumps and one tender.json per discovered tender.
func newTendersCmd() *cobra.Command {
	var (
		provinces    []string
		startPage    int
		endPage      int
		pageSize     int
		getAll       bool
		useFilters   bool
		maxProvinces int
	)

	cmd := &cobra.Command{
		Use:   "tenders",
		Short: "Crawl tender listings for the configured provinces",
		Long: `Walks the paged search endpoint for each province until an empty or
short page, saving a timestamped raw dump per province and a tender.json
per tender. Already crawled tenders are simply overwritten with fresh
listing data.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := app.Config

			searchCfg := api.SearchConfig{
				Endpoint:      cfg.API.Endpoints.Search,
				CategoryParam: cfg.Fetch.ProvinceParam,
				StartPage:     cfg.Fetch.Pagination.StartPage,
				EndPage:       cfg.Fetch.Pagination.EndPage,
				PageSize:      cfg.Fetch.Pagination.PageSize,
				SortColumn:    cfg.Fetch.Pagination.SortingColumn,
				SortDirection: cfg.Fetch.Pagination.SortingDirection,
				PageDelay:     cfg.Fetch.Pagination.PageDelay(),
				CategoryPause: cfg.Fetch.Pagination.ProvincePause(),
				GetAll:        cfg.Fetch.GetAll,
				Filters:       cfg.Fetch.Filters,
			}
			if cmd.Flags().Changed("start-page") {
				searchCfg.StartPage = startPage
			}
			if cmd.Flags().Changed("end-page") {
				searchCfg.EndPage = endPage
			}
			if cmd.Flags().Changed("page-size") {
				searchCfg.PageSize = pageSize
			}
			if cmd.Flags().Changed("get-all") {
				searchCfg.GetAll = getAll
			}
			if useFilters {
				searchCfg.GetAll = false
			}

			targets := cfg.Fetch.Provinces
			if len(provinces) > 0 {
				targets = provinces
			}
			if len(targets) == 0 {
				return fmt.Errorf("no provinces configured; set fetch.provinces or pass --province")
			}
			if maxProvinces > 0 && maxProvinces < len(targets) {
				targets = targets[:maxProvinces]
			}

			searcher := api.NewSearcher(app.Client, searchCfg, app.Logger)
			results := searcher.SearchAll(cmd.Context(), targets)

			total := 0
			for _, province := range targets {
				records := results[province]
				if len(records) == 0 {
					app.Logger.Warn("no tenders found", zap.String("province", province))
					continue
				}

				jsonPath, _, err := app.Store.SaveRawListing(province, records, time.Now().UTC())
				if err != nil {
					return fmt.Errorf("save raw listing for %s: %w", province, err)
				}
				app.Logger.Info("saved raw listing",
					zap.String("province", province),
					zap.String("path", jsonPath),
				)

				for _, record := range records {
					id := record.ID()
					if id == "" {
						app.Logger.Warn("tender without identifier, skipping",
							zap.String("province", province),
						)
						continue
					}
					if err := app.Store.SaveTender(id, record); err != nil {
						app.Logger.Error("save tender failed",
							zap.String("tender_id", id),
							zap.Error(err),
						)
						continue
					}
					total++
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d tenders across %d provinces\n", total, len(targets))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&provinces, "province", nil, "province to crawl (repeatable, overrides config)")
	cmd.Flags().IntVar(&startPage, "start-page", 0, "first listing page")
	cmd.Flags().IntVar(&endPage, "end-page", 0, "last listing page (inclusive, 0 = until exhausted)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "records per listing page")
	cmd.Flags().BoolVar(&getAll, "get-all", false, "ignore configured filters and fetch everything")
	cmd.Flags().BoolVar(&useFilters, "use-filters", false, "apply the configured filters")
	cmd.Flags().IntVar(&maxProvinces, "max-provinces", 0, "crawl at most this many provinces (0 = all)")

	return cmd
}
