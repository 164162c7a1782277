package api

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mzielin/tender-harvester/internal/tender"
)

// SearchConfig parameterizes the paged listing crawl.
type SearchConfig struct {
	Endpoint      string
	CategoryParam string
	StartPage     int
	// EndPage caps the crawl at an inclusive page number; zero means no cap.
	EndPage       int
	PageSize      int
	SortColumn    string
	SortDirection string
	PageDelay     time.Duration
	CategoryPause time.Duration
	// GetAll omits the filter parameters entirely.
	GetAll  bool
	Filters map[string]string
}

// Searcher walks the listing endpoint to exhaustion, one category at a time.
type Searcher struct {
	client *Client
	cfg    SearchConfig
	logger *zap.Logger
}

// NewSearcher builds a Searcher. Zero-value pagination fields get the
// conventional defaults (page 1, 50 records per page).
func NewSearcher(client *Client, cfg SearchConfig, logger *zap.Logger) *Searcher {
	if cfg.StartPage <= 0 {
		cfg.StartPage = 1
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.CategoryParam == "" {
		cfg.CategoryParam = "organizationProvince"
	}
	return &Searcher{client: client, cfg: cfg, logger: logger}
}

// SearchCategory fetches every listing page for one category. The crawl is
// best effort: a request failure mid-crawl stops the walk and returns the
// records accumulated so far rather than an error.
func (s *Searcher) SearchCategory(ctx context.Context, category string) []tender.Record {
	var all []tender.Record
	page := s.cfg.StartPage

	s.logger.Info("fetching category",
		zap.String("category", category),
		zap.Int("start_page", page),
	)

	for {
		raw, err := s.client.GetJSON(ctx, s.cfg.Endpoint, s.pageParams(category, page))
		if err != nil {
			s.logger.Error("listing page fetch failed, returning partial result",
				zap.String("category", category),
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}

		records, shape := normalizeList(raw, "tenders")
		if shape == shapeUnrecognized {
			s.logger.Warn("unexpected listing response shape",
				zap.String("category", category),
				zap.Int("page", page),
			)
			break
		}
		if len(records) == 0 {
			s.logger.Info("empty page, crawl finished",
				zap.String("category", category),
				zap.Int("page", page),
			)
			break
		}

		all = append(all, records...)
		s.logger.Info("fetched listing page",
			zap.String("category", category),
			zap.Int("page", page),
			zap.Int("records", len(records)),
			zap.Int("total", len(all)),
		)

		if len(records) < s.cfg.PageSize {
			s.logger.Info("short page, last page reached",
				zap.String("category", category),
				zap.Int("page", page),
			)
			break
		}
		if s.cfg.EndPage > 0 && page >= s.cfg.EndPage {
			s.logger.Warn("end page ceiling reached, truncating crawl",
				zap.String("category", category),
				zap.Int("end_page", s.cfg.EndPage),
			)
			break
		}

		page++
		if err := sleepCtx(ctx, s.cfg.PageDelay); err != nil {
			s.logger.Warn("crawl interrupted", zap.String("category", category), zap.Error(err))
			break
		}
	}

	s.logger.Info("category crawl finished",
		zap.String("category", category),
		zap.Int("records", len(all)),
	)
	return all
}

// SearchAll crawls each category in order with the configured pause between
// them, returning records keyed by category.
func (s *Searcher) SearchAll(ctx context.Context, categories []string) map[string][]tender.Record {
	out := make(map[string][]tender.Record, len(categories))
	for i, category := range categories {
		out[category] = s.SearchCategory(ctx, category)
		if i < len(categories)-1 {
			if err := sleepCtx(ctx, s.cfg.CategoryPause); err != nil {
				break
			}
		}
	}
	return out
}

func (s *Searcher) pageParams(category string, page int) url.Values {
	params := url.Values{}
	params.Set(s.cfg.CategoryParam, category)
	params.Set("PageNumber", strconv.Itoa(page))
	params.Set("PageSize", strconv.Itoa(s.cfg.PageSize))
	params.Set("SortingColumnName", s.cfg.SortColumn)
	params.Set("SortingDirection", s.cfg.SortDirection)
	if !s.cfg.GetAll {
		for key, value := range s.cfg.Filters {
			params.Set(key, value)
		}
	}
	return params
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
