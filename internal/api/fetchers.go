package api

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/mzielin/tender-harvester/internal/tender"
)

// DetailsFetcher retrieves one tender detail payload by identifier.
type DetailsFetcher struct {
	client   *Client
	endpoint Endpoint
	logger   *zap.Logger
}

// NewDetailsFetcher builds a DetailsFetcher. rawEndpoint may carry a
// {tenderId} placeholder or be a bare path taking param as query parameter.
func NewDetailsFetcher(client *Client, rawEndpoint, param string, logger *zap.Logger) *DetailsFetcher {
	return &DetailsFetcher{
		client:   client,
		endpoint: ParseEndpoint(rawEndpoint, param),
		logger:   logger,
	}
}

// Fetch returns the tender record, or nil when the fetch failed or the
// response was not an object. Failures are logged, never returned; nil is
// the uniform "no data" signal at this boundary.
func (f *DetailsFetcher) Fetch(ctx context.Context, tenderID string) tender.Record {
	path, params := f.endpoint.Resolve(tenderID)
	raw, err := f.client.GetJSON(ctx, path, params)
	if err != nil {
		f.logger.Error("tender details fetch failed",
			zap.String("tender_id", tenderID),
			zap.Error(err),
		)
		return nil
	}

	var record tender.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		f.logger.Warn("unexpected tender details response shape",
			zap.String("tender_id", tenderID),
			zap.Error(err),
		)
		return nil
	}
	return record
}

// DocumentsFetcher retrieves the attachment metadata list for one tender.
type DocumentsFetcher struct {
	client   *Client
	endpoint Endpoint
	logger   *zap.Logger
}

// NewDocumentsFetcher builds a DocumentsFetcher with the same endpoint
// resolution strategy as NewDetailsFetcher.
func NewDocumentsFetcher(client *Client, rawEndpoint, param string, logger *zap.Logger) *DocumentsFetcher {
	return &DocumentsFetcher{
		client:   client,
		endpoint: ParseEndpoint(rawEndpoint, param),
		logger:   logger,
	}
}

// Fetch returns the attachment metadata for a tender. Any failure collapses
// to an empty list with a logged error, so this implementation always
// returns a nil error; the error result exists for other implementations of
// harvest.DocumentSource.
func (f *DocumentsFetcher) Fetch(ctx context.Context, tenderID string) ([]tender.Document, error) {
	path, params := f.endpoint.Resolve(tenderID)
	raw, err := f.client.GetJSON(ctx, path, params)
	if err != nil {
		f.logger.Error("documents fetch failed",
			zap.String("tender_id", tenderID),
			zap.Error(err),
		)
		return nil, nil
	}

	records, shape := normalizeList(raw, "documents")
	if shape == shapeUnrecognized {
		f.logger.Warn("unexpected documents response shape",
			zap.String("tender_id", tenderID),
		)
		return nil, nil
	}

	docs := make([]tender.Document, len(records))
	for i, r := range records {
		docs[i] = tender.Document(r)
	}
	f.logger.Debug("fetched documents",
		zap.String("tender_id", tenderID),
		zap.Int("count", len(docs)),
	)
	return docs, nil
}
