// Package harvest orchestrates per-tender document retrieval: deciding
// between cached and live metadata, persisting it, driving attachment
// downloads and recording a structured outcome per tender. This is the one
// layer where failures become inspectable data rather than log lines.
package harvest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mzielin/tender-harvester/internal/store"
	"github.com/mzielin/tender-harvester/internal/telemetry"
	"github.com/mzielin/tender-harvester/internal/tender"
)

// DocumentSource fetches attachment metadata for a tender.
// *api.DocumentsFetcher satisfies it.
type DocumentSource interface {
	Fetch(ctx context.Context, tenderID string) ([]tender.Document, error)
}

// Storage is the persistence surface the orchestrator needs.
// *store.FileStore satisfies it.
type Storage interface {
	LoadDocuments(tenderID string) ([]tender.Document, error)
	SaveDocuments(tenderID string, docs []tender.Document) error
	HasDocuments(tenderID string) bool
	WriteNoAttachmentsMarker(tenderID string) error
	HasNoAttachmentsMarker(tenderID string) bool
	ListTenderIDs(pattern string) ([]string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Options control one orchestration call.
type Options struct {
	// Overwrite re-downloads attachments that are already on disk.
	Overwrite bool
	// UseCachedMetadata loads persisted documents.json instead of calling
	// the network when present.
	UseCachedMetadata bool
	// SkipMetadataSave leaves documents.json untouched after a live fetch.
	SkipMetadataSave bool
}

// Service is the per-tender download orchestrator.
type Service struct {
	docs       DocumentSource
	downloader *Downloader
	store      Storage
	clock      Clock
	logger     *zap.Logger
}

// NewService constructs a Service.
func NewService(docs DocumentSource, downloader *Downloader, st Storage, clock Clock, logger *zap.Logger) *Service {
	return &Service{
		docs:       docs,
		downloader: downloader,
		store:      st,
		clock:      clock,
		logger:     logger,
	}
}

// DownloadForTender runs the full state machine for one tender: resolve
// metadata (cached or live), persist it, download attachments. Every failure
// is absorbed into the returned outcome; a single tender can never abort a
// batch.
func (s *Service) DownloadForTender(ctx context.Context, tenderID string, opts Options) (out Outcome) {
	out = Outcome{TenderID: tenderID, Status: StatusPending}
	defer func() {
		out.FinishedAt = s.clock.Now()
		telemetry.ObserveTenderOutcome(string(out.Status))
	}()

	var docs []tender.Document
	if opts.UseCachedMetadata {
		// A no-attachments marker is as much a cache hit as documents.json:
		// the tender was already resolved to "nothing to download".
		if s.store.HasNoAttachmentsMarker(tenderID) {
			out.Status = StatusNoDocuments
			s.logger.Debug("tender previously marked without documents",
				zap.String("tender_id", tenderID),
			)
			return out
		}
		cached, err := s.store.LoadDocuments(tenderID)
		switch {
		case err == nil:
			s.logger.Debug("loaded cached document metadata", zap.String("tender_id", tenderID))
			docs = cached
		case errors.Is(err, store.ErrNotCached):
			// Fall through to a live fetch.
		default:
			return s.fail(out, err)
		}
	}

	if docs == nil {
		fetched, err := s.docs.Fetch(ctx, tenderID)
		if err != nil {
			return s.fail(out, err)
		}
		docs = fetched
	}

	if len(docs) == 0 {
		if err := s.store.WriteNoAttachmentsMarker(tenderID); err != nil {
			return s.fail(out, err)
		}
		out.Status = StatusNoDocuments
		s.logger.Info("no documents for tender", zap.String("tender_id", tenderID))
		return out
	}

	out.DocumentsFound = len(docs)

	if !opts.SkipMetadataSave {
		if err := s.store.SaveDocuments(tenderID, docs); err != nil {
			return s.fail(out, err)
		}
	}

	out.DocumentsDownloaded = s.downloader.DownloadAll(ctx, tenderID, docs, opts.Overwrite)
	out.Status = StatusCompleted
	s.logger.Info("tender completed",
		zap.String("tender_id", tenderID),
		zap.Int("downloaded", out.DocumentsDownloaded),
		zap.Int("found", out.DocumentsFound),
	)
	return out
}

// DownloadDocumentInfo fetches and persists document metadata without
// downloading any files. When metadata is already cached and overwrite is
// false it short-circuits to skipped_existing without touching the network.
func (s *Service) DownloadDocumentInfo(ctx context.Context, tenderID string, overwrite bool) (out Outcome) {
	out = Outcome{TenderID: tenderID, Status: StatusPending}
	defer func() {
		out.FinishedAt = s.clock.Now()
		telemetry.ObserveTenderOutcome(string(out.Status))
	}()

	if !overwrite && s.store.HasDocuments(tenderID) {
		out.Status = StatusSkippedExisting
		return out
	}

	docs, err := s.docs.Fetch(ctx, tenderID)
	if err != nil {
		return s.fail(out, err)
	}
	if len(docs) == 0 {
		if err := s.store.WriteNoAttachmentsMarker(tenderID); err != nil {
			return s.fail(out, err)
		}
		out.Status = StatusNoDocuments
		return out
	}

	if err := s.store.SaveDocuments(tenderID, docs); err != nil {
		return s.fail(out, err)
	}
	out.DocumentsFound = len(docs)
	out.Status = StatusCompleted
	return out
}

// DownloadForBatch processes tender ids strictly in the supplied order,
// skipping empty ids, and always runs to completion over the whole batch.
// All outcomes carry the same generated run id.
func (s *Service) DownloadForBatch(ctx context.Context, tenderIDs []string, opts Options) []Outcome {
	runID := uuid.NewString()
	s.logger.Info("starting batch",
		zap.String("run_id", runID),
		zap.Int("tenders", len(tenderIDs)),
	)

	var outcomes []Outcome
	for _, id := range tenderIDs {
		if id == "" {
			continue
		}
		out := s.DownloadForTender(ctx, id, opts)
		out.RunID = runID
		outcomes = append(outcomes, out)
	}

	summary := Summarize(outcomes)
	s.logger.Info("batch finished",
		zap.String("run_id", runID),
		zap.Int("completed", summary.Completed),
		zap.Int("no_documents", summary.NoDocuments),
		zap.Int("errors", summary.Errors),
	)
	return outcomes
}

// DownloadForExistingTenders runs a batch over every locally stored tender
// matching the glob pattern.
func (s *Service) DownloadForExistingTenders(ctx context.Context, pattern string, opts Options) ([]Outcome, error) {
	ids, err := s.store.ListTenderIDs(pattern)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		s.logger.Warn("no local tenders matched pattern", zap.String("pattern", pattern))
		return nil, nil
	}
	s.logger.Info("discovered local tenders",
		zap.Int("count", len(ids)),
		zap.String("pattern", pattern),
	)
	return s.DownloadForBatch(ctx, ids, opts), nil
}

func (s *Service) fail(out Outcome, err error) Outcome {
	out.Status = StatusError
	out.Error = err.Error()
	s.logger.Error("tender failed",
		zap.String("tender_id", out.TenderID),
		zap.Error(err),
	)
	return out
}
