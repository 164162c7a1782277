package harvest

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/mzielin/tender-harvester/internal/store"
	"github.com/mzielin/tender-harvester/internal/telemetry"
	"github.com/mzielin/tender-harvester/internal/tender"
)

// Downloader fetches attachment files for one tender and writes them through
// the store. A single attachment's failure never affects its siblings.
type Downloader struct {
	client   ByteFetcher
	store    AttachmentStore
	template string
	logger   *zap.Logger
}

// ByteFetcher is the byte-download surface the Downloader needs from the
// API client. *api.Client satisfies it.
type ByteFetcher interface {
	GetBytes(ctx context.Context, endpoint string, params url.Values) ([]byte, error)
}

// AttachmentStore is the attachment persistence surface of the file store.
type AttachmentStore interface {
	AttachmentExists(tenderID, fileName string) bool
	WriteAttachment(tenderID, fileName string, data []byte) (string, error)
}

// NewDownloader builds a Downloader. template, when non-empty, overrides raw
// document locators; it may carry {tenderId}, {documentId} and {fileName}
// placeholders.
func NewDownloader(client ByteFetcher, st AttachmentStore, template string, logger *zap.Logger) *Downloader {
	return &Downloader{client: client, store: st, template: template, logger: logger}
}

// DownloadAll fetches every attachment of one tender and returns the count
// of attachments present on disk afterwards (freshly downloaded or already
// there). Documents missing a filename or locator are skipped with a
// warning; a failed download is logged and omitted from the count while the
// remaining documents still proceed.
func (d *Downloader) DownloadAll(ctx context.Context, tenderID string, docs []tender.Document, overwrite bool) int {
	downloaded := 0
	for _, doc := range docs {
		if d.downloadOne(ctx, tenderID, doc, overwrite) {
			downloaded++
		}
	}
	d.logger.Info("attachment downloads finished",
		zap.String("tender_id", tenderID),
		zap.Int("downloaded", downloaded),
		zap.Int("found", len(docs)),
	)
	return downloaded
}

func (d *Downloader) downloadOne(ctx context.Context, tenderID string, doc tender.Document, overwrite bool) bool {
	fileName := store.SanitizeFileName(doc.FileName())
	if fileName == "" {
		d.logger.Warn("document without usable filename, skipping",
			zap.String("tender_id", tenderID),
		)
		telemetry.ObserveDocument("skipped")
		return false
	}

	locator := d.resolveLocator(tenderID, fileName, doc)
	if locator == "" {
		d.logger.Warn("document without download locator, skipping",
			zap.String("tender_id", tenderID),
			zap.String("file", fileName),
		)
		telemetry.ObserveDocument("skipped")
		return false
	}

	if d.store.AttachmentExists(tenderID, fileName) && !overwrite {
		d.logger.Debug("attachment already present, skipping download",
			zap.String("tender_id", tenderID),
			zap.String("file", fileName),
		)
		telemetry.ObserveDocument("cached")
		return true
	}

	data, err := d.client.GetBytes(ctx, locator, nil)
	if err != nil {
		d.logger.Error("attachment download failed",
			zap.String("tender_id", tenderID),
			zap.String("file", fileName),
			zap.Error(err),
		)
		telemetry.ObserveDocument("failed")
		return false
	}

	written, err := d.store.WriteAttachment(tenderID, fileName, data)
	if err != nil {
		d.logger.Error("attachment write failed",
			zap.String("tender_id", tenderID),
			zap.String("file", fileName),
			zap.Error(err),
		)
		telemetry.ObserveDocument("failed")
		return false
	}

	d.logger.Info("downloaded attachment", zap.String("path", written))
	telemetry.ObserveDocument("downloaded")
	return true
}

// resolveLocator picks the document's own URL, or synthesizes one from the
// configured template.
func (d *Downloader) resolveLocator(tenderID, fileName string, doc tender.Document) string {
	if d.template == "" {
		return doc.DownloadURL()
	}
	locator := strings.ReplaceAll(d.template, "{tenderId}", tenderID)
	locator = strings.ReplaceAll(locator, "{documentId}", doc.ID())
	locator = strings.ReplaceAll(locator, "{fileName}", fileName)
	return locator
}
