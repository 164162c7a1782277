// Package store implements the on-disk layout for harvested tenders: one
// directory per tender identifier holding tender.json, documents.json, an
// optional no_attachments marker and an attachments subdirectory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mzielin/tender-harvester/internal/tender"
)

const (
	tenderFile    = "tender.json"
	documentsFile = "documents.json"
	markerFile    = "no_attachments"
)

// ErrNotCached signals that a tender has no persisted document metadata.
var ErrNotCached = errors.New("store: document metadata not cached")

// Config captures the filesystem layout parameters.
type Config struct {
	// DataDir is the root directory for all harvester output.
	DataDir string `mapstructure:"data_dir"`
	// TendersDir is the per-tender directory tree, relative to DataDir.
	TendersDir string `mapstructure:"tenders_dir"`
	// RawDir receives per-category listing dumps, relative to DataDir.
	RawDir string `mapstructure:"raw_dir"`
	// AttachmentsSubdir names the subdirectory for downloaded files inside
	// each tender directory. Empty means files land in the tender directory
	// itself.
	AttachmentsSubdir string `mapstructure:"attachments_subdir"`
}

// FileStore persists tenders and their attachments on the local filesystem.
// All writes are discrete flushed operations so a killed process never loses
// completed work.
type FileStore struct {
	tendersPath       string
	rawPath           string
	attachmentsSubdir string
	logger            *zap.Logger
}

// New creates a FileStore rooted at cfg.DataDir, verifying the root is
// usable up front.
func New(cfg Config, logger *zap.Logger) (*FileStore, error) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	tendersDir := cfg.TendersDir
	if tendersDir == "" {
		tendersDir = "tenders"
	}
	rawDir := cfg.RawDir
	if rawDir == "" {
		rawDir = "raw"
	}

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	probe := filepath.Join(cfg.DataDir, ".writable_test")
	if err := os.WriteFile(probe, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("data directory is not writable: %w", err)
	}
	if err := os.Remove(probe); err != nil {
		return nil, fmt.Errorf("clean up probe file: %w", err)
	}

	return &FileStore{
		tendersPath:       filepath.Join(cfg.DataDir, tendersDir),
		rawPath:           filepath.Join(cfg.DataDir, rawDir),
		attachmentsSubdir: cfg.AttachmentsSubdir,
		logger:            logger,
	}, nil
}

// TendersPath returns the root of the per-tender directory tree.
func (s *FileStore) TendersPath() string {
	return s.tendersPath
}

// EnsureTenderDir creates (or verifies) the directory for one tender and
// returns its path.
func (s *FileStore) EnsureTenderDir(tenderID string) (string, error) {
	dir, err := s.tenderDir(tenderID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create tender directory %s: %w", dir, err)
	}
	return dir, nil
}

// SaveTender writes the tender record as tender.json.
func (s *FileStore) SaveTender(tenderID string, record tender.Record) error {
	return s.saveJSON(tenderID, tenderFile, record)
}

// LoadTender reads tender.json for one tender.
func (s *FileStore) LoadTender(tenderID string) (tender.Record, error) {
	dir, err := s.tenderDir(tenderID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, tenderFile))
	if err != nil {
		return nil, fmt.Errorf("read %s for tender %s: %w", tenderFile, tenderID, err)
	}
	var record tender.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode %s for tender %s: %w", tenderFile, tenderID, err)
	}
	return record, nil
}

// SaveDocuments writes the attachment metadata list as documents.json.
func (s *FileStore) SaveDocuments(tenderID string, docs []tender.Document) error {
	return s.saveJSON(tenderID, documentsFile, docs)
}

// LoadDocuments reads documents.json for one tender. A missing file yields
// ErrNotCached; any other failure is a real error.
func (s *FileStore) LoadDocuments(tenderID string) ([]tender.Document, error) {
	dir, err := s.tenderDir(tenderID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, documentsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotCached
		}
		return nil, fmt.Errorf("read %s for tender %s: %w", documentsFile, tenderID, err)
	}
	var docs []tender.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode %s for tender %s: %w", documentsFile, tenderID, err)
	}
	return docs, nil
}

// HasDocuments reports whether documents.json exists for a tender.
func (s *FileStore) HasDocuments(tenderID string) bool {
	dir, err := s.tenderDir(tenderID)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, documentsFile))
	return err == nil
}

// HasTenderDir reports whether the tender directory exists.
func (s *FileStore) HasTenderDir(tenderID string) bool {
	dir, err := s.tenderDir(tenderID)
	if err != nil {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// WriteNoAttachmentsMarker records that a tender was checked and has no
// attachments. Creating an existing marker is a no-op.
func (s *FileStore) WriteNoAttachmentsMarker(tenderID string) error {
	dir, err := s.EnsureTenderDir(tenderID)
	if err != nil {
		return err
	}
	marker := filepath.Join(dir, markerFile)
	if _, err := os.Stat(marker); err == nil {
		return nil
	}
	if err := os.WriteFile(marker, nil, 0o600); err != nil {
		return fmt.Errorf("write marker for tender %s: %w", tenderID, err)
	}
	return nil
}

// HasNoAttachmentsMarker reports whether the marker exists.
func (s *FileStore) HasNoAttachmentsMarker(tenderID string) bool {
	dir, err := s.tenderDir(tenderID)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, markerFile))
	return err == nil
}

// AttachmentPath returns the destination path for a named attachment. The
// name is reduced to its final path component so a hostile filename can
// never escape the tender directory. An empty string means the name was
// unusable.
func (s *FileStore) AttachmentPath(tenderID, fileName string) string {
	dir, err := s.tenderDir(tenderID)
	if err != nil {
		return ""
	}
	name := SanitizeFileName(fileName)
	if name == "" {
		return ""
	}
	if s.attachmentsSubdir != "" {
		dir = filepath.Join(dir, s.attachmentsSubdir)
	}
	return filepath.Join(dir, name)
}

// AttachmentExists reports whether the attachment file is already on disk.
func (s *FileStore) AttachmentExists(tenderID, fileName string) bool {
	p := s.AttachmentPath(tenderID, fileName)
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

// WriteAttachment stores downloaded bytes under the sanitized filename and
// returns the written path.
func (s *FileStore) WriteAttachment(tenderID, fileName string, data []byte) (string, error) {
	target := s.AttachmentPath(tenderID, fileName)
	if target == "" {
		return "", fmt.Errorf("unusable attachment filename %q for tender %s", fileName, tenderID)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("create attachment directory for tender %s: %w", tenderID, err)
	}
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return "", fmt.Errorf("write attachment %s: %w", target, err)
	}
	return target, nil
}

// ListTenderIDs enumerates tender directories matching a glob pattern,
// sorted. An empty pattern matches everything.
func (s *FileStore) ListTenderIDs(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	entries, err := os.ReadDir(s.tendersPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list tenders directory: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		ok, err := filepath.Match(pattern, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("bad glob pattern %q: %w", pattern, err)
		}
		if ok {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// SaveRawListing dumps the full listing result for one category as a
// timestamped JSON array plus a JSON Lines file, and returns both paths.
func (s *FileStore) SaveRawListing(category string, records []tender.Record, now time.Time) (string, string, error) {
	if err := os.MkdirAll(s.rawPath, 0o750); err != nil {
		return "", "", fmt.Errorf("create raw directory: %w", err)
	}
	safe := strings.ReplaceAll(category, " ", "_")
	stamp := now.Format("20060102-150405")
	jsonPath := filepath.Join(s.rawPath, fmt.Sprintf("tenders_%s_%s.json", safe, stamp))
	jsonlPath := filepath.Join(s.rawPath, fmt.Sprintf("tenders_%s_%s.jsonl", safe, stamp))

	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal raw listing: %w", err)
	}
	if err := os.WriteFile(jsonPath, payload, 0o600); err != nil {
		return "", "", fmt.Errorf("write raw listing %s: %w", jsonPath, err)
	}

	var lines strings.Builder
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return "", "", fmt.Errorf("marshal raw listing line: %w", err)
		}
		lines.Write(line)
		lines.WriteByte('\n')
	}
	if err := os.WriteFile(jsonlPath, []byte(lines.String()), 0o600); err != nil {
		return "", "", fmt.Errorf("write raw listing %s: %w", jsonlPath, err)
	}

	s.logger.Info("saved raw listing dumps",
		zap.String("category", category),
		zap.Int("records", len(records)),
		zap.String("json", jsonPath),
	)
	return jsonPath, jsonlPath, nil
}

// SanitizeFileName reduces a display filename to its final path component.
// Returns "" when nothing usable remains.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == ".." || name == "/" || name == "" {
		return ""
	}
	return name
}

func (s *FileStore) tenderDir(tenderID string) (string, error) {
	if tenderID == "" {
		return "", fmt.Errorf("tender id is required")
	}
	if strings.ContainsAny(tenderID, `/\`) || tenderID == "." || tenderID == ".." {
		return "", fmt.Errorf("invalid tender id %q", tenderID)
	}
	return filepath.Join(s.tendersPath, tenderID), nil
}

func (s *FileStore) saveJSON(tenderID, fileName string, v any) error {
	dir, err := s.EnsureTenderDir(tenderID)
	if err != nil {
		return err
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s for tender %s: %w", fileName, tenderID, err)
	}
	target := filepath.Join(dir, fileName)
	if err := os.WriteFile(target, payload, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	s.logger.Debug("saved json", zap.String("path", target))
	return nil
}
