// Package docfilter scans locally harvested tender metadata and picks out
// documents whose filenames match registered patterns.
package docfilter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mzielin/tender-harvester/internal/tender"
)

const documentsFile = "documents.json"

// Entry is one document filename together with the tender directory its
// metadata came from.
type Entry struct {
	FileName  string
	TenderDir string
}

// Finder walks a tenders directory tree and filters the document metadata
// found in it.
type Finder struct {
	tendersPath string
	logger      *zap.Logger
}

// NewFinder builds a Finder over the given tenders directory.
func NewFinder(tendersPath string, logger *zap.Logger) *Finder {
	return &Finder{tendersPath: tendersPath, logger: logger}
}

// ExtractFileNames collects the filename of every document recorded in any
// tender's metadata file. Tender directories without metadata are skipped;
// a corrupt metadata file is logged and skipped.
func (f *Finder) ExtractFileNames() ([]Entry, error) {
	dirEntries, err := os.ReadDir(f.tendersPath)
	if err != nil {
		if os.IsNotExist(err) {
			f.logger.Warn("tenders directory not found", zap.String("path", f.tendersPath))
			return nil, nil
		}
		return nil, fmt.Errorf("reading tenders directory: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		tenderDir := filepath.Join(f.tendersPath, de.Name())
		raw, err := os.ReadFile(filepath.Join(tenderDir, documentsFile))
		if err != nil {
			continue
		}
		var docs []tender.Document
		if err := json.Unmarshal(raw, &docs); err != nil {
			f.logger.Warn("skipping corrupt document metadata",
				zap.String("tender_dir", tenderDir),
				zap.Error(err),
			)
			continue
		}
		for _, doc := range docs {
			if name := doc.FileName(); name != "" {
				entries = append(entries, Entry{FileName: name, TenderDir: tenderDir})
			}
		}
	}

	f.logger.Info("extracted document filenames",
		zap.Int("documents", len(entries)),
		zap.String("path", f.tendersPath),
	)
	return entries, nil
}

// FindMatching filters entries through the named pattern and returns the
// matching file paths, deduplicated and sorted.
func (f *Finder) FindMatching(entries []Entry, patternName string) ([]string, error) {
	pattern, err := Pattern(patternName)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, e := range entries {
		if e.FileName == "" || e.TenderDir == "" {
			continue
		}
		if pattern.MatchString(e.FileName) {
			seen[filepath.Join(e.TenderDir, e.FileName)] = struct{}{}
		}
	}

	matches := make([]string, 0, len(seen))
	for p := range seen {
		matches = append(matches, p)
	}
	sort.Strings(matches)
	return matches, nil
}

// WriteResults writes matched paths to outputFile under outputDir, one per
// line. When nothing matched a single explanatory line is written instead,
// so the output file always reflects the last run.
func (f *Finder) WriteResults(matches []string, outputDir, outputFile, patternName string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	target := filepath.Join(outputDir, outputFile)

	var b strings.Builder
	if len(matches) == 0 {
		fmt.Fprintf(&b, "No files matching pattern %q found.\n", patternName)
	} else {
		for _, m := range matches {
			b.WriteString(m)
			b.WriteByte('\n')
		}
	}

	if err := os.WriteFile(target, []byte(b.String()), 0o600); err != nil {
		return "", fmt.Errorf("writing results: %w", err)
	}
	f.logger.Info("wrote filter results",
		zap.String("path", target),
		zap.Int("matches", len(matches)),
	)
	return target, nil
}
