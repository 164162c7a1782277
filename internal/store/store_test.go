package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mzielin/tender-harvester/internal/tender"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := New(Config{
		DataDir:           t.TempDir(),
		TendersDir:        "tenders",
		RawDir:            "raw",
		AttachmentsSubdir: "attachments",
	}, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestNew_RequiresDataDir(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, zap.NewNop())
	require.Error(t, err)
}

func TestSaveLoadTender(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	record := tender.Record{"objectId": "t-1", "title": "road works"}
	require.NoError(t, s.SaveTender("t-1", record))

	loaded, err := s.LoadTender("t-1")
	require.NoError(t, err)
	require.Equal(t, "t-1", loaded.ID())
	require.Equal(t, "road works", loaded["title"])
}

func TestSaveLoadDocuments(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	docs := []tender.Document{{"fileName": "a.pdf", "url": "https://x/a.pdf"}}
	require.NoError(t, s.SaveDocuments("t-1", docs))

	require.True(t, s.HasDocuments("t-1"))
	loaded, err := s.LoadDocuments("t-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "a.pdf", loaded[0].FileName())
}

func TestLoadDocuments_NotCached(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.LoadDocuments("unknown")
	require.ErrorIs(t, err, ErrNotCached)
	require.False(t, s.HasDocuments("unknown"))
}

func TestNoAttachmentsMarker_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.WriteNoAttachmentsMarker("t-1"))
	require.NoError(t, s.WriteNoAttachmentsMarker("t-1"))
	require.True(t, s.HasNoAttachmentsMarker("t-1"))

	info, err := os.Stat(filepath.Join(s.TendersPath(), "t-1", "no_attachments"))
	require.NoError(t, err)
	require.Zero(t, info.Size())
}

func TestWriteAttachment_SanitizesTraversal(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	written, err := s.WriteAttachment("t-1", "../../etc/evil.txt", []byte("boom"))
	require.NoError(t, err)
	require.Equal(t,
		filepath.Join(s.TendersPath(), "t-1", "attachments", "evil.txt"),
		written,
	)
	require.True(t, s.AttachmentExists("t-1", "evil.txt"))
}

func TestWriteAttachment_RejectsUnusableName(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.WriteAttachment("t-1", "..", []byte("boom"))
	require.Error(t, err)
}

func TestSanitizeFileName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "evil.txt", SanitizeFileName("../../etc/evil.txt"))
	require.Equal(t, "a.pdf", SanitizeFileName("a.pdf"))
	require.Equal(t, "b.doc", SanitizeFileName(`c:\nested\b.doc`))
	require.Equal(t, "", SanitizeFileName(""))
	require.Equal(t, "", SanitizeFileName("../.."))
}

func TestTenderDir_RejectsPathyIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.Error(t, s.SaveTender("../escape", tender.Record{}))
	require.Error(t, s.SaveTender("", tender.Record{}))
	require.False(t, s.HasTenderDir("../escape"))
}

func TestListTenderIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, id := range []string{"t-2", "t-1", "x-9"} {
		_, err := s.EnsureTenderDir(id)
		require.NoError(t, err)
	}
	// Stray file must not be listed.
	require.NoError(t, os.WriteFile(filepath.Join(s.TendersPath(), "note.txt"), nil, 0o600))

	all, err := s.ListTenderIDs("*")
	require.NoError(t, err)
	require.Equal(t, []string{"t-1", "t-2", "x-9"}, all)

	some, err := s.ListTenderIDs("t-*")
	require.NoError(t, err)
	require.Equal(t, []string{"t-1", "t-2"}, some)
}

func TestListTenderIDs_MissingTreeIsEmpty(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	ids, err := s.ListTenderIDs("*")
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestSaveRawListing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	records := []tender.Record{{"id": "a"}, {"id": "b"}}
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	jsonPath, jsonlPath, err := s.SaveRawListing("dolny slask", records, now)
	require.NoError(t, err)
	require.Contains(t, jsonPath, "tenders_dolny_slask_20260830-120000.json")

	data, err := os.ReadFile(jsonlPath)
	require.NoError(t, err)
	require.Equal(t, "{\"id\":\"a\"}\n{\"id\":\"b\"}\n", string(data))
}
