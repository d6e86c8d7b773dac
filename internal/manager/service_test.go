package manager

import (
	"archive/tar"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamcutter/unarc/internal/domain"
	"github.com/teamcutter/unarc/internal/progress/progresstest"
	"github.com/teamcutter/unarc/internal/state"
)

func writeTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(body)),
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func newManager(t *testing.T) (*Manager, domain.Journal) {
	t.Helper()

	journal, err := state.NewJSON(filepath.Join(t.TempDir(), "journal.json"))
	require.NoError(t, err)
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return New(journal, log, 0), journal
}

func TestExtract_Committed(t *testing.T) {
	m, journal := newManager(t)
	tmp := t.TempDir()
	archive := filepath.Join(tmp, "pkg.tar.gz")
	writeTarGz(t, archive, map[string]string{"pkg/a.txt": "alpha", "pkg/b.txt": "bravo!"})

	rec := &progresstest.Recorder{}
	got, err := m.Extract(context.Background(), Request{
		Archive:     archive,
		Destination: filepath.Join(tmp, "out"),
		StripRoot:   true,
		Progress:    rec,
	})
	require.NoError(t, err)
	assert.Equal(t, "tar.gz", got.Format)
	assert.Equal(t, domain.StatusCommitted, got.Status)
	assert.Equal(t, int64(2), got.Entries)
	assert.FileExists(t, filepath.Join(tmp, "out", "a.txt"))
	assert.Equal(t, 1, rec.Finishes)

	records, err := journal.List(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, got.ID, records[0].ID)
	assert.Equal(t, domain.StatusCommitted, records[0].Status)
	assert.Equal(t, int64(len("alpha")+len("bravo!")), records[0].Bytes)
	assert.Equal(t, int64(2), records[0].Entries)
}

func TestExtract_Failed(t *testing.T) {
	m, _ := newManager(t)
	tmp := t.TempDir()
	archive := filepath.Join(tmp, "evil.tar.gz")
	writeTarGz(t, archive, map[string]string{"../evil.txt": "x"})

	_, err := m.Extract(context.Background(), Request{
		Archive:     archive,
		Destination: filepath.Join(tmp, "out"),
		StripRoot:   true,
	})
	require.ErrorIs(t, err, domain.ErrUnsafePath)

	records, err := m.History(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.StatusFailed, records[0].Status)
	assert.Contains(t, records[0].Error, "Unsafe path in archive")
}

func TestExtract_FromURL(t *testing.T) {
	m, _ := newManager(t)
	tmp := t.TempDir()
	archive := filepath.Join(tmp, "download")
	writeTarGz(t, archive, map[string]string{"a.txt": "a"})

	got, err := m.Extract(context.Background(), Request{
		Archive:     archive,
		Destination: filepath.Join(tmp, "out"),
		URL:         "https://example.com/dl/a.tgz?x=1",
	})
	require.NoError(t, err)
	assert.Equal(t, "tar.gz", got.Format)
	assert.Equal(t, domain.StatusCommitted, got.Status)
	assert.Equal(t, int64(2), got.Entries)
	assert.FileExists(t, filepath.Join(tmp, "out", "a.txt"))
}

func TestExtract_CancelledWaitStillJournals(t *testing.T) {
	m, journal := newManager(t)
	tmp := t.TempDir()
	archive := filepath.Join(tmp, "pkg.tar.gz")
	writeTarGz(t, archive, map[string]string{"a.txt": "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := m.Extract(ctx, Request{Archive: archive, Destination: filepath.Join(tmp, "out")})
	if err != nil {
		require.ErrorIs(t, err, context.Canceled)
	}
	require.NotNil(t, rec)

	require.Eventually(t, func() bool {
		records, err := journal.List(0)
		return err == nil && len(records) == 1 && records[0].Status == domain.StatusCommitted
	}, 5*time.Second, 10*time.Millisecond)
	assert.FileExists(t, filepath.Join(tmp, "out", "a.txt"))
}

func TestList(t *testing.T) {
	m, _ := newManager(t)
	archive := filepath.Join(t.TempDir(), "blob")
	writeTarGz(t, archive, map[string]string{"a.txt": "a"})

	_, err := m.List(archive, domain.FormatUnknown)
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	entries, err := m.List(archive, domain.FormatTarGz)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name)
}
