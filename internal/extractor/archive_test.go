package extractor

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/teamcutter/unarc/internal/domain"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

var testTime = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

// writableFormats are the formats tests can produce on the fly.
var writableFormats = []domain.Format{
	domain.FormatTar,
	domain.FormatTarGz,
	domain.FormatTarBz2,
	domain.FormatTarXz,
	domain.FormatTarLzma,
	domain.FormatTarZst,
	domain.FormatZip,
}

type item struct {
	name string
	body string
	kind byte
	link string
	mode int64
}

func file(name, body string) item {
	return item{name: name, body: body, kind: tar.TypeReg}
}

func dir(name string) item {
	return item{name: name, kind: tar.TypeDir}
}

func symlink(name, target string) item {
	return item{name: name, kind: tar.TypeSymlink, link: target}
}

func hardlink(name, target string) item {
	return item{name: name, kind: tar.TypeLink, link: target}
}

func writeArchive(t *testing.T, tmp, base string, f domain.Format, items []item) string {
	t.Helper()

	p := filepath.Join(tmp, base+"."+f.String())
	out, err := os.Create(p)
	require.NoError(t, err)
	defer out.Close()

	if f == domain.FormatZip {
		writeZip(t, out, items)
		return p
	}

	w, closeFn := compressor(t, f, out)
	writeTar(t, w, items)
	require.NoError(t, closeFn())
	return p
}

func compressor(t *testing.T, f domain.Format, w io.Writer) (io.Writer, func() error) {
	t.Helper()

	switch f {
	case domain.FormatTar:
		return w, func() error { return nil }
	case domain.FormatTarGz:
		zw := gzip.NewWriter(w)
		return zw, zw.Close
	case domain.FormatTarBz2:
		zw, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
		require.NoError(t, err)
		return zw, zw.Close
	case domain.FormatTarXz:
		zw, err := xz.NewWriter(w)
		require.NoError(t, err)
		return zw, zw.Close
	case domain.FormatTarLzma:
		zw, err := lzma.NewWriter(w)
		require.NoError(t, err)
		return zw, zw.Close
	case domain.FormatTarZst:
		zw, err := zstd.NewWriter(w)
		require.NoError(t, err)
		return zw, zw.Close
	}
	t.Fatalf("no writer for %s", f)
	return nil, nil
}

func writeTar(t *testing.T, w io.Writer, items []item) {
	t.Helper()

	tw := tar.NewWriter(w)
	for _, it := range items {
		hdr := &tar.Header{
			Name:     it.name,
			Typeflag: it.kind,
			Linkname: it.link,
			Mode:     it.mode,
			ModTime:  testTime,
		}
		if hdr.Mode == 0 {
			hdr.Mode = 0644
			if it.kind == tar.TypeDir {
				hdr.Mode = 0755
			}
		}
		if it.kind == tar.TypeReg {
			hdr.Size = int64(len(it.body))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if it.kind == tar.TypeReg {
			_, err := tw.Write([]byte(it.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
}

func writeZip(t *testing.T, w io.Writer, items []item) {
	t.Helper()
	writeZipMethod(t, w, items, zip.Deflate)
}

func writeZipMethod(t *testing.T, w io.Writer, items []item, method uint16) {
	t.Helper()

	zw := zip.NewWriter(w)
	for _, it := range items {
		hdr := &zip.FileHeader{
			Name:     it.name,
			Method:   method,
			Modified: testTime,
		}

		var body string
		switch it.kind {
		case tar.TypeDir:
			hdr.Method = zip.Store
			hdr.SetMode(fs.ModeDir | 0755)
		case tar.TypeSymlink:
			hdr.SetMode(fs.ModeSymlink | 0777)
			body = it.link
		case tar.TypeReg:
			mode := fs.FileMode(0644)
			if it.mode != 0 {
				mode = fs.FileMode(it.mode)
			}
			hdr.SetMode(mode)
			body = it.body
		default:
			t.Fatalf("zip cannot hold %q", it.kind)
		}

		fw, err := zw.CreateHeader(hdr)
		require.NoError(t, err)
		if it.kind != tar.TypeDir {
			_, err = fw.Write([]byte(body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
}

// snapshot flattens a tree: "/" for directories, "-> target" for symlinks,
// content for files.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()

	out := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(p)
			if err != nil {
				return err
			}
			out[rel] = "-> " + target
		case d.IsDir():
			out[rel] = "/"
		default:
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			out[rel] = string(data)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func requireUntouched(t *testing.T, dest string) {
	t.Helper()

	_, err := os.Lstat(dest)
	require.True(t, os.IsNotExist(err), "destination %s should not exist", dest)

	leftovers, err := filepath.Glob(WorkspaceGlob(dest))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

func mustBuild(t *testing.T, b *Builder) *Extractor {
	t.Helper()

	ex, err := b.Build()
	require.NoError(t, err)
	return ex
}
