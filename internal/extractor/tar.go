package extractor

import (
	"archive/tar"
	"fmt"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
	"github.com/teamcutter/unarc/internal/domain"
	"github.com/teamcutter/unarc/internal/progress"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// tarSource reads the tar family. The stream can only be walked forward,
// so every pass reopens the file.
type tarSource struct {
	format domain.Format
	path   string
	size   int64
	sink   domain.ProgressSink
	log    logrus.FieldLogger
}

func newTarSource(f domain.Format, path string, sink domain.ProgressSink, log logrus.FieldLogger) (*tarSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.IO(err)
	}
	if info.IsDir() {
		return nil, domain.IO(fmt.Errorf("%s is a directory", path))
	}
	return &tarSource{
		format: f,
		path:   path,
		size:   info.Size(),
		sink:   progress.OrNop(sink),
		log:    log,
	}, nil
}

func (ts *tarSource) open(counted bool) (*tarStream, error) {
	file, err := os.Open(ts.path)
	if err != nil {
		return nil, domain.IO(err)
	}

	var r io.Reader = file
	if counted {
		r = progress.NewReader(file, ts.sink)
	}

	reader, cleanup, err := decompressor(ts.format, r)
	if err != nil {
		file.Close()
		return nil, domain.TarExtraction(err)
	}

	return &tarStream{
		file:    file,
		cleanup: cleanup,
		data:    reader,
		tr:      tar.NewReader(reader),
		log:     ts.log,
	}, nil
}

// Scan walks headers only. Entry data is skipped by the tar reader, which
// still has to run it through the decompressor.
func (ts *tarSource) Scan() ([]domain.Entry, error) {
	st, err := ts.open(false)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	var entries []domain.Entry
	for {
		e, err := st.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
}

func (ts *tarSource) Stream() (entryStream, error) {
	return ts.open(true)
}

func (ts *tarSource) Total() int64 {
	return ts.size
}

func (ts *tarSource) Close() error {
	return nil
}

func decompressor(f domain.Format, r io.Reader) (io.Reader, func(), error) {
	switch f {
	case domain.FormatTar:
		return r, nil, nil

	case domain.FormatTarGz:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return gzr, func() { gzr.Close() }, nil

	case domain.FormatTarBz2:
		bzr, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("bzip2: %w", err)
		}
		return bzr, func() { bzr.Close() }, nil

	case domain.FormatTarXz:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("xz: %w", err)
		}
		return xzr, nil, nil

	case domain.FormatTarLzma:
		lr, err := lzma.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("lzma: %w", err)
		}
		return lr, nil, nil

	case domain.FormatTarZst:
		// one goroutine: decoding stays sequential
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, func() { zr.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("%s is not a tar format", f)
	}
}

type tarStream struct {
	file    *os.File
	cleanup func()
	data    io.Reader
	tr      *tar.Reader
	log     logrus.FieldLogger
	drained bool
}

func (st *tarStream) Next() (*domain.Entry, error) {
	for {
		header, err := st.tr.Next()
		if err == io.EOF {
			if err := st.drain(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, domain.TarExtraction(err)
		}

		entry, ok := tarEntry(header)
		if !ok {
			st.log.WithFields(logrus.Fields{
				"entry": header.Name,
				"type":  string(header.Typeflag),
			}).Debug("skipping unsupported tar entry")
			continue
		}
		return entry, nil
	}
}

// drain reads past the end-of-archive blocks so the decompressor reaches its
// trailer and verifies its checksum.
func (st *tarStream) drain() error {
	if st.drained {
		return nil
	}
	st.drained = true
	if _, err := io.Copy(io.Discard, st.data); err != nil {
		return domain.TarExtraction(err)
	}
	return nil
}

func tarEntry(header *tar.Header) (*domain.Entry, bool) {
	entry := &domain.Entry{
		Name:    header.Name,
		Size:    header.Size,
		Mode:    header.FileInfo().Mode().Perm(),
		ModTime: header.ModTime,
	}

	switch header.Typeflag {
	case tar.TypeReg, tar.TypeGNUSparse:
		entry.Kind = domain.EntryFile
	case tar.TypeDir:
		entry.Kind = domain.EntryDir
		entry.Size = 0
	case tar.TypeSymlink:
		entry.Kind = domain.EntrySymlink
		entry.Linkname = header.Linkname
		entry.Size = 0
	case tar.TypeLink:
		entry.Kind = domain.EntryHardlink
		entry.Linkname = header.Linkname
		entry.Size = 0
	default:
		// pax global headers, devices, fifos
		return nil, false
	}
	return entry, true
}

func (st *tarStream) Open() (io.ReadCloser, error) {
	return io.NopCloser(st.tr), nil
}

func (st *tarStream) Close() error {
	if st.cleanup != nil {
		st.cleanup()
	}
	return st.file.Close()
}
