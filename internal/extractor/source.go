package extractor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/sirupsen/logrus"
	"github.com/teamcutter/unarc/internal/domain"
	"github.com/teamcutter/unarc/internal/progress"
)

// maxLinkTarget bounds how much of a symlink entry's content is read as its
// target in formats that store the target as file data.
const maxLinkTarget = 4096

// source is one opened archive. Every format is reached through it.
type source interface {
	// Scan lists entries without extracting their content.
	Scan() ([]domain.Entry, error)
	// Stream starts the content pass.
	Stream() (entryStream, error)
	// Total is the progress total for the content pass.
	Total() int64
	Close() error
}

type entryStream interface {
	// Next advances to the next entry and returns io.EOF after the last one.
	Next() (*domain.Entry, error)
	// Open returns the content of the current entry.
	Open() (io.ReadCloser, error)
	Close() error
}

func openSource(f domain.Format, path string, sink domain.ProgressSink, log logrus.FieldLogger) (source, error) {
	switch {
	case f.IsTarBased():
		return newTarSource(f, path, sink, log)
	case f == domain.FormatZip:
		return openZip(path, sink, log)
	case f == domain.FormatSevenZ:
		return openSevenZ(path, sink)
	default:
		return nil, domain.UnsupportedFormat(fmt.Sprintf("%s (format %s)", path, f))
	}
}

// openError keeps missing or unreadable files as I/O errors and treats
// everything else as a broken container.
func openError(f domain.Format, err error) error {
	var pathErr *fs.PathError
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) || errors.As(err, &pathErr) {
		return domain.IO(err)
	}
	return domain.DecodeError(f, err)
}

// indexedFile is an entry of a container with a central index.
type indexedFile struct {
	entry domain.Entry
	open  func() (io.ReadCloser, error)
}

// indexSource serves zip and 7z: the listing comes straight from the index
// and content is opened per entry.
type indexSource struct {
	format domain.Format
	files  []indexedFile
	total  int64
	sink   domain.ProgressSink
	closer io.Closer
}

func newIndexSource(f domain.Format, files []indexedFile, sink domain.ProgressSink, closer io.Closer) *indexSource {
	var total int64
	for _, file := range files {
		if file.entry.Kind == domain.EntryFile {
			total += file.entry.Size
		}
	}
	return &indexSource{
		format: f,
		files:  files,
		total:  total,
		sink:   progress.OrNop(sink),
		closer: closer,
	}
}

func (s *indexSource) Scan() ([]domain.Entry, error) {
	entries := make([]domain.Entry, len(s.files))
	for i, f := range s.files {
		entries[i] = f.entry
		if f.entry.Kind == domain.EntrySymlink {
			target, err := s.readLink(f)
			if err != nil {
				return nil, err
			}
			entries[i].Linkname = target
		}
	}
	return entries, nil
}

func (s *indexSource) Stream() (entryStream, error) {
	return &indexStream{src: s, pos: -1}, nil
}

func (s *indexSource) Total() int64 {
	return s.total
}

func (s *indexSource) Close() error {
	return s.closer.Close()
}

type indexStream struct {
	src *indexSource
	pos int
}

func (st *indexStream) Next() (*domain.Entry, error) {
	st.pos++
	if st.pos >= len(st.src.files) {
		return nil, io.EOF
	}

	file := st.src.files[st.pos]
	entry := file.entry
	if entry.Kind == domain.EntrySymlink {
		target, err := st.src.readLink(file)
		if err != nil {
			return nil, err
		}
		entry.Linkname = target
	}
	return &entry, nil
}

func (s *indexSource) readLink(file indexedFile) (string, error) {
	rc, err := file.open()
	if err != nil {
		return "", domain.DecodeError(s.format, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxLinkTarget+1))
	if err != nil {
		return "", domain.DecodeError(s.format, err)
	}
	if len(data) > maxLinkTarget {
		return "", domain.DecodeError(s.format,
			fmt.Errorf("symlink target of %s exceeds %d bytes", file.entry.Name, maxLinkTarget))
	}
	return string(data), nil
}

func (st *indexStream) Open() (io.ReadCloser, error) {
	if st.pos < 0 || st.pos >= len(st.src.files) {
		return nil, errors.New("no current entry")
	}
	rc, err := st.src.files[st.pos].open()
	if err != nil {
		return nil, domain.DecodeError(st.src.format, err)
	}
	return &countingReadCloser{Reader: progress.NewReader(rc, st.src.sink), c: rc}, nil
}

func (st *indexStream) Close() error {
	return nil
}

type countingReadCloser struct {
	*progress.Reader
	c io.Closer
}

func (r *countingReadCloser) Close() error {
	return r.c.Close()
}
