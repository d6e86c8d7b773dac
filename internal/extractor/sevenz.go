package extractor

import (
	"io/fs"
	"strings"
	"time"

	"github.com/bodgit/sevenzip"
	"github.com/teamcutter/unarc/internal/domain"
)

func openSevenZ(path string, sink domain.ProgressSink) (source, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, openError(domain.FormatSevenZ, err)
	}

	files := make([]indexedFile, 0, len(r.File))
	for _, f := range r.File {
		files = append(files, indexedFile{
			entry: indexEntry(f.Name, f.Mode(), int64(f.UncompressedSize), f.Modified),
			open:  f.Open,
		})
	}

	return newIndexSource(domain.FormatSevenZ, files, sink, r), nil
}

// indexEntry maps a zip or 7z header. Both may carry Windows separators
// and both store a symlink's target as its content.
func indexEntry(name string, mode fs.FileMode, size int64, modTime time.Time) domain.Entry {
	name = strings.ReplaceAll(name, `\`, "/")

	entry := domain.Entry{
		Name:    name,
		Mode:    mode.Perm(),
		ModTime: modTime,
	}

	switch {
	case mode.IsDir() || strings.HasSuffix(name, "/"):
		entry.Kind = domain.EntryDir
	case mode&fs.ModeSymlink != 0:
		entry.Kind = domain.EntrySymlink
	default:
		entry.Kind = domain.EntryFile
		entry.Size = size
	}
	return entry
}
