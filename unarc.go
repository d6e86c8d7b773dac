// Package unarc extracts tar (plain, gz, bz2, xz, lzma, zst), zip and 7z
// archives into a new directory.
//
// Entries are checked before anything is written: names that climb out of
// the destination, absolute names and symlinks that resolve outside it fail
// with ErrUnsafePath. Extraction happens in a sibling workspace that is
// renamed into place only after every entry succeeded, so a failed call
// leaves the destination untouched.
//
//	ex, err := unarc.NewBuilder().
//		StripRootDir(true).
//		ProgressSink(sink).
//		Build()
//	if err != nil {
//		return err
//	}
//	err = ex.Extract("pkg-1.2.tar.zst", "/opt/pkg")
package unarc

import (
	"github.com/teamcutter/unarc/internal/domain"
	"github.com/teamcutter/unarc/internal/extractor"
	"github.com/teamcutter/unarc/internal/format"
)

type (
	Format       = domain.Format
	Entry        = domain.Entry
	EntryKind    = domain.EntryKind
	ProgressSink = domain.ProgressSink
	ArchiveError = domain.ArchiveError
	ErrorKind    = domain.ErrorKind

	Config         = extractor.Config
	Builder        = extractor.Builder
	Extractor      = extractor.Extractor
	AsyncExtractor = extractor.AsyncExtractor
	Pending        = extractor.Pending
	Stats          = extractor.Stats

	// Mapping is one row of the extension table.
	Mapping = format.Mapping
)

const (
	FormatUnknown  = domain.FormatUnknown
	FormatTar      = domain.FormatTar
	FormatTarGz    = domain.FormatTarGz
	FormatTarBz2   = domain.FormatTarBz2
	FormatTarXz    = domain.FormatTarXz
	FormatTarLzma  = domain.FormatTarLzma
	FormatTarZst   = domain.FormatTarZst
	FormatZip      = domain.FormatZip
	FormatSevenZ   = domain.FormatSevenZ
	EntryFile      = domain.EntryFile
	EntryDir       = domain.EntryDir
	EntrySymlink   = domain.EntrySymlink
	EntryHardlink  = domain.EntryHardlink
	KindIO         = domain.KindIO
	KindUnsafePath = domain.KindUnsafePath

	KindUnsupportedFormat = domain.KindUnsupportedFormat
	KindTarExtraction     = domain.KindTarExtraction
	KindZipExtraction     = domain.KindZipExtraction
	KindSevenZExtraction  = domain.KindSevenZExtraction
)

var (
	ErrUnsupportedFormat = domain.ErrUnsupportedFormat
	ErrTarExtraction     = domain.ErrTarExtraction
	ErrZipExtraction     = domain.ErrZipExtraction
	ErrSevenZExtraction  = domain.ErrSevenZExtraction
	ErrUnsafePath        = domain.ErrUnsafePath
	ErrIO                = domain.ErrIO
)

// NewBuilder starts from the defaults: root stripping on, format detected
// from the archive name, no progress reporting.
func NewBuilder() *Builder {
	return extractor.NewBuilder()
}

// Extract unpacks archive into dest with the default configuration.
func Extract(archive, dest string) error {
	ex, err := NewBuilder().Build()
	if err != nil {
		return err
	}
	return ex.Extract(archive, dest)
}

// KindOf reports the ErrorKind of err, or 0 when err is not an ArchiveError.
func KindOf(err error) ErrorKind {
	return domain.KindOf(err)
}

func DetectFormat(path string) (Format, error) {
	return format.FromPath(path)
}

// DetectFormatFromURL uses the last path segment of rawURL, ignoring query
// and fragment.
func DetectFormatFromURL(rawURL string) (Format, error) {
	return format.FromURL(rawURL)
}

func ParseFormat(s string) (Format, error) {
	return format.Parse(s)
}

// Formats returns every supported format.
func Formats() []Format {
	return domain.Formats()
}

// FormatTable returns the extension table, longest extension first.
func FormatTable() []Mapping {
	return format.Table()
}

func IsArchive(name string) bool {
	return format.IsArchive(name)
}

func IsTarball(name string) bool {
	return format.IsTarball(name)
}
