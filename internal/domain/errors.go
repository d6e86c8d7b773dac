package domain

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindUnsupportedFormat ErrorKind = iota + 1
	KindTarExtraction
	KindZipExtraction
	KindSevenZExtraction
	KindUnsafePath
	KindIO
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "UnsupportedFormat"
	case KindTarExtraction:
		return "TarExtraction"
	case KindZipExtraction:
		return "ZipExtraction"
	case KindSevenZExtraction:
		return "SevenZExtraction"
	case KindUnsafePath:
		return "UnsafePath"
	case KindIO:
		return "Io"
	default:
		return "Unknown"
	}
}

// ArchiveError is the single error type returned by extraction. Filename is
// set for KindUnsupportedFormat, EntryPath for KindUnsafePath.
type ArchiveError struct {
	Kind      ErrorKind
	Filename  string
	EntryPath string
	Err       error
}

// Sentinels for errors.Is; they match any ArchiveError of the same kind.
var (
	ErrUnsupportedFormat = &ArchiveError{Kind: KindUnsupportedFormat}
	ErrTarExtraction     = &ArchiveError{Kind: KindTarExtraction}
	ErrZipExtraction     = &ArchiveError{Kind: KindZipExtraction}
	ErrSevenZExtraction  = &ArchiveError{Kind: KindSevenZExtraction}
	ErrUnsafePath        = &ArchiveError{Kind: KindUnsafePath}
	ErrIO                = &ArchiveError{Kind: KindIO}
)

func (e *ArchiveError) Error() string {
	switch e.Kind {
	case KindUnsupportedFormat:
		return fmt.Sprintf("Unsupported archive format for file: %s", e.Filename)
	case KindTarExtraction:
		return fmt.Sprintf("Failed to extract tar archive: %s", e.message())
	case KindZipExtraction:
		return fmt.Sprintf("Failed to extract zip archive: %s", e.message())
	case KindSevenZExtraction:
		return fmt.Sprintf("Failed to extract 7z archive: %s", e.message())
	case KindUnsafePath:
		if e.Err != nil {
			return fmt.Sprintf("Unsafe path in archive: %s: %s", e.EntryPath, e.Err)
		}
		return fmt.Sprintf("Unsafe path in archive: %s", e.EntryPath)
	case KindIO:
		return fmt.Sprintf("I/O error: %s", e.message())
	default:
		return e.message()
	}
}

func (e *ArchiveError) message() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

func (e *ArchiveError) Is(target error) bool {
	t, ok := target.(*ArchiveError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func UnsupportedFormat(filename string) error {
	return &ArchiveError{Kind: KindUnsupportedFormat, Filename: filename}
}

func TarExtraction(err error) error {
	return &ArchiveError{Kind: KindTarExtraction, Err: err}
}

func ZipExtraction(err error) error {
	return &ArchiveError{Kind: KindZipExtraction, Err: err}
}

func SevenZExtraction(err error) error {
	return &ArchiveError{Kind: KindSevenZExtraction, Err: err}
}

func UnsafePath(entryPath string, reason error) error {
	return &ArchiveError{Kind: KindUnsafePath, EntryPath: entryPath, Err: reason}
}

// IO wraps err as KindIO unless it already is an ArchiveError.
func IO(err error) error {
	if err == nil {
		return nil
	}
	var ae *ArchiveError
	if errors.As(err, &ae) {
		return err
	}
	return &ArchiveError{Kind: KindIO, Err: err}
}

// DecodeError returns the decode failure kind matching f.
func DecodeError(f Format, err error) error {
	var ae *ArchiveError
	if errors.As(err, &ae) {
		return err
	}
	switch f {
	case FormatZip:
		return ZipExtraction(err)
	case FormatSevenZ:
		return SevenZExtraction(err)
	default:
		return TarExtraction(err)
	}
}

// KindOf returns the kind of the first ArchiveError in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var ae *ArchiveError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}
