package domain

import (
	"io/fs"
	"time"
)

type Format int

const (
	FormatUnknown Format = iota
	FormatTar
	FormatTarGz
	FormatTarBz2
	FormatTarXz
	FormatTarLzma
	FormatTarZst
	FormatZip
	FormatSevenZ
)

var formatInfo = map[Format]struct {
	str  string
	name string
	exts []string
}{
	FormatTar:     {"tar", "TAR", []string{".tar"}},
	FormatTarGz:   {"tar.gz", "TAR.GZ", []string{".tar.gz", ".tgz", ".taz"}},
	FormatTarBz2:  {"tar.bz2", "TAR.BZ2", []string{".tar.bz2", ".tbz", ".tbz2", ".tz2"}},
	FormatTarXz:   {"tar.xz", "TAR.XZ", []string{".tar.xz", ".txz"}},
	FormatTarLzma: {"tar.lzma", "TAR.LZMA", []string{".tar.lzma", ".tlz"}},
	FormatTarZst:  {"tar.zst", "TAR.ZST", []string{".tar.zst", ".tzst"}},
	FormatZip:     {"zip", "ZIP", []string{".zip"}},
	FormatSevenZ:  {"7z", "7Z", []string{".7z"}},
}

// Formats returns every supported format in declaration order.
func Formats() []Format {
	return []Format{
		FormatTar, FormatTarGz, FormatTarBz2, FormatTarXz,
		FormatTarLzma, FormatTarZst, FormatZip, FormatSevenZ,
	}
}

func (f Format) Valid() bool {
	_, ok := formatInfo[f]
	return ok
}

// String returns the canonical extension without the leading dot.
func (f Format) String() string {
	if info, ok := formatInfo[f]; ok {
		return info.str
	}
	return "unknown"
}

func (f Format) Name() string {
	if info, ok := formatInfo[f]; ok {
		return info.name
	}
	return "UNKNOWN"
}

// Extensions returns the file extensions that map to f, dot included.
func (f Format) Extensions() []string {
	info, ok := formatInfo[f]
	if !ok {
		return nil
	}
	return append([]string(nil), info.exts...)
}

func (f Format) IsTarBased() bool {
	switch f {
	case FormatTar, FormatTarGz, FormatTarBz2, FormatTarXz, FormatTarLzma, FormatTarZst:
		return true
	}
	return false
}

// IsRandomAccess reports whether the container carries an index that can be
// listed without decoding entry content.
func (f Format) IsRandomAccess() bool {
	return f == FormatZip || f == FormatSevenZ
}

type EntryKind int

const (
	EntryFile EntryKind = iota
	EntryDir
	EntrySymlink
	EntryHardlink
)

func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntryDir:
		return "dir"
	case EntrySymlink:
		return "symlink"
	case EntryHardlink:
		return "hardlink"
	default:
		return "unknown"
	}
}

// Entry is one item yielded by a decoder. Name is exactly as stored in the
// archive and must not be trusted.
type Entry struct {
	Name     string
	Kind     EntryKind
	Size     int64
	Mode     fs.FileMode
	Linkname string
	ModTime  time.Time
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCommitted Status = "committed"
	StatusFailed    Status = "failed"
	StatusAbandoned Status = "abandoned"
)

// Record is one journaled extraction.
type Record struct {
	ID          string     `json:"id"`
	Archive     string     `json:"archive"`
	Destination string     `json:"destination"`
	Format      string     `json:"format"`
	StripRoot   bool       `json:"strip_root"`
	Status      Status     `json:"status"`
	Bytes       int64      `json:"bytes"`
	Entries     int64      `json:"entries"`
	Error       string     `json:"error,omitempty"`
	OwnerPID    int        `json:"owner_pid,omitempty"`
	OwnerHost   string     `json:"owner_host,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

func (r *Record) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
