// Package format maps archive names, URLs and magic bytes to a domain.Format.
package format

import (
	"bytes"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teamcutter/unarc/internal/domain"
)

// Mapping is one row of the extension table.
type Mapping struct {
	Extension string
	Format    domain.Format
}

var table = buildTable()

// Longest suffix first, so ".tar.gz" is always tried before ".gz"-like tails.
func buildTable() []Mapping {
	var t []Mapping
	for _, f := range domain.Formats() {
		for _, ext := range f.Extensions() {
			t = append(t, Mapping{Extension: ext, Format: f})
		}
	}
	sort.SliceStable(t, func(i, j int) bool {
		return len(t[i].Extension) > len(t[j].Extension)
	})
	return t
}

// Table returns a copy of the extension table, longest extension first.
func Table() []Mapping {
	return append([]Mapping(nil), table...)
}

// Lookup resolves a bare extension such as ".tgz" (the dot is optional).
func Lookup(ext string) (domain.Format, bool) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, m := range table {
		if m.Extension == ext {
			return m.Format, true
		}
	}
	return domain.FormatUnknown, false
}

func FromName(name string) (domain.Format, error) {
	lower := strings.ToLower(name)
	for _, m := range table {
		if strings.HasSuffix(lower, m.Extension) {
			return m.Format, nil
		}
	}
	return domain.FormatUnknown, domain.UnsupportedFormat(name)
}

func FromPath(p string) (domain.Format, error) {
	f, err := FromName(filepath.Base(p))
	if err != nil {
		return domain.FormatUnknown, domain.UnsupportedFormat(p)
	}
	return f, nil
}

// FromURL applies the extension table to the last element of the URL path;
// query and fragment are ignored.
func FromURL(rawURL string) (domain.Format, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return domain.FormatUnknown, domain.UnsupportedFormat(rawURL)
	}
	f, err := FromName(path.Base(u.Path))
	if err != nil {
		return domain.FormatUnknown, domain.UnsupportedFormat(rawURL)
	}
	return f, nil
}

// Stem returns the base name of p without its archive extension, or the
// base name unchanged when no extension matches.
func Stem(p string) string {
	base := filepath.Base(p)
	lower := strings.ToLower(base)
	for _, m := range table {
		if strings.HasSuffix(lower, m.Extension) && len(base) > len(m.Extension) {
			return base[:len(base)-len(m.Extension)]
		}
	}
	return base
}

func IsArchive(name string) bool {
	_, err := FromName(name)
	return err == nil
}

func IsTarball(name string) bool {
	f, err := FromName(name)
	return err == nil && f.IsTarBased()
}

// Parse accepts a canonical format string ("tar.gz", "7z") or any extension
// from the table (".tgz", "tbz2").
func Parse(s string) (domain.Format, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, f := range domain.Formats() {
		if f.String() == lower {
			return f, nil
		}
	}
	if f, ok := Lookup(lower); ok {
		return f, nil
	}
	return domain.FormatUnknown, domain.UnsupportedFormat(s)
}

// SniffLen is how many leading bytes FromMagic wants to see.
const SniffLen = 262

// https://gist.github.com/leommoore/f9e57ba2aa4bf197ebc5
var magics = []struct {
	offset int
	magic  []byte
	format domain.Format
}{
	{0, []byte{0x28, 0xb5, 0x2f, 0xfd}, domain.FormatTarZst},
	{0, []byte{0x1f, 0x8b}, domain.FormatTarGz},
	{0, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, domain.FormatTarXz},
	{0, []byte{0x42, 0x5a, 0x68}, domain.FormatTarBz2},
	{0, []byte{0x37, 0x7a, 0xbc, 0xaf, 0x27, 0x1c}, domain.FormatSevenZ},
	{0, []byte{0x50, 0x4b, 0x03, 0x04}, domain.FormatZip},
	{0, []byte{0x50, 0x4b, 0x05, 0x06}, domain.FormatZip},
	{257, []byte("ustar"), domain.FormatTar},
}

// FromMagic identifies a format from the leading bytes of a file. Compressed
// streams are assumed to wrap a tar. LZMA has no reliable signature and is
// never reported.
func FromMagic(prefix []byte) (domain.Format, bool) {
	for _, m := range magics {
		end := m.offset + len(m.magic)
		if len(prefix) >= end && bytes.Equal(prefix[m.offset:end], m.magic) {
			return m.format, true
		}
	}
	return domain.FormatUnknown, false
}

func Sniff(p string) (domain.Format, bool, error) {
	f, err := os.Open(p)
	if err != nil {
		return domain.FormatUnknown, false, err
	}
	defer f.Close()

	buf := make([]byte, SniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return domain.FormatUnknown, false, err
	}
	format, ok := FromMagic(buf[:n])
	return format, ok, nil
}
