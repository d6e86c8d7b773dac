package extractor

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/teamcutter/unarc/internal/domain"
)

const maxLinkDepth = 40

var (
	errAbsolute  = errors.New("absolute path")
	errTraversal = errors.New("path escapes destination")
	errNulByte   = errors.New("name contains NUL byte")
)

// cleanName turns a stored entry name into a clean, slash separated path
// relative to the destination. "." means the archive root itself.
func cleanName(name string) (string, error) {
	if strings.IndexByte(name, 0) >= 0 {
		return "", domain.UnsafePath(name, errNulByte)
	}
	if name == "" {
		return ".", nil
	}
	if isAbs(name) {
		return "", domain.UnsafePath(name, errAbsolute)
	}

	cleaned := path.Clean(name)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", domain.UnsafePath(name, errTraversal)
	}
	return cleaned, nil
}

func isAbs(name string) bool {
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return true
	}
	// C:foo and C:/foo from archives built on Windows
	if len(name) >= 2 && name[1] == ':' {
		c := name[0] | 0x20
		return c >= 'a' && c <= 'z'
	}
	return false
}

// stripRoot removes prefix from a cleaned name. keep is false for the root
// entry itself and for ".".
func stripRoot(cleaned, prefix string) (rel string, keep bool) {
	if cleaned == "." {
		return "", false
	}
	if prefix == "" {
		return cleaned, true
	}
	if cleaned == prefix {
		return "", false
	}
	if rest, ok := strings.CutPrefix(cleaned, prefix+"/"); ok {
		return rest, true
	}
	return cleaned, true
}

// within reports whether p is root or lies beneath it. Both must be clean
// absolute paths.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// linkTargetLexical is the cheap first check on a symlink: the target joined
// onto the link's directory must not leave the destination.
func linkTargetLexical(rel, linkname string) error {
	if linkname == "" {
		return errors.New("empty symlink target")
	}
	if isAbs(linkname) {
		return errAbsolute
	}
	joined := path.Join(path.Dir(rel), filepath.ToSlash(linkname))
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return errTraversal
	}
	return nil
}

// resolveInRoot walks target one component at a time starting at dir,
// following any symlink already on disk, and fails as soon as a step leaves
// root. It returns the resolved path.
func resolveInRoot(root, dir, target string, depth int) (string, error) {
	if depth > maxLinkDepth {
		return "", errors.New("too many levels of symbolic links")
	}
	if isAbs(target) {
		return "", errAbsolute
	}

	cur := dir
	for _, part := range strings.Split(filepath.ToSlash(target), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
			if !within(root, cur) {
				return "", errTraversal
			}
			continue
		}

		next := filepath.Join(cur, part)
		fi, err := os.Lstat(next)
		if err == nil && fi.Mode()&os.ModeSymlink != 0 {
			link, err := os.Readlink(next)
			if err != nil {
				return "", err
			}
			next, err = resolveInRoot(root, cur, link, depth+1)
			if err != nil {
				return "", err
			}
		}
		if !within(root, next) {
			return "", errTraversal
		}
		cur = next
	}
	return cur, nil
}
