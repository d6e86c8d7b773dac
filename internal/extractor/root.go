package extractor

import (
	"strings"

	"github.com/teamcutter/unarc/internal/domain"
)

// rootPrefix returns the single top-level directory shared by every entry,
// or "" when there is none. A top-level entry that is not a directory, or a
// second top-level name, disables stripping.
func rootPrefix(entries []domain.Entry) (string, error) {
	var root string
	isDir := false

	for _, e := range entries {
		cleaned, err := cleanName(e.Name)
		if err != nil {
			return "", err
		}
		if cleaned == "." {
			continue
		}

		first, _, nested := strings.Cut(cleaned, "/")
		switch {
		case root == "":
			root = first
		case first != root:
			return "", nil
		}

		if nested || e.Kind == domain.EntryDir {
			isDir = true
			continue
		}
		return "", nil
	}

	if !isDir {
		return "", nil
	}
	return root, nil
}
