package cli

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamcutter/unarc/internal/domain"
)

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"", "auto"} {
		f, err := parseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, domain.FormatUnknown, f)
	}

	f, err := parseFormat("tgz")
	require.NoError(t, err)
	assert.Equal(t, domain.FormatTarGz, f)

	_, err = parseFormat("rar")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestEntryLine(t *testing.T) {
	line := entryLine(domain.Entry{Name: "bin/tool", Kind: domain.EntrySymlink, Linkname: "../lib/tool", Mode: fs.ModePerm})
	assert.Contains(t, line, "bin/tool")
	assert.Contains(t, line, "../lib/tool")

	line = entryLine(domain.Entry{Name: "README", Kind: domain.EntryFile, Size: 2048, Mode: 0644})
	assert.Contains(t, line, "2.0 kB")
}

func TestRootCommands(t *testing.T) {
	cmd := newRootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"extract", "batch", "list", "detect", "formats", "history", "version"})

	extract, _, err := cmd.Find([]string{"extract"})
	require.NoError(t, err)
	for _, flag := range []string{"no-strip", "format", "url", "no-progress"} {
		assert.NotNil(t, extract.Flags().Lookup(flag), flag)
	}
}
