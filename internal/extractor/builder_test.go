package extractor

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamcutter/unarc/internal/domain"
	"github.com/teamcutter/unarc/internal/progress"
)

func TestBuilder_Defaults(t *testing.T) {
	cfg, err := NewBuilder().Config()
	require.NoError(t, err)

	assert.True(t, cfg.StripRootDir())
	_, ok := cfg.Format()
	assert.False(t, ok)
	assert.Equal(t, progress.Nop{}, cfg.ProgressSink())
	assert.Equal(t, logrus.StandardLogger(), cfg.Logger())
	assert.Equal(t, DefaultBufferSize, cfg.BufferSize())
}

func TestBuilder_Setters(t *testing.T) {
	counter := &progress.Counter{}
	log := logrus.New()

	cfg, err := NewBuilder().
		StripRootDir(false).
		Format(domain.FormatZip).
		ProgressSink(counter).
		Logger(log).
		BufferSize(4096).
		Config()
	require.NoError(t, err)

	assert.False(t, cfg.StripRootDir())
	f, ok := cfg.Format()
	assert.True(t, ok)
	assert.Equal(t, domain.FormatZip, f)
	assert.Same(t, counter, cfg.ProgressSink())
	assert.Same(t, log, cfg.Logger())
	assert.Equal(t, 4096, cfg.BufferSize())
}

func TestBuilder_ConfigIsACopy(t *testing.T) {
	b := NewBuilder()
	ex, err := b.Build()
	require.NoError(t, err)

	b.StripRootDir(false)
	assert.True(t, ex.Config().StripRootDir())
}

func TestBuilder_Invalid(t *testing.T) {
	_, err := NewBuilder().Format(domain.Format(99)).Build()
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = NewBuilder().BufferSize(-1).BuildAsync()
	require.Error(t, err)
}
