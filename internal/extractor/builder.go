package extractor

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/teamcutter/unarc/internal/domain"
	"github.com/teamcutter/unarc/internal/progress"
)

const DefaultBufferSize = 32 * 1024

// Config is the validated, read-only configuration of an extractor.
type Config struct {
	stripRootDir bool
	format       domain.Format
	sink         domain.ProgressSink
	log          logrus.FieldLogger
	bufferSize   int
}

func (c Config) StripRootDir() bool {
	return c.stripRootDir
}

// Format returns the configured override. ok is false when the format is
// detected per call.
func (c Config) Format() (f domain.Format, ok bool) {
	return c.format, c.format != domain.FormatUnknown
}

func (c Config) ProgressSink() domain.ProgressSink {
	return progress.OrNop(c.sink)
}

func (c Config) Logger() logrus.FieldLogger {
	if c.log == nil {
		return logrus.StandardLogger()
	}
	return c.log
}

func (c Config) BufferSize() int {
	if c.bufferSize <= 0 {
		return DefaultBufferSize
	}
	return c.bufferSize
}

type Builder struct {
	cfg Config
}

func NewBuilder() *Builder {
	return &Builder{cfg: Config{stripRootDir: true}}
}

func (b *Builder) StripRootDir(strip bool) *Builder {
	b.cfg.stripRootDir = strip
	return b
}

func (b *Builder) Format(f domain.Format) *Builder {
	b.cfg.format = f
	return b
}

func (b *Builder) ProgressSink(sink domain.ProgressSink) *Builder {
	b.cfg.sink = sink
	return b
}

func (b *Builder) Logger(log logrus.FieldLogger) *Builder {
	b.cfg.log = log
	return b
}

// BufferSize sets the copy buffer. Zero selects DefaultBufferSize.
func (b *Builder) BufferSize(n int) *Builder {
	b.cfg.bufferSize = n
	return b
}

func (b *Builder) Config() (Config, error) {
	if b.cfg.format != domain.FormatUnknown && !b.cfg.format.Valid() {
		return Config{}, domain.UnsupportedFormat(fmt.Sprintf("format override %d", int(b.cfg.format)))
	}
	if b.cfg.bufferSize < 0 {
		return Config{}, fmt.Errorf("buffer size must not be negative: %d", b.cfg.bufferSize)
	}
	return b.cfg, nil
}

func (b *Builder) Build() (*Extractor, error) {
	cfg, err := b.Config()
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

func (b *Builder) BuildAsync() (*AsyncExtractor, error) {
	cfg, err := b.Config()
	if err != nil {
		return nil, err
	}
	return NewAsync(cfg), nil
}
