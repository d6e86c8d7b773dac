package extractor

import (
	"github.com/sirupsen/logrus"
	"github.com/teamcutter/unarc/internal/domain"
	"github.com/teamcutter/unarc/internal/format"
	"github.com/teamcutter/unarc/internal/progress"
)

// Extractor extracts on the calling goroutine.
type Extractor struct {
	cfg Config
}

func New(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

func (e *Extractor) Config() Config {
	return e.cfg
}

// Extract unpacks archive into dest. dest must not exist; its parent is
// created when missing. On error dest is left untouched.
func (e *Extractor) Extract(archive, dest string) error {
	_, err := e.Run(archive, dest)
	return err
}

// ExtractFromURL is Extract with the format taken from the path of rawURL,
// for archives downloaded under a temporary name.
func (e *Extractor) ExtractFromURL(archive, dest, rawURL string) error {
	_, err := e.RunFromURL(archive, dest, rawURL)
	return err
}

func (e *Extractor) Run(archive, dest string) (Stats, error) {
	f, err := e.resolve(archive, func() (domain.Format, error) {
		return format.FromPath(archive)
	})
	if err != nil {
		return Stats{}, err
	}
	return run(e.cfg, f, archive, dest)
}

func (e *Extractor) RunFromURL(archive, dest, rawURL string) (Stats, error) {
	f, err := e.resolve(archive, func() (domain.Format, error) {
		return format.FromURL(rawURL)
	})
	if err != nil {
		return Stats{}, err
	}
	return run(e.cfg, f, archive, dest)
}

// List reads the entry headers of archive without extracting anything.
func (e *Extractor) List(archive string) ([]domain.Entry, error) {
	f, err := e.resolve(archive, func() (domain.Format, error) {
		return format.FromPath(archive)
	})
	if err != nil {
		return nil, err
	}

	src, err := openSource(f, archive, progress.Nop{}, e.cfg.Logger())
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return src.Scan()
}

func (e *Extractor) resolve(archive string, detect func() (domain.Format, error)) (domain.Format, error) {
	if f, ok := e.cfg.Format(); ok {
		return f, nil
	}

	f, err := detect()
	if err != nil {
		return domain.FormatUnknown, err
	}

	sniffed, ok, err := format.Sniff(archive)
	if err == nil && ok && sniffed != f {
		e.cfg.Logger().WithFields(logrus.Fields{
			"archive":  archive,
			"detected": f.String(),
			"content":  sniffed.String(),
		}).Warn("archive content does not match its name")
	}
	return f, nil
}
