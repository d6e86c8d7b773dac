package extractor

import (
	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
	"github.com/teamcutter/unarc/internal/domain"
)

func openZip(path string, sink domain.ProgressSink, log logrus.FieldLogger) (source, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, openError(domain.FormatZip, err)
	}

	files := make([]indexedFile, 0, len(r.File))
	for _, f := range r.File {
		name := decodeName(f.Name, f.NonUTF8)
		if name != f.Name {
			log.WithFields(logrus.Fields{
				"raw":  f.Name,
				"name": name,
			}).Debug("decoded legacy zip entry name")
		}
		files = append(files, indexedFile{
			entry: indexEntry(name, f.Mode(), int64(f.UncompressedSize64), f.Modified),
			open:  f.Open,
		})
	}

	return newIndexSource(domain.FormatZip, files, sink, r), nil
}
