package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

const minCharsetConfidence = 70

// decodeName converts a zip entry name stored without the UTF-8 flag.
// Names that are already valid UTF-8 are kept. Otherwise the charset is
// guessed and CP437, the zip default, is the fallback.
func decodeName(raw string, nonUTF8 bool) string {
	if !nonUTF8 || utf8.ValidString(raw) {
		return raw
	}

	if result, err := chardet.NewTextDetector().DetectBest([]byte(raw)); err == nil && result.Confidence >= minCharsetConfidence {
		if dec := decoderFor(result.Charset); dec != nil {
			if name, err := dec.NewDecoder().String(raw); err == nil && utf8.ValidString(name) {
				return name
			}
		}
	}

	name, err := charmap.CodePage437.NewDecoder().String(raw)
	if err != nil {
		return strings.ToValidUTF8(raw, "_")
	}
	return name
}

func decoderFor(charset string) encoding.Encoding {
	switch strings.ToUpper(charset) {
	case "GB18030":
		return simplifiedchinese.GB18030
	case "GB2312", "GBK":
		return simplifiedchinese.GBK
	case "BIG5":
		return traditionalchinese.Big5
	case "SHIFT_JIS", "SJIS":
		return japanese.ShiftJIS
	case "EUC-JP":
		return japanese.EUCJP
	case "EUC-KR":
		return korean.EUCKR
	case "ISO-8859-1", "WINDOWS-1252":
		return charmap.Windows1252
	case "IBM866", "CP866":
		return charmap.CodePage866
	default:
		return nil
	}
}
