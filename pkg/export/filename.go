package export

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Filename builds the download name for a document export:
// <title>_YYYYMMDD_HHMM plus the format extension. Characters other than ASCII
// letters, digits and CJK ideographs become underscores.
func Filename(title string, now time.Time, format Format) string {
	base := sanitizeTitle(title)
	if base == "" {
		base = "form"
	}
	return fmt.Sprintf("%s_%s%s", base, now.Format("20060102_1504"), format.Extension())
}

func sanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r >= 0x4e00 && r <= 0x9fa5:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
