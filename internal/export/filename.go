package export

import (
	"strings"
	"time"
	"unicode"
)

// FilenameDateLayout is the date segment of generated filenames.
const FilenameDateLayout = "02 Jan 2006"

const maxSegmentRunes = 80

// Filename builds "{proposal}_{client}_{date}_{id}.{ext}".
func Filename(proposal, client string, date time.Time, id string, format Format) string {
	return sanitizeFilename(proposal, "proposal") + "_" +
		sanitizeFilename(client, "client") + "_" +
		date.Format(FilenameDateLayout) + "_" +
		id + "." + string(format)
}

// sanitizeFilename drops path separators, control and shell-hostile
// characters from a filename segment.
func sanitizeFilename(title, fallback string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.TrimSpace(title) {
		if n == maxSegmentRunes {
			break
		}
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case r == ' ', r == '-', r == '_', r == '&', r == '(', r == ')', r == ',', r == '+', r == '.', r == '\'':
		default:
			continue
		}
		b.WriteRune(r)
		n++
	}
	result := strings.Trim(b.String(), " .")
	if result == "" {
		return fallback
	}
	return result
}

// swapExt replaces the extension of a generated filename.
func swapExt(name string, format Format) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name + "." + string(format)
}
