package download

import "strings"

// DefaultFilename is used when a URL has no usable final path segment.
const DefaultFilename = "downloaded_file"

// SanitizeFilename replaces every character outside [A-Za-z0-9_.\- ] with an underscore.
// An empty name yields DefaultFilename.
func SanitizeFilename(name string) string {
	if name == "" {
		return DefaultFilename
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isSafeFilenameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// FilenameFromURL derives the local file name from the text after the last '/'
// of the raw URL. The query string is kept and sanitized along with the rest.
func FilenameFromURL(rawURL string) string {
	segment := rawURL[strings.LastIndex(rawURL, "/")+1:]
	return SanitizeFilename(segment)
}

func isSafeFilenameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '.', r == '-', r == ' ':
		return true
	}
	return false
}
