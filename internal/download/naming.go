// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode"
)

// maxTitleLen caps the sanitized title portion of lookup-mode filenames.
const maxTitleLen = 50

// FilenameFromURL derives a crawl-mode filename: the URL's final path
// segment with any query string stripped. URLs ending in a slash or with no
// usable segment fall back to a hash-derived name so the file still lands
// somewhere deterministic.
func FilenameFromURL(rawURL string) string {
	name := rawURL
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		h := sha256.Sum256([]byte(rawURL))
		name = fmt.Sprintf("url-%x.pdf", h[:8])
	}
	return name
}

// SafeFilename derives a lookup-mode filename: "<paperID>_<title>.pdf" where
// the title keeps only letters, digits, spaces, hyphens and underscores, has
// trailing whitespace trimmed, and is truncated to 50 characters.
func SafeFilename(paperID, title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := strings.TrimRight(b.String(), " ")
	if len(safe) > maxTitleLen {
		safe = safe[:maxTitleLen]
	}
	return fmt.Sprintf("%s_%s.pdf", paperID, safe)
}
