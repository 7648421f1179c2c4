// Package normalize provides pure, total string normalization helpers for
// bibliographic data. Every function is idempotent and never fails; callers
// feed it whatever an external source returned.
package normalize

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var (
	yearRegex    = regexp.MustCompile(`1[5-9]\d\d|20\d\d|21\d\d`)
	isbnRegex    = regexp.MustCompile(`97[89][0-9]{10}|[0-9]{9}[0-9Xx]`)
	doiRegex     = regexp.MustCompile(`10\.\d{4,9}/[^\s"'<>]+`)
	spacesRegex  = regexp.MustCompile(`\s+`)
	tagRegex     = regexp.MustCompile(`<[^>]*>`)
	doiPrefixes  = []string{"https://doi.org/", "http://doi.org/", "doi:"}
	languageCode = map[string]string{
		"eng":      "en",
		"chi":      "zh",
		"zho":      "zh",
		"chinese":  "zh",
		"jpn":      "ja",
		"japanese": "ja",
		"fre":      "fr",
		"fra":      "fr",
		"ger":      "de",
		"deu":      "de",
		"spa":      "es",
	}
)

// ISBN uppercases s and strips everything except digits and X. It does not
// validate length or checksum.
func ISBN(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r >= '0' && r <= '9' || r == 'X' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DOI trims s, strips a leading doi.org URL or "doi:" prefix
// (case-insensitive), and lowercases the rest.
func DOI(s string) string {
	s = strings.TrimSpace(s)
	for stripped := true; stripped; {
		stripped = false
		lower := strings.ToLower(s)
		for _, p := range doiPrefixes {
			if strings.HasPrefix(lower, p) {
				s = s[len(p):]
				stripped = true
				break
			}
		}
	}
	return strings.ToLower(s)
}

// Language maps a source language value to an ISO 639-1 two-letter code where
// possible. Taxonomy paths ("/languages/eng") reduce to their final segment
// before lookup; unmapped values pass through unchanged.
func Language(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.Contains(s, "/languages/") {
		s = s[strings.LastIndex(s, "/")+1:]
	}
	if code, ok := languageCode[s]; ok {
		return code
	}
	return s
}

// ForCompare lowercases s and strips everything except ASCII letters, digits,
// and Han characters. The result is for containment comparisons only and is
// never displayed.
func ForCompare(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.Is(unicode.Han, r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FirstYear extracts the first plausible publication year (1500-2199) from s,
// or "" if none.
func FirstYear(s string) string {
	return yearRegex.FindString(s)
}

// InferLanguage guesses a language code from text content: "zh" if it
// contains any Han character, "en" if it contains any Latin letter, else "".
// Used only as a merge fallback when no source supplied a language.
func InferLanguage(text string) string {
	hasLatin := false
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return "zh"
		}
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			hasLatin = true
		}
	}
	if hasLatin {
		return "en"
	}
	return ""
}

// Authors sanitizes an author list: entries are trimmed, " / "-joined entries
// are split apart, empty or implausibly long (>80 chars) entries are dropped,
// and duplicates are removed case-insensitively preserving first-seen order.
func Authors(list []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, entry := range list {
		for _, name := range strings.Split(entry, " / ") {
			name = strings.TrimSpace(name)
			if name == "" || len(name) > 80 {
				continue
			}
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, name)
		}
	}
	return out
}

// Text cleans a string for display: HTML tags are dropped, entities
// unescaped, non-breaking spaces and control characters replaced, and
// whitespace collapsed. Output is either empty or display-ready.
func Text(s string) string {
	s = tagRegex.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = strings.Map(func(r rune) rune {
		if r == '\u00a0' || unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.TrimSpace(spacesRegex.ReplaceAllString(s, " "))
}

// ExtractISBN finds the first 13-digit (978/979 prefixed) or 10-digit ISBN
// embedded in free-form text, returning it normalized, or "".
func ExtractISBN(s string) string {
	return ISBN(isbnRegex.FindString(s))
}

// ExtractDOI finds the first DOI embedded in free-form text, returning it
// normalized, or "".
func ExtractDOI(s string) string {
	m := doiRegex.FindString(s)
	m = strings.TrimRight(m, ".,;)]")
	return strings.ToLower(m)
}
