package duckduckgo

// resultHit is one search result, in the field naming of the d.js embedded
// payload ("t" title, "a" abstract snippet, "u" result URL). The HTML
// fallback parser fills the same struct.
type resultHit struct {
	Title    string `json:"t"`
	Abstract string `json:"a"`
	URL      string `json:"u"`
}
