package capture

import "regexp"

// urlExpr stops at whitespace and at characters that are illegal in URIs and
// commonly wrap links in chat text. \s is ASCII-only in RE2, so Unicode
// separators such as NBSP and U+3000 are listed explicitly.
var urlExpr = regexp.MustCompile("https?://[^\\s\\p{Z}\\x{85}\\x{1c}-\\x{1f}<>\"{}|\\\\^`\\[\\]]+")

// ExtractURLs returns every http(s) link in text in first-seen order.
func ExtractURLs(text string) []string {
	if text == "" {
		return []string{}
	}
	found := urlExpr.FindAllString(text, -1)
	if found == nil {
		return []string{}
	}
	return found
}
