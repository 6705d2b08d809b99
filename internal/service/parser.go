package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jjenkins/billtracker/internal/model"
)

const listSeparator = `", "`

// splitQuotedList trims raw, strips one leading and one trailing double
// quote, and splits on the quote-comma-quote separator.
func splitQuotedList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	raw = strings.TrimPrefix(raw, `"`)
	raw = strings.TrimSuffix(raw, `"`)
	return strings.Split(raw, listSeparator)
}

// ParseLinks decodes a cell like `"Title|http://a", "Other|http://b"`.
// An entry without a pipe has a title and no URL.
func ParseLinks(raw string) []model.Link {
	chunks := splitQuotedList(raw)
	links := make([]model.Link, 0, len(chunks))
	for _, chunk := range chunks {
		title, url, _ := strings.Cut(chunk, "|")
		links = append(links, model.Link{Title: title, URL: url})
	}
	return links
}

// ParseCSVList decodes a cell like `"a", "b"` into its entries
func ParseCSVList(raw string) []string {
	chunks := splitQuotedList(raw)
	if chunks == nil {
		return []string{}
	}
	return chunks
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify turns a title into a lowercase dash-separated key
func Slugify(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
