// Package render turns user-authored Markdown post bodies into HTML that is
// safe to embed in a page.
package render

import (
	"bytes"
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// AllowedTags is the element allow-list applied after Markdown conversion.
var AllowedTags = []string{
	"a", "abbr", "acronym", "b", "blockquote", "code",
	"em", "i", "li", "ol", "pre", "strong", "ul",
	"h1", "h2", "h3", "p",
}

var (
	initOnce sync.Once
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
)

func setup() {
	markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify))

	policy = bluemonday.NewPolicy()
	policy.AllowElements(AllowedTags...)
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowAttrs("title").OnElements("a", "abbr", "acronym")
	policy.AllowStandardURLs()
	policy.RequireNoFollowOnLinks(true)
}

// Body renders a Markdown post body. Disallowed elements are stripped and
// their text kept. On a conversion error the escaped source is returned.
func Body(src string) string {
	initOnce.Do(setup)

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return plain(src)
	}
	return string(bytes.TrimSpace(policy.SanitizeBytes(buf.Bytes())))
}

// plain shows src as literal text.
func plain(src string) string {
	return policy.Sanitize(html.EscapeString(src))
}
