package news

import (
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/go-shiori/go-readability"
)

// htmlToMarkdown converts article HTML to Markdown. Images are dropped when
// keepImages is false (plain news copy) and rendered as ![alt](src) when
// true (MoneyUDN embeds chart images worth keeping).
func htmlToMarkdown(html string, keepImages bool) string {
	if html == "" {
		return ""
	}
	conv := md.NewConverter("", true, nil)
	conv.Remove("script", "style")
	if !keepImages {
		conv.Remove("img")
	}
	out, err := conv.ConvertString(html)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// extractReadable is the selector-chain fallback: when a site's known
// selectors yield nothing (markup drift), run the whole page through
// readability and take the plain text.
func extractReadable(html, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}
