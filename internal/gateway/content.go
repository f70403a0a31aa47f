package gateway

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/set-night/citycopilot/internal/config"
	"github.com/set-night/citycopilot/internal/jsonx"
)

// articleExcerpt turns an article's HTML body into a short plain-text teaser.
func articleExcerpt(o map[string]any) string {
	if s := jsonx.String(o, "summary", "excerpt"); s != "" {
		return truncate(s, config.ExcerptMaxRunes)
	}
	body := jsonx.String(o, "body", "content", "html")
	if body == "" {
		return ""
	}
	return truncate(htmlText(body), config.ExcerptMaxRunes)
}

// htmlText extracts readable text, skipping scripts and styles.
func htmlText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	var parts []string
	doc.Find("p, h1, h2, h3, li").Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	text := strings.Join(parts, " ")
	if text == "" {
		text = doc.Text()
	}
	return strings.Join(strings.Fields(text), " ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max-3])) + "..."
}
