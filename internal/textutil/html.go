package textutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LooksLikeHTML is a cheap sniff for pasted job pages.
func LooksLikeHTML(s string) bool {
	t := strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(t, "<") {
		return false
	}
	for _, tag := range []string{"<html", "<body", "<div", "<p", "<ul", "<section", "<article", "<!doctype"} {
		if strings.Contains(t, tag) {
			return true
		}
	}
	return false
}

// HTMLToText drops scripts, styles and page chrome and returns the visible
// text, one block per line.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, nav, footer, header, svg, iframe").Remove()

	var lines []string
	doc.Find("h1, h2, h3, h4, p, li, td, dd, dt, pre").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li").Length() > 0 {
			return
		}
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			lines = append(lines, t)
		}
	})
	if len(lines) == 0 {
		return strings.Join(strings.Fields(doc.Text()), " "), nil
	}
	return strings.Join(lines, "\n"), nil
}

// PlainText returns s unchanged unless it looks like HTML.
func PlainText(s string) string {
	if !LooksLikeHTML(s) {
		return s
	}
	out, err := HTMLToText(s)
	if err != nil || strings.TrimSpace(out) == "" {
		return s
	}
	return out
}
