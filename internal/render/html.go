// Package render turns backend email payloads into terminal-friendly text.
package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"mailmate/internal/model"

	"github.com/PuerkitoBio/goquery"
)

var (
	spaceRe     = regexp.MustCompile(`[^\S\n]+`)
	blankRunRe  = regexp.MustCompile(`\n{3,}`)
	invisibleRe = regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}\x{00AD}\x{034F}\x{2060}-\x{2064}]+`)
	tagRe       = regexp.MustCompile(`(?i)<(html|body|div|p|br|table|span|a)[\s>/]`)
)

// LooksLikeHTML reports whether body should go through HTMLToText.
func LooksLikeHTML(body string) bool {
	return tagRe.MatchString(body)
}

// HTMLToText flattens an HTML body into plain text. Block elements start new
// lines, links keep their target, and runs of blank lines collapse to one.
func HTMLToText(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, head, meta, link, title").Remove()

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		if strings.HasPrefix(href, "http") && text != "" && text != href {
			s.AppendHtml(" (" + html.EscapeString(href) + ")")
		}
	})
	doc.Find("p, div, h1, h2, h3, h4, h5, h6, tr, blockquote").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
		s.AppendHtml("\n")
	})
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n- ")
	})
	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml("\n")
	})

	return cleanText(doc.Text()), nil
}

func cleanText(text string) string {
	text = invisibleRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = spaceRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Body returns the displayable body of an opened email. Bodies that fail to
// parse are shown as they came.
func Body(c model.EmailContent) string {
	if !LooksLikeHTML(c.Body) {
		return cleanText(c.Body)
	}
	text, err := HTMLToText(c.Body)
	if err != nil {
		return c.Body
	}
	return text
}

// Email formats an opened email with its headers.
func Email(c model.EmailContent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From:    %s\n", c.From)
	if c.To != "" {
		fmt.Fprintf(&b, "To:      %s\n", c.To)
	}
	if c.Date != "" {
		fmt.Fprintf(&b, "Date:    %s\n", c.Date)
	}
	fmt.Fprintf(&b, "Subject: %s\n\n", c.Subject)
	b.WriteString(Body(c))
	return b.String()
}
