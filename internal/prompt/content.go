package prompt

import (
	"bufio"
	"html"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/rotisserie/eris"
)

// ContentMode selects how a stored page is reduced before prompting.
type ContentMode string

// Content modes.
const (
	ContentRaw      ContentMode = "raw"
	ContentText     ContentMode = "text"
	ContentMarkdown ContentMode = "markdown"
	ContentArticle  ContentMode = "article"
)

// ParseContentMode maps a config value to a ContentMode. Empty means raw.
func ParseContentMode(s string) (ContentMode, error) {
	switch ContentMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ContentRaw:
		return ContentRaw, nil
	case ContentText:
		return ContentText, nil
	case ContentMarkdown:
		return ContentMarkdown, nil
	case ContentArticle:
		return ContentArticle, nil
	default:
		return "", eris.Errorf("prompt: unknown content mode %q", s)
	}
}

// noiseSelector matches elements that never carry researcher data.
const noiseSelector = "script, style, noscript, nav, footer"

// Prepare reduces page HTML according to mode. pageURL resolves relative
// links and may be empty.
func Prepare(mode ContentMode, page, pageURL string) (string, error) {
	switch mode {
	case "", ContentRaw:
		return page, nil
	case ContentText:
		return visibleText(page, pageURL)
	case ContentMarkdown:
		return toMarkdown(page, pageURL)
	case ContentArticle:
		return articleMarkdown(page, pageURL)
	default:
		return "", eris.Errorf("prompt: unknown content mode %q", mode)
	}
}

// visibleText drops non-content elements and keeps link targets inline so
// profile URLs survive the conversion.
func visibleText(page, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", eris.Wrap(err, "prompt: parse html")
	}

	base := parseBase(pageURL)
	doc.Find(noiseSelector).Remove()
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = resolve(base, strings.TrimSpace(href))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		s.AfterHtml(" (" + html.EscapeString(href) + ")")
	})

	return collapseLines(doc.Find("body").Text()), nil
}

func toMarkdown(page, pageURL string) (string, error) {
	var opts []converter.ConvertOptionFunc
	if base := parseBase(pageURL); base != nil {
		opts = append(opts, converter.WithDomain(base.Scheme+"://"+base.Host))
	}
	md, err := htmltomarkdown.ConvertString(page, opts...)
	if err != nil {
		return "", eris.Wrap(err, "prompt: convert to markdown")
	}
	return strings.TrimSpace(md), nil
}

func articleMarkdown(page, pageURL string) (string, error) {
	base := parseBase(pageURL)
	if base == nil {
		base = &url.URL{}
	}
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(page), base)
	if err != nil {
		return "", eris.Wrap(err, "prompt: extract article")
	}
	if strings.TrimSpace(article.Content) == "" {
		return "", eris.New("prompt: extract article: no readable content")
	}
	return toMarkdown(article.Content, pageURL)
}

func parseBase(pageURL string) *url.URL {
	if pageURL == "" {
		return nil
	}
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return u
}

func resolve(base *url.URL, href string) string {
	if base == nil || href == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// collapseLines squeezes runs of whitespace inside each line and drops
// blank lines.
func collapseLines(s string) string {
	var b strings.Builder
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Buffer(make([]byte, 0, 64*1024), len(s)+1)
	for sc.Scan() {
		line := strings.Join(strings.Fields(sc.Text()), " ")
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}
