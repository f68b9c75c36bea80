package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/pkg/utils"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	ErrInvalidURL      = errors.New("invalid url")
	ErrPDFURL          = errors.New("pdf urls are not supported")
	ErrFetch           = errors.New("failed to fetch url")
	ErrContentTooShort = errors.New("extracted content too short")
)

const (
	DefaultFetchTimeout = 10 * time.Second
	MinContentLength    = 500
	maxBodyBytes        = 10 << 20
)

var paragraphBreak = regexp.MustCompile(`\n{2,}`)

var removedTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Header:   true,
	atom.Aside:    true,
	atom.Form:     true,
	atom.Title:    true,
}

var removedClasses = []string{"sidebar", "comments", "ad", "advertisement"}

// contentSelectors are tried in order; the first one with a match wins.
var contentSelectors = []struct {
	tag   atom.Atom
	class string
	id    string
}{
	{tag: atom.Main},
	{tag: atom.Article},
	{class: "content"},
	{id: "content"},
	{class: "main-content"},
	{id: "main-content"},
	{class: "post-content"},
	{class: "article-content"},
	{class: "entry-content"},
}

var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true, atom.Main: true,
	atom.Li: true, atom.Ul: true, atom.Ol: true, atom.Br: true, atom.Tr: true, atom.Table: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Pre: true,
}

type Scraper struct {
	client    *http.Client
	minLength int
	logger    logger.ILogger
}

func NewScraper(timeout time.Duration, log logger.ILogger) *Scraper {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Scraper{
		client:    &http.Client{Timeout: timeout},
		minLength: MinContentLength,
		logger:    log,
	}
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u, nil
}

func IsPDFURL(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasSuffix(lower, ".pdf") ||
		strings.Contains(lower, "/pdf") ||
		strings.Contains(lower, "application/pdf")
}

// Fetch downloads a page and returns its readable text, one paragraph per
// block element.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return "", err
	}
	if IsPDFURL(u.String()) {
		return "", ErrPDFURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; concept-visualizer/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	res, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrFetch, res.StatusCode)
	}
	if strings.Contains(res.Header.Get("Content-Type"), "application/pdf") {
		return "", ErrPDFURL
	}

	text, err := ExtractText(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}

	s.logger.Info("Scraper", "Fetched page", map[string]interface{}{
		"url":    u.String(),
		"length": len(text),
	})
	if len(text) < s.minLength {
		return "", fmt.Errorf("%w: %d characters", ErrContentTooShort, len(text))
	}
	return text, nil
}

// ExtractText parses an HTML document, drops navigation and other
// non-content elements, and returns the text of the main content container
// (or the whole document when there is none).
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}
	prune(doc)

	root := doc
	if main := findContent(doc); main != nil {
		root = main
	}

	var sb strings.Builder
	collectText(&sb, root)

	paragraphs := paragraphBreak.Split(sb.String(), -1)
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if p = utils.CollapseWhitespace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n"), nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode || (c.Type == html.ElementNode && shouldRemove(c)) {
			n.RemoveChild(c)
		} else {
			prune(c)
		}
		c = next
	}
}

func shouldRemove(n *html.Node) bool {
	if removedTags[n.DataAtom] {
		return true
	}
	for _, class := range removedClasses {
		if hasClass(n, class) {
			return true
		}
	}
	return false
}

func findContent(doc *html.Node) *html.Node {
	for _, sel := range contentSelectors {
		if n := findFirst(doc, func(n *html.Node) bool {
			switch {
			case sel.tag != 0:
				return n.DataAtom == sel.tag
			case sel.class != "":
				return hasClass(n, sel.class)
			default:
				return attr(n, "id") == sel.id
			}
		}); n != nil {
			return n
		}
	}
	return nil
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func collectText(sb *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	block := n.Type == html.ElementNode && blockTags[n.DataAtom]
	if block {
		sb.WriteString("\n\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(sb, c)
	}
	if block {
		sb.WriteString("\n\n")
	}
}
