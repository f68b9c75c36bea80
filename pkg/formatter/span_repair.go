package formatter

import (
	"bytes"
	"strconv"
	"strings"

	"concept-visualizer-be/pkg/concept"
	"concept-visualizer-be/pkg/utils"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	MarkerClass   = "highlighted-concept"
	AttrIndex     = "data-concept-index"
	AttrTitle     = "data-concept-title"
	maxMergeGap   = 20
	maxTrivialGap = 5
)

// RepairSpans fixes the highlight markers of a formatted fragment:
//
//  1. Adjacent markers with the same index, separated only by whitespace
//     or a very short text run, are merged into the first one.
//  2. A marker whose index is unknown, or whose text is not exactly its
//     concept's text, is unwrapped.
//  3. A marker wrapping text already wrapped by an earlier marker is
//     unwrapped, whatever its index.
//
// Surviving markers carry the concept's canonical title. Input that does
// not parse is returned unchanged.
func RepairSpans(fragment string, concepts []concept.IndexedConcept) string {
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), root)
	if err != nil {
		return fragment
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	mergeFragments(root)
	validateMarkers(root, concepts)
	suppressDuplicates(root)

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return fragment
		}
	}
	return buf.String()
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func isMarker(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Span {
		return false
	}
	class, _ := attr(n, "class")
	if !strings.Contains(" "+class+" ", " "+MarkerClass+" ") {
		return false
	}
	_, ok := attr(n, AttrIndex)
	return ok
}

func markerIndex(n *html.Node) (int, bool) {
	val, _ := attr(n, AttrIndex)
	idx, err := strconv.Atoi(strings.TrimSpace(val))
	return idx, err == nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// markers lists marker nodes under n in document order.
func markers(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isMarker(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// unwrap replaces n with its children.
func unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}

func mergeFragments(root *html.Node) {
	for _, m := range markers(root) {
		if m.Parent == nil {
			continue
		}
		idx, ok := markerIndex(m)
		if !ok {
			continue
		}
		for {
			gap, next := m.NextSibling, m.NextSibling
			if gap != nil && gap.Type == html.TextNode {
				next = gap.NextSibling
			} else {
				gap = nil
			}
			if next == nil || !isMarker(next) {
				break
			}
			if nextIdx, ok := markerIndex(next); !ok || nextIdx != idx {
				break
			}
			if gap != nil && !isTrivialGap(gap.Data) {
				break
			}

			if gap != nil {
				m.Parent.RemoveChild(gap)
				m.AppendChild(gap)
			}
			for c := next.FirstChild; c != nil; {
				following := c.NextSibling
				next.RemoveChild(c)
				m.AppendChild(c)
				c = following
			}
			next.Parent.RemoveChild(next)
		}
	}
}

func isTrivialGap(text string) bool {
	if len(text) >= maxMergeGap {
		return false
	}
	return strings.TrimSpace(text) == "" || len(text) < maxTrivialGap
}

func validateMarkers(root *html.Node, concepts []concept.IndexedConcept) {
	byIndex := make(map[int]concept.IndexedConcept, len(concepts))
	for _, c := range concepts {
		byIndex[c.Index] = c
	}

	for _, m := range markers(root) {
		idx, ok := markerIndex(m)
		if !ok {
			unwrap(m)
			continue
		}
		c, known := byIndex[idx]
		if !known || utils.CollapseWhitespace(textContent(m)) != utils.CollapseWhitespace(c.Text) {
			unwrap(m)
			continue
		}
		setAttr(m, AttrTitle, c.Title)
	}
}

func suppressDuplicates(root *html.Node) {
	seen := make(map[string]bool)
	for _, m := range markers(root) {
		if m.Parent == nil {
			continue
		}
		text := utils.CollapseWhitespace(textContent(m))
		if seen[text] {
			unwrap(m)
			continue
		}
		seen[text] = true
	}
}
