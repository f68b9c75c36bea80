package chatbot

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const paragraphClass = "mb-3"

var answerMarkdown = goldmark.New(
	goldmark.WithParserOptions(
		parser.WithASTTransformers(util.Prioritized(paragraphClassTransformer{}, 100)),
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
		renderer.WithNodeRenderers(util.Prioritized(escapedHTMLRenderer{}, 100)),
	),
)

// MarkdownToHTML renders a model answer as HTML. Paragraphs carry the
// mb-3 class; any HTML the model wrote is escaped, never passed through.
func MarkdownToHTML(answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := answerMarkdown.Convert([]byte(answer), &buf); err != nil {
		return "<p class=\"" + paragraphClass + "\">" + string(util.EscapeHTML([]byte(answer))) + "</p>"
	}
	return strings.TrimSpace(buf.String())
}

type paragraphClassTransformer struct{}

func (paragraphClassTransformer) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindParagraph {
			n.SetAttributeString("class", []byte(paragraphClass))
		}
		return ast.WalkContinue, nil
	})
}

// escapedHTMLRenderer replaces the default raw HTML handling, which drops
// the markup, with escaped text.
type escapedHTMLRenderer struct{}

func (r escapedHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindRawHTML, r.renderRawHTML)
	reg.Register(ast.KindHTMLBlock, r.renderHTMLBlock)
}

func (escapedHTMLRenderer) renderRawHTML(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	segments := n.(*ast.RawHTML).Segments
	for i := 0; i < segments.Len(); i++ {
		seg := segments.At(i)
		_, _ = w.Write(util.EscapeHTML(seg.Value(source)))
	}
	return ast.WalkSkipChildren, nil
}

func (escapedHTMLRenderer) renderHTMLBlock(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	block := n.(*ast.HTMLBlock)
	var raw bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		raw.Write(line.Value(source))
	}
	if block.HasClosure() {
		raw.Write(block.ClosureLine.Value(source))
	}
	_, _ = w.WriteString(`<p class="` + paragraphClass + `">`)
	_, _ = w.Write(util.EscapeHTML(bytes.TrimSpace(raw.Bytes())))
	_, _ = w.WriteString("</p>\n")
	return ast.WalkContinue, nil
}
