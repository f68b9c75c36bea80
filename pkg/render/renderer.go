package render

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"concept-visualizer-be/internal/constant"
	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/pkg/llm"
	"concept-visualizer-be/pkg/utils"
)

// ErrRender is returned when a response holds no <svg>...</svg> pair.
var ErrRender = errors.New("visualization rendering failed")

// Layout selects the prompt and the forced dimensions of the SVG.
type Layout string

const (
	// LayoutFixed forces a 700x480 canvas.
	LayoutFixed Layout = "fixed"
	// LayoutResponsive forces a 1200x900 viewBox that fills its container.
	LayoutResponsive Layout = "responsive"
)

const fixedOpenTag = `<svg width="700" height="480" viewBox="0 0 700 480" xmlns="http://www.w3.org/2000/svg">`

var (
	svgPattern     = regexp.MustCompile(`<svg[\s\S]*</svg>`)
	openTagPattern = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxAttr    = regexp.MustCompile(`\sviewBox="[^"]*"`)
	widthAttr      = regexp.MustCompile(`\swidth="[^"]*"`)
	heightAttr     = regexp.MustCompile(`\sheight="[^"]*"`)
)

// Renderer turns one concept into an SVG document.
type Renderer interface {
	Render(ctx context.Context, title, description string) (string, error)
}

type LLMRenderer struct {
	provider llm.LLMProvider
	layout   Layout
	logger   logger.ILogger
}

var _ Renderer = &LLMRenderer{}

func NewLLMRenderer(provider llm.LLMProvider, layout Layout, log logger.ILogger) *LLMRenderer {
	if layout != LayoutResponsive {
		layout = LayoutFixed
	}
	return &LLMRenderer{provider: provider, layout: layout, logger: log}
}

func (r *LLMRenderer) Render(ctx context.Context, title, description string) (string, error) {
	content := fmt.Sprintf("%s: %s", title, description)

	var (
		response string
		err      error
	)
	if r.layout == LayoutResponsive {
		response, err = r.provider.Chat(ctx, []llm.Message{
			{Role: llm.RoleSystem, Content: constant.SVGResponsiveSystemPromptV1},
			{Role: llm.RoleUser, Content: fmt.Sprintf(constant.SVGResponsivePromptV1, "concept", content)},
		}, llm.WithMaxTokens(4000))
	} else {
		response, err = r.provider.Generate(ctx, fmt.Sprintf(constant.SVGFixedPromptV1, content))
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}

	svg, ok := ExtractSVG(response)
	if !ok {
		r.logger.Warn("Renderer", "No SVG found in response", map[string]interface{}{
			"title":    title,
			"response": utils.Truncate(response, 200),
		})
		return "", fmt.Errorf("%w: no svg element in response", ErrRender)
	}

	if r.layout == LayoutResponsive {
		return NormalizeResponsive(svg), nil
	}
	return NormalizeFixed(svg), nil
}

// ExtractSVG returns the text from the first "<svg" to the last "</svg>".
func ExtractSVG(response string) (string, bool) {
	svg := svgPattern.FindString(response)
	return svg, svg != ""
}

// NormalizeFixed replaces the opening tag with the fixed 700x480 one.
func NormalizeFixed(svg string) string {
	loc := openTagPattern.FindStringIndex(svg)
	if loc == nil {
		return svg
	}
	return svg[:loc[0]] + fixedOpenTag + svg[loc[1]:]
}

// NormalizeResponsive rewrites the opening tag to fill its container with a
// 1200x900 viewBox, keeping its other attributes.
func NormalizeResponsive(svg string) string {
	loc := openTagPattern.FindStringIndex(svg)
	if loc == nil {
		return svg
	}
	tag := svg[loc[0]:loc[1]]
	tag = viewBoxAttr.ReplaceAllString(tag, "")
	tag = widthAttr.ReplaceAllString(tag, "")
	tag = heightAttr.ReplaceAllString(tag, "")

	attrs := ` width="100%" height="100%" viewBox="0 0 1200 900"`
	if !strings.Contains(tag, "xmlns=") {
		attrs += ` xmlns="http://www.w3.org/2000/svg"`
	}
	tag = "<svg" + attrs + tag[len("<svg"):]
	return svg[:loc[0]] + tag + svg[loc[1]:]
}
