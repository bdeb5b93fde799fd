package extract

import (
	"bytes"
	"context"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// skipped elements contribute no text.
var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Canvas:   true,
}

// block elements start and end a line.
var block = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Dd: true, atom.Details: true, atom.Div: true, atom.Dl: true,
	atom.Dt: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Summary: true,
	atom.Table: true, atom.Tr: true, atom.Ul: true,
}

// HTMLToText converts markup to readable text in document order. Scripts, styles and other
// non-content elements are dropped, block elements become line breaks and whitespace is
// collapsed. The result has no blank lines and no leading or trailing space.
func HTMLToText(r io.Reader) (string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	writeText(&b, root)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if skipped[n.DataAtom] {
			return
		}
		if n.DataAtom == atom.Td || n.DataAtom == atom.Th {
			b.WriteByte(' ')
		}
	}
	isBlock := n.Type == html.ElementNode && block[n.DataAtom]
	if isBlock {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if isBlock {
		b.WriteByte('\n')
	}
}

// HTMLStrategy converts the fetched markup directly.
type HTMLStrategy struct {
	logger *zap.Logger
}

func (s *HTMLStrategy) Name() string { return "html" }

func (s *HTMLStrategy) Accepts(contentType string) bool {
	return strings.Contains(contentType, "html")
}

// TryExtract decodes the body using the declared or sniffed charset and converts it.
// Decoding problems yield empty text so the rendered fallback gets its turn.
func (s *HTMLStrategy) TryExtract(ctx context.Context, src *Source) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(src.Response.Body), src.Response.ContentType)
	if err != nil {
		s.logger.Warn("unknown charset, reading as UTF-8", zap.String("url", src.URL), zap.Error(err))
		r = bytes.NewReader(src.Response.Body)
	}
	text, err := HTMLToText(r)
	if err != nil {
		s.logger.Warn("html conversion failed", zap.String("url", src.URL), zap.Error(err))
		return "", nil
	}
	return text, nil
}

// RenderedHTMLStrategy loads the page in a browser and converts the rendered body. It is the
// fallback for pages whose content is built by scripts. Render failures yield empty text.
type RenderedHTMLStrategy struct {
	renderer Renderer
	logger   *zap.Logger
}

func (s *RenderedHTMLStrategy) Name() string { return "rendered-html" }

func (s *RenderedHTMLStrategy) Accepts(contentType string) bool {
	return strings.Contains(contentType, "html")
}

func (s *RenderedHTMLStrategy) TryExtract(ctx context.Context, src *Source) (string, error) {
	s.logger.Debug("trying rendered fallback", zap.String("url", src.URL))
	markup, err := s.renderer.Render(ctx, src.URL)
	if err != nil {
		s.logger.Warn("render failed", zap.String("url", src.URL), zap.Error(err))
		return "", nil
	}
	text, err := HTMLToText(strings.NewReader(markup))
	if err != nil {
		s.logger.Warn("rendered html conversion failed", zap.String("url", src.URL), zap.Error(err))
		return "", nil
	}
	return text, nil
}
