package view

import (
	"bytes"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// TOCItem represents a table of contents entry.
type TOCItem struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// MarkdownResult contains the rendered markdown document.
type MarkdownResult struct {
	HTML  string    `json:"html"`
	TOC   []TOCItem `json:"toc"`
	Title string    `json:"title"`
}

// ImageLinkFormatter maps an image reference found in a document to the URL
// it should be served from.
type ImageLinkFormatter func(imagePath string) string

var imageFormatterKey = parser.NewContextKey()

// imageRewriter rewrites repository-relative image destinations using the
// formatter supplied through the parse context. External URLs, data URIs,
// and fragment references are left alone.
type imageRewriter struct{}

func (imageRewriter) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	format, _ := pc.Get(imageFormatterKey).(ImageLinkFormatter)
	if format == nil {
		return
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			dest := string(img.Destination)
			if isRepoLocal(dest) {
				img.Destination = []byte(format(dest))
			}
		}
		return ast.WalkContinue, nil
	})
}

func isRepoLocal(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "data:") {
		return false
	}
	return !strings.Contains(dest, "://")
}

// MarkdownRenderer renders markdown documents with goldmark.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

// NewMarkdownRenderer creates a renderer with GFM extensions, syntax
// highlighting for fenced code blocks, and image-link rewriting.
func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle("monokai"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(imageRewriter{}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)

	return &MarkdownRenderer{md: md}
}

// Render converts markdown source to HTML. Image references in the document
// are passed through format before rendering; a nil format leaves them as-is.
func (r *MarkdownRenderer) Render(source []byte, format ImageLinkFormatter) (*MarkdownResult, error) {
	pc := parser.NewContext()
	if format != nil {
		pc.Set(imageFormatterKey, format)
	}

	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf, parser.WithContext(pc)); err != nil {
		return nil, err
	}

	toc := r.extractTOC(source)
	title := ""
	if len(toc) > 0 {
		title = toc[0].Title
	}

	return &MarkdownResult{
		HTML:  buf.String(),
		TOC:   toc,
		Title: title,
	}, nil
}

// extractTOC walks the AST to extract headings.
func (r *MarkdownRenderer) extractTOC(source []byte) []TOCItem {
	reader := text.NewReader(source)
	doc := r.md.Parser().Parse(reader)

	var toc []TOCItem
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if heading, ok := n.(*ast.Heading); ok {
			title := extractText(heading, source)
			anchor := generateAnchor(title)
			toc = append(toc, TOCItem{
				Level:  heading.Level,
				Title:  title,
				Anchor: anchor,
			})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil
	}

	return toc
}

// extractText extracts text content from a node
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if text, ok := child.(*ast.Text); ok {
			buf.Write(text.Segment.Value(source))
		}
	}
	return buf.String()
}

// generateAnchor creates a URL-safe anchor from text
func generateAnchor(text string) string {
	anchor := strings.ToLower(text)
	anchor = strings.ReplaceAll(anchor, " ", "-")
	reg := regexp.MustCompile(`[^a-z0-9\-\p{Han}\p{Hiragana}\p{Katakana}]`)
	anchor = reg.ReplaceAllString(anchor, "")
	reg = regexp.MustCompile(`-+`)
	anchor = reg.ReplaceAllString(anchor, "-")
	anchor = strings.Trim(anchor, "-")
	return anchor
}
