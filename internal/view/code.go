package view

import (
	"bytes"
	"path/filepath"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DetectLanguage returns the highlighting language for a path, based on its
// file name. Unknown extensions fall back to plain text.
func DetectLanguage(path string) string {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return "plaintext"
	}
	return lexer.Config().Name
}

// CodeRenderer renders text file content as a syntax-highlighted HTML block.
type CodeRenderer struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewCodeRenderer creates a renderer using class-based output so styling
// stays in the stylesheet.
func NewCodeRenderer() *CodeRenderer {
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	return &CodeRenderer{
		style: style,
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.WithLineNumbers(true),
		),
	}
}

// Render highlights content for the given language.
func (r *CodeRenderer) Render(content, language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, content)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, it); err != nil {
		return "", err
	}
	return buf.String(), nil
}
