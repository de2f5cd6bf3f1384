package tui

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// chromaStyle is the color scheme for syntax highlighting.
var chromaStyle = styles.Get("dracula")

// chromaFormatter outputs 256-color ANSI codes for terminal display.
var chromaFormatter = formatters.Get("terminal256")

var plainStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))

func init() {
	if chromaStyle == nil {
		chromaStyle = styles.Fallback
	}
	if chromaFormatter == nil {
		chromaFormatter = formatters.Fallback
	}
}

// highlight applies syntax highlighting for language, guessing from the
// content when the language is unknown.
func highlight(input, language string) string {
	if input == "" {
		return input
	}

	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil && strings.HasPrefix(strings.TrimSpace(input), "<") {
		lexer = lexers.Get("xml")
	}
	if lexer == nil {
		lexer = lexers.Analyse(input)
	}
	if lexer == nil {
		return plainStyle.Render(input)
	}

	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, input)
	if err != nil {
		return plainStyle.Render(input)
	}

	var buf bytes.Buffer
	if err := chromaFormatter.Format(&buf, chromaStyle, iterator); err != nil {
		return plainStyle.Render(input)
	}
	return buf.String()
}
