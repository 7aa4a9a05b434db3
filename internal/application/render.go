package application

import (
	"bytes"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/integrations-hub/integrations/internal/domain/model"
)

const snippetLength = 200

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
	textStripper  *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
	textStripper = bluemonday.StrictPolicy()
}

// RenderBody converts a submitted message body into the stored form.
// Text is kept verbatim, markdown becomes sanitized HTML and HTML is sanitized.
func RenderBody(format model.MessageFormat, src string) string {
	if src == "" {
		return ""
	}

	switch format {
	case model.MessageFormatMarkdown:
		var buf bytes.Buffer
		if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
			return htmlSanitizer.Sanitize(src)
		}
		return htmlSanitizer.Sanitize(buf.String())
	case model.MessageFormatHTML:
		return htmlSanitizer.Sanitize(src)
	default:
		return src
	}
}

// Snippet returns a short plain-text preview of a stored body.
func Snippet(format model.MessageFormat, body string) string {
	text := body
	if format != model.MessageFormatText {
		text = html.UnescapeString(textStripper.Sanitize(body))
	}
	text = strings.Join(strings.Fields(text), " ")

	if utf8.RuneCountInString(text) <= snippetLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:snippetLength])
}
