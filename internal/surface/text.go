package surface

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/pagedit/internal/dom"
)

var (
	// ErrTextNotFound is returned when no element carries the requested id.
	ErrTextNotFound = errors.New("text element not found")
	// ErrNotEditable is returned when the element exists but is not editable.
	ErrNotEditable = errors.New("element is not editable")
)

// Sanitizer returns the policy applied to edited markup: user generated
// content plus the inline colours emitted by code highlighting.
func Sanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowStyles("color", "background-color", "font-weight", "font-style", "text-decoration").
		OnElements("span", "pre", "code")
	return p
}

// Markdown returns the renderer used for markdown text edits.
func Markdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)
}

// Lookup returns the editable element with id.
func Lookup(doc *goquery.Document, id string) (*html.Node, error) {
	el := dom.ByID(doc.Get(0), id)
	if el == nil {
		return nil, fmt.Errorf("%q: %w", id, ErrTextNotFound)
	}
	if !IsEditable(el) {
		return nil, fmt.Errorf("%q: %w", id, ErrNotEditable)
	}
	return el, nil
}

// SetText replaces the content of the editable element id. Inputs and
// textareas take markup as their plain value. A nil policy stores markup
// as given.
func SetText(doc *goquery.Document, id, markup string, p *bluemonday.Policy) error {
	el, err := Lookup(doc, id)
	if err != nil {
		return err
	}
	switch el.Data {
	case "input":
		dom.SetAttr(el, "value", markup)
		return nil
	case "textarea":
		dom.SetTextContent(el, markup)
		return nil
	}
	if p != nil {
		markup = p.Sanitize(markup)
	}
	if err := dom.SetInnerHTML(el, markup); err != nil {
		return fmt.Errorf("setting text of %q: %w", id, err)
	}
	return nil
}

// inlineHosts are elements that cannot hold a paragraph.
var inlineHosts = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"span": true, "a": true, "li": true, "label": true,
}

// SetMarkdown renders source as markdown and stores it as the content of id.
// A single paragraph is unwrapped when the target is itself inline or a
// paragraph.
func SetMarkdown(doc *goquery.Document, id, source string, md goldmark.Markdown, p *bluemonday.Policy) error {
	el, err := Lookup(doc, id)
	if err != nil {
		return err
	}
	if md == nil {
		md = Markdown()
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	out := strings.TrimSpace(buf.String())
	if inlineHosts[el.Data] {
		out = unwrapParagraph(out)
	}
	return SetText(doc, id, out, p)
}

func unwrapParagraph(s string) string {
	if !strings.HasPrefix(s, "<p>") || !strings.HasSuffix(s, "</p>") {
		return s
	}
	inner := s[len("<p>") : len(s)-len("</p>")]
	if strings.Contains(inner, "<p>") {
		return s
	}
	return inner
}
