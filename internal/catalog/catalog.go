// Package catalog exports the products and copy of a page as YAML or
// Markdown.
package catalog

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"gopkg.in/yaml.v3"

	"github.com/ziadkadry99/pagedit/internal/editor"
)

// Formats understood by Write.
const (
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

// Image describes one product photo.
type Image struct {
	// Source is the URL of a linked image. Embedded images leave it empty.
	Source    string `yaml:"source,omitempty"`
	MediaType string `yaml:"media_type,omitempty"`
	Bytes     int    `yaml:"bytes,omitempty"`
}

// Embedded reports whether the image is carried inside the page.
func (i Image) Embedded() bool { return i.Source == "" }

// Product is one catalog entry.
type Product struct {
	Index  int     `yaml:"index"`
	Name   string  `yaml:"name"`
	Photos int     `yaml:"photos"`
	Images []Image `yaml:"images,omitempty"`
}

// Text is one block of page copy, as Markdown.
type Text struct {
	ID       string `yaml:"id"`
	Tag      string `yaml:"tag"`
	Markdown string `yaml:"markdown"`
}

// Catalog is the exportable content of a page.
type Catalog struct {
	Title    string    `yaml:"title,omitempty"`
	Products []Product `yaml:"products"`
	Texts    []Text    `yaml:"texts,omitempty"`
}

// Build collects the catalog of e.
func Build(e *editor.Editor) (*Catalog, error) {
	products, err := e.Products()
	if err != nil {
		return nil, err
	}
	texts, err := e.Texts()
	if err != nil {
		return nil, err
	}

	conv := newConverter()
	c := &Catalog{Title: e.Title(), Products: make([]Product, 0, len(products))}
	for _, p := range products {
		entry := Product{Index: p.Index, Name: p.Name, Photos: p.Photos}
		for _, src := range p.Images {
			entry.Images = append(entry.Images, describe(src))
		}
		c.Products = append(c.Products, entry)
	}
	for _, t := range texts {
		if t.Tag == "input" || t.Tag == "textarea" {
			continue
		}
		md, err := conv.ConvertString(t.Markup)
		if err != nil {
			return nil, fmt.Errorf("converting %s: %w", t.ID, err)
		}
		if md = strings.TrimSpace(md); md == "" {
			continue
		}
		c.Texts = append(c.Texts, Text{ID: t.ID, Tag: t.Tag, Markdown: md})
	}
	return c, nil
}

func newConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
}

// describe reads the media type and size of a data URI, or keeps a URL.
func describe(src string) Image {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return Image{Source: src}
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{Source: src}
	}
	img := Image{MediaType: strings.TrimSuffix(meta, ";base64")}
	if strings.HasSuffix(meta, ";base64") {
		img.Bytes = base64.StdEncoding.DecodedLen(len(payload)) - strings.Count(payload[max(len(payload)-2, 0):], "=")
	} else {
		img.Bytes = len(payload)
	}
	return img
}

// Write renders c in format to w.
func (c *Catalog) Write(w io.Writer, format string) error {
	switch format {
	case FormatYAML, "yml", "":
		return c.WriteYAML(w)
	case FormatMarkdown, "md":
		return c.WriteMarkdown(w)
	}
	return fmt.Errorf("unknown catalog format %q", format)
}

// WriteYAML renders c as YAML.
func (c *Catalog) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	return enc.Close()
}

// WriteMarkdown renders c as a Markdown document.
func (c *Catalog) WriteMarkdown(w io.Writer) error {
	var b strings.Builder
	title := c.Title
	if title == "" {
		title = "Catalog"
	}
	fmt.Fprintf(&b, "# %s\n\n## Products\n\n", title)
	if len(c.Products) == 0 {
		b.WriteString("No products.\n")
	}
	for _, p := range c.Products {
		fmt.Fprintf(&b, "%d. **%s** (%s)\n", p.Index+1, p.Name, plural(p.Photos, "photo"))
		for _, img := range p.Images {
			if img.Embedded() {
				fmt.Fprintf(&b, "   - embedded %s, %s\n", img.MediaType, plural(img.Bytes, "byte"))
			} else {
				fmt.Fprintf(&b, "   - %s\n", img.Source)
			}
		}
	}
	if len(c.Texts) > 0 {
		b.WriteString("\n## Copy\n")
		for _, t := range c.Texts {
			fmt.Fprintf(&b, "\n<!-- %s (%s) -->\n%s\n", t.ID, t.Tag, t.Markdown)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
