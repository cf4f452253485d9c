package serializer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/pagedit/internal/carousel"
	"github.com/ziadkadry99/pagedit/internal/dom"
	"github.com/ziadkadry99/pagedit/internal/gallery"
	"github.com/ziadkadry99/pagedit/internal/session"
	"github.com/ziadkadry99/pagedit/internal/surface"
)

// Selectors read by the snapshot.
const (
	editableSelector = `[contenteditable="true"], .editable-text`
	embeddedSelector = `img.uploaded-image, img[src^="data:"]`
)

var positionalImage = regexp.MustCompile(`^product-(\d+)-photo-(\d+)$`)

// ImageStyle is the presentation of a live image carried into the output.
type ImageStyle struct {
	ObjectFit       string `json:"object_fit,omitempty"`
	ObjectPosition  string `json:"object_position,omitempty"`
	Transform       string `json:"transform,omitempty"`
	TransformOrigin string `json:"transform_origin,omitempty"`
	Width           string `json:"width,omitempty"`
	Height          string `json:"height,omitempty"`
}

// ImageRef is one embedded image of the snapshot.
type ImageRef struct {
	ID   string `json:"id"`
	Data string `json:"-"`
	// Product and Photo locate positional images; both are -1 otherwise.
	Product int        `json:"product"`
	Photo   int        `json:"photo"`
	Style   ImageStyle `json:"style"`
}

// Positional reports whether the image is addressed by its slot.
func (r ImageRef) Positional() bool { return r.Product >= 0 }

// Name is the product name input at one position.
type Name struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Snapshot is the editable content of a document at save time.
type Snapshot struct {
	Texts     map[string]string `json:"texts"`
	TextOrder []string          `json:"-"`
	Names     []Name            `json:"names"`
	Images    []ImageRef        `json:"images"`
	// Stamped counts identifiers written into the live document.
	Stamped int `json:"stamped"`
}

// PositionalID is the identifier of photo n of product p.
func PositionalID(p, n int) string {
	return fmt.Sprintf("product-%d-photo-%d", p, n)
}

// ParsePositionalID reverses PositionalID.
func ParsePositionalID(id string) (p, n int, ok bool) {
	m := positionalImage.FindStringSubmatch(id)
	if m == nil {
		return 0, 0, false
	}
	p, _ = strconv.Atoi(m[1])
	n, _ = strconv.Atoi(m[2])
	return p, n, true
}

// Take reads every editable text, product name and embedded image of doc.
// Elements lacking an identifier are given one; nothing else in doc changes.
func Take(doc *goquery.Document, ids *session.IDs) *Snapshot {
	root := doc.Get(0)
	s := &Snapshot{Texts: make(map[string]string)}

	for _, el := range dom.Find(root, editableSelector) {
		if surface.Excluded(el) {
			continue
		}
		id := dom.AttrOr(el, "id", "")
		if session.Blank(id) {
			id = ids.New(session.PrefixText)
			dom.SetAttr(el, "id", id)
			s.Stamped++
		}
		markup, err := contentOf(el)
		if err != nil {
			markup = dom.TextContent(el)
		}
		if _, seen := s.Texts[id]; !seen {
			s.TextOrder = append(s.TextOrder, id)
		}
		s.Texts[id] = markup
	}

	for _, in := range dom.Find(root, "."+gallery.NameInputClass) {
		id := dom.AttrOr(in, "id", "")
		if session.Blank(id) {
			id = ids.New(session.PrefixName)
			dom.SetAttr(in, "id", id)
			s.Stamped++
		}
		s.Names = append(s.Names, Name{ID: id, Value: dom.AttrOr(in, "value", "")})
	}

	rows := gallery.Rows(doc)
	seen := make(map[string]bool)
	for _, img := range dom.Find(root, embeddedSelector) {
		data := embeddedData(img)
		if data == "" {
			continue
		}
		ref := ImageRef{Data: data, Product: -1, Photo: -1, Style: styleOf(img)}
		if p, n, ok := slotOf(img, rows); ok {
			ref.ID, ref.Product, ref.Photo = PositionalID(p, n), p, n
		} else {
			ref.ID = dom.AttrOr(img, "id", "")
			if session.Blank(ref.ID) {
				ref.ID = ids.New(session.PrefixImage)
				dom.SetAttr(img, "id", ref.ID)
				s.Stamped++
			}
		}
		if seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true
		s.Images = append(s.Images, ref)
	}
	return s
}

// contentOf renders the inner markup of el without editor controls. Form
// fields yield their value.
func contentOf(el *html.Node) (string, error) {
	switch el.Data {
	case "input":
		return dom.AttrOr(el, "value", ""), nil
	case "textarea":
		return dom.TextContent(el), nil
	}
	if dom.First(el, EditorControls) == nil {
		return dom.InnerHTML(el)
	}
	cp := dom.Sel(el).Clone().Get(0)
	dom.RemoveAll(dom.Find(cp, EditorControls))
	return dom.InnerHTML(cp)
}

func embeddedData(img *html.Node) string {
	if v := dom.AttrOr(img, "data-base64", ""); v != "" {
		return v
	}
	if src := dom.AttrOr(img, "src", ""); strings.HasPrefix(src, "data:image") {
		return src
	}
	return ""
}

// slotOf locates img among the flattened photo blocks of its product row.
func slotOf(img *html.Node, rows []*html.Node) (p, n int, ok bool) {
	block := dom.Closest(img, "."+carousel.BlockClass)
	if block == nil {
		return 0, 0, false
	}
	row := dom.Closest(block, "."+gallery.RowClass)
	if row == nil {
		return 0, 0, false
	}
	pos := dom.IndexOf(rows, row)
	if pos < 0 {
		return 0, 0, false
	}
	n = dom.IndexOf(gallery.PhotoBlocks(row), block)
	if n < 0 {
		return 0, 0, false
	}
	return gallery.RowIndex(row, pos), n, true
}

func styleOf(img *html.Node) ImageStyle {
	return ImageStyle{
		ObjectFit:       dom.Style(img, "object-fit"),
		ObjectPosition:  dom.Style(img, "object-position"),
		Transform:       dom.Style(img, "transform"),
		TransformOrigin: dom.Style(img, "transform-origin"),
		Width:           dom.Style(img, "width"),
		Height:          dom.Style(img, "height"),
	}
}
