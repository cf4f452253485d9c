// Package surface turns a static page into an editable one: text elements
// become editable regions and images gain upload and scaling controls.
package surface

import (
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/pagedit/internal/dom"
	"github.com/ziadkadry99/pagedit/internal/gallery"
	"github.com/ziadkadry99/pagedit/internal/session"
)

// Markers written on editable text.
const (
	EditableClass  = "editable-text"
	ListenersAttr  = "data-has-listeners"
	ScaleInitAttr  = "data-scale-initialized"
	ScaleAttr      = "data-scale"
	ScaleControls  = "image-scale-controls"
	ScaleIndicator = "scale-indicator"
)

// TextSelector matches the elements that become editable text.
const TextSelector = "p, h1, h2, h3, h4, h5, h6, span, .intro-text, .section-title, .feature-title, .feature-description, .closing-text, .footer-text, .footer-subtext"

// ExcludedRegions lists the editor controls and page widgets whose text
// never becomes editable.
var ExcludedRegions = []string{
	".section-delete-btn",
	".save-controls",
	".contact-buttons",
	".contact-btn",
	".text-delete-btn",
	".photo-delete-btn",
	".photo-controls",
	"." + ScaleControls,
	".placeholder-text",
	".swipe-hint",
	".swipe-indicators",
	"." + ScaleIndicator,
	"label",
	"button",
	"script",
	"style",
	"head",
}

// imageControlRegions holds the regions whose images are not page content.
var imageControlRegions = strings.Join([]string{
	".section-delete-btn",
	".save-controls",
	".contact-buttons",
	"." + ScaleControls,
	".gallery-nav",
	"button",
	"label",
}, ", ")

// placeholderSelector matches the empty image slots of a page.
const placeholderSelector = ".image-placeholder, .hero-image-placeholder, .gallery-item"

// Result counts what a pass changed.
type Result struct {
	Texts   int `json:"texts"`
	Uploads int `json:"uploads"`
	Scaling int `json:"scaling"`
}

// Changed reports whether the pass touched the document.
func (r Result) Changed() bool { return r.Texts+r.Uploads+r.Scaling > 0 }

// Apply runs every initializer pass over doc. Running it again on its own
// output changes nothing.
func Apply(doc *goquery.Document, ids *session.IDs, f *gallery.Factory) Result {
	var r Result
	r.Texts = MakeTextEditable(doc, ids)
	r.Uploads, r.Scaling = AddImageUploads(doc, f)
	if r.Changed() {
		log.Printf("surface: %d texts, %d upload slots, %d scaled images", r.Texts, r.Uploads, r.Scaling)
	}
	return r
}

// Excluded reports whether n sits inside one of ExcludedRegions.
func Excluded(n *html.Node) bool {
	return dom.Closest(n, strings.Join(ExcludedRegions, ", ")) != nil
}

// MakeTextEditable marks every text element editable and gives it a stable
// id. Elements holding images, elements inside editor controls and elements
// nested in editable text are skipped. It returns the number of elements
// newly made editable.
func MakeTextEditable(doc *goquery.Document, ids *session.IDs) int {
	excluded := strings.Join(ExcludedRegions, ", ")
	n := 0
	for _, el := range dom.Find(doc.Get(0), TextSelector) {
		if dom.HasClass(el, EditableClass) {
			continue
		}
		if dom.First(el, "img") != nil || dom.Closest(el, excluded) != nil {
			continue
		}
		if el.Parent != nil && dom.Closest(el.Parent, "."+EditableClass) != nil {
			continue
		}
		dom.AddClass(el, EditableClass)
		dom.SetAttr(el, "contenteditable", "true")
		if session.Blank(dom.AttrOr(el, "id", "")) {
			dom.SetAttr(el, "id", ids.New(session.PrefixText))
		}
		if _, ok := dom.Attr(el, ListenersAttr); !ok {
			dom.SetAttr(el, ListenersAttr, "true")
		}
		n++
	}
	return n
}

// IsEditable reports whether el accepts text edits.
func IsEditable(el *html.Node) bool {
	if el == nil {
		return false
	}
	if el.Data == "input" || el.Data == "textarea" {
		return true
	}
	return dom.HasClass(el, EditableClass) || dom.AttrOr(el, "contenteditable", "") == "true"
}

// AddImageUploads gives every content image and every empty image slot an
// upload input. Images without a container are wrapped in one. Images that
// carry a source get scaling controls. It returns the number of upload
// inputs and scaling panels added.
func AddImageUploads(doc *goquery.Document, f *gallery.Factory) (uploads, scaling int) {
	root := doc.Get(0)
	for _, img := range dom.Find(root, "img") {
		if dom.Closest(img, imageControlRegions) != nil {
			continue
		}
		box := imageContainer(img)
		if box == nil {
			box = dom.Element("div", "class", gallery.EditableImage, "style", "position: relative;")
			dom.Replace(img, box)
			box.AppendChild(img)
		}
		dom.AddClass(box, gallery.EditableImage)

		src := strings.TrimSpace(dom.AttrOr(img, "src", ""))
		if src != "" && InitScaling(img) {
			scaling++
		}
		if dom.First(box, "."+gallery.InputClass) != nil {
			continue
		}
		input := f.NewHiddenInput()
		box.AppendChild(input)
		if src == "" || strings.HasPrefix(src, "data:image") {
			box.AppendChild(newLabel(input))
		}
		uploads++
	}

	for _, slot := range dom.Find(root, placeholderSelector) {
		if dom.First(slot, placeholderSelector) != nil {
			continue
		}
		dom.AddClass(slot, gallery.EditableImage)
		if dom.First(slot, "."+gallery.InputClass) != nil {
			continue
		}
		input := f.NewHiddenInput()
		shown := false
		for _, img := range dom.Find(slot, "img."+gallery.UploadedClass) {
			if dom.AttrOr(img, "src", "") != "" && !dom.Hidden(img) {
				shown = true
			}
		}
		if !shown && dom.First(slot, "img."+gallery.UploadedClass) == nil {
			slot.AppendChild(dom.Element("img", "class", gallery.UploadedClass, "style", "display: none;"))
		}
		slot.AppendChild(input)
		if !shown {
			slot.AppendChild(newLabel(input))
		}
		uploads++
	}
	return uploads, scaling
}

func imageContainer(img *html.Node) *html.Node {
	return dom.Closest(img, "."+gallery.EditableImage+", "+placeholderSelector)
}

func newLabel(input *html.Node) *html.Node {
	label := dom.Element("label",
		"for", dom.AttrOr(input, "id", ""),
		"class", gallery.LabelClass,
		"style", gallery.LabelStyle)
	label.AppendChild(dom.Text("📷 Upload Image"))
	return label
}
