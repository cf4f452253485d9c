package serializer

import (
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/pagedit/internal/carousel"
	"github.com/ziadkadry99/pagedit/internal/dom"
	"github.com/ziadkadry99/pagedit/internal/gallery"
	"github.com/ziadkadry99/pagedit/internal/session"
)

// EditorControls matches markup that only exists while editing.
var EditorControls = strings.Join([]string{
	".save-controls",
	"." + carousel.AddPhotoClass,
	"." + gallery.ChangeBtnClass,
	"." + gallery.DeleteBtnClass,
	".text-delete-btn",
	".section-delete-btn",
	"." + carousel.ControlsClass,
	".image-scale-controls",
	"." + carousel.PrevClass,
	"." + carousel.NextClass,
	"." + gallery.AddProductBtn,
	`script[src$="editor.js"]`,
	"script[" + carousel.RuntimeAttr + "]",
	"[data-editor-only]",
}, ", ")

// BookkeepingAttrs are the data attributes the editor keeps on elements.
var BookkeepingAttrs = []string{
	"data-base64",
	gallery.PhotoIDAttr,
	carousel.IndexAttr,
	"data-listener",
	"data-scale-initialized",
	"data-has-listeners",
	gallery.ProductIndexAttr,
	"data-keyboard-listener-added",
}

// NameStyle is the inline style of a saved product heading.
const NameStyle = "font-size: 1.4rem; font-weight: 600; font-family: Inter, sans-serif; text-align: center; color: var(--cream); margin-bottom: 20px; padding: 15px 20px; background: rgba(255, 255, 255, 0.1); backdrop-filter: blur(10px); border-radius: 10px;"

const imageContainers = ".photo-container, .editable-image, .image-placeholder"

// rewriter replays a snapshot onto a cloned document.
type rewriter struct {
	doc  *goquery.Document
	root *html.Node
	snap *Snapshot
	// laidOut holds the photo blocks whose display state is part of the
	// saved carousel.
	laidOut map[*html.Node]bool
}

// Rewrite turns clone into the static page described by snap. clone must
// not share nodes with the live document.
func Rewrite(clone *goquery.Document, snap *Snapshot) {
	rw := &rewriter{doc: clone, root: clone.Get(0), snap: snap, laidOut: make(map[*html.Node]bool)}
	rw.stripControls()
	rw.replayTexts()
	rw.replayNames()
	rw.replayImages()
	rw.layoutCarousels()
	rw.stripEditing()
	rw.stripDisplay()
	rw.injectRuntime()
}

func (rw *rewriter) stripControls() {
	dom.RemoveAll(dom.Find(rw.root, EditorControls))
}

func (rw *rewriter) replayTexts() {
	for _, id := range rw.snap.TextOrder {
		el := dom.ByID(rw.root, id)
		if el == nil {
			log.Printf("serializer: text %q not found, skipping", id)
			continue
		}
		markup := rw.snap.Texts[id]
		switch el.Data {
		case "input":
			dom.SetAttr(el, "value", markup)
		case "textarea":
			dom.SetTextContent(el, markup)
		default:
			if err := dom.SetInnerHTML(el, markup); err != nil {
				log.Printf("serializer: text %q: %v, skipping", id, err)
				continue
			}
		}
		dom.RemoveAttr(el, "contenteditable")
		dom.RemoveClass(el, "editable-text")
		if session.IsGenerated(id) {
			dom.RemoveAttr(el, "id")
		}
	}
}

func (rw *rewriter) replayNames() {
	byID := make(map[string]string, len(rw.snap.Names))
	for _, n := range rw.snap.Names {
		byID[n.ID] = n.Value
	}
	for i, in := range dom.Find(rw.root, "."+gallery.NameInputClass) {
		name := ""
		if i < len(rw.snap.Names) {
			name = rw.snap.Names[i].Value
		}
		if strings.TrimSpace(name) == "" {
			name = dom.AttrOr(in, "value", "")
		}
		if strings.TrimSpace(name) == "" {
			name = byID[dom.AttrOr(in, "id", "")]
		}
		name = strings.TrimSpace(name)

		header := dom.Closest(in, "."+gallery.HeaderClass)
		if name == "" {
			if header != nil && len(dom.Children(header)) == 1 {
				dom.Detach(header)
			} else {
				dom.Detach(in)
			}
			continue
		}
		h := dom.Element("h3", "class", gallery.NameClass, "style", NameStyle)
		h.AppendChild(dom.Text(name))
		if header != nil {
			dom.Replace(in, h)
			continue
		}
		wrap := dom.Element("div", "class", gallery.HeaderClass)
		dom.Replace(in, wrap)
		wrap.AppendChild(h)
	}
}

// locate finds the clone image an ImageRef was captured from.
func (rw *rewriter) locate(ref ImageRef) *html.Node {
	if !ref.Positional() {
		return dom.ByID(rw.root, ref.ID)
	}
	row := gallery.FindRow(gallery.Rows(rw.doc), ref.Product)
	if row == nil {
		return nil
	}
	blocks := gallery.PhotoBlocks(row)
	if ref.Photo >= len(blocks) {
		return nil
	}
	block := blocks[ref.Photo]
	if img := dom.First(block, embeddedSelector); img != nil {
		return img
	}
	return dom.First(block, "img")
}

func (rw *rewriter) replayImages() {
	for _, ref := range rw.snap.Images {
		img := rw.locate(ref)
		if img == nil {
			log.Printf("serializer: image %q not found, skipping", ref.ID)
			continue
		}
		dom.SetAttr(img, "src", ref.Data)
		applyImageStyle(img, ref.Style)
		dom.RemoveAttr(img, "data-base64")
		if id := dom.AttrOr(img, "id", ""); session.IsGenerated(id) {
			dom.RemoveAttr(img, "id")
		}
		if box := dom.Closest(img, imageContainers); box != nil {
			dom.RemoveClass(box, gallery.EditableImage)
			dom.AddClass(box, "image-placeholder")
			dom.RemoveAll(dom.Find(box, editorImageChrome))
		}
	}
}

const editorImageChrome = ".image-input, .image-label, .placeholder-text, .photo-delete-btn, .change-image-btn"

func applyImageStyle(img *html.Node, st ImageStyle) {
	dom.SetDisplay(img, "block")
	fit := st.ObjectFit
	if fit == "" {
		fit = "cover"
	}
	dom.SetStyle(img, "object-fit", fit)
	if st.ObjectPosition != "" {
		dom.SetStyle(img, "object-position", st.ObjectPosition)
	}
	if st.Transform != "" {
		dom.SetStyle(img, "transform", st.Transform)
	}
	if st.TransformOrigin != "" {
		dom.SetStyle(img, "transform-origin", st.TransformOrigin)
	}
	dom.SetStyle(img, "width", orFull(st.Width))
	dom.SetStyle(img, "height", orFull(st.Height))
}

func orFull(v string) string {
	if v == "" {
		return "100%"
	}
	return v
}

// layoutCarousels shows the first photo of every product and rebuilds dots
// and hints for the final block counts.
func (rw *rewriter) layoutCarousels() {
	for _, row := range gallery.Rows(rw.doc) {
		blocks := gallery.PhotoBlocks(row)
		for i, b := range blocks {
			display := "block"
			if len(blocks) > 1 && i > 0 {
				display = "none"
			}
			dom.SetDisplay(b, display)
			rw.laidOut[b] = true
		}
		for _, c := range gallery.Containers(row) {
			layoutNavigation(c)
		}
	}
}

func layoutNavigation(c *html.Node) {
	parent := c.Parent
	if parent == nil {
		return
	}
	n := len(dom.Find(c, "."+carousel.BlockClass))
	var indicators, hints []*html.Node
	for _, ch := range dom.Children(parent) {
		switch {
		case dom.HasClass(ch, carousel.IndicatorsClass):
			indicators = append(indicators, ch)
		case dom.HasClass(ch, carousel.HintClass):
			hints = append(hints, ch)
		}
	}
	dom.RemoveAll(indicators)
	dom.RemoveAll(hints)
	if n <= 1 {
		return
	}
	ind := carousel.NewIndicators(n, 0)
	dom.InsertAfter(c, ind)
	dom.InsertAfter(ind, carousel.NewHint())
}

// stripEditing removes every editing marker and leftover editor element.
func (rw *rewriter) stripEditing() {
	dom.RemoveAll(dom.Find(rw.root, ".image-input, .image-label"))
	for _, img := range dom.Find(rw.root, "img."+gallery.UploadedClass) {
		if strings.TrimSpace(dom.AttrOr(img, "src", "")) == "" {
			dom.Detach(img)
		}
	}
	for _, in := range dom.Find(rw.root, "."+gallery.NameInputClass) {
		header := dom.Closest(in, "."+gallery.HeaderClass)
		dom.Detach(in)
		if header != nil && len(dom.Children(header)) == 0 {
			dom.Detach(header)
		}
	}
	for _, h := range dom.Find(rw.root, "."+gallery.HeaderClass) {
		if len(dom.Children(h)) == 0 && strings.TrimSpace(dom.TextContent(h)) == "" {
			dom.Detach(h)
		}
	}
	dom.Walk(rw.root, func(n *html.Node) bool {
		dom.RemoveAttr(n, "contenteditable")
		dom.RemoveAttr(n, BookkeepingAttrs...)
		if dom.HasClass(n, "editable-text") || dom.HasClass(n, gallery.EditableImage) {
			dom.RemoveClass(n, "editable-text", gallery.EditableImage)
		}
		if id := dom.AttrOr(n, "id", ""); session.IsGenerated(id) {
			dom.RemoveAttr(n, "id")
		}
		return true
	})
}

// stripDisplay drops display: none and display: block left behind by
// editor-time toggling. Laid out photo blocks keep theirs.
func (rw *rewriter) stripDisplay() {
	dom.Walk(rw.root, func(n *html.Node) bool {
		if !rw.laidOut[n] {
			dom.RemoveStyleValue(n, "display", "none", "block")
		}
		return true
	})
}

func (rw *rewriter) injectRuntime() {
	script := dom.Element("script", carousel.RuntimeAttr, "")
	script.AppendChild(dom.Text(RuntimeScript))
	host := dom.Body(rw.doc)
	if host == nil {
		host = dom.Root(rw.doc)
	}
	if host == nil {
		host = rw.root
	}
	host.AppendChild(script)
}
