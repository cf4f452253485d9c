// Package editor binds a session to the page components. The CLI, the
// editor server and the MCP tools all edit pages through an Editor.
package editor

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/pagedit/internal/carousel"
	"github.com/ziadkadry99/pagedit/internal/dom"
	"github.com/ziadkadry99/pagedit/internal/gallery"
	"github.com/ziadkadry99/pagedit/internal/ingest"
	"github.com/ziadkadry99/pagedit/internal/serializer"
	"github.com/ziadkadry99/pagedit/internal/session"
	"github.com/ziadkadry99/pagedit/internal/surface"
)

// Lookup errors.
var (
	ErrProductNotFound = gallery.ErrProductNotFound
	ErrTextNotFound    = surface.ErrTextNotFound
	ErrPhotoNotFound   = errors.New("photo not found")
	ErrImageNotFound   = errors.New("image not found")
)

// Options configures an Editor.
type Options struct {
	SwipeThreshold float64
	Save           serializer.Options
	// Sanitize filters edited text through the UGC policy.
	Sanitize bool
	// DefaultProductName prefixes the name of products added without one.
	DefaultProductName string
	// Confirm approves deletions of photos, texts and sections. A nil
	// Confirm approves everything.
	Confirm func(prompt string) bool
	Session []session.Option
}

// Editor is an editable page.
type Editor struct {
	sess    *session.Session
	opts    Options
	factory *gallery.Factory
	ingest  *ingest.Ingester
	saver   *serializer.Saver
	policy  *bluemonday.Policy
	md      goldmark.Markdown
}

// Open parses a page and prepares it for editing.
func Open(r io.Reader, opts Options) (*Editor, error) {
	sess, err := session.Open(r, opts.Session...)
	if err != nil {
		return nil, err
	}
	return New(sess, opts)
}

// New prepares the document of sess for editing: the gallery is
// restructured, saved product rows are rehydrated, the editable surface is
// applied and every carousel is initialised.
func New(sess *session.Session, opts Options) (*Editor, error) {
	e := &Editor{
		sess:    sess,
		opts:    opts,
		factory: gallery.NewFactory(sess.IDs(), opts.SwipeThreshold),
		saver:   serializer.NewSaver(sess, opts.Save),
		md:      surface.Markdown(),
	}
	e.ingest = ingest.New(sess, e.factory)
	if opts.Sanitize {
		e.policy = surface.Sanitizer()
	}
	err := e.mutate(session.KindStructure, "", func(doc *goquery.Document) error {
		restructured := gallery.Restructure(doc, e.factory)
		rehydrated := gallery.Rehydrate(doc, e.factory)
		if restructured+rehydrated > 0 {
			log.Printf("editor: %d products restructured, %d rehydrated", restructured, rehydrated)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("preparing page: %w", err)
	}
	return e, nil
}

// Session returns the underlying session.
func (e *Editor) Session() *session.Session { return e.sess }

// Status returns the status line.
func (e *Editor) Status() session.StatusMessage { return e.sess.Status().Current() }

// Subscribe forwards to the session.
func (e *Editor) Subscribe(buffer int) (<-chan session.Mutation, func()) {
	return e.sess.Subscribe(buffer)
}

// Close ends the session.
func (e *Editor) Close() { e.sess.Close() }

// mutate runs fn under the session lock. Structural changes are followed by
// the initializer so new nodes get their editing affordances.
func (e *Editor) mutate(kind session.Kind, target string, fn func(doc *goquery.Document) error) error {
	return e.sess.Mutate(kind, target, func(doc *goquery.Document) error {
		if err := fn(doc); err != nil {
			return err
		}
		if kind.Structural() {
			e.prepare(doc)
		}
		return nil
	})
}

func (e *Editor) prepare(doc *goquery.Document) surface.Result {
	res := surface.Apply(doc, e.sess.IDs(), e.factory)
	for _, c := range dom.Find(doc.Get(0), "."+carousel.ContainerClass) {
		e.factory.Carousel(c).Init()
	}
	return res
}

// refresh re-runs the initializer and announces a structural mutation only
// when it added something.
func (e *Editor) refresh(target string) error {
	return e.sess.Mutate(session.KindStructure, target, func(doc *goquery.Document) error {
		if !e.prepare(doc).Changed() {
			return session.ErrUnchanged
		}
		return nil
	})
}

// HTML renders the live editable page.
func (e *Editor) HTML() (string, error) {
	var out string
	err := e.sess.View(func(doc *goquery.Document) error {
		root := dom.Root(doc)
		if root == nil {
			return errors.New("document has no html element")
		}
		s, err := dom.Render(root)
		if err != nil {
			return err
		}
		out = serializer.Doctype + s
		return nil
	})
	return out, err
}

// WriteHTML writes the live editable page to w.
func (e *Editor) WriteHTML(w io.Writer) error {
	s, err := e.HTML()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

// Title returns the document title, or the first h1 when there is none.
func (e *Editor) Title() string {
	var title string
	_ = e.sess.View(func(doc *goquery.Document) error {
		for _, sel := range []string{"title", "h1"} {
			if n := dom.First(doc.Get(0), sel); n != nil {
				if title = strings.TrimSpace(dom.TextContent(n)); title != "" {
					return nil
				}
			}
		}
		return nil
	})
	return title
}

// Text is an editable text element.
type Text struct {
	ID      string `json:"id"`
	Tag     string `json:"tag"`
	Content string `json:"content"`
	Markup  string `json:"markup,omitempty"`
}

// Texts lists the editable text elements in document order.
func (e *Editor) Texts() ([]Text, error) {
	var out []Text
	err := e.sess.View(func(doc *goquery.Document) error {
		for _, el := range dom.Find(doc.Get(0), "."+surface.EditableClass) {
			t := Text{ID: dom.AttrOr(el, "id", ""), Tag: el.Data}
			if el.Data == "input" {
				t.Content = dom.AttrOr(el, "value", "")
			} else {
				t.Content = strings.Join(strings.Fields(dom.TextContent(el)), " ")
				t.Markup, _ = dom.InnerHTML(el)
			}
			out = append(out, t)
		}
		return nil
	})
	return out, err
}

// SetText replaces the content of the editable element id.
func (e *Editor) SetText(id, markup string) error {
	return e.mutate(session.KindText, id, func(doc *goquery.Document) error {
		return surface.SetText(doc, id, markup, e.policy)
	})
}

// SetMarkdown renders source and stores it as the content of id.
func (e *Editor) SetMarkdown(id, source string) error {
	return e.mutate(session.KindText, id, func(doc *goquery.Document) error {
		return surface.SetMarkdown(doc, id, source, e.md, e.policy)
	})
}

// Products lists the product rows.
func (e *Editor) Products() ([]gallery.Product, error) {
	var out []gallery.Product
	err := e.sess.View(func(doc *goquery.Document) error {
		out = gallery.Products(doc)
		for i := range out {
			out[i].Row = nil
		}
		return nil
	})
	return out, err
}

// SetName renames product index.
func (e *Editor) SetName(index int, name string) error {
	return e.mutate(session.KindName, productTarget(index), func(doc *goquery.Document) error {
		return gallery.SetName(doc, index, name)
	})
}

// AddProduct appends a product and returns its index.
func (e *Editor) AddProduct(name string) (int, error) {
	var index int
	err := e.mutate(session.KindStructure, "", func(doc *goquery.Document) error {
		i, err := gallery.AddProduct(doc, e.factory, name)
		if err != nil {
			return err
		}
		index = i
		if strings.TrimSpace(name) == "" && e.opts.DefaultProductName != "" {
			return gallery.SetName(doc, i, fmt.Sprintf("%s %d", e.opts.DefaultProductName, i+1))
		}
		return nil
	})
	return index, err
}

// RemoveProduct deletes product index.
func (e *Editor) RemoveProduct(index int) error {
	return e.mutate(session.KindStructure, productTarget(index), func(doc *goquery.Document) error {
		return gallery.RemoveProduct(doc, index)
	})
}

func productTarget(index int) string { return fmt.Sprintf("product-%d", index) }

// photoBlock resolves photo n of product p.
func photoBlock(doc *goquery.Document, p, n int) (*html.Node, error) {
	row, err := gallery.FindProduct(doc, p)
	if err != nil {
		return nil, err
	}
	blocks := gallery.PhotoBlocks(row)
	if n < 0 || n >= len(blocks) {
		return nil, fmt.Errorf("photo %d of product %d: %w", n, p, ErrPhotoNotFound)
	}
	return blocks[n], nil
}

func (e *Editor) productCarousel(doc *goquery.Document, p int) (*carousel.Carousel, error) {
	row, err := gallery.FindProduct(doc, p)
	if err != nil {
		return nil, err
	}
	cs := gallery.Containers(row)
	if len(cs) == 0 {
		return nil, fmt.Errorf("product %d has no photos: %w", p, ErrPhotoNotFound)
	}
	return e.factory.Carousel(cs[0]), nil
}

// AddPhoto appends an empty photo block to product p, makes it current and
// returns its index.
func (e *Editor) AddPhoto(p int) (int, error) {
	var st carousel.State
	err := e.mutate(session.KindStructure, productTarget(p), func(doc *goquery.Document) error {
		c, err := e.productCarousel(doc, p)
		if err != nil {
			return err
		}
		st = c.Insert(e.factory.NewPlaceholderBlock())
		return nil
	})
	return st.Index, err
}

// DeletePhoto removes photo n of product p once Confirm approves. It reports
// whether the photo was removed.
func (e *Editor) DeletePhoto(p, n int) (bool, error) {
	var deleted bool
	err := e.mutate(session.KindStructure, productTarget(p), func(doc *goquery.Document) error {
		block, err := photoBlock(doc, p, n)
		if err != nil {
			return err
		}
		container := dom.Closest(block, "."+carousel.ContainerClass)
		if container == nil {
			return fmt.Errorf("photo %d of product %d: %w", n, p, ErrPhotoNotFound)
		}
		prompt := fmt.Sprintf("Delete photo %d of %q", n+1, gallery.ProductName(dom.Closest(block, "."+gallery.RowClass)))
		_, deleted = e.factory.Carousel(container).Delete(block, func() bool { return e.approve(prompt) })
		if !deleted {
			return session.ErrUnchanged
		}
		return nil
	})
	return deleted, err
}

// Navigation actions.
const (
	NavPrev  = "prev"
	NavNext  = "next"
	NavGoto  = "goto"
	NavSwipe = "swipe"
	NavKey   = "key"
)

// ErrUnknownAction is returned for a navigation action outside the Nav*
// constants.
var ErrUnknownAction = errors.New("unknown carousel action")

// Nav is one carousel input.
type Nav struct {
	Action string         `json:"action"`
	Index  int            `json:"index,omitempty"`
	StartX float64        `json:"start_x,omitempty"`
	EndX   float64        `json:"end_x,omitempty"`
	Key    string         `json:"key,omitempty"`
	Focus  carousel.Focus `json:"-"`
}

// Navigate applies nav to the carousel of product p and returns the
// resulting state. Inputs that lead nowhere change nothing.
func (e *Editor) Navigate(p int, nav Nav) (carousel.State, error) {
	var st carousel.State
	err := e.mutate(session.KindCarousel, productTarget(p), func(doc *goquery.Document) error {
		c, err := e.productCarousel(doc, p)
		if err != nil {
			return err
		}
		var moved bool
		switch nav.Action {
		case NavPrev:
			st, moved = c.Prev()
		case NavNext:
			st, moved = c.Next()
		case NavGoto:
			st, moved = c.JumpTo(nav.Index)
		case NavSwipe:
			st, moved = c.Swipe(nav.StartX, nav.EndX)
		case NavKey:
			st, moved = c.Key(nav.Key, nav.Focus)
		default:
			return fmt.Errorf("%q: %w", nav.Action, ErrUnknownAction)
		}
		if !moved {
			return session.ErrUnchanged
		}
		return nil
	})
	return st, err
}
