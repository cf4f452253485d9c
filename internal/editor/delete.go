package editor

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/pagedit/internal/carousel"
	"github.com/ziadkadry99/pagedit/internal/dom"
	"github.com/ziadkadry99/pagedit/internal/gallery"
	"github.com/ziadkadry99/pagedit/internal/session"
	"github.com/ziadkadry99/pagedit/internal/surface"
)

var (
	ErrSectionNotFound = errors.New("section not found")
	// ErrNotDeletable is returned for editable elements owned by a product:
	// name inputs, image inputs and text inside photo blocks.
	ErrNotDeletable = errors.New("element cannot be deleted")
)

const excerptLen = 40

// approve asks Confirm, approving everything when it is nil.
func (e *Editor) approve(prompt string) bool {
	return e.opts.Confirm == nil || e.opts.Confirm(prompt)
}

// DeleteText removes the editable text element id once Confirm approves. It
// reports whether the element was removed.
func (e *Editor) DeleteText(id string) (bool, error) {
	var deleted bool
	err := e.mutate(session.KindStructure, id, func(doc *goquery.Document) error {
		el, err := surface.Lookup(doc, id)
		if err != nil {
			return err
		}
		if el.Data == "input" || dom.Closest(el, "."+carousel.BlockClass) != nil {
			return fmt.Errorf("%q: %w", id, ErrNotDeletable)
		}
		if !e.approve(fmt.Sprintf("Delete text %q", excerpt(dom.TextContent(el)))) {
			return session.ErrUnchanged
		}
		dom.Detach(el)
		deleted = true
		return nil
	})
	return deleted, err
}

// Section is a top-level block of the page.
type Section struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Products int    `json:"products"`
}

func sectionNodes(doc *goquery.Document) []*html.Node {
	return dom.Find(doc.Get(0), "section")
}

// Sections lists the section elements in document order.
func (e *Editor) Sections() ([]Section, error) {
	var out []Section
	err := e.sess.View(func(doc *goquery.Document) error {
		for i, sec := range sectionNodes(doc) {
			out = append(out, Section{
				Index:    i,
				ID:       dom.AttrOr(sec, "id", ""),
				Title:    sectionTitle(sec),
				Products: len(dom.Find(sec, "."+gallery.RowClass)),
			})
		}
		return nil
	})
	return out, err
}

// DeleteSection removes section i, products included, once Confirm approves.
// It reports whether the section was removed.
func (e *Editor) DeleteSection(i int) (bool, error) {
	var deleted bool
	err := e.mutate(session.KindStructure, fmt.Sprintf("section-%d", i), func(doc *goquery.Document) error {
		secs := sectionNodes(doc)
		if i < 0 || i >= len(secs) {
			return fmt.Errorf("section %d: %w", i, ErrSectionNotFound)
		}
		sec := secs[i]
		prompt := fmt.Sprintf("Delete section %q", sectionTitle(sec))
		if n := len(dom.Find(sec, "."+gallery.RowClass)); n > 0 {
			prompt += fmt.Sprintf(" and its %d product(s)", n)
		}
		if !e.approve(prompt) {
			return session.ErrUnchanged
		}
		dom.Detach(sec)
		deleted = true
		return nil
	})
	return deleted, err
}

func sectionTitle(sec *html.Node) string {
	if h := dom.First(sec, "h1, h2, h3, h4, h5, h6, .section-title"); h != nil {
		if t := excerpt(dom.TextContent(h)); t != "" {
			return t
		}
	}
	return excerpt(dom.TextContent(sec))
}

// excerpt collapses whitespace and cuts s to excerptLen runes.
func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= excerptLen {
		return s
	}
	return string([]rune(s)[:excerptLen]) + "…"
}
