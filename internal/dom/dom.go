// Package dom wraps golang.org/x/net/html nodes with the small set of
// helpers the editor needs: parsing, rendering, node construction, class
// lists and selector matching through goquery.
package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return doc, nil
}

// ParseString is Parse for in-memory markup.
func ParseString(s string) (*goquery.Document, error) {
	return Parse(strings.NewReader(s))
}

// Clone returns a deep copy of doc that shares no nodes with it.
func Clone(doc *goquery.Document) *goquery.Document {
	return goquery.CloneDocument(doc)
}

// Render serializes n and its descendants.
func Render(n *html.Node) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return "", fmt.Errorf("rendering %s: %w", n.Data, err)
	}
	return b.String(), nil
}

// Sel wraps a single node in a selection.
func Sel(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

// Find returns every descendant of n matching selector, in document order.
func Find(n *html.Node, selector string) []*html.Node {
	if n == nil {
		return nil
	}
	return Sel(n).Find(selector).Nodes
}

// First returns the first descendant of n matching selector, or nil.
func First(n *html.Node, selector string) *html.Node {
	nodes := Find(n, selector)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Is reports whether n itself matches selector.
func Is(n *html.Node, selector string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	return Sel(n).Is(selector)
}

// Closest returns n or its nearest ancestor matching selector, or nil.
func Closest(n *html.Node, selector string) *html.Node {
	for c := n; c != nil; c = c.Parent {
		if Is(c, selector) {
			return c
		}
	}
	return nil
}

// Element builds a detached element. attrs are key/value pairs.
func Element(tag string, attrs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		SetAttr(n, attrs[i], attrs[i+1])
	}
	return n
}

// Text builds a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Append detaches each child from its current parent and appends it to parent.
func Append(parent *html.Node, children ...*html.Node) {
	for _, c := range children {
		Detach(c)
		parent.AppendChild(c)
	}
}

// InsertBefore detaches n and inserts it before ref. A nil ref appends.
func InsertBefore(parent, n, ref *html.Node) {
	Detach(n)
	parent.InsertBefore(n, ref)
}

// InsertAfter detaches n and inserts it right after ref.
func InsertAfter(ref, n *html.Node) {
	Detach(n)
	ref.Parent.InsertBefore(n, ref.NextSibling)
}

// Replace puts n where old is and detaches old.
func Replace(old, n *html.Node) {
	if old.Parent == nil {
		return
	}
	InsertBefore(old.Parent, n, old)
	Detach(old)
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// RemoveAll detaches every node in ns.
func RemoveAll(ns []*html.Node) {
	for _, n := range ns {
		Detach(n)
	}
}

// Empty removes all children of n.
func Empty(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// Children returns the element children of n.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Attr returns the value of key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the value of key, or def when absent.
func AttrOr(n *html.Node, key, def string) string {
	if v, ok := Attr(n, key); ok {
		return v
	}
	return def
}

// SetAttr sets key to val, replacing an existing value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes each key from n.
func RemoveAttr(n *html.Node, keys ...string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		drop := false
		for _, k := range keys {
			if a.Namespace == "" && a.Key == k {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

// HasClass reports whether class is in n's class list.
func HasClass(n *html.Node, class string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	return Sel(n).HasClass(class)
}

// AddClass adds each class to n once. The class attribute is left
// single-spaced.
func AddClass(n *html.Node, classes ...string) {
	var missing []string
	for _, c := range classes {
		for _, f := range strings.Fields(c) {
			if !HasClass(n, f) && !contains(missing, f) {
				missing = append(missing, f)
			}
		}
	}
	if len(missing) == 0 {
		return
	}
	Sel(n).AddClass(missing...)
	if v, ok := Attr(n, "class"); ok {
		SetAttr(n, "class", strings.Join(strings.Fields(v), " "))
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// RemoveClass drops each class from n and removes an emptied class attribute.
func RemoveClass(n *html.Node, classes ...string) {
	Sel(n).RemoveClass(classes...)
	v, ok := Attr(n, "class")
	switch {
	case !ok:
	case strings.TrimSpace(v) == "":
		RemoveAttr(n, "class")
	default:
		SetAttr(n, "class", strings.Join(strings.Fields(v), " "))
	}
}

// TextContent returns the concatenated text of n.
func TextContent(n *html.Node) string {
	return Sel(n).Text()
}

// SetTextContent replaces the children of n with a single text node.
func SetTextContent(n *html.Node, s string) {
	Empty(n)
	if s != "" {
		n.AppendChild(Text(s))
	}
}

// InnerHTML renders the children of n.
func InnerHTML(n *html.Node) (string, error) {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", fmt.Errorf("rendering inner markup: %w", err)
		}
	}
	return b.String(), nil
}

// SetInnerHTML parses markup in the context of n and makes it n's content.
func SetInnerHTML(n *html.Node, markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return fmt.Errorf("parsing fragment: %w", err)
	}
	Empty(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// Body returns the <body> element of doc, or nil.
func Body(doc *goquery.Document) *html.Node {
	return First(doc.Get(0), "body")
}

// Root returns the <html> element of doc, or nil.
func Root(doc *goquery.Document) *html.Node {
	return First(doc.Get(0), "html")
}

// IndexOf returns the position of n in ns, or -1.
func IndexOf(ns []*html.Node, n *html.Node) int {
	for i, c := range ns {
		if c == n {
			return i
		}
	}
	return -1
}

// ByID returns the first element under n whose id is id, or nil.
func ByID(n *html.Node, id string) *html.Node {
	if n == nil || id == "" {
		return nil
	}
	if n.Type == html.ElementNode && AttrOr(n, "id", "") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := ByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// Walk calls fn for every element under n in document order. Returning false
// skips the element's descendants.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type != html.ElementNode || fn(c) {
			Walk(c, fn)
		}
		c = next
	}
}
