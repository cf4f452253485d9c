// Package gallery turns a flat image gallery into product rows, each with a
// swipeable cover photo carousel, and manages those rows afterwards.
package gallery

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/pagedit/internal/carousel"
	"github.com/ziadkadry99/pagedit/internal/dom"
)

// ErrNoGallery is returned when the page has no gallery grid.
var ErrNoGallery = errors.New("page has no gallery grid")

// ErrProductNotFound is returned when no product row matches an index.
var ErrProductNotFound = errors.New("product not found")

// Product summarizes one product row.
type Product struct {
	Index   int    `json:"index" yaml:"index"`
	Name    string `json:"name" yaml:"name"`
	Photos  int    `json:"photos" yaml:"photos"`
	Current int    `json:"current" yaml:"current"`
	// Images holds the source of every photo that has one, in order.
	Images []string `json:"-" yaml:"-"`

	Row *html.Node `json:"-" yaml:"-"`
}

// Grid returns the gallery grid of doc, or nil.
func Grid(doc *goquery.Document) *html.Node {
	return dom.First(doc.Get(0), GridSelector)
}

// DefaultName is the name given to product i when nothing better exists.
func DefaultName(i int) string {
	return fmt.Sprintf("Product %d", i+1)
}

// Restructure converts every gallery item into a product row, in order. It
// runs once per page: the grid is marked and later calls return 0. A page
// without a grid or without items is left alone.
func Restructure(doc *goquery.Document, f *Factory) int {
	grid := Grid(doc)
	if grid == nil || dom.HasClass(grid, RowsMarker) {
		return 0
	}
	items := dom.Find(grid, "."+ItemClass)
	if len(items) == 0 {
		return 0
	}
	dom.AddClass(grid, RowsMarker)
	for i, item := range items {
		name := DefaultName(i)
		if caption := dom.First(item, "."+CaptionClass); caption != nil {
			name = strings.TrimSpace(dom.TextContent(caption))
		}
		row := f.NewProductRow(i, name, coverImage(item))
		dom.Replace(item, row)
	}
	return len(items)
}

// coverImage picks the image a gallery item shows, preferring an uploaded one.
func coverImage(item *html.Node) *html.Node {
	var fallback *html.Node
	for _, img := range dom.Find(item, "img") {
		if strings.TrimSpace(dom.AttrOr(img, "src", "")) == "" {
			continue
		}
		if dom.HasClass(img, UploadedClass) {
			return img
		}
		if fallback == nil {
			fallback = img
		}
	}
	return fallback
}

// Rows returns the product rows of doc in document order.
func Rows(doc *goquery.Document) []*html.Node {
	return dom.Find(doc.Get(0), "."+RowClass)
}

// RowIndex returns the stable index of row, falling back to position.
func RowIndex(row *html.Node, position int) int {
	if v, ok := dom.Attr(row, ProductIndexAttr); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return position
}

// FindRow resolves a product index among rows: by stable index first, then
// by position.
func FindRow(rows []*html.Node, index int) *html.Node {
	for pos, row := range rows {
		if RowIndex(row, pos) == index {
			return row
		}
	}
	if index >= 0 && index < len(rows) {
		return rows[index]
	}
	return nil
}

// FindProduct resolves index in doc.
func FindProduct(doc *goquery.Document, index int) (*html.Node, error) {
	row := FindRow(Rows(doc), index)
	if row == nil {
		return nil, fmt.Errorf("product %d: %w", index, ErrProductNotFound)
	}
	return row, nil
}

// Containers returns the swipeable containers of a product row.
func Containers(row *html.Node) []*html.Node {
	return dom.Find(row, "."+carousel.ContainerClass)
}

// PhotoBlocks returns every photo block of row, flattened across its
// containers, followed by any block outside a container.
func PhotoBlocks(row *html.Node) []*html.Node {
	var blocks []*html.Node
	for _, c := range Containers(row) {
		blocks = append(blocks, dom.Find(c, "."+carousel.BlockClass)...)
	}
	for _, b := range dom.Find(row, "."+carousel.BlockClass) {
		if dom.Closest(b, "."+carousel.ContainerClass) == nil {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// ProductName reads the name of row from its input or saved heading.
func ProductName(row *html.Node) string {
	if in := dom.First(row, "."+NameInputClass); in != nil {
		return dom.AttrOr(in, "value", "")
	}
	if h := dom.First(row, "."+NameClass); h != nil {
		return strings.TrimSpace(dom.TextContent(h))
	}
	return ""
}

// Products lists every product row.
func Products(doc *goquery.Document) []Product {
	rows := Rows(doc)
	out := make([]Product, 0, len(rows))
	for pos, row := range rows {
		p := Product{
			Index: RowIndex(row, pos),
			Name:  ProductName(row),
			Row:   row,
		}
		blocks := PhotoBlocks(row)
		p.Photos = len(blocks)
		for _, b := range blocks {
			if src := BlockImageSource(b); src != "" {
				p.Images = append(p.Images, src)
			}
		}
		if cs := Containers(row); len(cs) > 0 {
			p.Current = carousel.New(cs[0], carousel.Options{}).State().Index
		}
		out = append(out, p)
	}
	return out
}

// BlockImage returns the image of a photo block that carries a source.
func BlockImage(block *html.Node) *html.Node {
	for _, img := range dom.Find(block, "img") {
		if dom.AttrOr(img, "src", "") != "" {
			return img
		}
	}
	return nil
}

// BlockImageSource returns the source of a block's image, or "".
func BlockImageSource(block *html.Node) string {
	if img := BlockImage(block); img != nil {
		return dom.AttrOr(img, "src", "")
	}
	return ""
}

// UploadTarget returns the image an upload into block replaces, creating
// a hidden one when the block has none.
func UploadTarget(block *html.Node) *html.Node {
	box := dom.First(block, "."+PhotoContainer)
	if box == nil {
		box = block
	}
	if img := dom.First(box, "img."+UploadedClass); img != nil {
		return img
	}
	if img := dom.First(box, "img"); img != nil {
		return img
	}
	img := dom.Element("img", "class", UploadedClass, "style", "display: none;")
	box.AppendChild(img)
	return img
}

// AddProduct appends a product row to the grid and returns its index. An
// empty name becomes DefaultName.
func AddProduct(doc *goquery.Document, f *Factory, name string) (int, error) {
	grid := Grid(doc)
	if grid == nil {
		return 0, ErrNoGallery
	}
	dom.AddClass(grid, RowsMarker)
	next := 0
	for pos, row := range Rows(doc) {
		if i := RowIndex(row, pos); i >= next {
			next = i + 1
		}
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultName(next)
	}
	row := f.NewProductRow(next, name, nil)
	var ref *html.Node
	if btn := dom.First(grid, "."+AddProductBtn); btn != nil && btn.Parent == grid {
		ref = btn
	}
	dom.InsertBefore(grid, row, ref)
	return next, nil
}

// RemoveProduct deletes the product row at index.
func RemoveProduct(doc *goquery.Document, index int) error {
	row, err := FindProduct(doc, index)
	if err != nil {
		return err
	}
	dom.Detach(row)
	return nil
}

// SetName sets the editable name of the product at index.
func SetName(doc *goquery.Document, index int, name string) error {
	row, err := FindProduct(doc, index)
	if err != nil {
		return err
	}
	in := dom.First(row, "."+NameInputClass)
	if in == nil {
		header := dom.First(row, "."+HeaderClass)
		if header == nil {
			header = NewHeader(name)
			dom.InsertBefore(row, header, row.FirstChild)
			return nil
		}
		in = dom.First(NewHeader(name), "input")
		dom.Append(header, in)
	}
	dom.SetAttr(in, "value", name)
	return nil
}

// Rehydrate turns product rows of a previously saved page back into editable
// rows: headings become name inputs, photo blocks regain their controls and
// every carousel is rebuilt. Rows that are already editable are skipped.
func Rehydrate(doc *goquery.Document, f *Factory) int {
	dom.RemoveAll(dom.Find(doc.Get(0), "script["+carousel.RuntimeAttr+"]"))
	n := 0
	for pos, row := range Rows(doc) {
		if dom.First(row, "."+NameInputClass) != nil {
			continue
		}
		dom.SetAttr(row, ProductIndexAttr, strconv.Itoa(pos))
		rehydrateHeader(row)
		for _, c := range Containers(row) {
			rehydrateContainer(c, f)
		}
		n++
	}
	if n > 0 {
		log.Printf("gallery: rehydrated %d saved product rows", n)
	}
	return n
}

func rehydrateHeader(row *html.Node) {
	name := ""
	if h := dom.First(row, "."+NameClass); h != nil {
		name = strings.TrimSpace(dom.TextContent(h))
	}
	header := NewHeader(name)
	if old := dom.First(row, "."+HeaderClass); old != nil {
		dom.Replace(old, header)
		return
	}
	dom.InsertBefore(row, header, row.FirstChild)
}

func rehydrateContainer(c *html.Node, f *Factory) {
	for i, block := range dom.Find(c, "."+carousel.BlockClass) {
		fresh := f.NewPhotoBlock(BlockImage(block))
		if i == 0 {
			dom.AddClass(fresh, CoverClass)
		}
		dom.Replace(block, fresh)
	}
	dom.RemoveAttr(c, carousel.IndexAttr)
	if row := c.Parent; row != nil && dom.First(row, "."+carousel.AddPhotoClass) == nil {
		dom.InsertAfter(c, f.NewAddPhotoButton(AddPhotoText))
	}
	f.Carousel(c).Init()
}
