package carousel

import (
	"fmt"
	"strconv"

	"golang.org/x/net/html"

	"github.com/ziadkadry99/pagedit/internal/dom"
)

// Class names shared with the gallery and the serializer.
const (
	ContainerClass  = "photo-swipeable-container"
	BlockClass      = "photo-block"
	ControlsClass   = "photo-controls"
	IndicatorsClass = "swipe-indicators"
	DotClass        = "swipe-dot"
	HintClass       = "swipe-hint"
	PrevClass       = "photo-nav-prev"
	NextClass       = "photo-nav-next"
	AddPhotoClass   = "add-photo-btn"

	IndexAttr = "data-current-index"
	// RuntimeAttr marks the carousel script embedded in saved pages.
	RuntimeAttr = "data-carousel-runtime"
)

// Inline styles of the generated indicator markup.
const (
	IndicatorsStyle = "display: flex; justify-content: center; gap: 8px; margin-top: 10px; margin-bottom: 5px; padding: 5px;"
	HintStyle       = "text-align: center; color: rgba(255, 255, 255, 0.6); font-size: 0.85rem; margin-top: 5px; margin-bottom: 10px; padding: 5px;"
	HintText        = "← Swipe to see more →"

	dotActive   = "rgba(255, 215, 0, 0.9)"
	dotInactive = "rgba(255, 255, 255, 0.3)"
)

// DotStyle is the inline style of one indicator dot.
func DotStyle(active bool) string {
	bg := dotInactive
	if active {
		bg = dotActive
	}
	return fmt.Sprintf("width: 8px; height: 8px; border-radius: 50%%; background: %s; transition: all 0.3s ease; cursor: pointer;", bg)
}

// NewIndicators builds a dots row for count blocks with current highlighted.
func NewIndicators(count, current int) *html.Node {
	ind := dom.Element("div", "class", IndicatorsClass, "style", IndicatorsStyle)
	fillDots(ind, count, current)
	return ind
}

// NewHint builds the swipe hint.
func NewHint() *html.Node {
	hint := dom.Element("div", "class", HintClass, "style", HintStyle)
	hint.AppendChild(dom.Text(HintText))
	return hint
}

func fillDots(ind *html.Node, count, current int) {
	dom.Empty(ind)
	for i := 0; i < count; i++ {
		ind.AppendChild(dom.Element("div", "class", DotClass, "style", DotStyle(i == current)))
	}
}

// Options configures a Carousel.
type Options struct {
	// Placeholder builds an empty photo block. It is used whenever the
	// container would otherwise hold no blocks.
	Placeholder func() *html.Node
	// SwipeThreshold defaults to DefaultSwipeThreshold.
	SwipeThreshold float64
}

// Carousel drives one swipeable container in the document.
type Carousel struct {
	container *html.Node
	opts      Options
}

// New binds container.
func New(container *html.Node, opts Options) *Carousel {
	if opts.SwipeThreshold <= 0 {
		opts.SwipeThreshold = DefaultSwipeThreshold
	}
	return &Carousel{container: container, opts: opts}
}

// Container returns the bound node.
func (c *Carousel) Container() *html.Node { return c.container }

// Blocks returns the photo blocks in order.
func (c *Carousel) Blocks() []*html.Node {
	return dom.Find(c.container, "."+BlockClass)
}

// State reads the current state from the document.
func (c *Carousel) State() State {
	idx, _ := strconv.Atoi(dom.AttrOr(c.container, IndexAttr, "0"))
	return State{Index: idx, Count: len(c.Blocks())}.Clamp()
}

// Init re-derives the carousel from the live blocks and rebuilds its
// navigation. It is safe to call any number of times.
func (c *Carousel) Init() State {
	blocks := c.Blocks()
	if len(blocks) == 0 && c.opts.Placeholder != nil {
		c.insertBlock(c.opts.Placeholder())
		blocks = c.Blocks()
	}
	st := c.State()

	dom.RemoveAll(dom.Find(c.container, "."+PrevClass+", ."+NextClass))
	parent := c.container.Parent

	for _, b := range blocks {
		dom.SetStyle(b, "width", "100%")
		dom.SetStyle(b, "flex-shrink", "0")
	}

	if !st.Navigable() {
		if parent != nil {
			dom.RemoveAll(childrenWithClass(parent, IndicatorsClass))
			dom.RemoveAll(childrenWithClass(parent, HintClass))
		}
		c.apply(st)
		return st
	}

	ind := firstChildWithClass(parent, IndicatorsClass)
	if ind == nil {
		ind = dom.Element("div", "class", IndicatorsClass, "style", IndicatorsStyle)
		if parent != nil {
			dom.InsertAfter(c.container, ind)
		} else {
			c.container.AppendChild(ind)
		}
	}
	fillDots(ind, st.Count, st.Index)

	c.container.AppendChild(dom.Element("button", "type", "button", "class", PrevClass))
	c.container.LastChild.AppendChild(dom.Text("‹"))
	c.container.AppendChild(dom.Element("button", "type", "button", "class", NextClass))
	c.container.LastChild.AppendChild(dom.Text("›"))

	if parent != nil && firstChildWithClass(parent, HintClass) == nil {
		dom.InsertAfter(ind, NewHint())
	}

	c.apply(st)
	return st
}

// apply writes st into the document: exactly one block and one control
// panel visible, nav buttons shown only where they lead somewhere, one
// highlighted dot.
func (c *Carousel) apply(st State) {
	dom.SetAttr(c.container, IndexAttr, strconv.Itoa(st.Index))
	for i, b := range c.Blocks() {
		display := "none"
		if i == st.Index {
			display = "block"
		}
		dom.SetDisplay(b, display)
		for _, ctl := range dom.Find(b, "."+ControlsClass) {
			dom.SetDisplay(ctl, display)
		}
	}
	if prev := dom.First(c.container, "."+PrevClass); prev != nil {
		dom.SetDisplay(prev, flexIf(st.Index > 0))
	}
	if next := dom.First(c.container, "."+NextClass); next != nil {
		dom.SetDisplay(next, flexIf(st.Index < st.Count-1))
	}
	if ind := firstChildWithClass(c.container.Parent, IndicatorsClass); ind != nil {
		for i, dot := range dom.Find(ind, "."+DotClass) {
			dom.SetStyle(dot, "background", bgFor(i == st.Index))
		}
	}
}

func (c *Carousel) transition(st State, moved bool) (State, bool) {
	if moved {
		c.apply(st)
	}
	return st, moved
}

// Prev shows the previous block.
func (c *Carousel) Prev() (State, bool) { return c.transition(c.State().Prev()) }

// Next shows the next block.
func (c *Carousel) Next() (State, bool) { return c.transition(c.State().Next()) }

// JumpTo shows block i, as a dot click does.
func (c *Carousel) JumpTo(i int) (State, bool) { return c.transition(c.State().JumpTo(i)) }

// Swipe applies a touch gesture.
func (c *Carousel) Swipe(startX, endX float64) (State, bool) {
	return c.transition(c.State().Swipe(startX, endX, c.opts.SwipeThreshold))
}

// Key applies an arrow key press.
func (c *Carousel) Key(key string, f Focus) (State, bool) {
	return c.transition(c.State().Key(key, f))
}

// Insert adds block at the end of the carousel and makes it current.
func (c *Carousel) Insert(block *html.Node) State {
	st := c.State()
	c.insertBlock(block)
	dom.SetAttr(c.container, IndexAttr, strconv.Itoa(st.Appended().Index))
	return c.Init()
}

func (c *Carousel) insertBlock(block *html.Node) {
	var ref *html.Node
	for _, ch := range dom.Children(c.container) {
		if dom.HasClass(ch, AddPhotoClass) || dom.HasClass(ch, PrevClass) || dom.HasClass(ch, NextClass) {
			ref = ch
			break
		}
	}
	dom.InsertBefore(c.container, block, ref)
}

// Delete removes block after confirm approves. A nil confirm approves. The
// container never ends up empty.
func (c *Carousel) Delete(block *html.Node, confirm func() bool) (State, bool) {
	blocks := c.Blocks()
	i := dom.IndexOf(blocks, block)
	if i < 0 {
		return c.State(), false
	}
	if confirm != nil && !confirm() {
		return c.State(), false
	}
	st := c.State().Removed(i)
	dom.Detach(block)
	dom.SetAttr(c.container, IndexAttr, strconv.Itoa(st.Index))
	return c.Init(), true
}

func flexIf(ok bool) string {
	if ok {
		return "flex"
	}
	return "none"
}

func bgFor(active bool) string {
	if active {
		return dotActive
	}
	return dotInactive
}

func childrenWithClass(n *html.Node, class string) []*html.Node {
	var out []*html.Node
	if n == nil {
		return out
	}
	for _, c := range dom.Children(n) {
		if dom.HasClass(c, class) {
			out = append(out, c)
		}
	}
	return out
}

func firstChildWithClass(n *html.Node, class string) *html.Node {
	if cs := childrenWithClass(n, class); len(cs) > 0 {
		return cs[0]
	}
	return nil
}
