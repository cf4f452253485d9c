package gallery

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/ziadkadry99/pagedit/internal/carousel"
	"github.com/ziadkadry99/pagedit/internal/dom"
	"github.com/ziadkadry99/pagedit/internal/session"
)

// Class names and attributes of the product gallery markup.
const (
	GridSelector   = ".gallery .gallery-grid"
	ItemClass      = "gallery-item"
	CaptionClass   = "image-caption"
	RowsMarker     = "product-rows-container"
	RowClass       = "product-row"
	HeaderClass    = "product-header"
	NameInputClass = "product-name-input"
	NameClass      = "product-name"
	PhotosClass    = "product-photos-container"
	PhotoRowClass  = "photo-row"
	CoverRowClass  = "cover-photo-row"
	CoverClass     = "cover-photo"
	PhotoContainer = "photo-container"
	EditableImage  = "editable-image"
	DeleteBtnClass = "photo-delete-btn"
	ChangeBtnClass = "change-image-btn"
	InputClass     = "image-input"
	LabelClass     = "image-label"
	UploadedClass  = "uploaded-image"
	PlaceholderTxt = "placeholder-text"
	AddProductBtn  = "add-product-btn"

	ProductIndexAttr = "data-product-index"
	PhotoIDAttr      = "data-photo-id"

	AddPhotoText = "Add Photo After Cover"
)

// Inline styles of editor controls.
const (
	LabelStyle     = "position: absolute; top: 50%; left: 50%; transform: translate(-50%, -50%); background: rgba(128, 0, 32, 0.8); color: white; padding: 10px 20px; border-radius: 5px; cursor: pointer; z-index: 10;"
	changeBtnStyle = "position: absolute; bottom: 10px; left: 50%; transform: translateX(-50%); background: rgba(128, 0, 32, 0.8); color: white; padding: 8px 15px; border-radius: 5px; cursor: pointer; z-index: 10; border: none; font-size: 0.85rem;"
	deleteBtnStyle = "position: absolute; top: 10px; right: 10px; background: rgba(220, 53, 69, 0.9); border: none; color: white; width: 32px; height: 32px; border-radius: 50%; cursor: pointer; display: flex; align-items: center; justify-content: center; font-size: 20px; z-index: 9999;"
	addPhotoStyle  = "display: block; width: 100%; flex-shrink: 0; align-items: center; justify-content: center; position: relative; z-index: 100; margin-top: 15px;"
	coverImgStyle  = "display: block; width: 100%; height: 100%; object-fit: cover;"
)

// Factory builds gallery markup. Generated identifiers come from ids.
type Factory struct {
	ids       *session.IDs
	threshold float64
}

// NewFactory returns a Factory drawing identifiers from ids.
func NewFactory(ids *session.IDs, swipeThreshold float64) *Factory {
	return &Factory{ids: ids, threshold: swipeThreshold}
}

// Carousel binds container with this factory's placeholder blocks.
func (f *Factory) Carousel(container *html.Node) *carousel.Carousel {
	return carousel.New(container, carousel.Options{
		Placeholder:    f.NewPlaceholderBlock,
		SwipeThreshold: f.threshold,
	})
}

// NewProductRow builds a product row with one cover photo row.
func (f *Factory) NewProductRow(index int, name string, img *html.Node) *html.Node {
	row := dom.Element("div", "class", RowClass, ProductIndexAttr, fmt.Sprint(index))
	row.AppendChild(NewHeader(name))
	photos := dom.Element("div", "class", PhotosClass)
	photos.AppendChild(f.NewPhotoRow(img))
	row.AppendChild(photos)
	return row
}

// NewHeader builds the product header holding an editable name.
func NewHeader(name string) *html.Node {
	header := dom.Element("div", "class", HeaderClass)
	header.AppendChild(dom.Element("input",
		"type", "text",
		"class", NameInputClass,
		"value", name,
		"placeholder", "Product Name"))
	return header
}

// NewPhotoRow builds a cover photo row: a swipeable container seeded with
// one block for img (a placeholder when img is nil), followed by the add
// photo button. The carousel is initialised.
func (f *Factory) NewPhotoRow(img *html.Node) *html.Node {
	row := dom.Element("div", "class", PhotoRowClass+" "+CoverRowClass)
	container := dom.Element("div", "class", carousel.ContainerClass)
	block := f.NewPhotoBlock(img)
	dom.AddClass(block, CoverClass)
	container.AppendChild(block)
	row.AppendChild(container)
	row.AppendChild(f.NewAddPhotoButton(AddPhotoText))
	f.Carousel(container).Init()
	return row
}

// NewPhotoBlock wraps a copy of img in a photo block with delete, change and
// crop controls. A nil img yields NewPlaceholderBlock.
func (f *Factory) NewPhotoBlock(img *html.Node) *html.Node {
	if img == nil {
		return f.NewPlaceholderBlock()
	}
	block, box := f.blockShell()
	clone := dom.Sel(img).Clone().Get(0)
	dom.RemoveAttr(clone, "id")
	dom.MergeStyle(clone, coverImgStyle)
	box.AppendChild(clone)
	box.AppendChild(f.NewChangeButton())
	box.AppendChild(f.NewHiddenInput())
	block.AppendChild(NewPhotoControls())
	return block
}

// NewPlaceholderBlock builds an empty photo block awaiting an upload.
func (f *Factory) NewPlaceholderBlock() *html.Node {
	block, box := f.blockShell()
	del := dom.First(box, "."+DeleteBtnClass)
	input := f.NewHiddenInput()
	label := dom.Element("label", "class", LabelClass, "for", dom.AttrOr(input, "id", ""), "style", LabelStyle)
	label.AppendChild(dom.Text("📷 Upload Image"))
	placeholder := dom.Element("span", "class", PlaceholderTxt)
	placeholder.AppendChild(dom.Text("NEW IMAGE"))
	dom.Append(box, input, label,
		dom.Element("img", "class", UploadedClass, "style", "display: none;"),
		placeholder, del)
	block.AppendChild(NewPhotoControls())
	return block
}

func (f *Factory) blockShell() (block, box *html.Node) {
	block = dom.Element("div", "class", carousel.BlockClass)
	box = dom.Element("div", "class", PhotoContainer+" "+EditableImage, PhotoIDAttr, f.ids.New(session.PrefixPhoto))
	del := dom.Element("button", "type", "button", "class", DeleteBtnClass, "title", "Delete this photo", "style", deleteBtnStyle)
	del.AppendChild(dom.Text("×"))
	box.AppendChild(del)
	block.AppendChild(box)
	return block, box
}

// NewHiddenInput builds the file input an upload label points at.
func (f *Factory) NewHiddenInput() *html.Node {
	return dom.Element("input",
		"type", "file",
		"accept", "image/*",
		"class", InputClass,
		"id", f.ids.New(session.PrefixInput),
		"style", "display: none;")
}

// NewChangeButton builds the "change image" button shown over a loaded image.
func (f *Factory) NewChangeButton() *html.Node {
	btn := dom.Element("button", "type", "button", "class", ChangeBtnClass, "title", "Change image", "style", changeBtnStyle)
	btn.AppendChild(dom.Text("🔄 Change"))
	return btn
}

// NewPhotoControls builds the crop and position panel of a photo block.
func NewPhotoControls() *html.Node {
	controls := dom.Element("div", "class", carousel.ControlsClass)
	crop := controlSection("Crop:",
		controlInput("X", "0", "crop-x"),
		controlInput("Y", "0", "crop-y"),
		controlInput("W", "100", "crop-w"),
		controlInput("H", "100", "crop-h"))
	pos := controlSection("Position:",
		controlInput("X", "50", "pos-x"),
		controlInput("Y", "50", "pos-y"))
	apply := dom.Element("button", "type", "button", "class", "apply-controls-btn")
	apply.AppendChild(dom.Text("Apply"))
	dom.Append(controls, crop, pos, apply)
	return controls
}

func controlSection(title string, inputs ...*html.Node) *html.Node {
	sec := dom.Element("div", "class", "control-section")
	label := dom.Element("label")
	label.AppendChild(dom.Text(title))
	sec.AppendChild(label)
	dom.Append(sec, inputs...)
	return sec
}

func controlInput(label, value, class string) *html.Node {
	wrap := dom.Element("div", "class", "control-input-wrapper")
	span := dom.Element("span")
	span.AppendChild(dom.Text(label + ":"))
	dom.Append(wrap, span, dom.Element("input", "type", "number", "value", value, "class", class))
	return wrap
}

// NewAddPhotoButton builds the button that appends a photo to a carousel.
func (f *Factory) NewAddPhotoButton(text string) *html.Node {
	btn := dom.Element("button", "type", "button", "class", carousel.AddPhotoClass, "style", addPhotoStyle)
	btn.AppendChild(dom.Text(text))
	return btn
}
