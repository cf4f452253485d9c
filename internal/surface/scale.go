package surface

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"golang.org/x/net/html"

	"github.com/ziadkadry99/pagedit/internal/carousel"
	"github.com/ziadkadry99/pagedit/internal/dom"
	"github.com/ziadkadry99/pagedit/internal/gallery"
)

// Scale bounds, in percent.
const (
	MinScale     = 50
	MaxScale     = 200
	DefaultScale = 100
	ScaleStep    = 10
)

// ErrInvalidCrop is returned when a crop or position value leaves [0, 100].
var ErrInvalidCrop = errors.New("crop values must be between 0 and 100")

// InitScaling attaches zoom controls to the container of img. It runs once
// per image and reports whether controls were added.
func InitScaling(img *html.Node) bool {
	if dom.AttrOr(img, ScaleInitAttr, "") == "true" {
		return false
	}
	dom.SetAttr(img, ScaleInitAttr, "true")
	box := dom.Closest(img, "."+gallery.EditableImage+", .image-placeholder")
	if box == nil || dom.First(box, "."+ScaleControls) != nil {
		return false
	}
	controls := dom.Element("div", "class", ScaleControls)
	dom.Append(controls,
		scaleButton("−", "data-scale-delta", strconv.Itoa(-ScaleStep)),
		scaleButton("+", "data-scale-delta", strconv.Itoa(ScaleStep)),
		scaleButton("↺", "data-scale-reset", "true"))
	indicator := dom.Element("span", "class", ScaleIndicator)
	indicator.AppendChild(dom.Text(percent(Scale(img))))
	controls.AppendChild(indicator)
	box.AppendChild(controls)
	if _, ok := dom.Attr(img, ScaleAttr); !ok {
		dom.SetAttr(img, ScaleAttr, strconv.Itoa(DefaultScale))
	}
	return true
}

func scaleButton(label, key, val string) *html.Node {
	b := dom.Element("button", "type", "button", "class", "scale-btn", key, val)
	b.AppendChild(dom.Text(label))
	return b
}

// Scale returns the zoom of img in percent.
func Scale(img *html.Node) float64 {
	v, err := strconv.ParseFloat(dom.AttrOr(img, ScaleAttr, ""), 64)
	if err != nil {
		return DefaultScale
	}
	return v
}

// AdjustScale changes the zoom of img by delta percent, clamped to
// [MinScale, MaxScale], and returns the new value.
func AdjustScale(img *html.Node, delta float64) float64 {
	s := math.Max(MinScale, math.Min(MaxScale, Scale(img)+delta))
	setScale(img, s)
	return s
}

// ResetScale restores img to its natural size.
func ResetScale(img *html.Node) {
	setScale(img, DefaultScale)
}

func setScale(img *html.Node, s float64) {
	dom.SetAttr(img, ScaleAttr, formatNumber(s))
	dom.SetStyle(img, "transform", "scale("+formatNumber(s/100)+")")
	dom.SetStyle(img, "transform-origin", "center center")
	if box := dom.Closest(img, "."+gallery.EditableImage+", .image-placeholder"); box != nil {
		if ind := dom.First(box, "."+ScaleIndicator); ind != nil {
			dom.SetTextContent(ind, percent(s))
		}
	}
}

func percent(s float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(s)))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Crop holds the crop rectangle and focal point of a photo, in percent.
type Crop struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	PosX float64 `json:"pos_x"`
	PosY float64 `json:"pos_y"`
}

// DefaultCrop is the full image centred.
var DefaultCrop = Crop{X: 0, Y: 0, W: 100, H: 100, PosX: 50, PosY: 50}

// Validate checks every field is a percentage.
func (c Crop) Validate() error {
	for _, v := range []float64{c.X, c.Y, c.W, c.H, c.PosX, c.PosY} {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return fmt.Errorf("%v: %w", v, ErrInvalidCrop)
		}
	}
	return nil
}

// ApplyCrop positions img inside its frame and records the crop. The photo
// control inputs of the enclosing block are updated to match.
func ApplyCrop(img *html.Node, c Crop) error {
	if err := c.Validate(); err != nil {
		return err
	}
	dom.SetStyle(img, "object-position", formatNumber(c.PosX)+"% "+formatNumber(c.PosY)+"%")
	dom.SetStyle(img, "object-fit", "cover")
	fields := []struct {
		key string
		val float64
	}{
		{"crop-x", c.X}, {"crop-y", c.Y}, {"crop-w", c.W}, {"crop-h", c.H},
		{"pos-x", c.PosX}, {"pos-y", c.PosY},
	}
	block := dom.Closest(img, "."+carousel.BlockClass)
	for _, fld := range fields {
		dom.SetAttr(img, "data-"+fld.key, formatNumber(fld.val))
		if block == nil {
			continue
		}
		if in := dom.First(block, "."+carousel.ControlsClass+" input."+fld.key); in != nil {
			dom.SetAttr(in, "value", formatNumber(fld.val))
		}
	}
	return nil
}
