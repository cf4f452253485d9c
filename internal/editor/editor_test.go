package editor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/ziadkadry99/pagedit/internal/carousel"
	"github.com/ziadkadry99/pagedit/internal/dom"
	"github.com/ziadkadry99/pagedit/internal/gallery"
	"github.com/ziadkadry99/pagedit/internal/session"
	"github.com/ziadkadry99/pagedit/internal/surface"
)

// 1x1 PNG.
var pixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53, 0xde, 0x00, 0x00, 0x00,
	0x0c, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0xf8, 0xcf, 0xc0, 0x00,
	0x00, 0x03, 0x01, 0x01, 0x00, 0xc9, 0xfe, 0x92, 0xef, 0x00, 0x00, 0x00,
	0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func openLanding(t *testing.T, opts Options) *Editor {
	t.Helper()
	raw, err := os.ReadFile("../../testdata/pages/landing.html")
	if err != nil {
		t.Fatal(err)
	}
	e, err := Open(bytes.NewReader(raw), opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)
	return e
}

// visible returns the indices of the visible blocks of product p.
func visible(t *testing.T, e *Editor, p int) (shown []int, current int) {
	t.Helper()
	err := e.Session().View(func(doc *goquery.Document) error {
		row, err := gallery.FindProduct(doc, p)
		if err != nil {
			return err
		}
		for i, b := range gallery.PhotoBlocks(row) {
			if !dom.Hidden(b) {
				shown = append(shown, i)
			}
		}
		current = carousel.New(gallery.Containers(row)[0], carousel.Options{}).State().Index
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return shown, current
}

func TestOpenPreparesPage(t *testing.T) {
	e := openLanding(t, Options{})
	products, err := e.Products()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, p := range products {
		names = append(names, p.Name)
		if p.Photos != 1 {
			t.Errorf("%s has %d photos, want 1", p.Name, p.Photos)
		}
	}
	if got := strings.Join(names, ","); got != "Handmade Necklace,Silver Ring,Product 3" {
		t.Errorf("products = %s", got)
	}
	texts, err := e.Texts()
	if err != nil {
		t.Fatal(err)
	}
	if len(texts) == 0 {
		t.Fatal("no editable texts")
	}
	for _, txt := range texts {
		if txt.ID == "" {
			t.Errorf("editable %s without id", txt.Tag)
		}
	}
}

func TestNavigateTwiceThenDelete(t *testing.T) {
	e := openLanding(t, Options{})
	for i := 0; i < 2; i++ {
		if _, err := e.AddPhoto(0); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := e.Navigate(0, Nav{Action: NavGoto, Index: 0}); err != nil {
		t.Fatal(err)
	}
	for want := 1; want <= 2; want++ {
		st, err := e.Navigate(0, Nav{Action: NavNext})
		if err != nil {
			t.Fatal(err)
		}
		if st.Index != want || st.Count != 3 {
			t.Fatalf("after next: %+v, want index %d of 3", st, want)
		}
	}
	deleted, err := e.DeletePhoto(0, 2)
	if err != nil || !deleted {
		t.Fatalf("DeletePhoto = %v, %v", deleted, err)
	}
	shown, current := visible(t, e, 0)
	if current != 1 || len(shown) != 1 || shown[0] != 1 {
		t.Errorf("current %d, visible %v; want block 1 only", current, shown)
	}
	products, _ := e.Products()
	if products[0].Photos != 2 {
		t.Errorf("%d photos left, want 2", products[0].Photos)
	}
}

func TestDeleteLastPhotoLeavesPlaceholder(t *testing.T) {
	e := openLanding(t, Options{})
	if _, err := e.DeletePhoto(1, 0); err != nil {
		t.Fatal(err)
	}
	products, _ := e.Products()
	if products[1].Photos != 1 || len(products[1].Images) != 0 {
		t.Errorf("ring after delete: %d photos, images %v", products[1].Photos, products[1].Images)
	}
}

func TestDeleteDeclined(t *testing.T) {
	var prompts []string
	e := openLanding(t, Options{Confirm: func(prompt string) bool {
		prompts = append(prompts, prompt)
		return false
	}})
	ch, cancel := e.Subscribe(4)
	defer cancel()
	deleted, err := e.DeletePhoto(1, 0)
	if err != nil || deleted {
		t.Fatalf("DeletePhoto = %v, %v", deleted, err)
	}
	if len(prompts) != 1 || !strings.Contains(prompts[0], "Silver Ring") {
		t.Errorf("prompts = %q", prompts)
	}
	select {
	case m := <-ch:
		t.Errorf("declined delete published %+v", m)
	default:
	}
}

func TestMutationsPublish(t *testing.T) {
	e := openLanding(t, Options{DefaultProductName: "Piece"})
	ch, cancel := e.Subscribe(4)
	defer cancel()

	if _, err := e.Navigate(0, Nav{Action: NavPrev}); err != nil {
		t.Fatal(err)
	}
	select {
	case m := <-ch:
		t.Fatalf("navigation that went nowhere published %+v", m)
	default:
	}

	index, err := e.AddProduct("")
	if err != nil {
		t.Fatal(err)
	}
	select {
	case m := <-ch:
		if m.Kind != session.KindStructure {
			t.Errorf("kind = %s", m.Kind)
		}
	default:
		t.Fatal("AddProduct published nothing")
	}
	products, _ := e.Products()
	last := products[len(products)-1]
	if last.Index != index || last.Name != "Piece 4" {
		t.Errorf("new product = %+v", last)
	}

	// The initializer ran over the new row.
	err = e.Session().View(func(doc *goquery.Document) error {
		row, err := gallery.FindProduct(doc, index)
		if err != nil {
			return err
		}
		if dom.First(row, "."+gallery.InputClass) == nil {
			t.Error("new product has no upload input")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestLookupErrors(t *testing.T) {
	e := openLanding(t, Options{})
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"text", e.SetText("missing", "x"), ErrTextNotFound},
		{"name", e.SetName(9, "x"), ErrProductNotFound},
		{"remove", e.RemoveProduct(9), ErrProductNotFound},
		{"navigate", func() error { _, err := e.Navigate(0, Nav{Action: "spin"}); return err }(), ErrUnknownAction},
		{"photo", func() error { _, err := e.DeletePhoto(0, 4); return err }(), ErrPhotoNotFound},
		{"image", func() error { _, err := e.Scale(ElementTarget("nope"), 10); return err }(), ErrImageNotFound},
		{"crop", e.Crop(PhotoTarget(0, 0), surface.Crop{W: 120}), surface.ErrInvalidCrop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("err = %v, want %v", tt.err, tt.want)
			}
		})
	}
}

func TestUploadScaleAndSave(t *testing.T) {
	e := openLanding(t, Options{Sanitize: true})
	if err := e.Upload(context.Background(), PhotoTarget(0, 0), bytes.NewReader(pixel), "necklace.png"); err != nil {
		t.Fatal(err)
	}
	s, err := e.Scale(PhotoTarget(0, 0), 30)
	if err != nil {
		t.Fatal(err)
	}
	if s != 130 {
		t.Errorf("scale = %v", s)
	}
	if err := e.Crop(PhotoTarget(0, 0), surface.Crop{X: 0, Y: 0, W: 100, H: 100, PosX: 20, PosY: 40}); err != nil {
		t.Fatal(err)
	}

	var inputID string
	_ = e.Session().View(func(doc *goquery.Document) error {
		inputID = dom.AttrOr(dom.First(doc.Get(0), ".hero-image-placeholder ."+gallery.InputClass), "id", "")
		return nil
	})
	done := make(chan error, 1)
	e.UploadAsync(context.Background(), ElementTarget(inputID), bytes.NewReader(pixel), "hero.png", func(err error) { done <- err })
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if err := e.SetText(firstTextID(t, e), "Hello <i>there</i><script>x()</script>"); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	art, err := e.Save(&buf)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if out != string(art.Body) {
		t.Error("written bytes differ from the artifact")
	}
	if strings.Contains(out, "x()") {
		t.Error("script from edited text reached the output")
	}
	if n := strings.Count(out, "data:image/png;base64,"); n != 2 {
		t.Errorf("%d embedded images, want 2", n)
	}
	for _, want := range []string{"scale(1.3)", "object-position: 20% 40%", "Hello <i>there</i>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q", want)
		}
	}
	if got := e.Status(); got.Level != session.LevelSuccess {
		t.Errorf("status = %+v", got)
	}
}

func firstTextID(t *testing.T, e *Editor) string {
	t.Helper()
	texts, err := e.Texts()
	if err != nil || len(texts) == 0 {
		t.Fatal("no texts")
	}
	return texts[0].ID
}

func TestReopenEditablePage(t *testing.T) {
	e := openLanding(t, Options{})
	if _, err := e.AddPhoto(2); err != nil {
		t.Fatal(err)
	}
	if err := e.SetName(2, "Pearl Earrings"); err != nil {
		t.Fatal(err)
	}
	page, err := e.HTML()
	if err != nil {
		t.Fatal(err)
	}
	again, err := Open(strings.NewReader(page), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer again.Close()
	before, _ := e.Products()
	after, _ := again.Products()
	if len(before) != len(after) {
		t.Fatalf("%d products after reopen, want %d", len(after), len(before))
	}
	for i := range before {
		if before[i].Name != after[i].Name || before[i].Photos != after[i].Photos || before[i].Current != after[i].Current {
			t.Errorf("product %d: %+v became %+v", i, before[i], after[i])
		}
	}
	reopened, _ := again.HTML()
	if strings.Count(reopened, `class="`+carousel.IndicatorsClass) != strings.Count(page, `class="`+carousel.IndicatorsClass) {
		t.Error("reopening duplicated carousel indicators")
	}
}

func TestReopenSavedPage(t *testing.T) {
	e := openLanding(t, Options{})
	if _, err := e.AddPhoto(1); err != nil {
		t.Fatal(err)
	}
	art, err := e.Generate()
	if err != nil {
		t.Fatal(err)
	}
	again, err := Open(bytes.NewReader(art.Body), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer again.Close()
	products, _ := again.Products()
	if len(products) != 3 || products[1].Name != "Silver Ring" || products[1].Photos != 2 {
		t.Fatalf("rehydrated products = %+v", products)
	}
	page, _ := again.HTML()
	if strings.Contains(page, carousel.RuntimeAttr) {
		t.Error("rehydrated page still carries the runtime script")
	}
}

func textID(t *testing.T, e *Editor, content string) string {
	t.Helper()
	texts, err := e.Texts()
	if err != nil {
		t.Fatal(err)
	}
	for _, txt := range texts {
		if txt.Content == content {
			return txt.ID
		}
	}
	t.Fatalf("no text %q", content)
	return ""
}

func saved(t *testing.T, e *Editor) string {
	t.Helper()
	art, err := e.Generate()
	if err != nil {
		t.Fatal(err)
	}
	return string(art.Body)
}

func TestDeleteText(t *testing.T) {
	var prompts []string
	e := openLanding(t, Options{Confirm: func(prompt string) bool {
		prompts = append(prompts, prompt)
		return true
	}})
	id := textID(t, e, "Every piece is made to order.")
	ch, cancel := e.Subscribe(4)
	defer cancel()

	deleted, err := e.DeleteText(id)
	if err != nil || !deleted {
		t.Fatalf("DeleteText = %v, %v", deleted, err)
	}
	if len(prompts) != 1 || !strings.Contains(prompts[0], "Every piece") {
		t.Errorf("prompts = %q", prompts)
	}
	if m := <-ch; m.Kind != session.KindStructure || m.Target != id {
		t.Errorf("mutation = %+v", m)
	}
	if strings.Contains(saved(t, e), "Every piece is made to order") {
		t.Error("deleted text reached the saved page")
	}
	if _, err := e.DeleteText(id); !errors.Is(err, ErrTextNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestDeleteTextDeclined(t *testing.T) {
	e := openLanding(t, Options{Confirm: func(string) bool { return false }})
	deleted, err := e.DeleteText(textID(t, e, "Lisbon, Portugal"))
	if err != nil || deleted {
		t.Fatalf("DeleteText = %v, %v", deleted, err)
	}
	if !strings.Contains(saved(t, e), "Lisbon, Portugal") {
		t.Error("declined delete removed the text")
	}
}

func TestDeleteTextInsidePhotoBlock(t *testing.T) {
	e := openLanding(t, Options{})
	err := e.Session().Mutate(session.KindStructure, "", func(doc *goquery.Document) error {
		block := dom.First(doc.Get(0), "."+carousel.BlockClass)
		p := dom.Element("p", "id", "in-block", "class", surface.EditableClass)
		p.AppendChild(dom.Text("caption"))
		block.AppendChild(p)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.DeleteText("in-block"); !errors.Is(err, ErrNotDeletable) {
		t.Errorf("err = %v, want %v", err, ErrNotDeletable)
	}
}

func TestDeleteSection(t *testing.T) {
	var prompts []string
	e := openLanding(t, Options{Confirm: func(prompt string) bool {
		prompts = append(prompts, prompt)
		return len(prompts) > 1
	}})
	secs, err := e.Sections()
	if err != nil {
		t.Fatal(err)
	}
	products, _ := e.Products()
	if len(secs) != 2 || secs[0].Title != "Crafted by hand" || secs[1].Title != "Collection" {
		t.Fatalf("sections = %+v", secs)
	}
	if secs[0].Products != 0 || secs[1].Products != len(products) {
		t.Errorf("product counts = %d, %d", secs[0].Products, secs[1].Products)
	}

	deleted, err := e.DeleteSection(1)
	if err != nil || deleted {
		t.Fatalf("declined DeleteSection = %v, %v", deleted, err)
	}
	if !strings.Contains(prompts[0], "Collection") || !strings.Contains(prompts[0], "product(s)") {
		t.Errorf("prompt = %q", prompts[0])
	}

	deleted, err = e.DeleteSection(0)
	if err != nil || !deleted {
		t.Fatalf("DeleteSection = %v, %v", deleted, err)
	}
	out := saved(t, e)
	for _, gone := range []string{"Crafted by hand", "workshop.jpg"} {
		if strings.Contains(out, gone) {
			t.Errorf("saved page still contains %q", gone)
		}
	}
	if secs, _ = e.Sections(); len(secs) != 1 || secs[0].Title != "Collection" {
		t.Errorf("sections after delete = %+v", secs)
	}
	if _, err := e.DeleteSection(3); !errors.Is(err, ErrSectionNotFound) {
		t.Errorf("err = %v, want %v", err, ErrSectionNotFound)
	}
}
