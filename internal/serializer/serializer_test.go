package serializer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/ziadkadry99/pagedit/internal/carousel"
	"github.com/ziadkadry99/pagedit/internal/dom"
	"github.com/ziadkadry99/pagedit/internal/gallery"
	"github.com/ziadkadry99/pagedit/internal/ingest"
	"github.com/ziadkadry99/pagedit/internal/session"
	"github.com/ziadkadry99/pagedit/internal/surface"
)

const necklaceURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAIAAACQd1PeAAAADElEQVR4nGP4z8AAAAMBAQDJ/pLvAAAAAElFTkSuQmCC"

type fixture struct {
	doc *goquery.Document
	ids *session.IDs
	f   *gallery.Factory
}

func prepare(t *testing.T, page string) fixture {
	t.Helper()
	doc, err := dom.ParseString(page)
	if err != nil {
		t.Fatal(err)
	}
	ids := session.NewIDs([]byte(page))
	f := gallery.NewFactory(ids, 0)
	gallery.Restructure(doc, f)
	surface.Apply(doc, ids, f)
	return fixture{doc: doc, ids: ids, f: f}
}

func landing(t *testing.T) fixture {
	t.Helper()
	raw, err := os.ReadFile("../../testdata/pages/landing.html")
	if err != nil {
		t.Fatal(err)
	}
	return prepare(t, string(raw))
}

func generate(t *testing.T, fx fixture) string {
	t.Helper()
	art, _, err := Generate(fx.doc, fx.ids, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if art.Name != "index.html" {
		t.Errorf("artifact name = %q", art.Name)
	}
	return string(art.Body)
}

func parseOutput(t *testing.T, out string) *goquery.Document {
	t.Helper()
	doc, err := dom.ParseString(out)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestGenerateIsIdempotent(t *testing.T) {
	fx := landing(t)
	first := generate(t, fx)
	live, _ := dom.Render(fx.doc.Get(0))
	second := generate(t, fx)
	if first != second {
		t.Error("two saves without edits differ")
	}
	after, _ := dom.Render(fx.doc.Get(0))
	if live != after {
		t.Error("save changed the live document")
	}
}

func TestGenerateStripsEditorMarkup(t *testing.T) {
	out := generate(t, landing(t))
	if !strings.HasPrefix(out, "<!DOCTYPE html>\n<html") {
		t.Errorf("output starts with %.30q", out)
	}
	for _, artifact := range []string{
		"contenteditable", "editable-text", "editable-image", "product-name-input",
		"image-input", "image-label", "photo-controls", "image-scale-controls",
		"photo-nav-prev", "add-photo-btn", "photo-delete-btn", "change-image-btn",
		"data-photo-id", "data-product-index", "data-current-index", "data-has-listeners",
		"data-scale-initialized", `id="text-`, `id="photo-`,
	} {
		if strings.Contains(out, artifact) {
			t.Errorf("output still contains %q", artifact)
		}
	}
	if n := strings.Count(out, "<script "+carousel.RuntimeAttr); n != 1 {
		t.Errorf("%d runtime scripts, want 1", n)
	}
	doc := parseOutput(t, out)
	if dom.ByID(doc.Get(0), "workshop") == nil {
		t.Error("authored id was dropped")
	}
	script := dom.First(doc.Get(0), "script["+carousel.RuntimeAttr+"]")
	if script.Parent.Data != "body" || dom.Children(script.Parent)[len(dom.Children(script.Parent))-1] != script {
		t.Error("runtime script is not the last child of body")
	}
}

func TestSnapshotRewriteConsistency(t *testing.T) {
	page := `<html><body>
<p id="lead">One<br>two</p>
<h2 id="title">Title <em>here</em></h2>
<textarea id="note" class="editable-text">plain</textarea>
<p>Generated <b>id</b></p>
</body></html>`
	fx := prepare(t, page)
	if err := surface.SetText(fx.doc, "lead", "Edited<br>lead", nil); err != nil {
		t.Fatal(err)
	}
	snap := Take(fx.doc, fx.ids)
	clone := dom.Clone(fx.doc)
	Rewrite(clone, snap)

	for _, id := range []string{"lead", "title"} {
		el := dom.ByID(clone.Get(0), id)
		if el == nil {
			t.Fatalf("%s missing from output", id)
		}
		got, _ := dom.InnerHTML(el)
		if got != snap.Texts[id] {
			t.Errorf("%s = %q, want %q", id, got, snap.Texts[id])
		}
	}
	if snap.Texts["lead"] != "Edited<br/>lead" {
		t.Errorf("captured lead = %q", snap.Texts["lead"])
	}
	if got := dom.TextContent(dom.ByID(clone.Get(0), "note")); got != "plain" {
		t.Errorf("textarea = %q", got)
	}
	for id, markup := range snap.Texts {
		if !session.IsGenerated(id) {
			continue
		}
		var found bool
		for _, p := range dom.Find(clone.Get(0), "p") {
			if inner, _ := dom.InnerHTML(p); inner == markup {
				found = true
			}
		}
		if !found {
			t.Errorf("text %s (%q) not replayed", id, markup)
		}
	}
}

func TestTakeSkipsControlRegions(t *testing.T) {
	doc, err := dom.ParseString(`<html><body>
<p id="keep" contenteditable="true">Kept</p>
<div class="swipe-hint"><span id="hint" contenteditable="true">Swipe</span></div>
<div class="text-delete-btn"><span id="del" class="editable-text">x</span></div>
<div class="section-delete-btn"><span id="sec" class="editable-text">Delete</span></div>
</body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	snap := Take(doc, session.NewIDs(nil))
	if len(snap.TextOrder) != 1 || snap.TextOrder[0] != "keep" {
		t.Errorf("texts = %v, want [keep]", snap.TextOrder)
	}
}

func TestTakeStampsUniqueNameIDs(t *testing.T) {
	doc, err := dom.ParseString(`<html><body>
<input class="product-name-input" id="product-name-1" value="Ring">
<input class="product-name-input" value="Bracelet">
<input class="product-name-input" value="Charm">
</body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	snap := Take(doc, session.NewIDs([]byte("names")))
	if len(snap.Names) != 3 {
		t.Fatalf("%d names, want 3", len(snap.Names))
	}
	seen := map[string]bool{}
	for _, n := range snap.Names {
		if seen[n.ID] {
			t.Errorf("duplicate name id %q", n.ID)
		}
		seen[n.ID] = true
	}
	if snap.Names[0].ID != "product-name-1" {
		t.Errorf("authored id rewritten to %q", snap.Names[0].ID)
	}
	if !session.IsGenerated(snap.Names[1].ID) || snap.Stamped != 2 {
		t.Errorf("stamped %d ids, second is %q", snap.Stamped, snap.Names[1].ID)
	}
}

func TestPositionalImageMapping(t *testing.T) {
	fx := landing(t)
	row, err := gallery.FindProduct(fx.doc, 2)
	if err != nil {
		t.Fatal(err)
	}
	c := fx.f.Carousel(gallery.Containers(row)[0])
	c.Insert(fx.f.NewPlaceholderBlock())
	c.Insert(fx.f.NewPlaceholderBlock())
	blocks := gallery.PhotoBlocks(row)
	if len(blocks) != 3 {
		t.Fatalf("%d blocks, want 3", len(blocks))
	}
	img := gallery.UploadTarget(blocks[1])
	ingest.Attach(img, necklaceURI, fx.f)
	surface.AdjustScale(img, 20)

	snap := Take(fx.doc, fx.ids)
	var ref *ImageRef
	for i := range snap.Images {
		if snap.Images[i].ID == "product-2-photo-1" {
			ref = &snap.Images[i]
		}
	}
	if ref == nil {
		t.Fatalf("product-2-photo-1 not captured: %+v", snap.Images)
	}
	if ref.Data != necklaceURI {
		t.Error("captured data differs")
	}

	out := parseOutput(t, generate(t, fx))
	rows := dom.Find(out.Get(0), "."+gallery.RowClass)
	if len(rows) != 3 {
		t.Fatalf("%d rows in output", len(rows))
	}
	outBlocks := gallery.PhotoBlocks(rows[2])
	if len(outBlocks) != 3 {
		t.Fatalf("%d blocks in output row 2", len(outBlocks))
	}
	got := dom.First(outBlocks[1], "img")
	if got == nil || dom.AttrOr(got, "src", "") != necklaceURI {
		t.Error("second block of product 2 does not carry the uploaded image")
	}
	if dom.Style(got, "transform") != "scale(1.2)" {
		t.Errorf("transform = %q, want scale(1.2)", dom.Style(got, "transform"))
	}
	if dom.Hidden(outBlocks[0]) || !dom.Hidden(outBlocks[1]) || !dom.Hidden(outBlocks[2]) {
		t.Error("saved carousel should open on its first photo")
	}
	if n := len(dom.Find(rows[2], "."+carousel.DotClass)); n != 3 {
		t.Errorf("%d dots, want 3", n)
	}
	if n := len(dom.Find(rows[2], "."+carousel.HintClass)); n != 1 {
		t.Errorf("%d hints, want 1", n)
	}
	if dom.First(rows[0], "."+carousel.DotClass) != nil {
		t.Error("single photo product has dots")
	}
}

func TestHandmadeNecklace(t *testing.T) {
	fx := prepare(t, `<html><body><section class="gallery"><div class="gallery-grid">
<div class="gallery-item"><div class="image-placeholder"><span class="placeholder-text">IMAGE</span></div><p class="image-caption">Handmade Necklace</p></div>
</div></section></body></html>`)
	row, err := gallery.FindProduct(fx.doc, 0)
	if err != nil {
		t.Fatal(err)
	}
	ingest.Attach(gallery.UploadTarget(gallery.PhotoBlocks(row)[0]), necklaceURI, fx.f)

	out := parseOutput(t, generate(t, fx))
	h := dom.First(out.Get(0), "h3."+gallery.NameClass)
	if h == nil {
		t.Fatal("no product heading")
	}
	if got := dom.TextContent(h); got != "Handmade Necklace" {
		t.Errorf("heading = %q", got)
	}
	img := dom.First(out.Get(0), "."+gallery.RowClass+" img")
	if img == nil || dom.AttrOr(img, "src", "") != necklaceURI {
		t.Error("product image does not carry the uploaded data")
	}
	if _, ok := dom.Attr(img, "data-base64"); ok {
		t.Error("data-base64 leaked into the output")
	}
	if dom.First(out.Get(0), ".placeholder-text") != nil {
		t.Error("placeholder text left next to an uploaded image")
	}
}

func TestEmptyGallery(t *testing.T) {
	fx := prepare(t, `<html><body><section class="gallery"><div class="gallery-grid"></div></section></body></html>`)
	out := parseOutput(t, generate(t, fx))
	if dom.First(out.Get(0), "."+gallery.RowClass) != nil {
		t.Error("empty gallery produced product rows")
	}
	if dom.First(out.Get(0), "."+carousel.IndicatorsClass) != nil {
		t.Error("empty gallery produced indicators")
	}
}

func TestDisplayStripping(t *testing.T) {
	fx := prepare(t, `<html><body><div id="a" style="display: none; color: red;">x</div><div id="b" style="display: flex;">y</div></body></html>`)
	out := parseOutput(t, generate(t, fx))
	a := dom.ByID(out.Get(0), "a")
	if dom.AttrOr(a, "style", "") != "color: red;" {
		t.Errorf("a style = %q", dom.AttrOr(a, "style", ""))
	}
	if got := dom.Style(dom.ByID(out.Get(0), "b"), "display"); got != "flex" {
		t.Errorf("b display = %q", got)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{
			"nesting",
			`<html><body><div><p>Hi</p></div></body></html>`,
			"<html>\n  <body>\n    <div>\n      <p>Hi</p>\n    </div>\n  </body>\n</html>",
		},
		{
			"void elements",
			`<div><img src="a.png"/><br/><p>x</p></div>`,
			"<div>\n  <img src=\"a.png\"/>\n  <br/>\n  <p>x</p>\n</div>",
		},
		{
			"pre kept",
			"<div><pre>a\n  b</pre></div>",
			"<div>\n  <pre>a\n  b</pre>\n</div>",
		},
		{
			"script kept",
			"<body><script>if (a<b&&c>d) {}</script></body>",
			"<body>\n  <script>if (a<b&&c>d) {}</script>\n</body>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.in, FormatOptions{}); got != tt.want {
				t.Errorf("Format =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestFormatSkipsLargeInput(t *testing.T) {
	lines := strings.Repeat("<p>x</p>\n", 100_001)
	if got := Format(lines, FormatOptions{}); got != lines {
		t.Error("input above the line limit was changed")
	}
	big := "<div>" + strings.Repeat("a", 5_000_001) + "</div>"
	if got := Format(big, FormatOptions{}); got != big {
		t.Error("input above the size limit was changed")
	}
}

func TestGenerateError(t *testing.T) {
	doc, _ := dom.ParseString(`<html><body></body></html>`)
	dom.Detach(dom.Root(doc))
	_, _, err := Generate(doc, session.NewIDs(nil), Options{})
	var ge *GenerateError
	if !errors.As(err, &ge) {
		t.Fatalf("err = %v, want *GenerateError", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestSaverReportsStatus(t *testing.T) {
	raw, err := os.ReadFile("../../testdata/pages/landing.html")
	if err != nil {
		t.Fatal(err)
	}
	sess, err := session.Open(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	saver := NewSaver(sess, Options{})

	_, err = saver.Save(failingWriter{})
	var de *DownloadError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DownloadError", err)
	}
	if msg := sess.Status().Current(); msg.Text != StatusDownloadError+"disk full" {
		t.Errorf("status = %q", msg.Text)
	}

	dir := t.TempDir()
	path, err := saver.SaveToDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "index.html") {
		t.Errorf("path = %q", path)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(body), Doctype) {
		t.Error("saved file lacks the doctype")
	}
	if msg := sess.Status().Current(); msg.Text != StatusSaved || msg.Level != session.LevelSuccess {
		t.Errorf("status = %+v", msg)
	}
}
