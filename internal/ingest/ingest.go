// Package ingest reads image files into data URIs and attaches them to image
// elements of the document.
package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/pagedit/internal/dom"
	"github.com/ziadkadry99/pagedit/internal/gallery"
	"github.com/ziadkadry99/pagedit/internal/session"
	"github.com/ziadkadry99/pagedit/internal/surface"
)

// ErrUnreadable is returned for empty input or bytes that are not an image.
var ErrUnreadable = errors.New("could not read image")

// ErrorTTL is how long a failed upload stays on the status line.
const ErrorTTL = 5 * time.Second

// attachStyle is written on every image that receives an upload.
const attachStyle = "display: block; width: 100%; height: 100%; object-fit: cover;"

// ReadDataURI reads all of r and encodes it as a base64 data URI. The MIME
// type is sniffed from the content and falls back to the extension of name.
func ReadDataURI(r io.Reader, name string) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrUnreadable, name)
	}
	typ := mediaType(raw, name)
	if !strings.HasPrefix(typ, "image/") {
		return "", fmt.Errorf("%w: %s is %s", ErrUnreadable, name, typ)
	}
	return "data:" + typ + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}

func mediaType(raw []byte, name string) string {
	sniffed := http.DetectContentType(raw)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	// SVG and some formats sniff as text or octet-stream.
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		if i := strings.IndexByte(byExt, ';'); i >= 0 {
			byExt = byExt[:i]
		}
		return byExt
	}
	return sniffed
}

// Attach makes img show uri: the image is displayed cover-fit, the upload
// label and placeholder text of its container are hidden, a change button is
// ensured in photo blocks and scaling controls are initialised.
func Attach(img *html.Node, uri string, f *gallery.Factory) {
	dom.SetAttr(img, "src", uri)
	dom.MergeStyle(img, attachStyle)
	dom.SetAttr(img, "data-base64", uri)

	box := dom.Closest(img, "."+gallery.PhotoContainer+", ."+gallery.EditableImage+", .image-placeholder, .hero-image-placeholder")
	if box == nil {
		surface.InitScaling(img)
		return
	}
	for _, el := range dom.Find(box, "."+gallery.LabelClass+", ."+gallery.PlaceholderTxt) {
		dom.SetDisplay(el, "none")
	}
	if dom.HasClass(box, gallery.PhotoContainer) && dom.First(box, "."+gallery.ChangeBtnClass) == nil {
		dom.InsertAfter(img, f.NewChangeButton())
	}
	surface.InitScaling(img)
}

// Locator finds the image an upload goes into.
type Locator func(doc *goquery.Document) (*html.Node, error)

// Ingester applies uploads to a session.
type Ingester struct {
	sess    *session.Session
	factory *gallery.Factory
}

// New returns an Ingester for sess.
func New(sess *session.Session, f *gallery.Factory) *Ingester {
	return &Ingester{sess: sess, factory: f}
}

// Upload reads r and attaches it to the image locate returns. The read
// happens before the session is locked.
func (in *Ingester) Upload(ctx context.Context, locate Locator, r io.Reader, name, target string) error {
	uri, err := ReadDataURI(r, name)
	if err != nil {
		in.sess.Status().Set("✗ Error: Could not read image - "+err.Error(), session.LevelError, ErrorTTL)
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return in.sess.Mutate(session.KindImage, target, func(doc *goquery.Document) error {
		img, err := locate(doc)
		if err != nil {
			return err
		}
		Attach(img, uri, in.factory)
		return nil
	})
}

// UploadAsync runs Upload on its own goroutine and calls done with the
// result. done may be nil.
func (in *Ingester) UploadAsync(ctx context.Context, locate Locator, r io.Reader, name, target string, done func(error)) {
	go func() {
		err := in.Upload(ctx, locate, r, name, target)
		if err != nil {
			log.Printf("ingest: upload %s: %v", name, err)
		}
		if done != nil {
			done(err)
		}
	}()
}
