package editor

import (
	"context"
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/pagedit/internal/dom"
	"github.com/ziadkadry99/pagedit/internal/gallery"
	"github.com/ziadkadry99/pagedit/internal/ingest"
	"github.com/ziadkadry99/pagedit/internal/serializer"
	"github.com/ziadkadry99/pagedit/internal/session"
	"github.com/ziadkadry99/pagedit/internal/surface"
)

// Target addresses an image: either by the id of the image, its upload input
// or its container, or by product and photo index.
type Target struct {
	ID      string `json:"id,omitempty"`
	Product int    `json:"product"`
	Photo   int    `json:"photo"`
}

// PhotoTarget addresses photo n of product p.
func PhotoTarget(p, n int) Target { return Target{Product: p, Photo: n} }

// ElementTarget addresses an image by element id.
func ElementTarget(id string) Target { return Target{ID: id} }

func (t Target) String() string {
	if t.ID != "" {
		return t.ID
	}
	return serializer.PositionalID(t.Product, t.Photo)
}

const imageBoxes = "." + gallery.PhotoContainer + ", ." + gallery.EditableImage + ", .image-placeholder, .hero-image-placeholder"

// locate returns the image t addresses, creating a hidden upload image in
// an empty container.
func (t Target) locate(doc *goquery.Document) (*html.Node, error) {
	if t.ID == "" {
		block, err := photoBlock(doc, t.Product, t.Photo)
		if err != nil {
			return nil, err
		}
		if img := gallery.BlockImage(block); img != nil {
			return img, nil
		}
		return gallery.UploadTarget(block), nil
	}
	el := dom.ByID(doc.Get(0), t.ID)
	if el == nil {
		return nil, fmt.Errorf("%q: %w", t.ID, ErrImageNotFound)
	}
	if el.Data == "img" {
		return el, nil
	}
	box := el
	if !dom.Is(el, imageBoxes) {
		box = dom.Closest(el, imageBoxes)
	}
	if box == nil {
		return nil, fmt.Errorf("%q: %w", t.ID, ErrImageNotFound)
	}
	return gallery.UploadTarget(box), nil
}

// Upload reads r into the image t addresses.
func (e *Editor) Upload(ctx context.Context, t Target, r io.Reader, name string) error {
	if err := e.ingest.Upload(ctx, ingest.Locator(t.locate), r, name, t.String()); err != nil {
		return err
	}
	return e.refresh(t.String())
}

// UploadAsync runs Upload on its own goroutine and calls done with the
// result. done may be nil.
func (e *Editor) UploadAsync(ctx context.Context, t Target, r io.Reader, name string, done func(error)) {
	go func() {
		err := e.Upload(ctx, t, r, name)
		if done != nil {
			done(err)
		}
	}()
}

// Scale zooms the image t addresses by delta percent and returns the new
// zoom.
func (e *Editor) Scale(t Target, delta float64) (float64, error) {
	var s float64
	err := e.mutate(session.KindImage, t.String(), func(doc *goquery.Document) error {
		img, err := t.locate(doc)
		if err != nil {
			return err
		}
		surface.InitScaling(img)
		s = surface.AdjustScale(img, delta)
		return nil
	})
	return s, err
}

// ResetScale restores the natural size of the image t addresses.
func (e *Editor) ResetScale(t Target) error {
	return e.mutate(session.KindImage, t.String(), func(doc *goquery.Document) error {
		img, err := t.locate(doc)
		if err != nil {
			return err
		}
		surface.InitScaling(img)
		surface.ResetScale(img)
		return nil
	})
}

// Crop applies c to the image t addresses.
func (e *Editor) Crop(t Target, c surface.Crop) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return e.mutate(session.KindImage, t.String(), func(doc *goquery.Document) error {
		img, err := t.locate(doc)
		if err != nil {
			return err
		}
		return surface.ApplyCrop(img, c)
	})
}

// Generate produces the standalone page without delivering it.
func (e *Editor) Generate() (*serializer.Artifact, error) {
	return e.saver.Generate()
}

// Save writes the standalone page to w.
func (e *Editor) Save(w io.Writer) (*serializer.Artifact, error) {
	return e.saver.Save(w)
}

// SaveToDir writes the standalone page into dir and returns its path.
func (e *Editor) SaveToDir(dir string) (string, error) {
	return e.saver.SaveToDir(dir)
}
