// Package serializer writes an edited document back out as a standalone
// page: editable content is snapshotted, replayed onto a clone stripped of
// editor markup, and a small carousel script is attached.
package serializer

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ziadkadry99/pagedit/internal/dom"
	"github.com/ziadkadry99/pagedit/internal/session"
)

// Doctype prefixes every artifact.
const Doctype = "<!DOCTYPE html>\n"

// Status line texts.
const (
	StatusSaving        = "Saving..."
	StatusSaved         = "✓ Saved! HTML file downloaded."
	StatusGenerateError = "✗ Error: Failed to generate HTML - "
	StatusDownloadError = "✗ Error: Failed to create download - "
)

// Options configures generation.
type Options struct {
	Name   string
	Format FormatOptions
	// SuccessTTL and ErrorTTL control how long save results stay on the
	// status line.
	SuccessTTL time.Duration
	ErrorTTL   time.Duration
}

// DefaultOptions returns the standard artifact settings.
func DefaultOptions() Options {
	return Options{
		Name:       "index.html",
		Format:     DefaultFormat,
		SuccessTTL: 3 * time.Second,
		ErrorTTL:   5 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Name == "" {
		o.Name = d.Name
	}
	if o.SuccessTTL <= 0 {
		o.SuccessTTL = d.SuccessTTL
	}
	if o.ErrorTTL <= 0 {
		o.ErrorTTL = d.ErrorTTL
	}
	o.Format = o.Format.withDefaults()
	return o
}

// Artifact is a generated page.
type Artifact struct {
	Name        string
	ContentType string
	Body        []byte
}

// GenerateError reports that no page could be produced. The live document
// is unchanged apart from identifiers stamped by the snapshot.
type GenerateError struct {
	Err error
}

func (e *GenerateError) Error() string { return "generating html: " + e.Err.Error() }
func (e *GenerateError) Unwrap() error { return e.Err }

// DownloadError reports that a generated page could not be delivered.
type DownloadError struct {
	Name string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Name, e.Err)
}
func (e *DownloadError) Unwrap() error { return e.Err }

// Generate snapshots doc and produces the standalone page. Identifiers are
// stamped onto doc where missing; nothing else in doc changes.
func Generate(doc *goquery.Document, ids *session.IDs, opts Options) (art *Artifact, snap *Snapshot, err error) {
	opts = opts.withDefaults()
	defer func() {
		if r := recover(); r != nil {
			art, err = nil, &GenerateError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	snap = Take(doc, ids)
	out, err := Render(dom.Clone(doc), snap, opts.Format)
	if err != nil {
		return nil, snap, &GenerateError{Err: err}
	}
	return &Artifact{
		Name:        opts.Name,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(Doctype + out),
	}, snap, nil
}

// Render rewrites clone from snap and returns the formatted markup of its
// html element, without doctype.
func Render(clone *goquery.Document, snap *Snapshot, format FormatOptions) (string, error) {
	Rewrite(clone, snap)
	root := dom.Root(clone)
	if root == nil {
		return "", errors.New("document has no html element")
	}
	out, err := dom.Render(root)
	if err != nil {
		return "", err
	}
	return Format(out, format), nil
}

// Saver runs saves against a session and reports progress on its status
// line.
type Saver struct {
	sess *session.Session
	opts Options
}

// NewSaver returns a Saver for sess.
func NewSaver(sess *session.Session, opts Options) *Saver {
	return &Saver{sess: sess, opts: opts.withDefaults()}
}

// Generate produces the artifact under the session lock.
func (s *Saver) Generate() (*Artifact, error) {
	status := s.sess.Status()
	status.Set(StatusSaving, session.LevelBusy, 0)

	var art *Artifact
	err := s.sess.Mutate(session.KindIdentity, "", func(doc *goquery.Document) error {
		a, snap, err := Generate(doc, s.sess.IDs(), s.opts)
		if err != nil {
			return err
		}
		art = a
		log.Printf("serializer: %d texts, %d names, %d images", len(snap.Texts), len(snap.Names), len(snap.Images))
		if snap.Stamped == 0 {
			return session.ErrUnchanged
		}
		return nil
	})
	if err != nil {
		var ge *GenerateError
		if !errors.As(err, &ge) {
			ge = &GenerateError{Err: err}
			err = ge
		}
		status.Set(StatusGenerateError+ge.Err.Error(), session.LevelError, s.opts.ErrorTTL)
		return nil, err
	}
	return art, nil
}

// Save generates the artifact and writes it to w.
func (s *Saver) Save(w io.Writer) (*Artifact, error) {
	art, err := s.Generate()
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(art.Body); err != nil {
		return nil, s.downloadFailed(art, err)
	}
	s.sess.Status().Set(StatusSaved, session.LevelSuccess, s.opts.SuccessTTL)
	return art, nil
}

// SaveToDir generates the artifact and writes it into dir, replacing any
// previous file atomically. It returns the written path.
func (s *Saver) SaveToDir(dir string) (string, error) {
	art, err := s.Generate()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, art.Name)
	if err := writeFileAtomic(path, art.Body); err != nil {
		return "", s.downloadFailed(art, err)
	}
	s.sess.Status().Set(StatusSaved, session.LevelSuccess, s.opts.SuccessTTL)
	return path, nil
}

func (s *Saver) downloadFailed(art *Artifact, err error) error {
	s.sess.Status().Set(StatusDownloadError+err.Error(), session.LevelError, s.opts.ErrorTTL)
	return &DownloadError{Name: art.Name, Err: err}
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pagedit-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
