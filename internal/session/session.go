// Package session owns the document being edited. Every read and mutation
// goes through a Session, which serializes them and announces each change
// to subscribers.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ziadkadry99/pagedit/internal/dom"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// ErrUnchanged may be returned by a Mutate callback that ended up changing
// nothing. Mutate then returns nil without announcing a mutation.
var ErrUnchanged = errors.New("document unchanged")

// Kind classifies a mutation.
type Kind string

const (
	KindText      Kind = "text"
	KindName      Kind = "name"
	KindImage     Kind = "image"
	KindCarousel  Kind = "carousel"
	KindStructure Kind = "structure"
	KindIdentity  Kind = "identity"
	KindStatus    Kind = "status"
)

// Structural reports whether mutations of this kind can introduce nodes that
// still need editing affordances.
func (k Kind) Structural() bool {
	return k == KindStructure || k == KindImage
}

// Mutation describes one applied change.
type Mutation struct {
	Seq    uint64 `json:"seq"`
	Kind   Kind   `json:"kind"`
	Target string `json:"target,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the clock used for status expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithSeed overrides the identifier seed.
func WithSeed(seed []byte) Option {
	return func(s *Session) { s.seed = seed }
}

// Session owns one document.
type Session struct {
	mu     sync.Mutex
	doc    *goquery.Document
	ids    *IDs
	status *Status
	closed bool
	seq    uint64
	seed   []byte
	now    func() time.Time

	subMu sync.Mutex
	subs  map[int]chan Mutation
	next  int
}

// New wraps an already parsed document.
func New(doc *goquery.Document, opts ...Option) *Session {
	s := &Session{doc: doc, subs: make(map[int]chan Mutation)}
	for _, o := range opts {
		o(s)
	}
	if s.seed == nil {
		rendered, err := dom.Render(doc.Get(0))
		if err != nil {
			log.Printf("session: rendering seed: %v", err)
		}
		s.seed = []byte(rendered)
	}
	s.ids = NewIDs(s.seed)
	s.status = newStatus(s.now)
	s.status.onSet = func(m StatusMessage) {
		s.publish(KindStatus, m.Text)
	}
	return s
}

// Open parses r and wraps the result. The raw bytes seed the identifiers.
func Open(r io.Reader, opts ...Option) (*Session, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	doc, err := dom.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return New(doc, append([]Option{WithSeed(raw)}, opts...)...), nil
}

// IDs returns the identifier generator.
func (s *Session) IDs() *IDs { return s.ids }

// Status returns the status slot.
func (s *Session) Status() *Status { return s.status }

// View runs fn with exclusive read access to the document.
func (s *Session) View(fn func(doc *goquery.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return fn(s.doc)
}

// Mutate runs fn with exclusive access and announces the change when fn
// succeeds.
func (s *Session) Mutate(kind Kind, target string, fn func(doc *goquery.Document) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	err := fn(s.doc)
	s.mu.Unlock()
	if errors.Is(err, ErrUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	s.publish(kind, target)
	return nil
}

// Subscribe registers for mutation notices. Slow subscribers miss notices
// rather than block writers. The returned func unsubscribes.
func (s *Session) Subscribe(buffer int) (<-chan Mutation, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Mutation, buffer)
	s.subMu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
			s.subMu.Unlock()
		})
	}
}

func (s *Session) publish(kind Kind, target string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.seq++
	m := Mutation{Seq: s.seq, Kind: kind, Target: target}
	for _, ch := range s.subs {
		select {
		case ch <- m:
		default:
		}
	}
}

// Close tears the session down. Subscribers' channels are closed.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.subMu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subMu.Unlock()
}
