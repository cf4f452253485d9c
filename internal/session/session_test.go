package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func TestIDsDeterministic(t *testing.T) {
	a, b := NewIDs([]byte("page")), NewIDs([]byte("page"))
	for i := 0; i < 5; i++ {
		x, y := a.New(PrefixText), b.New(PrefixText)
		if x != y {
			t.Fatalf("ids diverged at %d: %q vs %q", i, x, y)
		}
		if !IsGenerated(x) {
			t.Errorf("IsGenerated(%q) = false", x)
		}
	}
	if NewIDs([]byte("other")).New(PrefixText) == NewIDs([]byte("page")).New(PrefixText) {
		t.Error("different seeds produced the same id")
	}
}

func TestIsGenerated(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"text-0123456789ab", true},
		{"img-abcdefabcdef", true},
		{"text-intro", false},
		{"hero", false},
		{"text-0123456789AB", false},
		{"product-name-0", false},
		{"product-name-00112233aabb", true},
	}
	for _, tt := range tests {
		if got := IsGenerated(tt.id); got != tt.want {
			t.Errorf("IsGenerated(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestMutatePublishes(t *testing.T) {
	s, err := Open(strings.NewReader(`<p>x</p>`))
	if err != nil {
		t.Fatal(err)
	}
	ch, cancel := s.Subscribe(4)
	defer cancel()

	if err := s.Mutate(KindText, "t1", func(doc *goquery.Document) error { return nil }); err != nil {
		t.Fatal(err)
	}
	select {
	case m := <-ch:
		if m.Kind != KindText || m.Target != "t1" || m.Seq != 1 {
			t.Errorf("unexpected mutation %+v", m)
		}
	default:
		t.Fatal("expected a mutation notice")
	}

	boom := errors.New("boom")
	if err := s.Mutate(KindText, "t2", func(*goquery.Document) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	select {
	case m := <-ch:
		t.Errorf("failed mutation was published: %+v", m)
	default:
	}

	if err := s.Mutate(KindIdentity, "", func(*goquery.Document) error { return ErrUnchanged }); err != nil {
		t.Fatalf("unchanged mutation returned %v", err)
	}
	select {
	case m := <-ch:
		t.Errorf("unchanged mutation was published: %+v", m)
	default:
	}
}

func TestClose(t *testing.T) {
	s, _ := Open(strings.NewReader(`<p>x</p>`))
	ch, _ := s.Subscribe(1)
	s.Close()
	if _, ok := <-ch; ok {
		t.Error("expected subscriber channel to be closed")
	}
	if err := s.View(func(*goquery.Document) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("View after Close = %v, want ErrClosed", err)
	}
}

func TestStatusExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, _ := Open(strings.NewReader(`<p>x</p>`), WithClock(func() time.Time { return now }))

	s.Status().Set("Saving...", LevelBusy, 0)
	if got := s.Status().Current().Text; got != "Saving..." {
		t.Errorf("status = %q", got)
	}
	s.Status().Set("✓ Saved! HTML file downloaded.", LevelSuccess, 3*time.Second)
	now = now.Add(2 * time.Second)
	if got := s.Status().Current().Level; got != LevelSuccess {
		t.Errorf("level = %q before expiry", got)
	}
	now = now.Add(time.Second)
	if got := s.Status().Current(); got.Text != "" {
		t.Errorf("expected cleared status, got %+v", got)
	}
}
