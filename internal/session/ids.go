package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Identifier prefixes for generated element ids. Ids carrying these
// prefixes are bookkeeping and never reach a saved page.
const (
	PrefixText  = "text-"
	PrefixImage = "img-"
	PrefixInput = "image-input-"
	PrefixPhoto = "photo-"
	PrefixName  = "product-name-"
)

const generatedSuffixLen = 12

// IDs hands out deterministic identifiers. Two generators seeded with the
// same bytes produce the same sequence, so an editing session replayed over
// the same page yields the same ids.
type IDs struct {
	mu   sync.Mutex
	ns   uuid.UUID
	next uint64
}

// NewIDs creates a generator namespaced by seed (typically the source page).
func NewIDs(seed []byte) *IDs {
	return &IDs{ns: uuid.NewSHA1(uuid.NameSpaceURL, seed)}
}

// New returns the next identifier for prefix.
func (g *IDs) New(prefix string) string {
	g.mu.Lock()
	g.next++
	n := g.next
	g.mu.Unlock()
	u := uuid.NewSHA1(g.ns, []byte(fmt.Sprintf("%s%d", prefix, n)))
	hex := strings.ReplaceAll(u.String(), "-", "")
	return prefix + hex[:generatedSuffixLen]
}

// IsGenerated reports whether id was produced by an IDs generator.
func IsGenerated(id string) bool {
	for _, p := range []string{PrefixText, PrefixImage, PrefixInput, PrefixPhoto, PrefixName} {
		if !strings.HasPrefix(id, p) {
			continue
		}
		rest := id[len(p):]
		if len(rest) != generatedSuffixLen {
			continue
		}
		if isHex(rest) {
			return true
		}
	}
	return false
}

func isHex(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

// Blank reports whether id is missing or unusable as an element id.
func Blank(id string) bool {
	id = strings.TrimSpace(id)
	return id == "" || id == "#"
}
