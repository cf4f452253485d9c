package walker

import "bytes"

// Kind classifies a page by the markup pagedit leaves in it.
type Kind string

const (
	// KindStatic is a page pagedit has not touched.
	KindStatic Kind = "static"
	// KindEditable carries editing controls.
	KindEditable Kind = "editable"
	// KindSaved is a page pagedit saved; it carries the carousel runtime.
	KindSaved Kind = "saved"
)

var (
	editableMarkers = [][]byte{
		[]byte(`contenteditable="true"`),
		[]byte(`product-name-input`),
		[]byte(`data-has-listeners`),
	}
	savedMarker = []byte(`data-carousel-runtime`)
)

// DetectKind classifies page content.
func DetectKind(content []byte) Kind {
	for _, m := range editableMarkers {
		if bytes.Contains(content, m) {
			return KindEditable
		}
	}
	if bytes.Contains(content, savedMarker) {
		return KindSaved
	}
	return KindStatic
}
