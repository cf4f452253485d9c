package server

import (
	_ "embed"
	"net/http"
	"strings"
)

//go:embed editor.js
var editorJS []byte

// clientTag loads the browser half of the editor. It never reaches a saved
// page because the page is always regenerated from the document.
const clientTag = `<script src="/editor.js" data-editor-only></script>`

func serveClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(editorJS)
}

// handlePage renders the live editable document with the client attached.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, err := s.ed.HTML()
	if err != nil {
		writeError(w, err)
		return
	}
	if i := strings.LastIndex(page, "</body>"); i >= 0 {
		page = page[:i] + clientTag + page[i:]
	} else {
		page += clientTag
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(page))
}
