package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/pagedit/internal/editor"
	"github.com/ziadkadry99/pagedit/internal/gallery"
	"github.com/ziadkadry99/pagedit/internal/session"
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

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	raw, err := os.ReadFile("../../testdata/pages/landing.html")
	if err != nil {
		t.Fatal(err)
	}
	ed, err := editor.Open(bytes.NewReader(raw), editor.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(ed.Close)
	return New(cfg, ed)
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, Config{})
	w := do(t, srv, "GET", "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestRunServesUntilCancelled(t *testing.T) {
	srv := newTestServer(t, Config{Host: "127.0.0.1"})
	ctx, cancel := context.WithCancel(context.Background())
	urls := make(chan string, 1)
	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx, func(url string) { urls <- url }) }()

	var url string
	select {
	case url = <-urls:
	case err := <-errc:
		t.Fatalf("Run: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	resp, err := http.Get(url + "healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run returned %v after cancel", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t, Config{AllowAll: true})

	req := httptest.NewRequest("OPTIONS", "/api/products", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestPageCarriesClient(t *testing.T) {
	srv := newTestServer(t, Config{})
	w := do(t, srv, "GET", "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	page := w.Body.String()
	if !strings.HasPrefix(page, "<!DOCTYPE html>") {
		t.Errorf("page does not start with a doctype: %.40q", page)
	}
	if !strings.Contains(page, clientTag+"</body>") {
		t.Error("client script not injected before </body>")
	}
	if !strings.Contains(page, gallery.NameInputClass) {
		t.Error("page is not prepared for editing")
	}

	js := do(t, srv, "GET", "/editor.js", nil)
	if ct := js.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("editor.js content type = %q", ct)
	}
	if js.Body.Len() == 0 {
		t.Error("editor.js is empty")
	}
}

func TestProductsAndNames(t *testing.T) {
	srv := newTestServer(t, Config{})

	var products []gallery.Product
	decode(t, do(t, srv, "GET", "/api/products", nil), &products)
	if len(products) != 3 || products[1].Name != "Silver Ring" {
		t.Fatalf("products = %+v", products)
	}

	w := do(t, srv, "PUT", "/api/products/1/name", map[string]string{"name": "Gold Ring"})
	if w.Code != http.StatusOK {
		t.Fatalf("set name: %d %s", w.Code, w.Body)
	}

	w = do(t, srv, "POST", "/api/products", map[string]string{"name": "Bracelet"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add product: %d %s", w.Code, w.Body)
	}
	var added map[string]int
	decode(t, w, &added)
	if added["index"] != 3 {
		t.Errorf("added index = %d", added["index"])
	}

	decode(t, do(t, srv, "GET", "/api/products", nil), &products)
	if len(products) != 4 || products[1].Name != "Gold Ring" || products[3].Name != "Bracelet" {
		t.Errorf("products after edit = %+v", products)
	}

	if w := do(t, srv, "DELETE", "/api/products/3", nil); w.Code != http.StatusNoContent {
		t.Errorf("remove product: %d", w.Code)
	}
}

func TestSetText(t *testing.T) {
	srv := newTestServer(t, Config{})

	var texts []editor.Text
	decode(t, do(t, srv, "GET", "/api/texts", nil), &texts)
	var id string
	for _, txt := range texts {
		if txt.Tag == "p" && strings.HasPrefix(txt.Content, "Handmade") {
			id = txt.ID
		}
	}
	if id == "" {
		t.Fatalf("intro text not listed: %+v", texts)
	}

	w := do(t, srv, "PUT", "/api/texts/"+id, map[string]string{"markdown": "Made in *Porto*"})
	if w.Code != http.StatusOK {
		t.Fatalf("set text: %d %s", w.Code, w.Body)
	}
	decode(t, do(t, srv, "GET", "/api/texts", nil), &texts)
	for _, txt := range texts {
		if txt.ID == id && !strings.Contains(txt.Markup, "<em>Porto</em>") {
			t.Errorf("markup = %q", txt.Markup)
		}
	}

	if w := do(t, srv, "PUT", "/api/texts/"+id, map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty body: expected 400, got %d", w.Code)
	}
}

func TestErrorStatuses(t *testing.T) {
	srv := newTestServer(t, Config{})
	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown text", "PUT", "/api/texts/nope", map[string]string{"markup": "x"}, http.StatusNotFound},
		{"unknown product", "PUT", "/api/products/9/name", map[string]string{"name": "x"}, http.StatusNotFound},
		{"bad index", "DELETE", "/api/products/one", nil, http.StatusBadRequest},
		{"unknown photo", "DELETE", "/api/products/0/photos/5", nil, http.StatusNotFound},
		{"unknown action", "POST", "/api/products/0/carousel/spin", nil, http.StatusBadRequest},
		{"unknown image", "POST", "/api/images/nope/scale", map[string]float64{"delta": 10}, http.StatusNotFound},
		{"invalid crop", "POST", "/api/products/1/photos/0/crop", map[string]float64{"w": 120, "h": 100}, http.StatusBadRequest},
		{"missing upload", "POST", "/api/products/0/photos/0/image", nil, http.StatusBadRequest},
		{"delete unknown text", "DELETE", "/api/texts/nope", nil, http.StatusNotFound},
		{"delete unknown section", "DELETE", "/api/sections/7", nil, http.StatusNotFound},
		{"bad section index", "DELETE", "/api/sections/last", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body)
			}
		})
	}
}

func TestDeleteTextAndSection(t *testing.T) {
	srv := newTestServer(t, Config{})

	var texts []editor.Text
	decode(t, do(t, srv, "GET", "/api/texts", nil), &texts)
	id := ""
	for _, txt := range texts {
		if txt.Content == "Lisbon, Portugal" {
			id = txt.ID
		}
	}
	if id == "" {
		t.Fatal("footer text not listed")
	}
	var res map[string]bool
	w := do(t, srv, "DELETE", "/api/texts/"+id, nil)
	decode(t, w, &res)
	if w.Code != http.StatusOK || !res["deleted"] {
		t.Fatalf("delete text: %d %v", w.Code, res)
	}

	var sections []editor.Section
	decode(t, do(t, srv, "GET", "/api/sections", nil), &sections)
	if len(sections) != 2 || sections[0].Title != "Crafted by hand" {
		t.Fatalf("sections = %+v", sections)
	}
	w = do(t, srv, "DELETE", "/api/sections/0", nil)
	decode(t, w, &res)
	if w.Code != http.StatusOK || !res["deleted"] {
		t.Fatalf("delete section: %d %v", w.Code, res)
	}

	out := do(t, srv, "GET", "/api/save", nil).Body.String()
	for _, gone := range []string{"Lisbon, Portugal", "Crafted by hand"} {
		if strings.Contains(out, gone) {
			t.Errorf("saved page still contains %q", gone)
		}
	}
	if !strings.Contains(out, "Collection") {
		t.Error("remaining section was dropped")
	}
}

func TestPhotosAndNavigation(t *testing.T) {
	srv := newTestServer(t, Config{})

	for i := 1; i <= 2; i++ {
		w := do(t, srv, "POST", "/api/products/1/photos", nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("add photo: %d %s", w.Code, w.Body)
		}
		var got map[string]int
		decode(t, w, &got)
		if got["index"] != i {
			t.Errorf("photo index = %d, want %d", got["index"], i)
		}
	}

	var st struct {
		Index int `json:"index"`
		Count int `json:"count"`
	}
	decode(t, do(t, srv, "POST", "/api/products/1/carousel/goto", map[string]int{"index": 2}), &st)
	if st.Index != 2 {
		t.Errorf("after goto index = %d", st.Index)
	}
	decode(t, do(t, srv, "POST", "/api/products/1/carousel/prev", nil), &st)
	if st.Index != 1 {
		t.Errorf("after prev index = %d", st.Index)
	}
	decode(t, do(t, srv, "POST", "/api/products/1/carousel/key", map[string]string{"key": "ArrowRight"}), &st)
	if st.Index != 2 {
		t.Errorf("after key index = %d", st.Index)
	}

	var del map[string]bool
	decode(t, do(t, srv, "DELETE", "/api/products/1/photos/0", nil), &del)
	if !del["deleted"] {
		t.Error("photo not deleted")
	}
	var products []gallery.Product
	decode(t, do(t, srv, "GET", "/api/products", nil), &products)
	if products[1].Photos != 2 {
		t.Errorf("photos = %d, want 2", products[1].Photos)
	}
}

func TestUploadScaleAndSave(t *testing.T) {
	srv := newTestServer(t, Config{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "necklace.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(pixel)
	mw.Close()

	req := httptest.NewRequest("POST", "/api/products/0/photos/0/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", w.Code, w.Body)
	}

	var scale map[string]float64
	decode(t, do(t, srv, "POST", "/api/products/0/photos/0/scale", map[string]float64{"delta": 20}), &scale)
	if scale["scale"] != 120 {
		t.Errorf("scale = %v", scale["scale"])
	}
	decode(t, do(t, srv, "POST", "/api/products/0/photos/0/scale", map[string]bool{"reset": true}), &scale)
	if scale["scale"] != 100 {
		t.Errorf("reset scale = %v", scale["scale"])
	}

	w = do(t, srv, "GET", "/api/save", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("save: %d %s", w.Code, w.Body)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="index.html"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	saved := w.Body.String()
	if !strings.Contains(saved, "data:image/png;base64,") {
		t.Error("uploaded image missing from saved page")
	}
	if strings.Contains(saved, "data-editor-only") || strings.Contains(saved, "contenteditable") {
		t.Error("editor markup leaked into saved page")
	}

	var st session.StatusMessage
	decode(t, do(t, srv, "GET", "/api/status", nil), &st)
	if st.Level != session.LevelSuccess {
		t.Errorf("status = %+v", st)
	}
}

func TestUploadTooLarge(t *testing.T) {
	srv := newTestServer(t, Config{MaxUpload: 1024})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("image", "big.png")
	part.Write(bytes.Repeat([]byte{0}, 4096))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/products/0/photos/0/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

func TestWebSocketStreamsMutations(t *testing.T) {
	srv := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	resp, err := http.Post(ts.URL+"/api/products/2/photos", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != "mutation" || ev.Kind != session.KindStructure || ev.Target != "product-2" {
		t.Errorf("event = %+v", ev)
	}

	srv.Editor().Session().Status().Set("Uploading", session.LevelBusy, 0)
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != "status" || ev.Status == nil || ev.Status.Text != "Uploading" {
		t.Errorf("status event = %+v", ev)
	}
}
