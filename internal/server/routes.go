package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/pagedit/internal/editor"
	"github.com/ziadkadry99/pagedit/internal/gallery"
	"github.com/ziadkadry99/pagedit/internal/ingest"
	"github.com/ziadkadry99/pagedit/internal/serializer"
	"github.com/ziadkadry99/pagedit/internal/session"
	"github.com/ziadkadry99/pagedit/internal/surface"
)

// registerAPI wires up the editing REST API endpoints.
func registerAPI(r chi.Router, s *Server) {
	h := &routeHandler{ed: s.ed, maxUpload: s.cfg.MaxUpload}
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.status)
		r.Get("/save", h.save)

		r.Get("/texts", h.listTexts)
		r.Put("/texts/{id}", h.setText)
		r.Delete("/texts/{id}", h.deleteText)

		r.Get("/sections", h.listSections)
		r.Delete("/sections/{i}", h.deleteSection)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Post("/", h.addProduct)
			r.Route("/{p}", func(r chi.Router) {
				r.Delete("/", h.removeProduct)
				r.Put("/name", h.setName)
				r.Post("/carousel/{action}", h.navigate)
				r.Post("/photos", h.addPhoto)
				r.Route("/photos/{n}", func(r chi.Router) {
					r.Delete("/", h.deletePhoto)
					r.Post("/image", h.upload)
					r.Post("/scale", h.scale)
					r.Post("/crop", h.crop)
				})
			})
		})

		r.Route("/images/{id}", func(r chi.Router) {
			r.Post("/", h.upload)
			r.Post("/scale", h.scale)
			r.Post("/crop", h.crop)
		})
	})
}

type routeHandler struct {
	ed        *editor.Editor
	maxUpload int64
}

func (h *routeHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ed.Status())
}

func (h *routeHandler) save(w http.ResponseWriter, r *http.Request) {
	art, err := h.ed.Generate()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+art.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Body)))
	if _, err := w.Write(art.Body); err != nil {
		// The headers are gone, only the status line can tell.
		h.ed.Session().Status().Set(serializer.StatusDownloadError+err.Error(), session.LevelError, serializer.DefaultOptions().ErrorTTL)
		return
	}
	h.ed.Session().Status().Set(serializer.StatusSaved, session.LevelSuccess, serializer.DefaultOptions().SuccessTTL)
}

func (h *routeHandler) listTexts(w http.ResponseWriter, r *http.Request) {
	texts, err := h.ed.Texts()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, texts)
}

type setTextRequest struct {
	Markup   *string `json:"markup,omitempty"`
	Markdown *string `json:"markdown,omitempty"`
}

func (h *routeHandler) setText(w http.ResponseWriter, r *http.Request) {
	var req setTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	id := chi.URLParam(r, "id")
	var err error
	switch {
	case req.Markdown != nil:
		err = h.ed.SetMarkdown(id, *req.Markdown)
	case req.Markup != nil:
		err = h.ed.SetText(id, *req.Markup)
	default:
		badRequest(w, "markup or markdown is required")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *routeHandler) deleteText(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.ed.DeleteText(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *routeHandler) listSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.ed.Sections()
	if err != nil {
		writeError(w, err)
		return
	}
	if sections == nil {
		sections = []editor.Section{}
	}
	writeJSON(w, http.StatusOK, sections)
}

func (h *routeHandler) deleteSection(w http.ResponseWriter, r *http.Request) {
	i, ok := intParam(w, r, "i")
	if !ok {
		return
	}
	deleted, err := h.ed.DeleteSection(i)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *routeHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.ed.Products()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

type nameRequest struct {
	Name string `json:"name"`
}

func (h *routeHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid request body")
			return
		}
	}
	index, err := h.ed.AddProduct(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"index": index})
}

func (h *routeHandler) removeProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := intParam(w, r, "p")
	if !ok {
		return
	}
	if err := h.ed.RemoveProduct(p); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *routeHandler) setName(w http.ResponseWriter, r *http.Request) {
	p, ok := intParam(w, r, "p")
	if !ok {
		return
	}
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := h.ed.SetName(p, req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"index": p, "name": req.Name})
}

func (h *routeHandler) navigate(w http.ResponseWriter, r *http.Request) {
	p, ok := intParam(w, r, "p")
	if !ok {
		return
	}
	var nav editor.Nav
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&nav); err != nil {
			badRequest(w, "invalid request body")
			return
		}
	}
	nav.Action = chi.URLParam(r, "action")
	// Keys reach the API only from an on-screen carousel with no field focused.
	nav.Focus.InViewport = true
	st, err := h.ed.Navigate(p, nav)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *routeHandler) addPhoto(w http.ResponseWriter, r *http.Request) {
	p, ok := intParam(w, r, "p")
	if !ok {
		return
	}
	n, err := h.ed.AddPhoto(p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"index": n})
}

func (h *routeHandler) deletePhoto(w http.ResponseWriter, r *http.Request) {
	p, ok := intParam(w, r, "p")
	if !ok {
		return
	}
	n, ok := intParam(w, r, "n")
	if !ok {
		return
	}
	deleted, err := h.ed.DeletePhoto(p, n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// target reads the image address of a photo or image route.
func target(w http.ResponseWriter, r *http.Request) (editor.Target, bool) {
	if id := chi.URLParam(r, "id"); id != "" {
		return editor.ElementTarget(id), true
	}
	p, ok := intParam(w, r, "p")
	if !ok {
		return editor.Target{}, false
	}
	n, ok := intParam(w, r, "n")
	if !ok {
		return editor.Target{}, false
	}
	return editor.PhotoTarget(p, n), true
}

func (h *routeHandler) upload(w http.ResponseWriter, r *http.Request) {
	t, ok := target(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
			return
		}
		badRequest(w, "multipart field \"image\" is required")
		return
	}
	defer file.Close()
	if err := h.ed.Upload(r.Context(), t, file, header.Filename); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"target": t.String()})
}

type scaleRequest struct {
	Delta float64 `json:"delta"`
	Reset bool    `json:"reset"`
}

func (h *routeHandler) scale(w http.ResponseWriter, r *http.Request) {
	t, ok := target(w, r)
	if !ok {
		return
	}
	var req scaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	scale := float64(surface.DefaultScale)
	var err error
	if req.Reset {
		err = h.ed.ResetScale(t)
	} else {
		scale, err = h.ed.Scale(t, req.Delta)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"scale": scale})
}

func (h *routeHandler) crop(w http.ResponseWriter, r *http.Request) {
	t, ok := target(w, r)
	if !ok {
		return
	}
	c := surface.DefaultCrop
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := h.ed.Crop(t, c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		badRequest(w, name+" must be an integer")
		return 0, false
	}
	return v, true
}

// statusFor maps editor errors onto HTTP statuses.
func statusFor(err error) int {
	var ge *serializer.GenerateError
	switch {
	case errors.Is(err, editor.ErrProductNotFound),
		errors.Is(err, editor.ErrPhotoNotFound),
		errors.Is(err, editor.ErrTextNotFound),
		errors.Is(err, editor.ErrSectionNotFound),
		errors.Is(err, editor.ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrUnreadable),
		errors.Is(err, surface.ErrInvalidCrop),
		errors.Is(err, surface.ErrNotEditable),
		errors.Is(err, editor.ErrNotDeletable),
		errors.Is(err, editor.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, gallery.ErrNoGallery):
		return http.StatusConflict
	case errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &ge):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
