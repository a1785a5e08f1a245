package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wadjakorntonsri/shorturl/pkg/core/domain"
	"github.com/wadjakorntonsri/shorturl/pkg/ports"
)

// listingPath is where successful mutations send the client.
const listingPath = "/api/v1/mappings"

type HTTPHandler struct {
	mappings ports.MappingService
	resolver ports.Resolver
}

func NewHTTPHandler(mappings ports.MappingService, resolver ports.Resolver) *HTTPHandler {
	return &HTTPHandler{mappings: mappings, resolver: resolver}
}

// List all mappings with their display position
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	listed, err := h.mappings.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listed)
}

// Add a mapping owned by the caller
func (h *HTTPHandler) Add(w http.ResponseWriter, r *http.Request) {
	var form domain.MappingForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.mappings.Add(r.Context(), CallerID(r.Context()), form)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	seeListing(w, m)
}

// EditForm returns the current values of a mapping for pre-filling an edit form
func (h *HTTPHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	form, err := h.mappings.EditForm(r.Context(), CallerID(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// Edit a mapping owned by the caller
func (h *HTTPHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var form domain.MappingForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.mappings.Edit(r.Context(), CallerID(r.Context()), id, form)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	seeListing(w, m)
}

// Delete a mapping owned by the caller
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.mappings.Delete(r.Context(), CallerID(r.Context()), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", listingPath)
	w.WriteHeader(http.StatusSeeOther)
}

// RedirectTo resolves a URL-encoded short URL, e.g.
// /redirect/http:%2F%2Fshorturl.co%2Fgo%2Fabc or
// /redirect/http%3A%2F%2Fshorturl.co%2Fgo%2Fabc.
func (h *HTTPHandler) RedirectTo(w http.ResponseWriter, r *http.Request) {
	shortPath, err := redirectPath(chi.URLParam(r, "path"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.redirect(w, r, func() (string, error) {
		return h.resolver.Resolve(r.Context(), shortPath)
	})
}

// redirectPath decodes a raw path segment except for its %2F escapes,
// which the resolver turns into slashes itself.
func redirectPath(raw string) (string, error) {
	return url.PathUnescape(strings.ReplaceAll(raw, "%2F", "%252F"))
}

// RedirectCode serves the short URLs themselves: /go/{code}
func (h *HTTPHandler) RedirectCode(w http.ResponseWriter, r *http.Request) {
	h.redirect(w, r, func() (string, error) {
		return h.resolver.ResolveCode(r.Context(), chi.URLParam(r, "code"))
	})
}

func (h *HTTPHandler) redirect(w http.ResponseWriter, r *http.Request, resolve func() (string, error)) {
	target, err := resolve()
	if errors.Is(err, domain.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func seeListing(w http.ResponseWriter, m *domain.Mapping) {
	w.Header().Set("Location", listingPath)
	writeJSON(w, http.StatusSeeOther, m)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
