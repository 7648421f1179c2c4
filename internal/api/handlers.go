package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sydlexius/colophon/internal/source"
	"github.com/sydlexius/colophon/internal/version"
)

// resolveRequest is the POST /api/v1/resolve body: the hint plus an optional
// per-request source override. When Sources is omitted the server's
// configured set is used.
type resolveRequest struct {
	Hint    source.Hint     `json:"hint"`
	Sources *source.Options `json:"sources,omitempty"`
}

type resolveResponse struct {
	Candidates []source.Candidate `json:"candidates"`
	Count      int                `json:"count"`
}

func (r *Router) handleResolve(w http.ResponseWriter, req *http.Request) {
	var body resolveRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if emptyHint(body.Hint) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "hint must carry at least one of title, isbn, or doi"})
		return
	}

	opts := r.options
	if body.Sources != nil {
		opts = *body.Sources
	}

	candidates := r.resolver.Resolve(req.Context(), body.Hint, opts)
	if candidates == nil {
		candidates = []source.Candidate{}
	}
	writeJSON(w, http.StatusOK, resolveResponse{Candidates: candidates, Count: len(candidates)})
}

func emptyHint(h source.Hint) bool {
	return strings.TrimSpace(h.ExtractedTitle) == "" &&
		strings.TrimSpace(h.FileNameTitle) == "" &&
		strings.TrimSpace(h.ISBN) == "" &&
		strings.TrimSpace(h.DOI) == "" &&
		len(h.QueryCandidates) == 0
}

type sourceInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Enabled     bool   `json:"enabled"`
	Registered  bool   `json:"registered"`
}

func (r *Router) handleSources(w http.ResponseWriter, req *http.Request) {
	var out []sourceInfo
	for _, name := range source.AllNames() {
		out = append(out, sourceInfo{
			Name:        string(name),
			DisplayName: name.DisplayName(),
			Enabled:     r.options.Enabled(name),
			Registered:  r.registry.Get(name) != nil,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": out})
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
	}
}
