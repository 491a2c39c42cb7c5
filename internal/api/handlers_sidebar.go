package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/parser"
	"github.com/dgallion1/docnav/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

const maxOutlineBytes = 5 << 20

// handleSidebars returns every locale sidebar of the latest build.
func (s *Server) handleSidebars(w http.ResponseWriter, r *http.Request) {
	res := s.builds.Latest()
	if res == nil {
		jsonError(w, "no build available yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"build":    res.Summarize(),
		"sidebars": res.Sidebars,
	})
}

// handleLocaleSidebar returns the groups of a single locale.
func (s *Server) handleLocaleSidebar(w http.ResponseWriter, r *http.Request) {
	res := s.builds.Latest()
	if res == nil {
		jsonError(w, "no build available yet", http.StatusServiceUnavailable)
		return
	}
	locale := chi.URLParam(r, "locale")
	sb, ok := res.Sidebar(locale)
	if !ok {
		jsonError(w, fmt.Sprintf("unknown locale %q", locale), http.StatusNotFound)
		return
	}
	w.Header().Set("ETag", `"`+res.ContentHash+`"`)
	writeJSON(w, http.StatusOK, sb)
}

func (s *Server) handleGetBuild(w http.ResponseWriter, r *http.Request) {
	res := s.builds.GetBuild(chi.URLParam(r, "buildID"))
	if res == nil {
		jsonError(w, "build not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, res.Summarize())
}

// handleOutline builds the tree of a document posted as the request body.
// A document without headings yields 204.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	docID := r.URL.Query().Get("doc_id")
	if docID == "" {
		jsonError(w, "doc_id query parameter is required", http.StatusBadRequest)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "md"
	}
	p, err := parser.ForFile("document." + strings.TrimPrefix(format, "."))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxOutlineBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("document exceeds max size (%d bytes)", maxOutlineBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}

	node, err := p.Parse(bytes.NewReader(body), docID)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("ETag", `"`+pipeline.ContentHashHex(body)[:16]+`"`)
	if node == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// handleRebuild runs a synchronous build of the site.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	res, status, err := s.builds.Rebuild(r.Context())
	if err != nil {
		s.log.Error("rebuild failed", "error", err)
		code := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrPageNotFound) || errors.Is(err, config.ErrInvalidSite) || errors.Is(err, parser.ErrUnsupported) {
			code = http.StatusUnprocessableEntity
		}
		writeJSON(w, code, map[string]any{
			"status": pipeline.StatusFailed,
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"build":  res.Summarize(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
