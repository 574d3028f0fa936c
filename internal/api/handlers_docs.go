package api

import (
	"net/http"
	"strconv"

	"github.com/dgallion1/docoutline/internal/pathstore"
	"github.com/go-chi/chi/v5"
)

const defaultListLimit = 200

// pathstoreOr503 returns the pathstore client, or writes 503 when result
// publishing is disabled.
func (s *Server) pathstoreOr503(w http.ResponseWriter) *pathstore.Client {
	ps := s.orchestrator.PathstoreClient()
	if ps == nil {
		jsonError(w, "result publishing is disabled", http.StatusServiceUnavailable)
	}
	return ps
}

// handleListDocuments lists the meta of every published result.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ps := s.pathstoreOr503(w)
	if ps == nil {
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	docs, err := ps.ListDocuments(r.Context(), limit)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleGetDocument returns a published result as stored.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	ps := s.pathstoreOr503(w)
	if ps == nil {
		return
	}
	docID := chi.URLParam(r, "docID")
	raw, err := ps.GetResult(r.Context(), docID)
	if err != nil {
		jsonError(w, "failed to read document: "+err.Error(), http.StatusBadGateway)
		return
	}
	if raw == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

// handleDeleteDocument deletes a published result and its meta.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ps := s.pathstoreOr503(w)
	if ps == nil {
		return
	}
	docID := chi.URLParam(r, "docID")
	if err := ps.DeleteDocument(r.Context(), docID); err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusBadGateway)
		return
	}
	s.log.Info("deleted document", "doc_id", docID)
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "deleted": true})
}
