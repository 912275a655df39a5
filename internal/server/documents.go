package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/flowchart"
	"github.com/matzehuels/flowsketch/pkg/layout"
	"github.com/matzehuels/flowsketch/pkg/pipeline"
	"github.com/matzehuels/flowsketch/pkg/render"
	"github.com/matzehuels/flowsketch/pkg/store"
)

type documentList struct {
	Documents []*store.Record `json:"documents"`
}

// refinedRecord is a stored record together with how it was produced.
type refinedRecord struct {
	*store.Record
	Fallback bool   `json:"fallback"`
	Note     string `json:"note,omitempty"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentList{Documents: recs})
}

// handleCreateDocument stores a document after validating and repairing it.
// The body has the same shapes the import route accepts.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.runner.Import(r.Context(), data)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.store.Create(r.Context(), res.Document)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/documents/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleReplaceDocument(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.runner.Import(r.Context(), data)
	if err != nil {
		writeError(w, err)
		return
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()
	rec, err := s.store.Replace(r.Context(), chi.URLParam(r, "id"), res.Document)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type refineDocumentRequest struct {
	Instruction string `json:"instruction"`
	DetailLevel string `json:"detailLevel"`
	Audience    string `json:"audience"`
}

// handleRefineDocument refines a stored document and stores the result in
// its place.
func (s *Server) handleRefineDocument(w http.ResponseWriter, r *http.Request) {
	var req refineDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.runner.Refine(r.Context(), pipeline.RefineRequest{
		Document:    rec.Document,
		Instruction: req.Instruction,
		DetailLevel: req.DetailLevel,
		Audience:    req.Audience,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()
	rec, err = s.store.Replace(r.Context(), id, res.Document)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refinedRecord{Record: rec, Fallback: res.Fallback, Note: res.Note})
}

// =============================================================================
// Edits
// =============================================================================

// edit applies fn to the stored document and writes the result back. fn
// returns the value sent to the client.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, status int, fn func(doc *flowchart.Document) (any, error)) {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := fn(rec.Document)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.store.Replace(r.Context(), id, rec.Document); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, out)
}

// nodePatch changes only the fields that are present.
type nodePatch struct {
	Label   *string             `json:"label"`
	Type    *flowchart.NodeType `json:"type"`
	Details *string             `json:"details"`
	Notes   *string             `json:"notes"`
}

func (s *Server) handlePatchNode(w http.ResponseWriter, r *http.Request) {
	var patch nodePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	s.edit(w, r, http.StatusOK, func(doc *flowchart.Document) (any, error) {
		n, ok := doc.Node(nodeID)
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "node %q not found", nodeID)
		}
		if patch.Label != nil {
			if err := doc.SetNodeLabel(nodeID, *patch.Label); err != nil {
				return nil, err
			}
		}
		if patch.Details != nil || patch.Notes != nil {
			details, notes := n.Details, n.Notes
			if patch.Details != nil {
				details = *patch.Details
			}
			if patch.Notes != nil {
				notes = *patch.Notes
			}
			if err := doc.SetNodeDetails(nodeID, details, notes); err != nil {
				return nil, err
			}
		}
		if patch.Type != nil {
			if err := doc.SetNodeType(nodeID, *patch.Type); err != nil {
				return nil, err
			}
		}
		n, _ = doc.Node(nodeID)
		return n, nil
	})
}

type addEdgeRequest struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Label     string `json:"label"`
	Condition string `json:"condition"`
}

func (s *Server) handleAddEdge(w http.ResponseWriter, r *http.Request) {
	var req addEdgeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.edit(w, r, http.StatusCreated, func(doc *flowchart.Document) (any, error) {
		return doc.AddEdge(req.Source, req.Target, req.Label, req.Condition)
	})
}

func (s *Server) handleRemoveEdge(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeID")
	s.edit(w, r, http.StatusOK, func(doc *flowchart.Document) (any, error) {
		if err := doc.RemoveEdge(edgeID); err != nil {
			return nil, err
		}
		return doc, nil
	})
}

// handleSetPalette applies a palette candidate. Invalid colors keep the
// current palette; the palette in effect is returned either way.
func (s *Server) handleSetPalette(w http.ResponseWriter, r *http.Request) {
	var candidate json.RawMessage
	if err := decodeJSON(w, r, &candidate); err != nil {
		writeError(w, err)
		return
	}
	var v any
	if err := json.Unmarshal(candidate, &v); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid palette"))
		return
	}
	s.edit(w, r, http.StatusOK, func(doc *flowchart.Document) (any, error) {
		return doc.SetPalette(v), nil
	})
}

// =============================================================================
// Rendering
// =============================================================================

func (s *Server) handleDocumentLayout(w http.ResponseWriter, r *http.Request) {
	o, err := layout.ParseOrientation(r.URL.Query().Get("orientation"))
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeLayout(w, r, rec.Document, o)
}

func (s *Server) handleDocumentExport(w http.ResponseWriter, r *http.Request) {
	f, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, err)
		return
	}
	o, err := layout.ParseOrientation(r.URL.Query().Get("orientation"))
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeExport(w, r, rec.Document, o, f)
}
