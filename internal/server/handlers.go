package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowsketch/pkg/buildinfo"
	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/flowchart"
	"github.com/matzehuels/flowsketch/pkg/layout"
	"github.com/matzehuels/flowsketch/pkg/pipeline"
	"github.com/matzehuels/flowsketch/pkg/render"
)

type healthResponse struct {
	Status     string         `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	Build      buildinfo.Info `json:"build"`
	Completion string         `json:"completion"`
	Placer     string         `json:"placer"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	completion := "configured"
	if s.runner.Completer == nil {
		completion = "missing"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Timestamp:  time.Now().UTC(),
		Build:      buildinfo.Get(),
		Completion: completion,
		Placer:     s.runner.Engine.PlacerName(),
	})
}

// =============================================================================
// Pipeline
// =============================================================================

type generateRequest struct {
	Prompt      string `json:"prompt"`
	DetailLevel string `json:"detailLevel"`
	Audience    string `json:"audience"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.runner.Generate(r.Context(), pipeline.GenerateRequest{
		Prompt:      req.Prompt,
		DetailLevel: req.DetailLevel,
		Audience:    req.Audience,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type refineRequest struct {
	Document     json.RawMessage `json:"document"`
	SourcePrompt string          `json:"sourcePrompt"`
	Instruction  string          `json:"instruction"`
	DetailLevel  string          `json:"detailLevel"`
	Audience     string          `json:"audience"`
}

func (s *Server) handleRefine(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	doc, err := s.importDocument(r.Context(), req.Document, req.SourcePrompt)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.runner.Refine(r.Context(), pipeline.RefineRequest{
		Document:    doc,
		Instruction: req.Instruction,
		DetailLevel: req.DetailLevel,
		Audience:    req.Audience,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, res)
}

type layoutRequest struct {
	Document    json.RawMessage `json:"document"`
	Orientation string          `json:"orientation"`
}

// decodeLayoutRequest reads a document plus orientation body.
func (s *Server) decodeLayoutRequest(w http.ResponseWriter, r *http.Request) (*flowchart.Document, layout.Orientation, error) {
	var req layoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, "", err
	}
	o, err := layout.ParseOrientation(req.Orientation)
	if err != nil {
		return nil, "", err
	}
	doc, err := s.importDocument(r.Context(), req.Document, "")
	if err != nil {
		return nil, "", err
	}
	return doc, o, nil
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	doc, o, err := s.decodeLayoutRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeLayout(w, r, doc, o)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, err)
		return
	}
	doc, o, err := s.decodeLayoutRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeExport(w, r, doc, o, f)
}

func (s *Server) writeLayout(w http.ResponseWriter, r *http.Request, doc *flowchart.Document, o layout.Orientation) {
	res, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), doc, o)
	if err != nil {
		writeError(w, err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, doc *flowchart.Document, o layout.Orientation, f render.Format) {
	data, err := s.runner.Export(r.Context(), doc, o, f)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// importDocument validates and repairs a document carried inside a request
// body. A non-empty prompt becomes the document's source prompt.
func (s *Server) importDocument(ctx context.Context, raw json.RawMessage, prompt string) (*flowchart.Document, error) {
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "null" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "document is required")
	}
	res, err := s.runner.Import(ctx, []byte(raw))
	if err != nil {
		return nil, err
	}
	if prompt = strings.TrimSpace(prompt); prompt != "" {
		res.Document.SourcePrompt = prompt
	}
	return res.Document, nil
}
