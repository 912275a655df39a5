package pipeline

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/matzehuels/flowsketch/pkg/completion"
	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/fallback"
	"github.com/matzehuels/flowsketch/pkg/flowchart"
	"github.com/matzehuels/flowsketch/pkg/observability"
	"github.com/matzehuels/flowsketch/pkg/palette"
	"github.com/matzehuels/flowsketch/pkg/repair"
)

// Generate creates a document from a prompt. See the package documentation
// for which failures are returned and which fall back to a template.
func (r *Runner) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	res, err := r.complete(ctx, "generate", generateMessage(req), req.Prompt, palette.ForPrompt(req.Prompt))
	if err != nil && absorbable(ctx, err) {
		r.Logger.Warn("generation failed, using starter template", "err", err)
		res, err = r.fallback(req.Prompt, req.DetailLevel, req.Audience, nil, err)
	}

	observability.Pipeline().OnGenerate(ctx, "generate", res != nil && res.Fallback, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("generated flowchart",
		"nodes", len(res.Document.Nodes),
		"edges", len(res.Document.Edges),
		"fallback", res.Fallback,
		"duration", time.Since(start))
	return res, nil
}

// Refine revises req.Document following req.Instruction. The current
// palette is kept unless the model returns a valid replacement.
func (r *Runner) Refine(ctx context.Context, req RefineRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	current, err := flowchart.MarshalDocument(req.Document)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode current document")
	}
	prompt := req.Document.SourcePrompt
	if prompt == "" {
		prompt = req.Instruction
	}

	res, err := r.complete(ctx, "refine", refineMessage(req, current), prompt, req.Document.Palette)
	if err != nil && absorbable(ctx, err) {
		r.Logger.Warn("refinement failed, using starter template", "err", err)
		res, err = r.fallback(prompt, req.DetailLevel, req.Audience, req.Document.Palette, err)
	}

	observability.Pipeline().OnGenerate(ctx, "refine", res != nil && res.Fallback, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("refined flowchart",
		"nodes", len(res.Document.Nodes),
		"edges", len(res.Document.Edges),
		"fallback", res.Fallback,
		"duration", time.Since(start))
	return res, nil
}

// Import normalizes and repairs a user supplied document. data is JSON
// text or an already decoded value. A top-level "sourcePrompt" string is
// carried onto the document. Schema and shape errors are returned.
func (r *Runner) Import(ctx context.Context, data any) (*Result, error) {
	if b, ok := data.([]byte); ok {
		var v any
		if err := json.Unmarshal(b, &v); err != nil {
			err = errors.Schema([]string{"/: invalid JSON: " + err.Error()})
			observability.Pipeline().OnRepair(ctx, "import", 0, 0, false, err)
			return nil, err
		}
		data = v
	}

	rep, err := repair.Repair(data, importedPrompt(data), nil)
	if err != nil {
		observability.Pipeline().OnRepair(ctx, "import", 0, 0, false, err)
		return nil, err
	}
	observability.Pipeline().OnRepair(ctx, "import", len(rep.Document.Nodes), len(rep.Document.Edges), rep.Report.Changed(), nil)

	r.Logger.Info("imported flowchart",
		"nodes", len(rep.Document.Nodes),
		"edges", len(rep.Document.Edges),
		"dropped_edges", rep.Report.DroppedEdges,
		"renamed_nodes", rep.Report.RenamedNodes)
	return newResult(rep), nil
}

// complete asks the model and repairs its answer.
func (r *Runner) complete(ctx context.Context, mode string, req *completion.Request, sourcePrompt string, fallbackPalette any) (*Result, error) {
	resp, err := completion.Complete(ctx, r.Completer, req)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("completion received",
		"mode", mode,
		"model", resp.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens)

	rep, err := repair.Repair([]byte(completion.StripFences(resp.Content)), sourcePrompt, fallbackPalette)
	if err != nil {
		observability.Pipeline().OnRepair(ctx, mode, 0, 0, false, err)
		return nil, errors.Wrap(errors.ErrCodeCompletion, err, "model output is not a usable flowchart")
	}
	observability.Pipeline().OnRepair(ctx, mode, len(rep.Document.Nodes), len(rep.Document.Edges), rep.Report.Changed(), nil)
	return newResult(rep), nil
}

// fallback returns the starter template. A non-nil keep palette replaces the
// keyword-picked one (refine keeps the current look).
func (r *Runner) fallback(prompt, detailLevel, audience string, keep any, cause error) (*Result, error) {
	doc := fallback.Synthesize(prompt, detailLevel, audience)
	if keep != nil {
		doc.SetPalette(keep)
	}
	rep, err := repair.Repair(doc, doc.SourcePrompt, doc.Palette)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "starter template failed validation")
	}
	res := newResult(rep)
	res.Fallback = true
	res.Note = fallback.Note(cause)
	return res, nil
}

// absorbable reports whether a generation failure falls back to the
// template. Missing credentials and caller cancellation are returned.
func absorbable(ctx context.Context, err error) bool {
	if completion.IsMissingCredential(err) {
		return false
	}
	if stderrors.Is(err, context.Canceled) && ctx.Err() != nil {
		return false
	}
	return true
}

func importedPrompt(v any) string {
	shaped, err := repair.NormalizeShape(v)
	if err != nil {
		return ""
	}
	s, _ := shaped["sourcePrompt"].(string)
	return s
}
