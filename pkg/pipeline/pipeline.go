// Package pipeline drives flowchart generation end to end.
//
// A [Runner] ties together the completion provider, the repairer, the
// fallback synthesizer and the layout engine so the CLI and the HTTP server
// share one code path:
//
//  1. Generate/Refine: prompt the model, strip code fences, decode,
//     normalize the shape and repair the result
//  2. Import: normalize and repair a user supplied document
//  3. Layout/Export: lay out a document (cached) and render artifacts
//
// # Failure policy
//
// Schema and shape errors are fatal on import. A missing credential is
// always returned to the caller. Any other generate or refine failure
// (transport errors, timeouts, unparsable or invalid model output) is
// absorbed: the result holds a synthesized starter document with
// Fallback set and a human readable Note.
//
// # Usage
//
//	runner := pipeline.NewRunner(client, layout.NewEngine(nil), c, nil, logger)
//	res, err := runner.Generate(ctx, pipeline.GenerateRequest{Prompt: "Onboard a new hire"})
//	if err != nil {
//	    return err // missing credential or invalid prompt
//	}
//	if res.Fallback {
//	    logger.Warn(res.Note)
//	}
//	lay, err := runner.Layout(ctx, res.Document, layout.Compact)
package pipeline

import (
	"strings"

	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/flowchart"
	"github.com/matzehuels/flowsketch/pkg/repair"
)

// Defaults applied to generation requests.
const (
	DefaultDetailLevel = "standard"
	DefaultAudience    = "stakeholders"
	maxArgLength       = 80
)

// GenerateRequest asks for a new flowchart from a free-text prompt.
type GenerateRequest struct {
	Prompt      string `json:"prompt"`
	DetailLevel string `json:"detailLevel,omitempty"`
	Audience    string `json:"audience,omitempty"`
}

// Validate trims fields, applies defaults and checks bounds.
func (r *GenerateRequest) Validate() error {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if err := errors.ValidatePrompt(r.Prompt); err != nil {
		return err
	}
	var err error
	if r.DetailLevel, err = argument("detail level", r.DetailLevel, DefaultDetailLevel); err != nil {
		return err
	}
	r.Audience, err = argument("audience", r.Audience, DefaultAudience)
	return err
}

// RefineRequest asks for a revision of an existing document.
type RefineRequest struct {
	Document    *flowchart.Document `json:"document"`
	Instruction string              `json:"instruction"`
	DetailLevel string              `json:"detailLevel,omitempty"`
	Audience    string              `json:"audience,omitempty"`
}

// Validate trims fields, applies defaults and checks bounds.
func (r *RefineRequest) Validate() error {
	if r.Document == nil {
		return errors.New(errors.ErrCodeInvalidInput, "document is required")
	}
	if err := r.Document.Validate(); err != nil {
		return err
	}
	r.Instruction = strings.TrimSpace(r.Instruction)
	if r.Instruction == "" {
		return errors.New(errors.ErrCodeInvalidInput, "instruction cannot be empty")
	}
	if err := errors.ValidatePrompt(r.Instruction); err != nil {
		return err
	}
	var err error
	if r.DetailLevel, err = argument("detail level", r.DetailLevel, DefaultDetailLevel); err != nil {
		return err
	}
	r.Audience, err = argument("audience", r.Audience, DefaultAudience)
	return err
}

// Result is a generated, refined or imported document.
type Result struct {
	Document *flowchart.Document `json:"document"`
	Report   repair.Report       `json:"report"`
	// SourcePrompt is the prompt Document traces back to. The canonical
	// document JSON leaves it out, so the envelope carries it.
	SourcePrompt string `json:"sourcePrompt,omitempty"`
	// Fallback is set when Document is the synthesized starter template.
	Fallback bool `json:"fallback"`
	// Note explains why the fallback was used.
	Note string `json:"note,omitempty"`
}

func newResult(rep *repair.Result) *Result {
	return &Result{
		Document:     rep.Document,
		Report:       rep.Report,
		SourcePrompt: rep.Document.SourcePrompt,
	}
}

func argument(field, value, def string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	if len([]rune(value)) > maxArgLength {
		return "", errors.New(errors.ErrCodeInvalidInput, "%s too long (max %d characters)", field, maxArgLength)
	}
	return value, nil
}
