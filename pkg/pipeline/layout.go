package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/flowsketch/pkg/cache"
	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/flowchart"
	"github.com/matzehuels/flowsketch/pkg/layout"
	"github.com/matzehuels/flowsketch/pkg/observability"
	"github.com/matzehuels/flowsketch/pkg/palette"
	"github.com/matzehuels/flowsketch/pkg/render"
)

// LayoutWithCacheInfo lays out doc and reports whether the result came from
// the cache. Results are keyed by the canonical document JSON without its
// palette, the orientation and the placer name.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, doc *flowchart.Document, o layout.Orientation) (*layout.Result, bool, error) {
	start := time.Now()
	res, hit, err := r.layout(ctx, doc, o)

	nodes := 0
	if doc != nil {
		nodes = len(doc.Nodes)
	}
	observability.Pipeline().OnLayout(ctx, string(o), nodes, hit, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	r.Logger.Debug("computed layout",
		"orientation", o,
		"rankdir", res.RankDir,
		"nodes", len(res.Nodes),
		"cache_hit", hit,
		"duration", time.Since(start))
	return res, hit, nil
}

// Layout is LayoutWithCacheInfo without the cache hit flag.
func (r *Runner) Layout(ctx context.Context, doc *flowchart.Document, o layout.Orientation) (*layout.Result, error) {
	res, _, err := r.LayoutWithCacheInfo(ctx, doc, o)
	return res, err
}

func (r *Runner) layout(ctx context.Context, doc *flowchart.Document, o layout.Orientation) (*layout.Result, bool, error) {
	if doc == nil {
		return nil, false, errors.New(errors.ErrCodeInvalidLayout, "nothing to lay out")
	}
	if o == "" {
		o = layout.Vertical
	}
	if _, err := layout.ParseOrientation(string(o)); err != nil {
		return nil, false, err
	}

	docJSON, err := flowchart.MarshalDocument(placementOnly(doc))
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "encode document")
	}
	key := r.Keyer.LayoutKey(cache.Hash(docJSON), cache.LayoutKeyOpts{
		Orientation: string(o),
		Placer:      r.Engine.PlacerName(),
	})

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var cached layout.Result
		if err := json.Unmarshal(data, &cached); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			return &cached, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	res, err := r.Engine.Layout(ctx, doc, o)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(res); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return res, false, nil
}

// Export lays out doc and renders it in format f with the document palette.
// Rendered artifacts are cached by layout and palette.
func (r *Runner) Export(ctx context.Context, doc *flowchart.Document, o layout.Orientation, f render.Format) ([]byte, error) {
	res, err := r.Layout(ctx, doc, o)
	if err != nil {
		return nil, err
	}

	layoutJSON, err := json.Marshal(res)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode layout")
	}
	paletteJSON, err := json.Marshal(doc.Palette)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode palette")
	}
	key := r.Keyer.ExportKey(cache.Hash(layoutJSON), cache.ExportKeyOpts{
		Format:  string(f),
		Palette: cache.Hash(paletteJSON),
	})

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "export")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "export")

	start := time.Now()
	data, err := render.Export(ctx, res, doc.Palette, f)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("rendered export", "format", f, "bytes", len(data), "duration", time.Since(start))

	if err := r.Cache.Set(ctx, key, data, cache.TTLExport); err == nil {
		observability.Cache().OnCacheSet(ctx, "export", len(data))
	}
	return data, nil
}

// placementOnly returns doc with the palette cleared. Colors never change
// placement, so palette edits keep hitting the layout cache.
func placementOnly(doc *flowchart.Document) *flowchart.Document {
	d := doc.Clone()
	d.Palette = palette.Palette{}
	return d
}
