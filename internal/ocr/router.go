package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
)

// Guess is the canonical structured guess shape. Every leaf is a string or
// absent, regardless of what the backing adapter produced.
type Guess struct {
	Vendor string              `json:"vendor,omitempty"`
	Total  string              `json:"total,omitempty"`
	Date   string              `json:"date,omitempty"`
	Items  []map[string]string `json:"items,omitempty"`
	Engine string              `json:"ocr_engine"`
}

// Router dispatches to a registered adapter by engine name and sanitizes its
// output. It is a pure transformation over its inputs; persistence happens in
// the orchestrator.
type Router struct {
	log      *slog.Logger
	adapters map[string]Adapter
}

func NewRouter(log *slog.Logger) *Router {
	return &Router{
		log:      log,
		adapters: make(map[string]Adapter),
	}
}

func (r *Router) Register(engine string, adapter Adapter) {
	r.adapters[engine] = adapter
}

func (r *Router) Supported() []string {
	engines := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		engines = append(engines, name)
	}
	sort.Strings(engines)

	return engines
}

func (r *Router) Process(
	ctx context.Context,
	engine string,
	image []byte,
	mimeType string,
	vendorHints []string,
) (string, *Guess, error) {
	adapter, ok := r.adapters[engine]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q, supported: %s",
			domain.ErrUnsupportedEngine, engine, strings.Join(r.Supported(), ", "))
	}

	r.log.DebugContext(ctx, "running ocr adapter", slog.String("engine", engine))

	result, err := adapter.Extract(ctx, image, mimeType, vendorHints)
	if err != nil {
		return "", nil, fmt.Errorf("adapter %q: %w", engine, err)
	}

	return result.RawText, r.sanitize(ctx, engine, result), nil
}

// sanitize flattens an adapter result into the canonical Guess. Adapters may
// return nested objects where a scalar is expected; those are stringified
// rather than propagated.
func (r *Router) sanitize(ctx context.Context, engine string, result *Result) *Guess {
	guess := &Guess{Engine: engine}

	guess.Vendor = r.leafString(ctx, engine, "vendor", result.Fields["vendor"])
	guess.Total = r.leafString(ctx, engine, "total", result.Fields["total"])
	guess.Date = r.leafString(ctx, engine, "date", result.Fields["date"])

	for _, raw := range result.Items {
		item, ok := raw.(map[string]any)
		if !ok {
			r.log.WarnContext(ctx, "skipping non-object ocr item",
				slog.String("engine", engine))
			continue
		}

		sanitized := make(map[string]string, len(item))
		for key, value := range item {
			sanitized[key] = r.leafString(ctx, engine, key, value)
		}

		guess.Items = append(guess.Items, sanitized)
	}

	return guess
}

func (r *Router) leafString(ctx context.Context, engine, field string, value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		r.log.WarnContext(ctx, "stringifying nested ocr value",
			slog.String("engine", engine),
			slog.String("field", field))
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}
