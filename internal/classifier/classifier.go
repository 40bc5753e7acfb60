package classifier

import (
	"context"
	"sync/atomic"

	"sentimen/internal/domain"
)

// Classifier is the external sentiment classification adapter. Latency of
// Classify dominates batch cost, so callers keep per-batch caps small.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.Prediction, error)
	ClassifyAspects(ctx context.Context, text string) ([]domain.AspectSentiment, error)
	Ready(ctx context.Context) bool
}

type version struct {
	n int64
	c Classifier
}

// Handle is the indirection every inference call goes through. Swap
// replaces the active classifier in one indivisible step, so an in-flight
// request observes either the fully-old or fully-new model, never a mix.
type Handle struct {
	current atomic.Pointer[version]
}

func NewHandle(c Classifier) *Handle {
	h := &Handle{}
	h.current.Store(&version{n: 1, c: c})
	return h
}

// Swap activates c and bumps the model version.
func (h *Handle) Swap(c Classifier) {
	prev := h.current.Load()
	h.current.Store(&version{n: prev.n + 1, c: c})
}

// Version reports the active model generation, starting at 1.
func (h *Handle) Version() int64 {
	return h.current.Load().n
}

func (h *Handle) Classify(ctx context.Context, text string) (domain.Prediction, error) {
	return h.current.Load().c.Classify(ctx, text)
}

func (h *Handle) ClassifyAspects(ctx context.Context, text string) ([]domain.AspectSentiment, error) {
	return h.current.Load().c.ClassifyAspects(ctx, text)
}

func (h *Handle) Ready(ctx context.Context) bool {
	return h.current.Load().c.Ready(ctx)
}
