package classifier

import (
	"context"
	"testing"

	"sentimen/internal/domain"
)

type fixedClassifier struct {
	label domain.Label
	ready bool
}

func (f fixedClassifier) Classify(context.Context, string) (domain.Prediction, error) {
	return domain.Prediction{Label: f.label, Confidence: 0.9}, nil
}

func (f fixedClassifier) ClassifyAspects(context.Context, string) ([]domain.AspectSentiment, error) {
	return nil, nil
}

func (f fixedClassifier) Ready(context.Context) bool { return f.ready }

func TestHandleStartsAtVersionOne(t *testing.T) {
	h := NewHandle(fixedClassifier{label: domain.LabelPositive, ready: true})
	if h.Version() != 1 {
		t.Fatalf("expected version 1, got %d", h.Version())
	}
	pred, err := h.Classify(context.Background(), "teks apapun")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if pred.Label != domain.LabelPositive {
		t.Fatalf("expected delegation to active classifier, got %q", pred.Label)
	}
	if !h.Ready(context.Background()) {
		t.Fatal("expected Ready to delegate")
	}
}

func TestHandleSwapBumpsVersionAndRedirects(t *testing.T) {
	h := NewHandle(fixedClassifier{label: domain.LabelPositive})

	h.Swap(fixedClassifier{label: domain.LabelNegative})
	if h.Version() != 2 {
		t.Fatalf("expected version 2 after swap, got %d", h.Version())
	}

	pred, err := h.Classify(context.Background(), "teks apapun")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if pred.Label != domain.LabelNegative {
		t.Fatalf("expected the swapped classifier to answer, got %q", pred.Label)
	}

	h.Swap(fixedClassifier{label: domain.LabelNeutral})
	if h.Version() != 3 {
		t.Fatalf("expected version 3 after second swap, got %d", h.Version())
	}
}
