package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"sentimen/internal/domain"
)

// ModelClient talks to the fine-tuned sentiment model server over REST.
// The same server owns training, so ModelClient also implements the
// training adapter (Train) and the reload primitive.
type ModelClient struct {
	baseURL string
	httpc   *http.Client
}

func NewModelClient(baseURL string, httpc *http.Client) *ModelClient {
	return &ModelClient{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

type predictResponse struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

func (c *ModelClient) Classify(ctx context.Context, text string) (domain.Prediction, error) {
	var out predictResponse
	if err := c.post(ctx, "/predict", map[string]string{"text": text}, &out); err != nil {
		return domain.Prediction{}, err
	}
	label, ok := domain.ParseLabel(out.Sentiment)
	if !ok {
		return domain.Prediction{}, fmt.Errorf("model server returned unknown sentiment %q", out.Sentiment)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return domain.Prediction{}, fmt.Errorf("model server returned confidence %v out of range", out.Confidence)
	}
	return domain.Prediction{Label: label, Confidence: out.Confidence}, nil
}

type aspectsResponse struct {
	Aspects []struct {
		Aspect    string `json:"aspect"`
		Sentiment string `json:"sentiment"`
	} `json:"aspects"`
}

func (c *ModelClient) ClassifyAspects(ctx context.Context, text string) ([]domain.AspectSentiment, error) {
	var out aspectsResponse
	if err := c.post(ctx, "/predict/aspects", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	var aspects []domain.AspectSentiment
	for _, a := range out.Aspects {
		label, ok := domain.ParseLabel(a.Sentiment)
		if !ok {
			log.Printf("model server aspect %q has unknown sentiment %q, skipping", a.Aspect, a.Sentiment)
			continue
		}
		aspects = append(aspects, domain.AspectSentiment{Aspect: a.Aspect, Label: label})
	}
	return aspects, nil
}

func (c *ModelClient) Ready(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	var health struct {
		ModelLoaded bool `json:"model_loaded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false
	}
	return resp.StatusCode == 200 && health.ModelLoaded
}

// Train asks the model server to fine-tune on the uploaded dataset. The
// call blocks for the whole run, which can take hours, so it must not be
// subject to the shared client's per-request timeout; ctx (bounded by the
// training controller) is the only limit.
func (c *ModelClient) Train(ctx context.Context, datasetPath string) error {
	longc := *c.httpc
	longc.Timeout = 0
	return c.postWith(ctx, &longc, "/train", map[string]string{"dataset_path": datasetPath}, nil)
}

// Reload tells the model server to activate the most recently trained
// weights. Callers swap the handle afterwards so inference picks up the new
// generation atomically.
func (c *ModelClient) Reload(ctx context.Context) error {
	return c.post(ctx, "/reload", struct{}{}, nil)
}

func (c *ModelClient) post(ctx context.Context, path string, payload, out any) error {
	return c.postWith(ctx, c.httpc, path, payload, out)
}

func (c *ModelClient) postWith(ctx context.Context, httpc *http.Client, path string, payload, out any) error {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpc.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("model server returned %d for %s: %s", resp.StatusCode, path, string(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", path, err)
	}
	return nil
}
