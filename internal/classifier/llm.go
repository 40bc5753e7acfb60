package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"

	"sentimen/internal/domain"
)

const defaultAnthropicModel = "claude-haiku-4-5"
const defaultOpenAIModel = "gpt-4o-mini"

const classifySystemPrompt = `You are a sentiment classifier for Indonesian consumer reviews and comments.
Classify the text into exactly one of: Positif, Negatif, Netral.

Respond with JSON only (no markdown):
{"sentiment": "Positif", "confidence": 0.93}`

const aspectSystemPrompt = `You are an aspect-based sentiment classifier for Indonesian consumer reviews.
Identify the aspects mentioned (e.g. harga, kualitas, pengiriman, pelayanan, kemasan) and the sentiment toward each.
Sentiment must be one of: Positif, Negatif, Netral.

Respond with JSON only (no markdown):
{"aspects": [{"aspect": "harga", "sentiment": "Positif"}]}`

// LLMClassifier classifies through a hosted LLM instead of the fine-tuned
// model server. Used when no model server is deployed; it cannot be
// retrained, so the training endpoints are unavailable with this provider.
type LLMClassifier struct {
	provider string // "anthropic" or "openai"
	model    string
	apiKey   string
}

func NewLLMClassifier(provider, model, apiKey string) *LLMClassifier {
	return &LLMClassifier{provider: provider, model: model, apiKey: apiKey}
}

func (c *LLMClassifier) Classify(ctx context.Context, text string) (domain.Prediction, error) {
	responseText, err := c.call(ctx, classifySystemPrompt, text)
	if err != nil {
		return domain.Prediction{}, err
	}

	var parsed struct {
		Sentiment  string  `json:"sentiment"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(cleanJSONResponse(responseText)), &parsed); err != nil {
		return domain.Prediction{}, fmt.Errorf("parsing classify response: %w (response: %s)", err, truncateForLog(responseText))
	}
	label, ok := domain.ParseLabel(parsed.Sentiment)
	if !ok {
		return domain.Prediction{}, fmt.Errorf("llm returned unknown sentiment %q", parsed.Sentiment)
	}
	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return domain.Prediction{Label: label, Confidence: confidence}, nil
}

func (c *LLMClassifier) ClassifyAspects(ctx context.Context, text string) ([]domain.AspectSentiment, error) {
	responseText, err := c.call(ctx, aspectSystemPrompt, text)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Aspects []struct {
			Aspect    string `json:"aspect"`
			Sentiment string `json:"sentiment"`
		} `json:"aspects"`
	}
	if err := json.Unmarshal([]byte(cleanJSONResponse(responseText)), &parsed); err != nil {
		return nil, fmt.Errorf("parsing aspects response: %w (response: %s)", err, truncateForLog(responseText))
	}
	var aspects []domain.AspectSentiment
	for _, a := range parsed.Aspects {
		label, ok := domain.ParseLabel(a.Sentiment)
		if !ok {
			continue
		}
		aspects = append(aspects, domain.AspectSentiment{Aspect: a.Aspect, Label: label})
	}
	return aspects, nil
}

func (c *LLMClassifier) Ready(ctx context.Context) bool {
	return c.apiKey != ""
}

func (c *LLMClassifier) call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	switch c.provider {
	case "openai":
		model := c.model
		if model == "" {
			model = defaultOpenAIModel
		}
		return callOpenAI(ctx, c.apiKey, model, systemPrompt, userPrompt)
	default:
		model := c.model
		if model == "" {
			model = defaultAnthropicModel
		}
		return callAnthropic(ctx, c.apiKey, model, systemPrompt, userPrompt)
	}
}

func callAnthropic(ctx context.Context, apiKey, model, systemPrompt, userPrompt string) (string, error) {
	client := anthropic.NewClient(anthropicopt.WithAPIKey(apiKey))

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		log.Printf("llm anthropic error: %v", err)
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}

func callOpenAI(ctx context.Context, apiKey, model, systemPrompt, userPrompt string) (string, error) {
	client := openai.NewClient(openaiopt.WithAPIKey(apiKey))

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		log.Printf("llm openai error: %v", err)
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}
	return resp.Choices[0].Message.Content, nil
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Some model responses include extra prose around the JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

func truncateForLog(s string) string {
	if len(s) > 512 {
		return s[:512] + fmt.Sprintf("... [truncated, total_length=%d]", len(s))
	}
	return s
}
