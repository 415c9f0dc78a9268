// Package classifier is the boundary to the external AI classification and
// extraction service. Every call carries a bounded timeout and every failure
// degrades to "no result"; nothing here may fail an ingestion.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"bankbooks/internal/logger"
)

// Suggestion is a category assignment proposed by the classifier.
type Suggestion struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// Extracted is one transaction candidate recovered from raw statement text.
type Extracted struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Credit      bool    `json:"credit"`
}

// Service is the classifier capability consumed by the rule engine and the
// ingestion orchestrator. Implementations must never block beyond their
// timeout and must report failures as an absent result, not an error.
type Service interface {
	// Classify suggests a category for a normalized description.
	Classify(ctx context.Context, normalizedDesc string, amount float64, categories []string) (Suggestion, bool)
	// Extract recovers transaction candidates from unstructured text.
	Extract(ctx context.Context, rawText string) []Extracted
}

// ParserVersion tags classifier-extracted statements in the metadata sink.
const ParserVersion = "v1"

// Client talks to the external model. Zero-value config falls back to the
// defaults below.
type Client struct {
	model   string
	timeout time.Duration
}

const (
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 20 * time.Second
)

func New(model string, timeout time.Duration) *Client {
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{model: model, timeout: timeout}
}

func (c *Client) Classify(ctx context.Context, normalizedDesc string, amount float64, categories []string) (Suggestion, bool) {
	prompt := "You are a bank transaction categorizer.\n\n" +
		"Task:\n" +
		"- Assign the transaction below to one category and subcategory.\n" +
		"- Output STRICT JSON only (no comments, no extra text).\n" +
		"- Output a single JSON object: {\"category\": string, \"subcategory\": string}.\n" +
		"- Use null for both fields if no category fits.\n\n" +
		"Allowed categories: " + strings.Join(categories, ", ") + "\n\n" +
		fmt.Sprintf("Transaction: %q, amount %.2f\n", normalizedDesc, amount)

	raw, ok := c.generate(ctx, prompt, nil)
	if !ok {
		return Suggestion{}, false
	}

	var s Suggestion
	if err := json.Unmarshal([]byte(cleanModelJSON(raw, "{", "}")), &s); err != nil {
		logger.Ctx(ctx).Warn("classifier_bad_payload", "error", err.Error())
		return Suggestion{}, false
	}
	if s.Category == "" {
		return Suggestion{}, false
	}
	return s, true
}

func (c *Client) Extract(ctx context.Context, rawText string) []Extracted {
	const maxText = 30000
	if len(rawText) > maxText {
		rawText = rawText[:maxText]
	}

	prompt := "You are a financial statement parser.\n\n" +
		"Task:\n" +
		"- Parse ALL transactions from the statement text below.\n" +
		"- Output STRICT JSON only: a JSON array of objects.\n\n" +
		"Each object must have these fields:\n" +
		"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
		"- \"description\": string\n" +
		"- \"amount\": positive number\n" +
		"- \"credit\": boolean, true for money IN\n\n" +
		"Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n" +
		"Output must begin with \"[\" and end with \"]\".\n"

	raw, ok := c.generate(ctx, prompt, &rawText)
	if !ok {
		return nil
	}

	var out []Extracted
	if err := json.Unmarshal([]byte(cleanModelJSON(raw, "[", "]")), &out); err != nil {
		logger.Ctx(ctx).Warn("extractor_bad_payload", "error", err.Error())
		return nil
	}
	return out
}

// generate runs one model call under the client timeout. Any error is
// logged and reported as "no result".
func (c *Client) generate(ctx context.Context, prompt string, attachment *string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		logger.Ctx(ctx).Warn("classifier_client_failed", "error", err.Error())
		return "", false
	}

	parts := []*genai.Part{{Text: prompt}}
	if attachment != nil {
		parts = append(parts, &genai.Part{Text: *attachment})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		logger.Ctx(ctx).Warn("classifier_call_failed", "error", err.Error())
		return "", false
	}
	text := resp.Text()
	if text == "" {
		return "", false
	}
	return text, true
}

// cleanModelJSON strips Markdown fences and surrounding junk the model
// sometimes emits despite instructions, keeping only the outermost open..close
// span.
func cleanModelJSON(raw, openTok, closeTok string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, openTok); start != -1 {
		if end := strings.LastIndex(s, closeTok); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

// Disabled is a Service that never classifies; used when no API key is
// configured and in tests.
type Disabled struct{}

func (Disabled) Classify(context.Context, string, float64, []string) (Suggestion, bool) {
	return Suggestion{}, false
}

func (Disabled) Extract(context.Context, string) []Extracted { return nil }
