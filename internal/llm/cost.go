package llm

import (
	"context"
	"sync"
)

// modelPricing holds per-model pricing in USD per 1M tokens.
type modelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// priceTable maps hosted model identifiers to their pricing. Local models
// (Ollama) are absent and cost nothing.
var priceTable = map[string]modelPricing{
	"claude-sonnet-4-5-20250929": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-haiku-4-5-20251001":  {InputPerMillion: 0.80, OutputPerMillion: 4.00},

	"gpt-4o":      {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini": {InputPerMillion: 0.15, OutputPerMillion: 0.60},
	"o4-mini":     {InputPerMillion: 1.10, OutputPerMillion: 4.40},

	"gemini-2.0-flash": {InputPerMillion: 0.10, OutputPerMillion: 0.40},
	"gemini-1.5-pro":   {InputPerMillion: 1.25, OutputPerMillion: 5.00},

	// Embedding models bill input only.
	"text-embedding-3-small": {InputPerMillion: 0.02},
	"text-embedding-3-large": {InputPerMillion: 0.13},
	"gemini-embedding-001":   {InputPerMillion: 0.15},
}

// EstimateCost returns the estimated cost in USD for the given model and token counts.
// Returns 0 if the model is not found in the price table.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := priceTable[model]
	if !ok {
		return 0
	}

	inputCost := float64(inputTokens) / 1_000_000.0 * pricing.InputPerMillion
	outputCost := float64(outputTokens) / 1_000_000.0 * pricing.OutputPerMillion
	return inputCost + outputCost
}

// EstimateTokens approximates the token count of text at four characters
// per token.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		return 1
	}
	return n
}

// Usage totals the tokens and estimated cost of one question.
type Usage struct {
	Calls        int     `json:"calls"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// UsageMeter is a Provider wrapper that accumulates Usage across calls.
// It is safe for concurrent use.
type UsageMeter struct {
	provider Provider
	mu       sync.Mutex
	usage    Usage
}

// NewUsageMeter wraps provider with a fresh meter.
func NewUsageMeter(provider Provider) *UsageMeter {
	return &UsageMeter{provider: provider}
}

func (m *UsageMeter) Name() string {
	return m.provider.Name()
}

func (m *UsageMeter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	resp, err := m.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	model := resp.Model
	if model == "" {
		model = req.Model
	}
	in, out := resp.InputTokens, resp.OutputTokens
	if in == 0 {
		for _, msg := range req.Messages {
			in += EstimateTokens(msg.Content)
		}
	}
	if out == 0 {
		out = EstimateTokens(resp.Content)
	}

	m.mu.Lock()
	m.usage.Calls++
	m.usage.InputTokens += in
	m.usage.OutputTokens += out
	m.usage.CostUSD += EstimateCost(model, in, out)
	m.mu.Unlock()
	return resp, nil
}

// Usage returns a snapshot of the totals so far.
func (m *UsageMeter) Usage() Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage
}
