package llm

import (
	"context"
	"encoding/base64"
	"net/http"
)

const anthropicAPIURL = "https://api.anthropic.com/v1"

// AnthropicProvider implements Provider using the Anthropic Messages API.
type AnthropicProvider struct {
	model   string
	baseURL string
	api     jsonAPI
}

func NewAnthropicProvider(apiKey string, model string) *AnthropicProvider {
	return &AnthropicProvider{
		model:   model,
		baseURL: anthropicAPIURL,
		api: newJSONAPI("anthropic", http.Header{
			"X-Api-Key":         {apiKey},
			"Anthropic-Version": {"2023-06-01"},
		}),
	}
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content    []anthropicContent `json:"content"`
	Model      string             `json:"model"`
	StopReason string             `json:"stop_reason"`
	Usage      anthropicUsage     `json:"usage"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	// Separate system messages from user/assistant messages.
	var systemPrompt string
	var messages []anthropicMessage
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			if systemPrompt != "" {
				systemPrompt += "\n\n"
			}
			systemPrompt += msg.Content
		case RoleUser:
			messages = append(messages, anthropicMessage{Role: "user", Content: anthropicBlocks(msg)})
		case RoleAssistant:
			messages = append(messages, anthropicMessage{Role: "assistant", Content: anthropicBlocks(msg)})
		}
	}

	apiReq := anthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		System:      systemPrompt,
		Messages:    messages,
	}

	var apiResp anthropicResponse
	if err := p.api.call(ctx, http.MethodPost, p.baseURL+"/messages", apiReq, &apiResp); err != nil {
		return nil, err
	}

	var content string
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &CompletionResponse{
		Content:      content,
		InputTokens:  apiResp.Usage.InputTokens,
		OutputTokens: apiResp.Usage.OutputTokens,
		Model:        apiResp.Model,
		FinishReason: apiResp.StopReason,
	}, nil
}

// ListModels returns the model IDs the API key can use.
func (p *AnthropicProvider) ListModels(ctx context.Context) ([]string, error) {
	var resp anthropicModelsResponse
	if err := p.api.call(ctx, http.MethodGet, p.baseURL+"/models?limit=100", nil, &resp); err != nil {
		return nil, err
	}
	models := make([]string, len(resp.Data))
	for i, m := range resp.Data {
		models[i] = m.ID
	}
	return models, nil
}

// anthropicBlocks renders a message as content blocks, images first as the
// Messages API recommends.
func anthropicBlocks(msg Message) []anthropicBlock {
	blocks := make([]anthropicBlock, 0, len(msg.Images)+1)
	for _, img := range msg.Images {
		blocks = append(blocks, anthropicBlock{
			Type: "image",
			Source: &anthropicSource{
				Type:      "base64",
				MediaType: imageMIMEType(img),
				Data:      base64.StdEncoding.EncodeToString(img),
			},
		})
	}
	return append(blocks, anthropicBlock{Type: "text", Text: msg.Content})
}
