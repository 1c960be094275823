package llm

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation. Images holds raw
// image file bytes (PNG or JPEG) attached to the message; providers that
// cannot accept images ignore them.
type Message struct {
	Role    Role
	Content string
	Images  [][]byte
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// UserPrompt builds a single-message request for model, the shape every
// pipeline stage uses.
func UserPrompt(model, prompt string, images ...[]byte) CompletionRequest {
	return CompletionRequest{
		Model: model,
		Messages: []Message{{
			Role:    RoleUser,
			Content: prompt,
			Images:  images,
		}},
	}
}
