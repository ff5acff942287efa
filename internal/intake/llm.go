package intake

import "context"

// ChatRole identifies who authored a chat message.
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of the intake conversation.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// LLMRequest is a completion request to the language model.
type LLMRequest struct {
	System      []string
	Messages    []ChatMessage
	Temperature float32
	MaxTokens   int32
}

// LLMResponse is the model's reply.
type LLMResponse struct {
	Text string
}

// LLMClient abstracts the language model so the service can be tested with a
// stub and the provider swapped without touching callers.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
