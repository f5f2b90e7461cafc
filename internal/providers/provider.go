package providers

import (
	"context"
	"encoding/json"
	"time"
)

// LLMClient is the single contract every model provider must satisfy:
// send a prompt, get back a response constrained to a schema. Both cloud
// and local providers implement this; selection and credentials live in
// configuration, never in the extraction core.
type LLMClient interface {
	// Chat sends a chat completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g., "openai", "ollama").
	Name() string
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ResponseFormat requests schema-constrained structured output.
type ResponseFormat struct {
	// Name labels the schema for providers that require one.
	Name string `json:"name"`
	// JSONSchema is the draft 2020-12 schema the response must conform to.
	JSONSchema map[string]any `json:"json_schema"`
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Generation parameters. Temperature is a pointer so callers can force
	// zero (most deterministic) distinctly from "provider default".
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Timeout     time.Duration

	// Structured output constraint
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// Request tracking
	RequestID string `json:"-"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	Content    string          `json:"content"`
	ParsedJSON json.RawMessage `json:"parsed_json,omitempty"`

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	ExecutionTime time.Duration `json:"execution_time"`

	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`
	RequestID string `json:"request_id"`
}

// Temp returns a pointer to t, for ChatRequest.Temperature literals.
func Temp(t float64) *float64 { return &t }
