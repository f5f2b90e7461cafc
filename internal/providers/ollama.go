package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	OllamaName        = "ollama"
	ollamaDefaultURL  = "http://localhost:11434"
	ollamaChatPath    = "/api/chat"
	ollamaDefaultWait = 300 * time.Second
)

// OllamaConfig holds configuration for the local Ollama client.
type OllamaConfig struct {
	BaseURL    string        // default http://localhost:11434
	Model      string        // e.g. "llama3.1:8b"
	Timeout    time.Duration // HTTP timeout; local inference is slow
	HTTPClient *http.Client  // Optional (tests)
}

// OllamaClient implements LLMClient against a local Ollama server.
// Ollama accepts a JSON schema directly in the request's "format" field,
// which gives us grammar-constrained decoding on local models.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaClient creates a client for a local Ollama server.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = ollamaDefaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = ollamaDefaultWait
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &OllamaClient{
		baseURL: baseURL,
		model:   cfg.Model,
		client:  client,
	}
}

// Name returns the client identifier.
func (c *OllamaClient) Name() string { return OllamaName }

// ollamaChatRequest is the wire request for POST /api/chat.
type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   map[string]any `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

// ollamaChatResponse is the wire response for POST /api/chat.
type ollamaChatResponse struct {
	Model           string  `json:"model"`
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

// Chat sends a chat request to the local Ollama server.
func (c *OllamaClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.model
	}

	body := ollamaChatRequest{
		Model:    model,
		Messages: req.Messages,
		Stream:   false,
	}
	if rf := req.ResponseFormat; rf != nil {
		body.Format = rf.JSONSchema
	}
	opts := map[string]any{}
	if req.Temperature != nil {
		opts["temperature"] = *req.Temperature
	}
	if req.MaxTokens > 0 {
		opts["num_predict"] = req.MaxTokens
	}
	if len(opts) > 0 {
		body.Options = opts
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ollamaChatPath, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Provider: OllamaName, Msg: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: OllamaName, Msg: "failed to read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{
			Provider:   OllamaName,
			StatusCode: resp.StatusCode,
			Msg:        string(respBody),
		}
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, &ParseError{Msg: "failed to unmarshal ollama response envelope", Raw: string(respBody), Err: err}
	}

	return &ChatResult{
		Content:          chatResp.Message.Content,
		PromptTokens:     chatResp.PromptEvalCount,
		CompletionTokens: chatResp.EvalCount,
		TotalTokens:      chatResp.PromptEvalCount + chatResp.EvalCount,
		ExecutionTime:    time.Since(start),
		Provider:         OllamaName,
		ModelUsed:        model,
		RequestID:        req.RequestID,
	}, nil
}
