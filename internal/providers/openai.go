package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = "gpt-4o-mini"
)

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey     string
	Model      string        // default model when the request leaves it empty
	Timeout    time.Duration // HTTP timeout
	BaseURL    string        // Optional (tests, proxies)
	HTTPClient *http.Client  // Optional (tests)
}

// OpenAIClient implements LLMClient using the official OpenAI SDK's
// Responses API with JSON-schema constrained output.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI LLM client.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = openAIDefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string { return OpenAIName }

// Chat sends a chat completion request via the Responses API.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.model
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(model),
	}

	// System messages become instructions; remaining messages form the input.
	var items responses.ResponseInputParam
	for _, m := range req.Messages {
		if m.Role == "system" {
			params.Instructions = openai.String(m.Content)
			continue
		}
		items = append(items, responses.ResponseInputItemParamOfMessage(
			responses.ResponseInputMessageContentListParam{
				responses.ResponseInputContentParamOfInputText(m.Content),
			},
			responses.EasyInputMessageRole(m.Role),
		))
	}
	params.Input = responses.ResponseNewParamsInputUnion{OfInputItemList: items}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(req.MaxTokens))
	}
	if rf := req.ResponseFormat; rf != nil {
		name := rf.Name
		if name == "" {
			name = "structured_output"
		}
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema(name, rf.JSONSchema),
		}
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return nil, mapOpenAIError(err)
	}

	result := &ChatResult{
		Content:       resp.OutputText(),
		Provider:      OpenAIName,
		ModelUsed:     model,
		RequestID:     req.RequestID,
		ExecutionTime: time.Since(start),
	}
	result.PromptTokens = int(resp.Usage.InputTokens)
	result.CompletionTokens = int(resp.Usage.OutputTokens)
	result.TotalTokens = int(resp.Usage.TotalTokens)
	return result, nil
}

// mapOpenAIError converts SDK errors into the provider error taxonomy.
func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &TransportError{
			Provider:   OpenAIName,
			StatusCode: apiErr.StatusCode,
			Msg:        apiErr.Message,
			Err:        err,
		}
	}
	return &TransportError{Provider: OpenAIName, Msg: err.Error(), Err: err}
}
