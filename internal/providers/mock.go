package providers

import (
	"context"
	"sync"
	"time"
)

const MockClientName = "mock"

// MockResponse scripts a single Chat call outcome for the mock client.
type MockResponse struct {
	Content string
	Err     error
}

// MockClient is an LLMClient for testing. Responses are served in order;
// when the script runs out the last entry repeats.
type MockClient struct {
	mu sync.Mutex

	// Script of responses, served in order.
	Responses []MockResponse

	// Latency simulates inference time.
	Latency time.Duration

	// Requests records every request received, in order.
	Requests []*ChatRequest
}

// NewMockClient creates a mock that always returns content.
func NewMockClient(content string) *MockClient {
	return &MockClient{Responses: []MockResponse{{Content: content}}}
}

// Name returns the client identifier.
func (c *MockClient) Name() string { return MockClientName }

// Chat serves the next scripted response.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.Requests = append(c.Requests, req)

	idx := len(c.Requests) - 1
	if idx >= len(c.Responses) {
		idx = len(c.Responses) - 1
	}
	if idx < 0 {
		return &ChatResult{Provider: MockClientName, RequestID: req.RequestID}, nil
	}

	scripted := c.Responses[idx]
	if scripted.Err != nil {
		return nil, scripted.Err
	}
	return &ChatResult{
		Content:   scripted.Content,
		Provider:  MockClientName,
		ModelUsed: req.Model,
		RequestID: req.RequestID,
	}, nil
}

// CallCount returns how many Chat calls the mock has served.
func (c *MockClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Requests)
}

// LastRequest returns the most recent request, or nil.
func (c *MockClient) LastRequest() *ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Requests) == 0 {
		return nil
	}
	return c.Requests[len(c.Requests)-1]
}
