package orclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elee1766/polaris/src/aisdk"
)

const (
	defaultBaseURL  = "https://openrouter.ai/api/v1"
	defaultTimeout  = 2 * time.Minute
	defaultModelTTL = time.Hour
)

var _ aisdk.Provider = (*Client)(nil)

// Client is the OpenRouter API client.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
	modelCache *ModelCache
}

// NewClient creates a new OpenRouter API client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.RetryCount <= 0 {
		config.RetryCount = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.ModelTTL == 0 {
		config.ModelTTL = defaultModelTTL
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.With("component", "openrouter_client"),
	}
	client.modelCache = NewModelCache(client, config.ModelTTL)

	return client
}

// createChatCompletion sends a chat completion request to OpenRouter (internal method).
func (c *Client) createChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	if c.config.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	logger := c.logger.With("method", "CreateChatCompletion", "model", req.Model)
	logger.Debug("sending chat completion request", "messages", len(req.Messages), "tools", len(req.Tools))

	formattedReq := c.formatRequest(req)

	if c.logger.Enabled(ctx, slog.LevelDebug) {
		if debugBody, err := json.MarshalIndent(formattedReq, "", "  "); err == nil {
			logger.Debug("formatted request", "body", string(debugBody))
		}
	}

	body, err := json.Marshal(formattedReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequestWithRetry(httpReq)
	if err != nil {
		logger.Error("request failed", "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := c.handleError(resp)
		logger.Error("received error response", "status_code", resp.StatusCode, "error", apiErr)
		return nil, apiErr
	}

	var result aisdk.ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	logger.Info("chat completion successful",
		"usage_total", result.Usage.TotalTokens,
		"usage_cached", result.Usage.PromptTokensCached,
		"finish_reason", result.Choices[0].FinishReason)
	return &result, nil
}

// newRequest creates a new HTTP request with the appropriate headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		// lets every retry attempt replay the body
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	// Optional headers for ranking
	if c.config.SiteURL != "" {
		req.Header.Set("HTTP-Referer", c.config.SiteURL)
	}
	if c.config.SiteName != "" {
		req.Header.Set("X-Title", c.config.SiteName)
	}

	return req, nil
}

// doRequestWithRetry performs an HTTP request, retrying transport errors,
// server errors and rate limits. Other 4xx responses are returned as-is.
func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	logger := c.logger.With("method", "doRequestWithRetry", "url", req.URL.String())

	var lastErr error
	for i := 0; i < c.config.RetryCount; i++ {
		if i > 0 {
			delay := c.config.RetryDelay * time.Duration(1<<uint(i-1))
			if ra := retryAfter(lastErr); ra > delay {
				delay = ra
			}
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("request aborted while waiting to retry: %w", context.Cause(ctx))
			case <-timer.C:
			}
		}

		attempt := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("failed to read request body: %w", err)
			}
			attempt.Body = body
		}

		resp, err := c.httpClient.Do(attempt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			logger.Debug("request attempt failed", "attempt", i+1, "error", err)
			continue
		}

		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		lastErr = c.handleError(resp)
		resp.Body.Close()
		logger.Debug("retryable status, retrying", "attempt", i+1, "status_code", resp.StatusCode)
	}

	logger.Error("request failed after all retries", "retry_count", c.config.RetryCount, "error", lastErr)
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.config.RetryCount, lastErr)
}

// retryAfter is the server-requested pause carried by a rate limit response.
func retryAfter(err error) time.Duration {
	if apiErr, ok := err.(*APIError); ok && apiErr.IsRateLimit() {
		return apiErr.RetryAfter
	}
	return 0
}

// handleError processes error responses from the API.
func (c *Client) handleError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read error response: %w", err)
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Request-ID"),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	apiErr.Type = errResp.Error.Type
	apiErr.Message = errResp.Error.Message
	apiErr.Code = codeString(errResp.Error.Code)
	apiErr.Param = errResp.Error.Param
	apiErr.Details = errResp.Error.Details
	return apiErr
}

type wireMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolCalls  []aisdk.ToolCall `json:"tool_calls,omitempty"`
}

type wireRequest struct {
	Model       string            `json:"model"`
	Messages    []wireMessage     `json:"messages"`
	Temperature *float64          `json:"temperature,omitempty"`
	MaxTokens   *int              `json:"max_tokens,omitempty"`
	Stop        []string          `json:"stop,omitempty"`
	Tools       []*aisdk.ChatTool `json:"tools,omitempty"`
	ToolChoice  string            `json:"tool_choice,omitempty"`
	User        string            `json:"user,omitempty"`
}

// formatRequest normalises messages for the upstream provider the model id points at.
func (c *Client) formatRequest(req *aisdk.ChatCompletionRequest) wireRequest {
	google := detectProvider(req.Model) == "google"

	messages := make([]wireMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg == nil {
			continue
		}
		wm := wireMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		}

		// Ensure tool calls have proper type and non-null arguments
		if len(msg.ToolCalls) > 0 {
			wm.ToolCalls = make([]aisdk.ToolCall, len(msg.ToolCalls))
			copy(wm.ToolCalls, msg.ToolCalls)
			for i := range wm.ToolCalls {
				if wm.ToolCalls[i].Type == "" {
					wm.ToolCalls[i].Type = "function"
				}
				if len(wm.ToolCalls[i].Function.Arguments) == 0 {
					wm.ToolCalls[i].Function.Arguments = json.RawMessage("{}")
				}
			}
		}

		if google {
			// Google rejects tool responses without a name and assistant turns without content
			if msg.Role == aisdk.RoleTool && wm.Name == "" {
				wm.Name = "tool_response"
			}
			if msg.Role == aisdk.RoleAssistant && wm.Content == "" && len(wm.ToolCalls) > 0 {
				wm.Content = "I'll help you with that."
			}
		}

		messages = append(messages, wm)
	}

	return wireRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stop:        req.Stop,
		Tools:       req.Tools,
		ToolChoice:  req.ToolChoice,
		User:        req.User,
	}
}

// detectProvider detects the provider from the model name
func detectProvider(model string) string {
	switch {
	case strings.HasPrefix(model, "anthropic/") || strings.HasPrefix(model, "claude"):
		return "anthropic"
	case strings.HasPrefix(model, "google/") || strings.HasPrefix(model, "gemini"):
		return "google"
	case strings.HasPrefix(model, "openai/") || strings.HasPrefix(model, "gpt"):
		return "openai"
	}
	return "unknown"
}
