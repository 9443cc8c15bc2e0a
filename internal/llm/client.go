package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/shopchat/internal/config"
	"github.com/eldtechnologies/shopchat/internal/metrics"
	"github.com/eldtechnologies/shopchat/internal/models"
)

const defaultBaseURL = "https://api.openai.com/v1"

// generateRequest is the request shape for the Responses endpoint.
type generateRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
	Store bool   `json:"store"`
}

// generateResponse is the minimal response shape: a structured output list,
// plus a direct text field some responses carry instead.
type generateResponse struct {
	Output []outputItem    `json:"output"`
	Text   json.RawMessage `json:"text"`
}

type outputItem struct {
	Type    string        `json:"type"`
	Status  string        `json:"status"`
	Content []contentItem `json:"content"`
}

type contentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// errorBody is the upstream error envelope, used for failure messages only.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client generates support replies through an external text-generation
// endpoint. Every call is synchronous; the only owned retry logic in the
// system lives here.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	maxHistory  int
	maxAttempts int
	baseDelay   time.Duration
	httpClient  *http.Client
	sleep       func(context.Context, time.Duration) error
	logger      zerolog.Logger
}

// New creates a reply generation client from configuration.
func New(cfg *config.Config, logger zerolog.Logger) *Client {
	baseURL := strings.TrimRight(cfg.OpenAIBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:      cfg.OpenAIAPIKey,
		baseURL:     baseURL,
		model:       cfg.OpenAIModel,
		maxHistory:  cfg.MaxHistory,
		maxAttempts: cfg.MaxRetries,
		baseDelay:   cfg.RetryDelay,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		sleep:       sleepContext,
		logger:      logger,
	}
}

// GenerateReply renders a bounded-context prompt from history plus the new
// user message and drives it through the retry loop. Failures come back as
// a classified *Error.
func (c *Client) GenerateReply(ctx context.Context, history []models.Message, userMessage string) (string, error) {
	if c.apiKey == "" {
		metrics.GenerationRequests.WithLabelValues("failure").Inc()
		return "", authError("OPENAI_API_KEY is not set")
	}

	prompt := buildPrompt(history, userMessage, c.maxHistory)

	loop := &retryLoop{
		maxAttempts: c.maxAttempts,
		baseDelay:   c.baseDelay,
		sleep:       c.sleep,
		attempt: func(ctx context.Context, n int) (string, error) {
			reply, err := c.generate(ctx, prompt)
			if err != nil {
				c.logger.Warn().Err(err).Int("attempt", n).Int("max", c.maxAttempts).Msg("generation attempt failed")
			}
			return reply, err
		},
	}

	reply, err := loop.run(ctx)
	if err != nil {
		metrics.GenerationRequests.WithLabelValues("failure").Inc()
		return "", finalError(err)
	}

	metrics.GenerationRequests.WithLabelValues("success").Inc()
	return reply, nil
}

// generate issues one request and classifies any failure.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model: c.model,
		Input: prompt,
		Store: true,
	})
	if err != nil {
		return "", &Error{Kind: KindUpstream, Message: "marshal request", Err: err}
	}

	url := c.baseURL + "/responses"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindUpstream, Message: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", &Error{Kind: KindTimeout, Message: "request timeout", Err: err}
		}
		return "", &Error{Kind: KindUpstream, Message: "request failed", Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", &Error{Kind: KindUpstream, Message: "read response body", Err: err}
	}

	if res.StatusCode != http.StatusOK {
		return "", classifyStatus(res.StatusCode, raw)
	}

	return extractText(raw)
}

// classifyStatus maps an upstream HTTP status to a retry classification.
func classifyStatus(status int, raw []byte) *Error {
	switch status {
	case http.StatusUnauthorized:
		return authError("invalid API key")
	case http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimit, Message: "rate limit exceeded"}
	case http.StatusServiceUnavailable:
		return &Error{Kind: KindUnavailable, Message: "service temporarily unavailable"}
	}

	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	msg := eb.Error.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Kind: KindUpstream, Message: fmt.Sprintf("API error: %d - %s", status, msg)}
}

// extractText locates the completed message entry and its text content;
// falls back to a direct top-level text field.
func extractText(raw []byte) (string, error) {
	var payload generateResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", &Error{Kind: KindUpstream, Message: "decode response", Err: err}
	}

	var reply string
	for _, item := range payload.Output {
		if item.Type != "message" || item.Status != "completed" {
			continue
		}
		for _, content := range item.Content {
			if content.Type == "output_text" && content.Text != "" {
				reply = strings.TrimSpace(content.Text)
				break
			}
		}
		if reply != "" {
			break
		}
	}

	if reply == "" && len(payload.Text) > 0 {
		var direct string
		if err := json.Unmarshal(payload.Text, &direct); err == nil {
			reply = strings.TrimSpace(direct)
		}
	}

	if reply == "" {
		return "", &Error{Kind: KindEmptyResponse, Message: "empty response from model"}
	}
	return reply, nil
}

// finalError shapes the error reported after the loop gives up. Classified
// kinds keep their message; anything else is wrapped as a generation
// failure.
func finalError(err error) error {
	var clsErr *Error
	if errors.As(err, &clsErr) {
		switch clsErr.Kind {
		case KindAuth, KindRateLimit, KindUnavailable, KindTimeout:
			return clsErr
		}
		return &Error{Kind: clsErr.Kind, Message: "generation failed: " + clsErr.Message, Err: clsErr.Err}
	}
	return &Error{Kind: KindUpstream, Message: "generation failed", Err: err}
}

// isTimeout reports whether err is a network timeout or an aborted request.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
