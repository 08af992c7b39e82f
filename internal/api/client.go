package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mailpilot/triage-tui/internal/models"
)

// Gateway is the set of backend operations the client consumes. The
// backend owns ingestion, categorization, summarization and drafting; the
// client only sees these request/response pairs.
type Gateway interface {
	ListEmails(ctx context.Context) ([]models.Email, error)
	GetEmail(ctx context.Context, id int) (*models.Email, error)
	TriggerIngest(ctx context.Context) error
	Chat(ctx context.Context, emailID int, query string) (string, error)
	GenerateDraft(ctx context.Context, emailID int, instruction string) (*models.Draft, error)
	ListPrompts(ctx context.Context) ([]models.PromptTemplate, error)
	UpdatePrompt(ctx context.Context, promptType, text string) (*models.PromptTemplate, error)
}

// Client implements Gateway over the backend's HTTP API. No retries: a
// failed call surfaces one typed error and the caller decides.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) ListEmails(ctx context.Context) ([]models.Email, error) {
	var emails []models.Email
	if err := c.get(ctx, "list emails", "/emails", &emails); err != nil {
		return nil, err
	}
	return emails, nil
}

func (c *Client) GetEmail(ctx context.Context, id int) (*models.Email, error) {
	var email models.Email
	if err := c.get(ctx, "get email", fmt.Sprintf("/emails/%d", id), &email); err != nil {
		return nil, err
	}
	return &email, nil
}

func (c *Client) TriggerIngest(ctx context.Context) error {
	// The ack payload is opaque; only the status matters.
	return c.post(ctx, "trigger ingest", "/ingest", nil, nil)
}

func (c *Client) Chat(ctx context.Context, emailID int, query string) (string, error) {
	req := struct {
		EmailID   int    `json:"email_id"`
		UserQuery string `json:"user_query"`
	}{EmailID: emailID, UserQuery: query}
	var resp struct {
		Response string `json:"response"`
	}
	if err := c.post(ctx, "chat", "/chat/agent", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

func (c *Client) GenerateDraft(ctx context.Context, emailID int, instruction string) (*models.Draft, error) {
	req := struct {
		EmailID         int    `json:"email_id"`
		UserInstruction string `json:"user_instruction,omitempty"`
	}{EmailID: emailID, UserInstruction: instruction}
	var draft models.Draft
	if err := c.post(ctx, "generate draft", "/drafts/generate", req, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (c *Client) ListPrompts(ctx context.Context) ([]models.PromptTemplate, error) {
	var prompts []models.PromptTemplate
	if err := c.get(ctx, "list prompts", "/prompts", &prompts); err != nil {
		return nil, err
	}
	return prompts, nil
}

func (c *Client) UpdatePrompt(ctx context.Context, promptType, text string) (*models.PromptTemplate, error) {
	req := struct {
		PromptType   string `json:"prompt_type"`
		TemplateText string `json:"template_text"`
	}{PromptType: promptType, TemplateText: text}
	var prompt models.PromptTemplate
	if err := c.post(ctx, "update prompt", "/prompts/update", req, &prompt); err != nil {
		return nil, err
	}
	return &prompt, nil
}

func (c *Client) get(ctx context.Context, op, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	return c.do(op, req, out)
}

func (c *Client) post(ctx context.Context, op, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: err}
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServerError{Op: op, StatusCode: resp.StatusCode, Message: serverMessage(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

// serverMessage pulls a human-readable message out of an error body.
// The backend puts it under "detail"; fall back to the raw body.
func serverMessage(data []byte) string {
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
