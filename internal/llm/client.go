// Package llm talks to a local Ollama server for the chat front-end.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Accepted ranges for generation settings.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinMaxTokens   = 100
	MaxMaxTokens   = 2000
)

// Settings are the generation parameters of a chat session.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Validate checks the settings against the accepted ranges.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Model) == "" {
		return fmt.Errorf("llm: model required")
	}
	if s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		return fmt.Errorf("llm: temperature %.2f outside [%.1f, %.1f]", s.Temperature, MinTemperature, MaxTemperature)
	}
	if s.MaxTokens < MinMaxTokens || s.MaxTokens > MaxMaxTokens {
		return fmt.Errorf("llm: max tokens %d outside [%d, %d]", s.MaxTokens, MinMaxTokens, MaxMaxTokens)
	}
	return nil
}

// Client calls the Ollama HTTP API.
type Client struct {
	BaseURL string

	HTTPClient *http.Client
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string      `json:"model"`
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Chat sends prompt as a single user turn and returns the reply.
func (c *Client) Chat(ctx context.Context, s Settings, prompt string) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	req := chatRequest{
		Model:    s.Model,
		Messages: []chatMessage{{Role: RoleUser, Content: prompt}},
		Options:  chatOptions{Temperature: s.Temperature, NumPredict: s.MaxTokens},
	}

	var payload chatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &payload); err != nil {
		return "", err
	}
	if payload.Error != "" {
		return "", fmt.Errorf("llm error: %s", payload.Error)
	}
	if payload.Message.Content == "" {
		return "", fmt.Errorf("llm: empty response")
	}
	return payload.Message.Content, nil
}

// ListModels returns the names of locally available models. It doubles as
// the connection check.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var payload tagsResponse
	if err := c.do(ctx, http.MethodGet, "/api/tags", nil, &payload); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(payload.Models))
	for _, m := range payload.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.BaseURL == "" {
		return fmt.Errorf("llm: base URL required")
	}

	var body io.Reader
	if in != nil {
		reqBody, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("llm error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("llm error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.Unmarshal(data, out)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 120 * time.Second}
}
