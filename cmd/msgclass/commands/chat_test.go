package commands

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/solvaholic/msgclass/internal/llm"
)

type roundTrip func(*http.Request) *http.Response

func (rt roundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt(req), nil
}

func TestChatLoop(t *testing.T) {
	calls := 0
	client := &llm.Client{
		BaseURL: "http://ollama.test",
		HTTPClient: &http.Client{
			Transport: roundTrip(func(req *http.Request) *http.Response {
				calls++
				body := `{"message":{"role":"assistant","content":"Siap membantu"}}`
				status := 200
				if calls == 2 {
					body, status = `{"error":"model 'gemma3:1b' not found"}`, 404
				}
				return &http.Response{
					StatusCode: status,
					Body:       io.NopCloser(strings.NewReader(body)),
					Header:     make(http.Header),
				}
			}),
		},
	}
	session := llm.NewSession(client, llm.Settings{Model: "gemma3:1b", Temperature: 0.7, MaxTokens: 500})

	in := strings.NewReader("halo\n\nlagi\n/history\n/clear\n/history\n/exit\nignored\n")
	var out bytes.Buffer
	if err := chatLoop(context.Background(), in, &out, session); err != nil {
		t.Fatalf("chatLoop: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Siap membantu",
		"Error: ",
		"ollama pull gemma3:1b",
		"user: halo",
		"Chat history cleared.",
		"No messages yet.",
		"Goodbye!",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if calls != 2 {
		t.Errorf("expected 2 requests, got %d", calls)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
