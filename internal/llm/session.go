package llm

import (
	"context"
	"strings"
	"time"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of the chat history.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session keeps the in-memory history of one chat. It is never persisted.
// Every prompt is sent as a single turn; the history is for display only.
type Session struct {
	Client   *Client
	Settings Settings

	history []Turn
	now     func() time.Time
}

// NewSession creates an empty session.
func NewSession(client *Client, s Settings) *Session {
	return &Session{Client: client, Settings: s, now: time.Now}
}

// Send records prompt, asks the model and records the reply. A failed
// request keeps the user turn but adds no assistant turn.
func (s *Session) Send(ctx context.Context, prompt string) (string, error) {
	s.append(RoleUser, prompt)
	reply, err := s.Client.Chat(ctx, s.Settings, prompt)
	if err != nil {
		return "", err
	}
	s.append(RoleAssistant, reply)
	return reply, nil
}

// History returns a copy of the turns so far.
func (s *Session) History() []Turn {
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Clear drops the history.
func (s *Session) Clear() {
	s.history = nil
}

func (s *Session) append(role, content string) {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	s.history = append(s.history, Turn{Role: role, Content: content, Timestamp: now()})
}

// MentionsModel reports whether err looks like a missing or unknown model,
// in which case pulling the model usually helps.
func MentionsModel(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "model")
}
