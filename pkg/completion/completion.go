// Package completion talks to chat completion APIs.
//
// The generation pipeline only needs one operation: send a system prompt and
// a user message, get text back. [Provider] captures that; [Client] implements
// it for OpenAI compatible endpoints (OpenAI, Azure proxies, vLLM, Ollama).
//
// A missing API key is reported as [ErrMissingCredential] before any request
// is made. Callers must surface that error instead of falling back to a
// synthesized document, see [IsMissingCredential].
package completion

import (
	"context"
	"strings"

	"github.com/matzehuels/flowsketch/pkg/errors"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion call.
type Request struct {
	// System is sent as the leading system message when non-empty.
	System   string
	Messages []Message
	// MaxTokens caps the response length. Zero uses the client default.
	MaxTokens int
	// Temperature is passed through when set.
	Temperature *float64
	// JSON asks the endpoint for a JSON object response.
	JSON bool
}

// Response is the text a provider returned.
type Response struct {
	Content      string
	Model        string
	FinishReason string
	InputTokens  int
	OutputTokens int
}

// Provider produces completions.
type Provider interface {
	// Name identifies the provider in logs and cache keys.
	Name() string
	// Complete sends req and returns the first choice.
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// ErrMissingCredential is returned when no API key is configured.
var ErrMissingCredential = errors.New(errors.ErrCodeMissingCredential, "completion API key is not configured")

// IsMissingCredential reports whether err means the provider could not
// authenticate for lack of a key. Besides the MISSING_CREDENTIAL code it
// recognizes provider messages such as "missing API key" or "no credentials
// found", since some gateways only say so in prose.
func IsMissingCredential(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errors.ErrCodeMissingCredential) {
		return true
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "api key") && !strings.Contains(msg, "api_key") &&
		!strings.Contains(msg, "apikey") && !strings.Contains(msg, "credential") {
		return false
	}
	for _, hint := range []string{"missing", "not set", "not configured", "not provided", "no api", "no credential", "required"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// Complete sends one user message through p. A nil provider behaves as an
// unconfigured one.
func Complete(ctx context.Context, p Provider, req *Request) (*Response, error) {
	if p == nil {
		return nil, ErrMissingCredential
	}
	return p.Complete(ctx, req)
}
