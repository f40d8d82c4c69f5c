package llm

import (
	"context"
	"errors"
	"os"

	"github.com/mohammad-safakhou/roteiro/config"
)

// Role tags a message with its conversational origin
type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
)

// Message is a single role-tagged text message sent to the capability
type Message struct {
	Role    Role
	Content string
}

// Provider is the language model capability boundary: an ordered list of
// role-tagged messages in, generated text out. Implementations must be safe
// to call sequentially from a single goroutine; no other guarantee is made.
type Provider interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

var (
	// ErrNoCredential is returned by Resolve when no API key can be found
	// and the stub generator is not an acceptable substitute.
	ErrNoCredential = errors.New("no API credential resolvable (set llm.api_key or GROQ_API_KEY)")

	// ErrEmptyCompletion is returned when the capability produced no text.
	ErrEmptyCompletion = errors.New("model returned an empty completion")
)

// Resolve selects the capability implementation exactly once, at
// construction time. "groq" demands a credential, "stub" never uses one,
// and "auto" falls back to the stub generator when no credential resolves.
// The credential is taken from the config value first, then GROQ_API_KEY.
func Resolve(cfg config.LLMConfig) (Provider, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("GROQ_API_KEY")
	}

	switch cfg.Provider {
	case "stub":
		return NewStubProvider(), nil
	case "groq":
		if key == "" {
			return nil, ErrNoCredential
		}
		return NewGroqProvider(key, cfg), nil
	case "", "auto":
		if key != "" {
			return NewGroqProvider(key, cfg), nil
		}
		return NewStubProvider(), nil
	default:
		return nil, errors.New("unsupported llm provider: " + cfg.Provider)
	}
}
