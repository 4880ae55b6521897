package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperr "github.com/campusqa/courseqa/internal/pkg/errors"
)

// ErrUnavailable marks a provider that cannot serve requests at all, e.g.
// missing credentials.
var ErrUnavailable = apperr.ErrUnavailable

// transient marks an upstream failure worth retrying.
func transient(err error) error {
	return apperr.Transient(err)
}

// Gemini task types for embedding requests. The query side and the document
// side use different task types so the vectors land in comparable spaces.
const (
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
	TaskTypeQuery    = "RETRIEVAL_QUERY"
)

type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string) (string, error)
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, model string, texts []string, taskType string) ([][]float32, error)
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
