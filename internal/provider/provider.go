// Package provider defines the content-generation boundary. The pipeline
// only depends on the Provider interface; transport (HTTP, gRPC, local
// model) is an injection concern of the caller.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Provider turns a prompt plus structured context into text. An empty
// response is an error; callers treat a provider failure as fatal for the
// row being generated.
type Provider interface {
	GenerateText(ctx context.Context, prompt string, context map[string]interface{}) (string, error)
}

// ErrEmptyResponse is returned when a provider produces no usable text.
var ErrEmptyResponse = errors.New("provider returned no usable response")

// Template is an offline Provider that renders the prompt followed by the
// context's key/value pairs in sorted key order. It exists so the pipeline
// works without a remote provider and so tests are deterministic.
type Template struct{}

func NewTemplate() *Template {
	return &Template{}
}

func (t *Template) GenerateText(_ context.Context, prompt string, contextObj map[string]interface{}) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	b.WriteString(prompt)

	keys := make([]string, 0, len(contextObj))
	for k := range contextObj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(&b, " [%s=%v]", k, contextObj[k])
	}
	return b.String(), nil
}
