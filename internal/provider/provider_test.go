package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRendersContextInSortedKeyOrder(t *testing.T) {
	p := NewTemplate()

	got, err := p.GenerateText(context.Background(), "Write a project summary", map[string]interface{}{
		"workspace": "acme",
		"name":      "launch",
		"count":     3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Write a project summary [count=3] [name=launch] [workspace=acme]", got)
}

func TestTemplateWithoutContext(t *testing.T) {
	p := NewTemplate()

	got, err := p.GenerateText(context.Background(), "Write a tagline", nil)
	require.NoError(t, err)
	assert.Equal(t, "Write a tagline", got)
}

func TestTemplateRejectsBlankPrompt(t *testing.T) {
	p := NewTemplate()

	_, err := p.GenerateText(context.Background(), "   ", map[string]interface{}{"k": "v"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
