package cdc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogListenerAcceptsAnyOrder(t *testing.T) {
	var l Listener = LogListener{}
	assert.NoError(t, l.Subscribe(context.Background(), []string{"workspaces", "projects"}))
	assert.NoError(t, l.Subscribe(context.Background(), nil))
}
