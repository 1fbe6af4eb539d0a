// Package cdc is the boundary to change-data-capture collaborators. A
// listener consumes the same insertion-order table list the generation and
// load pipeline uses, so its subscription set always matches what gets
// written.
package cdc

import (
	"context"
	"strings"

	"github.com/fatih/color"
)

// Listener subscribes to changes on the tables named by the insertion
// order. Implementations are external; the pipeline only hands over the
// list.
type Listener interface {
	Subscribe(ctx context.Context, order []string) error
}

// LogListener prints the subscription set and does nothing else. It stands
// in where no real CDC infrastructure is wired up.
type LogListener struct{}

func (LogListener) Subscribe(_ context.Context, order []string) error {
	color.Cyan("  📡 CDC subscription set: %s", strings.Join(order, ", "))
	return nil
}
