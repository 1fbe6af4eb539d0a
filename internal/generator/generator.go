package generator

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/Lumos-Labs-HQ/sprout/internal/config"
	"github.com/Lumos-Labs-HQ/sprout/internal/provider"
	"github.com/Lumos-Labs-HQ/sprout/internal/schema"
	"github.com/Lumos-Labs-HQ/sprout/internal/snapshot"
)

// Context carries everything a column generator may read while producing a
// value: the row under construction (columns filled so far, in declared
// order), the parent row in fan-out mode, the table definition, and the rows
// already generated for this table.
type Context struct {
	CurrentRow map[string]interface{}
	ForeignRow map[string]interface{}
	Table      *schema.Table
	Snapshot   []map[string]interface{}
}

// Generator produces one column value per invocation. Implementations must
// be side-effect-free except where the contract says otherwise
// (UniqueChoice owns per-scope state).
type Generator interface {
	Generate(ctx context.Context, gc *Context) (interface{}, error)
}

// Func adapts a plain function to Generator.
type Func func(ctx context.Context, gc *Context) (interface{}, error)

func (f Func) Generate(ctx context.Context, gc *Context) (interface{}, error) {
	return f(ctx, gc)
}

// Deps are the collaborators a generator factory may need. Rand is the
// injectable pseudo-random source; Store serves foreign snapshots; Provider
// is the external content-generation service.
type Deps struct {
	Rand     *rand.Rand
	Store    snapshot.Store
	Provider provider.Provider
}

// Build turns a validated GeneratorSpec into a Generator instance. table is
// the destination table's schema; column is the destination column name,
// used to resolve nullability for foreign_value.
func Build(spec config.GeneratorSpec, table *schema.Table, column string, deps Deps) (Generator, error) {
	switch spec.Kind {
	case "constant":
		return Constant(spec.Value), nil
	case "random":
		return Random(spec, deps.Rand)
	case "identifier":
		return Identifier(), nil
	case "timestamp_between":
		return TimestampBetween(spec.From, spec.To, deps.Rand)
	case "timestamp_after":
		return TimestampAfter(spec.Column, deps.Rand), nil
	case "same_row":
		return SameRow(spec.Column), nil
	case "parent_row":
		return ParentRow(spec.Column), nil
	case "foreign_value":
		nullable := table != nil && table.NullableColumn(column)
		return ForeignValue(spec.Table, spec.Column, deps.Store, deps.Rand, nullable), nil
	case "text":
		return Text(spec.Prompt, spec.Include, deps.Provider, deps.Store), nil
	case "unique_choice":
		return UniqueChoice(spec.Domain, spec.ScopeColumn), nil
	default:
		return nil, fmt.Errorf("unknown generator kind %q", spec.Kind)
	}
}
