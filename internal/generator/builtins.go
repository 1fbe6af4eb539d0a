package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Lumos-Labs-HQ/sprout/internal/config"
	"github.com/Lumos-Labs-HQ/sprout/internal/provider"
	"github.com/Lumos-Labs-HQ/sprout/internal/snapshot"

	"github.com/google/uuid"
)

// timeLayout is the canonical instant format inside snapshots.
const timeLayout = time.RFC3339

// Constant always returns the same value, nil included.
func Constant(value interface{}) Generator {
	return Func(func(_ context.Context, _ *Context) (interface{}, error) {
		return value, nil
	})
}

// Identifier returns a freshly generated globally-unique identifier.
func Identifier() Generator {
	return Func(func(_ context.Context, _ *Context) (interface{}, error) {
		return uuid.NewString(), nil
	})
}

// TimestampBetween returns a uniform random instant in [lo, hi], formatted
// as RFC3339. Bounds are parsed once at construction.
func TimestampBetween(lo, hi string, rng *rand.Rand) (Generator, error) {
	from, err := time.Parse(timeLayout, lo)
	if err != nil {
		return nil, fmt.Errorf("invalid lower bound %q: %w", lo, err)
	}
	to, err := time.Parse(timeLayout, hi)
	if err != nil {
		return nil, fmt.Errorf("invalid upper bound %q: %w", hi, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("timestamp_between bounds out of order: %s > %s", lo, hi)
	}

	return Func(func(_ context.Context, _ *Context) (interface{}, error) {
		return randomInstant(from, to, rng), nil
	}), nil
}

// TimestampAfter returns a uniform random instant between the named
// column's value on the current row and now. The column must already be
// populated: columns are applied in declared order, and this generator does
// not pre-check the authoring.
func TimestampAfter(column string, rng *rand.Rand) Generator {
	return Func(func(_ context.Context, gc *Context) (interface{}, error) {
		raw, ok := gc.CurrentRow[column]
		if !ok {
			return nil, fmt.Errorf("timestamp_after: column %s not yet populated on current row", column)
		}
		from, err := parseInstant(raw)
		if err != nil {
			return nil, fmt.Errorf("timestamp_after: column %s: %w", column, err)
		}
		now := time.Now().UTC()
		if now.Before(from) {
			return from.Format(timeLayout), nil
		}
		return randomInstant(from, now, rng), nil
	})
}

// SameRow copies another column's value from the row under construction.
func SameRow(column string) Generator {
	return Func(func(_ context.Context, gc *Context) (interface{}, error) {
		value, ok := gc.CurrentRow[column]
		if !ok {
			return nil, fmt.Errorf("same_row: column %s not yet populated on current row", column)
		}
		return value, nil
	})
}

// ParentRow copies a column's value from the associated parent row. Only
// valid in fan-out generation.
func ParentRow(column string) Generator {
	return Func(func(_ context.Context, gc *Context) (interface{}, error) {
		if gc.ForeignRow == nil {
			return nil, fmt.Errorf("parent_row: no parent row in context for column %s", column)
		}
		value, ok := gc.ForeignRow[column]
		if !ok {
			return nil, fmt.Errorf("parent_row: parent row has no column %s", column)
		}
		return value, nil
	})
}

// ForeignValue reads the named table's persisted snapshot and returns the
// named column from a uniformly chosen row. The snapshot is loaded once per
// generator instance. An absent or empty snapshot yields nil when the
// destination column is nullable and a hard error otherwise.
func ForeignValue(table, column string, store snapshot.Store, rng *rand.Rand, nullable bool) Generator {
	var once sync.Once
	var rows []map[string]interface{}

	return Func(func(_ context.Context, _ *Context) (interface{}, error) {
		once.Do(func() {
			loaded, err := store.Read(table)
			if err == nil {
				rows = loaded
			}
		})
		if len(rows) == 0 {
			if nullable {
				return nil, nil
			}
			return nil, fmt.Errorf("foreign_value: snapshot for %s is missing or empty and destination column is not nullable", table)
		}
		return rows[rng.Intn(len(rows))][column], nil
	})
}

// Text assembles a context object per the include options and delegates to
// the content-generation provider, returning its text verbatim.
func Text(prompt string, include config.TextInclude, p provider.Provider, store snapshot.Store) Generator {
	var once sync.Once
	var parentRows []map[string]interface{}

	return Func(func(ctx context.Context, gc *Context) (interface{}, error) {
		contextObj := make(map[string]interface{})

		if include.CurrentRow {
			contextObj["row"] = gc.CurrentRow
		}
		if include.Snapshot {
			contextObj["table_rows"] = gc.Snapshot
		}
		if lookup := include.Parent; lookup != nil {
			once.Do(func() {
				loaded, err := store.Read(lookup.ForeignTable)
				if err == nil {
					parentRows = loaded
				}
			})
			localValue, ok := gc.CurrentRow[lookup.LocalColumn]
			if !ok {
				return nil, fmt.Errorf("text: local column %s not yet populated on current row", lookup.LocalColumn)
			}
			for _, row := range parentRows {
				if fmt.Sprint(row[lookup.KeyColumn]) == fmt.Sprint(localValue) {
					contextObj["parent"] = row
					break
				}
			}
		}

		text, err := p.GenerateText(ctx, prompt, contextObj)
		if err != nil {
			return nil, fmt.Errorf("text generation failed: %w", err)
		}
		if text == "" {
			return nil, provider.ErrEmptyResponse
		}
		return text, nil
	})
}

// UniqueChoice returns values from a fixed domain without repetition within
// each distinct value of scopeColumn. The used-value state is owned by the
// generator instance, so two columns never share history. When a scope
// exhausts the domain the used set wraps around and candidates repeat from
// the start.
func UniqueChoice(domain []interface{}, scopeColumn string) Generator {
	var mu sync.Mutex
	used := make(map[string]map[int]bool)

	return Func(func(_ context.Context, gc *Context) (interface{}, error) {
		if len(domain) == 0 {
			return nil, errors.New("unique_choice: empty domain")
		}

		scopeValue, ok := gc.CurrentRow[scopeColumn]
		if !ok {
			return nil, fmt.Errorf("unique_choice: scope column %s not yet populated on current row", scopeColumn)
		}
		key := fmt.Sprint(scopeValue)

		mu.Lock()
		defer mu.Unlock()

		taken := used[key]
		if taken == nil {
			taken = make(map[int]bool, len(domain))
			used[key] = taken
		}
		if len(taken) == len(domain) {
			// Domain exhausted for this scope: wrap around.
			taken = make(map[int]bool, len(domain))
			used[key] = taken
		}

		for i, candidate := range domain {
			if !taken[i] {
				taken[i] = true
				return candidate, nil
			}
		}
		return nil, errors.New("unique_choice: no candidate available")
	})
}

func randomInstant(from, to time.Time, rng *rand.Rand) string {
	span := to.Sub(from)
	if span <= 0 {
		return from.Format(timeLayout)
	}
	return from.Add(time.Duration(rng.Int63n(int64(span) + 1))).Format(timeLayout)
}

// parseInstant accepts the value shapes an instant can have inside a row:
// time.Time straight from a generator, or an RFC3339 string after a snapshot
// round trip.
func parseInstant(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(timeLayout, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("not a valid RFC3339 instant: %q", t)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("not an instant: %v (%T)", v, v)
	}
}
