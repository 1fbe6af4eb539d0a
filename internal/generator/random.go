package generator

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/Lumos-Labs-HQ/sprout/internal/config"
)

var (
	firstNames = []string{"John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry"}
	lastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
	words      = []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"}
	domains    = []string{"example.com", "test.com", "demo.com", "mail.com"}
	sentences  = []string{
		"This is a sample text generated for testing purposes.",
		"Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
		"The quick brown fox jumps over the lazy dog.",
		"Software development requires careful planning and execution.",
		"Database design is crucial for application performance.",
	}
)

// Random returns a generator backed by the injected pseudo-random source.
// The source selects the value domain: numeric ranges, booleans, enumerated
// choices, or the built-in fakes.
func Random(spec config.GeneratorSpec, rng *rand.Rand) (Generator, error) {
	if rng == nil {
		return nil, fmt.Errorf("random generator requires a random source")
	}

	var fn func() interface{}
	switch spec.Source {
	case "int":
		lo, hi := int64(spec.Min), int64(spec.Max)
		if hi < lo {
			return nil, fmt.Errorf("random int source requires min <= max")
		}
		fn = func() interface{} { return lo + rng.Int63n(hi-lo+1) }
	case "float":
		lo, hi := spec.Min, spec.Max
		if hi < lo {
			return nil, fmt.Errorf("random float source requires min <= max")
		}
		fn = func() interface{} { return lo + rng.Float64()*(hi-lo) }
	case "bool":
		fn = func() interface{} { return rng.Intn(2) == 1 }
	case "choice":
		if len(spec.Choices) == 0 {
			return nil, fmt.Errorf("random choice source requires a non-empty choices list")
		}
		choices := spec.Choices
		fn = func() interface{} { return choices[rng.Intn(len(choices))] }
	case "name":
		fn = func() interface{} {
			return firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
		}
	case "email":
		fn = func() interface{} {
			return fmt.Sprintf("user%d@%s", rng.Intn(1000000), domains[rng.Intn(len(domains))])
		}
	case "word":
		fn = func() interface{} { return words[rng.Intn(len(words))] }
	case "sentence":
		fn = func() interface{} { return sentences[rng.Intn(len(sentences))] }
	case "url":
		fn = func() interface{} { return fmt.Sprintf("https://example.com/page/%d", rng.Intn(1000)) }
	case "phone":
		fn = func() interface{} {
			return fmt.Sprintf("+1-%03d-%03d-%04d", rng.Intn(1000), rng.Intn(1000), rng.Intn(10000))
		}
	case "address":
		fn = func() interface{} {
			return fmt.Sprintf("%d Main Street, City, State %05d", rng.Intn(9999)+1, rng.Intn(100000))
		}
	default:
		return nil, fmt.Errorf("unknown random source %q", spec.Source)
	}

	return Func(func(_ context.Context, _ *Context) (interface{}, error) {
		return fn(), nil
	}), nil
}
