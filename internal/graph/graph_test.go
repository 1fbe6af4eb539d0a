package graph

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/Lumos-Labs-HQ/sprout/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(name string, fks ...schema.ForeignKey) *schema.Table {
	t := &schema.Table{Name: name}
	for _, fk := range fks {
		t.ForeignKeys = append(t.ForeignKeys, fk)
		t.Columns = append(t.Columns, schema.Column{Name: fk.Column, DataType: "uuid", Nullable: false})
	}
	return t
}

func fk(column, target string) schema.ForeignKey {
	return schema.ForeignKey{
		ConstraintName: column + "_fkey",
		Column:         column,
		TargetTable:    target,
		TargetColumn:   "id",
	}
}

func TestInsertionOrderScenario(t *testing.T) {
	db := schema.NewDatabase()
	db.AddTable(table("workspaces"))
	db.AddTable(table("projects", fk("workspace_id", "workspaces")))
	db.AddTable(table("states", fk("project_id", "projects")))

	g := Build(db)
	require.Nil(t, g.DetectCycle())

	order := g.InsertionOrder()
	assert.Equal(t, []string{"workspaces", "projects", "states"}, order)
}

func TestNullableForeignKeysDoNotForceOrdering(t *testing.T) {
	db := schema.NewDatabase()

	issues := &schema.Table{Name: "issues"}
	issues.Columns = append(issues.Columns, schema.Column{Name: "parent_id", DataType: "uuid", Nullable: true})
	issues.ForeignKeys = append(issues.ForeignKeys, fk("parent_id", "milestones"))
	db.AddTable(issues)
	db.AddTable(table("milestones"))

	g := Build(db)
	assert.Empty(t, g.Node("issues").Dependencies, "nullable FK must not create an edge")

	order := g.InsertionOrder()
	assert.Len(t, order, 2)
}

func TestSelfReferenceSkipped(t *testing.T) {
	db := schema.NewDatabase()
	db.AddTable(table("categories", fk("parent_category_id", "categories")))

	g := Build(db)
	require.Nil(t, g.DetectCycle())
	assert.Equal(t, []string{"categories"}, g.InsertionOrder())
}

func TestTwoTableCycle(t *testing.T) {
	db := schema.NewDatabase()
	db.AddTable(table("a", fk("b_id", "b")))
	db.AddTable(table("b", fk("a_id", "a")))

	g := Build(db)

	cycle := g.DetectCycle()
	require.NotNil(t, cycle)
	assert.Equal(t, []string{"a", "b", "a"}, cycle)

	// Kahn omits every table on the cycle.
	assert.Empty(t, g.InsertionOrder())
}

func TestCycleOmitsOnlyCyclicTables(t *testing.T) {
	db := schema.NewDatabase()
	db.AddTable(table("roots"))
	db.AddTable(table("a", fk("b_id", "b"), fk("root_id", "roots")))
	db.AddTable(table("b", fk("a_id", "a")))

	g := Build(db)
	require.NotNil(t, g.DetectCycle())

	order := g.InsertionOrder()
	assert.Equal(t, []string{"roots"}, order)
}

func TestCyclePathClosesOnItself(t *testing.T) {
	db := schema.NewDatabase()
	db.AddTable(table("x", fk("y_id", "y")))
	db.AddTable(table("y", fk("z_id", "z")))
	db.AddTable(table("z", fk("x_id", "x")))

	g := Build(db)
	cycle := g.DetectCycle()
	require.NotEmpty(t, cycle)

	assert.Equal(t, cycle[0], cycle[len(cycle)-1], "cycle path must begin and end at the same table")
	for i := 0; i < len(cycle)-1; i++ {
		node := g.Node(cycle[i])
		require.NotNil(t, node)
		_, ok := node.Dependencies[cycle[i+1]]
		assert.True(t, ok, "edge %s -> %s must exist", cycle[i], cycle[i+1])
	}
}

// Random DAGs: edges only point from higher to lower index, so the graph is
// acyclic by construction. The order must contain every table exactly once
// and never place a table before one of its dependencies.
func TestInsertionOrderRandomDAGs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		n := 2 + rng.Intn(19)
		db := schema.NewDatabase()

		deps := make(map[string]map[string]bool)
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("t%02d", i)
			var fks []schema.ForeignKey
			deps[name] = make(map[string]bool)
			for j := 0; j < i; j++ {
				if rng.Intn(4) == 0 {
					target := fmt.Sprintf("t%02d", j)
					fks = append(fks, fk(fmt.Sprintf("fk_%d", j), target))
					deps[name][target] = true
				}
			}
			db.AddTable(table(name, fks...))
		}

		g := Build(db)
		require.Nil(t, g.DetectCycle(), "trial %d: DAG misdetected as cyclic", trial)

		order := g.InsertionOrder()
		require.Len(t, order, n, "trial %d: order must contain every table", trial)

		position := make(map[string]int, n)
		for i, name := range order {
			require.NotContains(t, position, name, "trial %d: duplicate table in order", trial)
			position[name] = i
		}
		for name, targets := range deps {
			for target := range targets {
				assert.Less(t, position[target], position[name],
					"trial %d: %s depends on %s but precedes it", trial, name, target)
			}
		}
	}
}

// Random graphs with unrestricted edges: DetectCycle must agree with Kahn
// (order is complete iff no cycle reported).
func TestCycleDetectorAgreesWithKahn(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for trial := 0; trial < 50; trial++ {
		n := 2 + rng.Intn(10)
		db := schema.NewDatabase()

		for i := 0; i < n; i++ {
			name := fmt.Sprintf("t%02d", i)
			var fks []schema.ForeignKey
			for j := 0; j < n; j++ {
				if j != i && rng.Intn(5) == 0 {
					fks = append(fks, fk(fmt.Sprintf("fk_%d", j), fmt.Sprintf("t%02d", j)))
				}
			}
			db.AddTable(table(name, fks...))
		}

		g := Build(db)
		cycle := g.DetectCycle()
		order := g.InsertionOrder()

		if cycle == nil {
			assert.Len(t, order, n, "trial %d: acyclic graph must yield a complete order", trial)
		} else {
			assert.Less(t, len(order), n, "trial %d: cyclic graph must omit cyclic tables", trial)
		}
	}
}
