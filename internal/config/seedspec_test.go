package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSpec = `
tables:
  workspaces:
    row_generation:
      kind: static
      count: 5
    primary_keys: [id]
    columns:
      - name: id
        generator:
          kind: identifier
      - name: name
        generator:
          kind: random
          source: name
      - name: created_at
        generator:
          kind: timestamp_between
          from: "2024-01-01T00:00:00Z"
          to: "2024-12-31T00:00:00Z"
      - name: updated_at
        generator:
          kind: timestamp_after
          column: created_at

  projects:
    concurrent: true
    row_generation:
      kind: foreign_table
      parent_table: workspaces
      parent_key_column: id
      child_fk_column: workspace_id
      count_per_entry:
        min: 10
        max: 20
    columns:
      - name: id
        generator:
          kind: identifier
      - name: description
        generator:
          kind: text
          prompt: "Describe this project"
          include:
            current_row: true

  states:
    row_generation:
      kind: foreign_table
      parent_table: projects
      parent_key_column: id
      child_fk_column: project_id
      count_per_entry: 4
    columns:
      - name: id
        generator:
          kind: identifier
      - name: name
        generator:
          kind: unique_choice
          domain: [backlog, todo, in_progress, done, cancelled]
          scope_column: project_id

  users:
    skip_generate: true

  audit_events:
    skip_generate: true
    skip_import: true
`

func TestParseSeedSpec(t *testing.T) {
	spec, err := ParseSeedSpec([]byte(sampleSpec))
	require.NoError(t, err)
	require.Len(t, spec.Tables, 5)

	workspaces := spec.Tables["workspaces"]
	require.NotNil(t, workspaces)
	assert.True(t, workspaces.Active())
	assert.True(t, workspaces.Importable())
	assert.Equal(t, "static", workspaces.RowGeneration.Kind)
	assert.Equal(t, 5, workspaces.RowGeneration.Count)
	assert.Equal(t, []string{"id"}, workspaces.PrimaryKeys)

	// Column order is the declared order, not alphabetical.
	var names []string
	for _, col := range workspaces.Columns {
		names = append(names, col.Name)
	}
	assert.Equal(t, []string{"id", "name", "created_at", "updated_at"}, names)

	projects := spec.Tables["projects"]
	assert.True(t, projects.Concurrent)
	assert.Equal(t, "foreign_table", projects.RowGeneration.Kind)
	assert.Equal(t, 10, projects.RowGeneration.CountPerEntry.Min)
	assert.Equal(t, 20, projects.RowGeneration.CountPerEntry.Max)

	// Scalar count_per_entry decodes as a fixed range.
	states := spec.Tables["states"]
	assert.Equal(t, 4, states.RowGeneration.CountPerEntry.Min)
	assert.Equal(t, 4, states.RowGeneration.CountPerEntry.Max)

	users := spec.Tables["users"]
	assert.False(t, users.Active())
	assert.True(t, users.Importable())

	audit := spec.Tables["audit_events"]
	assert.False(t, audit.Active())
	assert.False(t, audit.Importable())
}

func TestParseSeedSpecRejectsUnknownGeneratorKind(t *testing.T) {
	_, err := ParseSeedSpec([]byte(`
tables:
  projects:
    row_generation: {kind: static, count: 1}
    columns:
      - name: id
        generator: {kind: banana}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown generator kind")
}

func TestParseSeedSpecRejectsBadRowGeneration(t *testing.T) {
	cases := map[string]string{
		"zero static count": `
tables:
  a:
    row_generation: {kind: static, count: 0}
    columns: [{name: id, generator: {kind: identifier}}]
`,
		"missing fan-out fields": `
tables:
  a:
    row_generation: {kind: foreign_table, count_per_entry: 3}
    columns: [{name: id, generator: {kind: identifier}}]
`,
		"inverted range": `
tables:
  a:
    row_generation:
      kind: foreign_table
      parent_table: p
      parent_key_column: id
      child_fk_column: p_id
      count_per_entry: {min: 5, max: 2}
    columns: [{name: id, generator: {kind: identifier}}]
`,
		"unknown kind": `
tables:
  a:
    row_generation: {kind: exponential}
    columns: [{name: id, generator: {kind: identifier}}]
`,
		"missing row_generation": `
tables:
  a:
    columns: [{name: id, generator: {kind: identifier}}]
`,
		"duplicate column": `
tables:
  a:
    row_generation: {kind: static, count: 1}
    columns:
      - {name: id, generator: {kind: identifier}}
      - {name: id, generator: {kind: identifier}}
`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSeedSpec([]byte(doc))
			assert.Error(t, err)
		})
	}
}
