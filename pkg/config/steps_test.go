package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSteps = `
steps:
  - name: build
    schedule: "*/5 * * * *"
    command: ["make", "build"]
    dir: /srv/app
    env:
      TARGET: linux
      CGO_ENABLED: "0"
    outputs: [bin/app]
    timeout: 2m
    initial_condition: clean
    final_condition: built
  - name: nightly-report
    schedule: "@daily"
    command: ["./report.sh"]
    run_id: nightly
`

func TestParseSteps(t *testing.T) {
	file, err := ParseSteps([]byte(validSteps))
	require.NoError(t, err)
	require.Len(t, file.Steps, 2)

	build := file.Steps[0]
	assert.Equal(t, "build", build.Name)
	assert.Equal(t, "*/5 * * * *", build.Schedule)
	assert.Equal(t, []string{"make", "build"}, build.Command)
	assert.Equal(t, 2*time.Minute, build.Timeout)
	assert.Empty(t, build.RunID)

	step := build.CommandStep()
	assert.Equal(t, "build", step.Name())
	assert.Equal(t, []string{"CGO_ENABLED=0", "TARGET=linux"}, step.Env)
	assert.Equal(t, "/srv/app", step.Dir)
	assert.Equal(t, []string{"bin/app"}, step.Outputs)
	assert.Equal(t, "clean", step.InitialCondition)
	assert.Equal(t, "built", step.FinalCondition)

	assert.Equal(t, "nightly", file.Steps[1].RunID)
}

func TestParseSteps_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "no steps",
			content: "steps: []",
		},
		{
			name: "missing command",
			content: `
steps:
  - name: build
    schedule: "@hourly"
`,
		},
		{
			name: "bad schedule",
			content: `
steps:
  - name: build
    schedule: "every tuesday"
    command: [make]
`,
		},
		{
			name: "name with path separator",
			content: `
steps:
  - name: ../build
    schedule: "@hourly"
    command: [make]
`,
		},
		{
			name: "invalid run id",
			content: `
steps:
  - name: build
    schedule: "@hourly"
    command: [make]
    run_id: a/b
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSteps([]byte(tt.content))
			require.Error(t, err)

			var validationErrors validator.ValidationErrors
			assert.ErrorAs(t, err, &validationErrors)
		})
	}
}

func TestParseSteps_Duplicate(t *testing.T) {
	content := `
steps:
  - name: build
    schedule: "@hourly"
    command: [make]
  - name: build
    schedule: "@daily"
    command: [make, all]
`

	_, err := ParseSteps([]byte(content))
	require.ErrorIs(t, err, ErrDuplicateStep)
}

func TestParseSteps_MalformedYAML(t *testing.T) {
	_, err := ParseSteps([]byte("steps: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadSteps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validSteps), 0o600))

	file, err := LoadSteps(path)
	require.NoError(t, err)
	assert.Len(t, file.Steps, 2)

	_, err = LoadSteps(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
