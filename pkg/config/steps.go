// Package config loads the worker's step definitions from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dukex/stepledger/pkg/models"
	"github.com/dukex/stepledger/pkg/runner"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

var ErrDuplicateStep = errors.New("duplicate step name")

// StepsFile is the structure of a steps.yaml file.
type StepsFile struct {
	Steps []StepConfig `yaml:"steps" validate:"required,min=1,dive"`
}

// StepConfig describes one scheduled command step.
type StepConfig struct {
	Name     string   `yaml:"name"     validate:"required,max=255,stepkey"`
	Schedule string   `yaml:"schedule" validate:"required,cronspec"`
	Command  []string `yaml:"command"  validate:"required,min=1,dive,required"`
	// RunID pins every execution to one run; empty means a fresh run per tick.
	RunID            string            `yaml:"run_id"            validate:"omitempty,max=255,stepkey"`
	Dir              string            `yaml:"dir"`
	Env              map[string]string `yaml:"env"`
	Outputs          []string          `yaml:"outputs"`
	Timeout          time.Duration     `yaml:"timeout"           validate:"gte=0"`
	InitialCondition string            `yaml:"initial_condition"`
	FinalCondition   string            `yaml:"final_condition"`
}

// CommandStep builds the runner step for this definition. Env entries are
// sorted by key so the environment is stable between runs.
func (c StepConfig) CommandStep() *runner.CommandStep {
	keys := make([]string, 0, len(c.Env))
	for key := range c.Env {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, key := range keys {
		env = append(env, key+"="+c.Env[key])
	}

	return &runner.CommandStep{
		StepName:         c.Name,
		Command:          c.Command,
		Dir:              c.Dir,
		Env:              env,
		Outputs:          c.Outputs,
		Timeout:          c.Timeout,
		InitialCondition: c.InitialCondition,
		FinalCondition:   c.FinalCondition,
	}
}

// LoadSteps reads and validates a steps file.
func LoadSteps(path string) (*StepsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read steps file %s: %w", path, err)
	}

	return ParseSteps(data)
}

// ParseSteps decodes and validates steps file content.
func ParseSteps(data []byte) (*StepsFile, error) {
	var file StepsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML steps file: %w", err)
	}

	if err := ValidateSteps(&file); err != nil {
		return nil, err
	}

	return &file, nil
}

// ValidateSteps checks field constraints, cron expressions and that step
// names are unique.
func ValidateSteps(file *StepsFile) error {
	if err := newValidator().Struct(file); err != nil {
		return fmt.Errorf("invalid steps file: %w", err)
	}

	seen := make(map[string]bool, len(file.Steps))
	for _, step := range file.Steps {
		if seen[step.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateStep, step.Name)
		}

		seen[step.Name] = true
	}

	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("stepkey", func(fl validator.FieldLevel) bool {
		return models.ValidateKey(fl.Field().String()) == nil
	})

	_ = v.RegisterValidation("cronspec", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())

		return err == nil
	})

	return v
}
