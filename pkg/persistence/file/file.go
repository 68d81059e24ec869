// Package file stores step results as JSON documents under a root directory,
// one file per step at <root>/runs/<run>/<step>.json.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dukex/stepledger/pkg/persistence"
)

var errRootNotDirectory = errors.New("persistence root is not a directory")

type Persistence struct {
	root        string
	stepResults *StepResultRepository
}

// NewPersistence accepts a plain path or a file:// URL. The root is created
// on the first write.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.TrimPrefix(root, "file://")

	return &Persistence{
		root:        cleanRoot,
		stepResults: NewStepResultRepository(cleanRoot),
	}
}

func (fp *Persistence) StepResultRepository() persistence.StepResultRepository {
	return fp.stepResults
}

// HealthCheck reports whether the root exists and is a directory.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	info, err := os.Stat(fp.root)
	if err != nil {
		return fmt.Errorf("persistence root %s: %w", fp.root, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", errRootNotDirectory, fp.root)
	}

	return nil
}

// Close is a no-op; every write is flushed before Save returns.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}
