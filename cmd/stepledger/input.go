package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dukex/stepledger/pkg/cmd"
	"github.com/dukex/stepledger/pkg/log"
	"github.com/dukex/stepledger/pkg/persistence"
	cli "github.com/urfave/cli/v3"
)

var errMissingFile = errors.New("expected a FILE argument (use - for stdin)")

// readDocument returns the content of the FILE argument, or stdin for "-".
func readDocument(command *cli.Command) (string, error) {
	path := command.Args().First()
	if path == "" {
		return "", errMissingFile
	}

	if path == "-" {
		data, err := io.ReadAll(command.Root().Reader)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}

		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return string(data), nil
}

// withPersistence opens the configured backend for the duration of fn.
func withPersistence(ctx context.Context, command *cli.Command, fn func(persistence.Persistence) error) error {
	logger := log.WithModule("cli")

	p, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := p.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	return fn(p)
}
