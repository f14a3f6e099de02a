package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vk/blockflow/internal/app"
	"github.com/vk/blockflow/internal/registry"
)

// Exit codes.
const (
	ExitOK           = 0
	ExitExecution    = 1
	ExitUsage        = 2
	ExitNotFound     = 3
	ExitConstruction = 4
	ExitIncomplete   = 5
	ExitConfig       = 6
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Execute runs the command line in args. Output and logs go to outW.
// Cancelling ctx stops a running dag. Every error returned is an
// *ExitError.
func Execute(ctx context.Context, outW io.Writer, args []string) error {
	slog.Debug("CLI parser started.")
	root, b := newRootCommand(outW)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil && !b.started {
		// Unknown commands and malformed flags fail before any command runs.
		return usageError(err)
	}
	return toExitError(err)
}

// toExitError assigns an exit code to err.
func toExitError(err error) error {
	if err == nil {
		return nil
	}
	code := ExitExecution
	var (
		exitErr         *ExitError
		constructionErr *registry.ConstructionError
		notFoundErr     *registry.NotFoundError
		configErr       *app.ConfigError
	)
	switch {
	case errors.As(err, &exitErr):
		return exitErr
	case errors.As(err, &constructionErr):
		code = ExitConstruction
	case errors.As(err, &notFoundErr):
		code = ExitNotFound
	case errors.Is(err, app.ErrIncomplete):
		code = ExitIncomplete
	case errors.As(err, &configErr):
		code = ExitConfig
	case errors.Is(err, app.ErrNotConfigBlock):
		code = ExitUsage
	}
	return &ExitError{Code: code, Message: err.Error()}
}

func usageError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// usageArgs turns argument validation failures into usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usageError(check(cmd, args))
	}
}

func errUnknownFormat(format string) error {
	return fmt.Errorf("invalid format %q: must be 'hcl' or 'yaml'", format)
}
