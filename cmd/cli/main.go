package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/blockflow/internal/cli"
)

// main is the entrypoint for the blockflow application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. SIGINT and SIGTERM stop a running dag.
func run(outW io.Writer, args []string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Block constructors are third-party code; a panic that escapes the
	// registry still ends in a clean exit message.
	defer func() {
		if r := recover(); r != nil {
			err = &cli.ExitError{Code: cli.ExitExecution, Message: fmt.Sprintf("application panicked: %v", r)}
		}
	}()

	return cli.Execute(ctx, outW, args)
}
