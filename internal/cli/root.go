package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jakoblorz/express-ts-generator/internal/config"
	"github.com/jakoblorz/express-ts-generator/internal/execx"
	"github.com/jakoblorz/express-ts-generator/internal/filesystem"
	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X"
var Version = "dev"

// RunnerFactory creates the subprocess runner once the output flags are
// known. Child stdout is written to stdout.
type RunnerFactory func(stdout io.Writer, logger *slog.Logger) execx.Runner

// NewRootCommand creates the root command
func NewRootCommand(fs filesystem.FileSystem, newRunner RunnerFactory, lookupEnv config.LookupEnvFunc) *cobra.Command {
	return newGenerateCommand(fs, newRunner, lookupEnv).command()
}

// Execute runs the root command. Cancelling ctx kills running subprocesses.
func Execute(ctx context.Context) error {
	fs := filesystem.NewOSFileSystem()
	newRunner := func(stdout io.Writer, logger *slog.Logger) execx.Runner {
		return execx.NewOSRunner(stdout, logger)
	}

	rootCmd := NewRootCommand(fs, newRunner, os.LookupEnv)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}

	return nil
}
