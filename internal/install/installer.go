// Package install adds the dependencies a converted project needs to build
// and run TypeScript.
package install

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/jakoblorz/express-ts-generator/internal/execx"
	"github.com/jakoblorz/express-ts-generator/internal/models"
)

// DevDependencies are added to every converted project
var DevDependencies = []string{
	"typescript",
	"@types/node",
	"@types/express",
	"@types/http-errors",
	"@types/debug",
	"@types/cookie-parser",
	"@types/morgan",
}

// RuntimeDevDependencies are added on top of DevDependencies per runtime
var RuntimeDevDependencies = map[models.Runtime][]string{
	models.RuntimeNode: {"tsx"},
	models.RuntimeBun:  {"@types/bun"},
}

// Result records what the installer ran
type Result struct {
	Commands []string
	Warnings []string
}

// Installer runs the package manager in the project root
type Installer struct {
	runner execx.Runner
	logger *slog.Logger
}

// NewInstaller creates a new Installer
func NewInstaller(runner execx.Runner, logger *slog.Logger) *Installer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Installer{runner: runner, logger: logger}
}

// Plan returns the commands Install runs, in order, and warnings for
// requested steps the runtime cannot perform.
func Plan(req models.GenerationRequest, layout models.TargetLayout) ([]execx.Command, []string) {
	pm := req.Runtime.PackageManager()
	dir := layout.Root

	deps := append(append([]string{}, DevDependencies...), RuntimeDevDependencies[req.Runtime]...)

	var commands []execx.Command
	var warnings []string

	switch req.Runtime {
	case models.RuntimeBun:
		commands = append(commands,
			execx.NewCommand(dir, pm, "install"),
			execx.NewCommand(dir, pm, append([]string{"add", "--dev"}, deps...)...),
		)
		if req.ForceAudit {
			warnings = append(warnings, "bun has no audit fix; skipping forced audit remediation")
		}
	default:
		commands = append(commands,
			execx.NewCommand(dir, pm, "install"),
			execx.NewCommand(dir, pm, append([]string{"install", "--save-dev"}, deps...)...),
		)
		if req.ForceAudit {
			commands = append(commands, execx.NewCommand(dir, pm, "audit", "fix", "--force"))
		}
	}

	return commands, warnings
}

// Install runs the planned commands, stopping at the first failure. Files
// already converted are not touched on failure.
func (i *Installer) Install(req models.GenerationRequest, layout models.TargetLayout) (*Result, error) {
	commands, warnings := Plan(req, layout)
	result := &Result{Warnings: warnings}

	for _, w := range warnings {
		i.logger.Warn(w)
	}

	for _, cmd := range commands {
		i.logger.Debug("installing", "command", cmd.String(), "dir", cmd.Dir)
		if err := i.runner.Run(cmd); err != nil {
			return result, fmt.Errorf("failed to install dependencies: %w", err)
		}
		result.Commands = append(result.Commands, cmd.String())
	}

	return result, nil
}
