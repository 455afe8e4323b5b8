package execx

import (
	"context"
	"errors"
	"strings"
)

// ErrCommandFailed is wrapped by every error caused by a non-zero exit or a
// command that could not be started
var ErrCommandFailed = errors.New("command failed")

// Command is one child process invocation
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current directory
	Dir string
}

// NewCommand creates a Command running in dir
func NewCommand(dir, name string, args ...string) Command {
	return Command{Name: name, Args: args, Dir: dir}
}

// String renders the command line the way a user would type it
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, arg := range c.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			arg = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Runner executes child processes. Only the exit status matters for Run;
// Output additionally returns trimmed stdout.
type Runner interface {
	Run(cmd Command) error
	Output(cmd Command) (string, error)
	LookPath(name string) (string, error)

	// Context support for cancellation
	WithContext(ctx context.Context) Runner
}
