// Package scaffold creates the JavaScript project by running express-generator
// into the target directory.
package scaffold

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/jakoblorz/express-ts-generator/internal/execx"
	"github.com/jakoblorz/express-ts-generator/internal/filesystem"
	"github.com/jakoblorz/express-ts-generator/internal/models"
)

// GeneratorPackage is the npm package executed through npx / bunx
const GeneratorPackage = "express-generator"

var (
	// ErrAborted indicates the user declined to overwrite a non-empty directory
	ErrAborted = errors.New("generation aborted")

	// ErrIncompleteOutput indicates the generator exited cleanly but did not
	// write every expected file
	ErrIncompleteOutput = errors.New("generator output incomplete")
)

// TargetState describes the target directory before generation
type TargetState struct {
	Exists   bool
	NonEmpty bool
}

// Confirmer decides whether a non-empty directory may be overwritten
type Confirmer interface {
	ConfirmOverwrite(dir string) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface
type ConfirmFunc func(dir string) (bool, error)

func (f ConfirmFunc) ConfirmOverwrite(dir string) (bool, error) {
	return f(dir)
}

// Always returns a Confirmer that answers without asking
func Always(answer bool) Confirmer {
	return ConfirmFunc(func(string) (bool, error) { return answer, nil })
}

// Materializer runs express-generator for a GenerationRequest
type Materializer struct {
	fs        filesystem.FileSystem
	runner    execx.Runner
	confirmer Confirmer
	logger    *slog.Logger

	onGenerate func(cmd execx.Command)
}

// NewMaterializer creates a new Materializer
func NewMaterializer(fs filesystem.FileSystem, runner execx.Runner, confirmer Confirmer, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Materializer{
		fs:        fs,
		runner:    runner,
		confirmer: confirmer,
		logger:    logger,
	}
}

// OnGenerate registers a callback invoked after the target check, right
// before the generator starts
func (m *Materializer) OnGenerate(fn func(cmd execx.Command)) *Materializer {
	m.onGenerate = fn
	return m
}

// CheckTarget inspects dir without modifying it
func (m *Materializer) CheckTarget(dir string) (TargetState, error) {
	if !m.fs.Exists(dir) {
		return TargetState{}, nil
	}

	info, err := m.fs.Stat(dir)
	if err != nil {
		return TargetState{}, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return TargetState{Exists: true, NonEmpty: true}, nil
	}

	empty, err := filesystem.IsEmptyDir(m.fs, dir)
	if err != nil {
		return TargetState{}, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	return TargetState{Exists: true, NonEmpty: !empty}, nil
}

// Materialize generates the JavaScript project. It asks for confirmation
// before generating into a non-empty directory and returns ErrAborted, with
// nothing written, when the user declines.
func (m *Materializer) Materialize(req models.GenerationRequest, layout models.TargetLayout) error {
	state, err := m.CheckTarget(layout.Root)
	if err != nil {
		return err
	}

	force := false
	if state.NonEmpty {
		if m.confirmer == nil {
			return fmt.Errorf("%w: %s is not empty", ErrAborted, layout.Root)
		}
		ok, err := m.confirmer.ConfirmOverwrite(layout.Root)
		if err != nil {
			return fmt.Errorf("failed to confirm overwrite: %w", err)
		}
		if !ok {
			return ErrAborted
		}
		force = true
	}

	cwd, err := m.fs.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cmd := GeneratorCommand(req, cwd, layout, force)
	m.logger.Debug("running generator", "command", cmd.String(), "dir", cmd.Dir)
	if m.onGenerate != nil {
		m.onGenerate(cmd)
	}

	if err := m.runner.Run(cmd); err != nil {
		return fmt.Errorf("failed to run %s: %w", GeneratorPackage, err)
	}

	return m.verifyOutput(layout)
}

// GeneratorCommand builds the express-generator invocation. The target is
// passed relative to cwd so the generated package name matches the folder.
func GeneratorCommand(req models.GenerationRequest, cwd string, layout models.TargetLayout, force bool) execx.Command {
	target := layout.SourceDir()
	if rel, err := filepath.Rel(cwd, target); err == nil {
		target = filepath.ToSlash(rel)
	}

	args := []string{GeneratorPackage, target}
	if req.View == models.ViewNone {
		// without a flag the generator falls back to jade
		args = append(args, "--no-view")
	} else {
		args = append(args, "--view="+req.View.String())
	}
	if req.GitIgnore {
		args = append(args, "--git")
	}
	if force {
		args = append(args, "--force")
	}

	return execx.NewCommand(cwd, req.Runtime.Executor(), args...)
}

func (m *Materializer) verifyOutput(layout models.TargetLayout) error {
	for _, f := range models.GeneratedFileSet {
		if !m.fs.Exists(layout.Resolve(f.Path)) {
			return fmt.Errorf("%w: %s was not generated", ErrIncompleteOutput, f.Path)
		}
	}
	if !m.fs.Exists(layout.Resolve(models.ManifestFile)) {
		return fmt.Errorf("%w: %s was not generated", ErrIncompleteOutput, models.ManifestFile)
	}
	return nil
}
