// Package rewrite converts the JavaScript tree emitted by express-generator
// into TypeScript. Every step is a narrow text substitution keyed on the
// known generator output; nothing here parses JavaScript.
package rewrite

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jakoblorz/express-ts-generator/internal/filesystem"
	"github.com/jakoblorz/express-ts-generator/internal/models"
)

var (
	// ErrShapeMismatch indicates the generated tree does not look like the
	// supported express-generator output (missing file, unmatched pattern)
	ErrShapeMismatch = errors.New("unexpected generator output")

	// ErrTargetExists indicates a rename would overwrite an existing file
	ErrTargetExists = errors.New("rename target already exists")
)

// Job is the input shared by all steps of one run. Request and Layout are
// values and must not be modified by steps.
type Job struct {
	FS      filesystem.FileSystem
	Request models.GenerationRequest
	Layout  models.TargetLayout
	Logger  *slog.Logger

	report *Report
}

// Path resolves a slash-separated path relative to the source directory
func (j *Job) Path(rel string) string {
	return j.Layout.Resolve(rel)
}

// Report records what a run changed
type Report struct {
	Steps    []string
	Renamed  []string
	Written  []string
	Skipped  []string
	Warnings []string
}

func (r *Report) written(rel string) {
	for _, w := range r.Written {
		if w == rel {
			return
		}
	}
	r.Written = append(r.Written, rel)
}

// Step is one ordered stage of the pipeline
type Step interface {
	Name() string
	Apply(job *Job) error
}

// Options toggles the supplementary steps
type Options struct {
	SkipSyntaxCheck bool
}

// Pipeline runs steps in order, failing fast. Files rewritten before a failure
// are left as they are.
type Pipeline struct {
	steps  []Step
	onStep func(name string)
}

// New creates a pipeline from explicit steps
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Default returns the standard conversion: rename, tsconfig, manifest,
// annotate, imports, then gitignore, syntax check and relocation.
func Default(opts Options) *Pipeline {
	steps := []Step{
		RenameStep{},
		TypeConfigStep{},
		ManifestStep{},
		AnnotateStep{},
		ImportStep{},
		GitIgnoreStep{},
	}
	if !opts.SkipSyntaxCheck {
		steps = append(steps, SyntaxCheckStep{})
	}
	steps = append(steps, RelocateStep{})
	return New(steps...)
}

// OnStep registers a callback invoked before each step starts
func (p *Pipeline) OnStep(fn func(name string)) *Pipeline {
	p.onStep = fn
	return p
}

// StepNames lists the configured steps in execution order
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// Run applies every step to the job
func (p *Pipeline) Run(job Job) (*Report, error) {
	if job.Logger == nil {
		job.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	job.report = &Report{}

	for _, step := range p.steps {
		if p.onStep != nil {
			p.onStep(step.Name())
		}
		job.Logger.Debug("applying rewrite step", "step", step.Name(), "dir", job.Layout.SourceDir())
		if err := step.Apply(&job); err != nil {
			return job.report, fmt.Errorf("%s step failed: %w", step.Name(), err)
		}
		job.report.Steps = append(job.report.Steps, step.Name())
	}

	return job.report, nil
}

// readFile reads a generated file, reporting a missing file as a shape mismatch
func (j *Job) readFile(rel string) (string, error) {
	path := j.Path(rel)
	if !j.FS.Exists(path) {
		return "", fmt.Errorf("%w: %s is missing", ErrShapeMismatch, rel)
	}
	data, err := j.FS.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", rel, err)
	}
	return string(data), nil
}

func (j *Job) writeFile(rel, content string) error {
	if err := j.FS.WriteFile(j.Path(rel), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	j.report.written(rel)
	return nil
}
