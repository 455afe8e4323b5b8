package rewrite

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/jakoblorz/express-ts-generator/internal/models"
)

// SyntaxCheckStep parses every converted file with esbuild so a substitution
// that produced invalid code fails the run instead of the first start.
type SyntaxCheckStep struct{}

func (SyntaxCheckStep) Name() string { return "syntax check" }

func (SyntaxCheckStep) Apply(job *Job) error {
	for _, f := range models.GeneratedFileSet {
		rel := f.TypedPath()
		src, err := job.readFile(rel)
		if err != nil {
			return err
		}

		loader := api.LoaderTS
		if f.Role == models.RoleBootstrap && !job.Request.Module.IsStandard() {
			// left as plain CommonJS
			loader = api.LoaderJS
		}

		result := api.Transform(src, api.TransformOptions{
			Loader:     loader,
			Sourcefile: rel,
			LogLevel:   api.LogLevelSilent,
		})
		if len(result.Errors) > 0 {
			return fmt.Errorf("%w: %s", ErrShapeMismatch, formatMessages(rel, result.Errors))
		}
		for _, w := range result.Warnings {
			job.report.Warnings = append(job.report.Warnings, formatMessage(rel, w))
		}
	}
	return nil
}

func formatMessages(rel string, msgs []api.Message) string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = formatMessage(rel, m)
	}
	return strings.Join(lines, "; ")
}

func formatMessage(rel string, m api.Message) string {
	if m.Location == nil {
		return fmt.Sprintf("%s: %s", rel, m.Text)
	}
	return fmt.Sprintf("%s:%d:%d: %s", rel, m.Location.Line, m.Location.Column, m.Text)
}
