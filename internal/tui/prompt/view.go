package prompt

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jakoblorz/express-ts-generator/internal/install"
	"github.com/jakoblorz/express-ts-generator/internal/models"
	"github.com/jakoblorz/express-ts-generator/internal/rewrite"
	"github.com/jakoblorz/express-ts-generator/internal/tui"
)

// Summary is what RenderSuccess reports after a run
type Summary struct {
	Request        models.GenerationRequest
	Layout         models.TargetLayout
	Cwd            string
	RuntimeVersion string
	Report         *rewrite.Report
	Install        *install.Result
	SkippedInstall bool
}

// RenderSuccess renders a summary after a successful run.
func RenderSuccess(s Summary) string {
	var b strings.Builder

	b.WriteString(tui.SuccessStyle.Render("✓ Express + TypeScript project ready"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Location:  %s\n", displayPath(s.Cwd, s.Layout.Root)))
	b.WriteString(fmt.Sprintf("Runtime:   %s", s.Request.Runtime.Label()))
	if s.RuntimeVersion != "" {
		b.WriteString(" " + s.RuntimeVersion)
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Modules:   %s\n", s.Request.Module.Label()))
	b.WriteString(fmt.Sprintf("Views:     %s\n", s.Request.View.Label()))

	if s.Report != nil && len(s.Report.Renamed) > 0 {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("Converted %d file(s):\n", len(s.Report.Renamed)))
		for i, file := range s.Report.Renamed {
			b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, s.Layout.ProjectRelative(file)))
		}
	}

	var warnings []string
	if s.Report != nil {
		warnings = append(warnings, s.Report.Warnings...)
	}
	if s.Install != nil {
		warnings = append(warnings, s.Install.Warnings...)
	}
	if len(warnings) > 0 {
		b.WriteString("\n")
		for _, w := range warnings {
			b.WriteString(tui.WarningStyle.Render("! "+w) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(tui.SubtleStyle.Render("Next steps:"))
	b.WriteString("\n")
	for _, step := range NextSteps(s) {
		b.WriteString("  " + tui.CommandStyle.Render(step) + "\n")
	}

	return b.String()
}

// NextSteps lists the commands to start developing
func NextSteps(s Summary) []string {
	var steps []string
	if rel := displayPath(s.Cwd, s.Layout.Root); rel != "." {
		steps = append(steps, "cd "+rel)
	}
	pm := s.Request.Runtime.PackageManager()
	if s.SkippedInstall {
		steps = append(steps, pm+" install")
	}
	steps = append(steps, pm+" run dev")
	return steps
}

func displayPath(cwd, path string) string {
	if cwd == "" {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
