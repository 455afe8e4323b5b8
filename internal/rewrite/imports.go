package rewrite

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/jakoblorz/express-ts-generator/internal/models"
)

var (
	requireStatement = regexp.MustCompile(`(?m)^([ \t]*)(?:var|let|const)\s+(\w+)\s*=\s*require\(['"]([^'"]+)['"]\);?[ \t]*\r?$`)
	exportStatement  = regexp.MustCompile(`(?m)^([ \t]*)module\.exports\s*=\s*(\w+);?[ \t]*\r?$`)
	leftoverRequire  = regexp.MustCompile(`\brequire\(`)
	leftoverExport   = regexp.MustCompile(`\bmodule\.exports\b`)
)

// ImportStep converts require() declarations and module.exports assignments
// into static imports and default exports. It only runs for esm output.
type ImportStep struct{}

func (ImportStep) Name() string { return "imports" }

func (ImportStep) Apply(job *Job) error {
	if !job.Request.Module.IsStandard() {
		job.report.Skipped = append(job.report.Skipped, "imports")
		return nil
	}

	for _, f := range models.GeneratedFileSet {
		rel := f.TypedPath()
		src, err := job.readFile(rel)
		if err != nil {
			return err
		}

		out, err := convertModuleSyntax(src, f.Role)
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}

		if err := job.writeFile(rel, out); err != nil {
			return err
		}
	}
	return nil
}

func convertModuleSyntax(src string, role models.FileRole) (string, error) {
	var renderErr error
	requires := 0
	src = requireStatement.ReplaceAllStringFunc(src, func(stmt string) string {
		m := requireStatement.FindStringSubmatch(stmt)
		line, err := render("default-import", struct {
			Indent, Binding, Module string
		}{m[1], m[2], typedSpecifier(m[3])})
		if err != nil {
			renderErr = err
			return stmt
		}
		requires++
		return line
	})
	if renderErr != nil {
		return "", renderErr
	}
	if requires == 0 {
		return "", fmt.Errorf("%w: no require declarations found", ErrShapeMismatch)
	}

	exports := 0
	src = exportStatement.ReplaceAllStringFunc(src, func(stmt string) string {
		m := exportStatement.FindStringSubmatch(stmt)
		line, err := render("default-export", struct{ Indent, Binding string }{m[1], m[2]})
		if err != nil {
			renderErr = err
			return stmt
		}
		exports++
		return line
	})
	if renderErr != nil {
		return "", renderErr
	}
	if exports == 0 && role != models.RoleBootstrap {
		return "", fmt.Errorf("%w: no module.exports assignment found", ErrShapeMismatch)
	}

	if leftoverRequire.MatchString(src) {
		return "", fmt.Errorf("%w: unconverted require() call remains", ErrShapeMismatch)
	}
	if leftoverExport.MatchString(src) {
		return "", fmt.Errorf("%w: unconverted module.exports remains", ErrShapeMismatch)
	}

	return src, nil
}

// typedSpecifier appends the typed extension to relative specifiers without one
func typedSpecifier(spec string) string {
	relative := strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
	if relative && path.Ext(spec) == "" {
		return spec + models.TypedExt
	}
	return spec
}
