// Package prompt collects a GenerationRequest with huh forms.
package prompt

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/jakoblorz/express-ts-generator/internal/models"
	"github.com/jakoblorz/express-ts-generator/internal/tui"
)

// Field identifies one question of the flow
type Field string

const (
	FieldName    Field = "name"
	FieldView    Field = "view"
	FieldGit     Field = "git"
	FieldRuntime Field = "runtime"
	FieldModule  Field = "module"
	FieldSource  Field = "src"
	FieldAudit   Field = "audit-fix"
)

// Flow asks for every field not already fixed by a flag.
type Flow struct {
	defaults models.GenerationRequest
	fixed    map[Field]bool
	theme    *huh.Theme

	// runForm is replaced in tests
	runForm func(*huh.Form) error
}

// NewFlow constructs a Flow pre-filled with defaults. Fixed fields are not asked.
func NewFlow(defaults models.GenerationRequest, fixed ...Field) *Flow {
	f := &Flow{
		defaults: defaults,
		fixed:    make(map[Field]bool, len(fixed)),
		theme:    tui.NewHuhTheme(),
		runForm:  func(form *huh.Form) error { return form.Run() },
	}
	for _, field := range fixed {
		f.fixed[field] = true
	}
	return f
}

// Run executes the forms sequentially; returns nil result on user abort.
func (f *Flow) Run() (*models.GenerationRequest, error) {
	req := f.defaults

	steps := []func(*models.GenerationRequest) error{
		f.askProject,
		f.askTemplate,
		f.askRuntime,
		f.askOptions,
	}
	for _, step := range steps {
		if err := step(&req); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil, nil
			}
			return nil, err
		}
	}

	req.AppName = strings.TrimSpace(req.AppName)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

func (f *Flow) asks(field Field) bool {
	return !f.fixed[field]
}

func (f *Flow) run(title, description string, fields ...huh.Field) error {
	if len(fields) == 0 {
		return nil
	}

	form := huh.NewForm(
		huh.NewGroup(fields...).
			Title(title).
			Description(description),
	).
		WithTheme(f.theme).
		WithShowHelp(true)

	return f.runForm(form)
}

func (f *Flow) askProject(req *models.GenerationRequest) error {
	if !f.asks(FieldName) {
		return nil
	}

	return f.run("Project", "Where should the project be generated?",
		huh.NewInput().
			Title("Application name").
			Description("Directory relative to the current folder; use . for the current folder.").
			Placeholder("src").
			Value(&req.AppName).
			Validate(ValidateAppName),
	)
}

func (f *Flow) askTemplate(req *models.GenerationRequest) error {
	var fields []huh.Field

	view := string(req.View)
	if f.asks(FieldView) {
		opts := make([]huh.Option[string], 0, len(models.ViewEngines))
		for _, v := range models.ViewEngines {
			opts = append(opts, huh.NewOption(v.Label(), string(v)))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("View engine").
			Options(opts...).
			Value(&view))
	}
	if f.asks(FieldGit) {
		fields = append(fields, huh.NewConfirm().
			Title("Add a .gitignore?").
			Value(&req.GitIgnore))
	}

	if err := f.run("Template", "Options passed to express-generator.", fields...); err != nil {
		return err
	}

	parsed, err := models.ParseViewEngine(view)
	if err != nil {
		return err
	}
	req.View = parsed
	return nil
}

func (f *Flow) askRuntime(req *models.GenerationRequest) error {
	var fields []huh.Field

	runtime := string(req.Runtime)
	if f.asks(FieldRuntime) {
		opts := make([]huh.Option[string], 0, len(models.Runtimes))
		for _, r := range models.Runtimes {
			opts = append(opts, huh.NewOption(r.Label(), string(r)))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("Runtime").
			Options(opts...).
			Value(&runtime))
	}

	module := string(req.Module)
	if f.asks(FieldModule) {
		opts := make([]huh.Option[string], 0, len(models.ModuleKinds))
		for _, m := range models.ModuleKinds {
			opts = append(opts, huh.NewOption(m.Label(), string(m)))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("Module syntax").
			Options(opts...).
			Value(&module))
	}

	if err := f.run("Runtime", "How the TypeScript sources are executed.", fields...); err != nil {
		return err
	}

	parsedRuntime, err := models.ParseRuntime(runtime)
	if err != nil {
		return err
	}
	parsedModule, err := models.ParseModuleKind(module)
	if err != nil {
		return err
	}
	req.Runtime = parsedRuntime
	req.Module = parsedModule
	return nil
}

func (f *Flow) askOptions(req *models.GenerationRequest) error {
	var fields []huh.Field

	if f.asks(FieldSource) {
		fields = append(fields, huh.NewConfirm().
			Title("Place sources in a src/ folder?").
			Value(&req.NestedSource))
	}
	if f.asks(FieldAudit) {
		fields = append(fields, huh.NewConfirm().
			Title("Run a forced audit fix after installing?").
			Description("Runs npm audit fix --force. Not available with bun.").
			Value(&req.ForceAudit))
	}

	return f.run("Options", "", fields...)
}

// ValidateAppName rejects names that cannot be used as a target directory
func ValidateAppName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("application name cannot be empty")
	}
	if clean := filepath.ToSlash(filepath.Clean(name)); clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("application name must not point outside the current folder")
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("application name contains invalid characters")
	}
	return nil
}
