package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest is returned when a GenerationRequest fails validation
var ErrInvalidRequest = errors.New("invalid generation request")

// ViewEngine represents the template engine passed to express-generator
type ViewEngine string

const (
	ViewEJS  ViewEngine = "ejs"
	ViewPug  ViewEngine = "pug"
	ViewNone ViewEngine = "none"
)

// ViewEngines lists the engines offered by the prompt flow, in display order
var ViewEngines = []ViewEngine{ViewEJS, ViewPug, ViewNone}

// IsValid checks if the view engine is known
func (v ViewEngine) IsValid() bool {
	switch v {
	case ViewEJS, ViewPug, ViewNone:
		return true
	default:
		return false
	}
}

// String returns the string representation of ViewEngine
func (v ViewEngine) String() string {
	return string(v)
}

// Label returns the human readable name shown in prompts
func (v ViewEngine) Label() string {
	switch v {
	case ViewEJS:
		return "Embedded JavaScript"
	case ViewPug:
		return "Pug"
	default:
		return "None"
	}
}

// ParseViewEngine parses a string into a ViewEngine
func ParseViewEngine(s string) (ViewEngine, error) {
	v := ViewEngine(strings.ToLower(strings.TrimSpace(s)))
	if v == "" || v == "no-view" {
		v = ViewNone
	}
	if !v.IsValid() {
		return "", fmt.Errorf("invalid view engine: %s (must be ejs, pug, or none)", s)
	}
	return v, nil
}

// Runtime represents the JavaScript runtime the generated project targets
type Runtime string

const (
	RuntimeNode Runtime = "node"
	RuntimeBun  Runtime = "bun"
)

// Runtimes lists the runtimes offered by the prompt flow
var Runtimes = []Runtime{RuntimeNode, RuntimeBun}

// IsValid checks if the runtime is known
func (r Runtime) IsValid() bool {
	return r == RuntimeNode || r == RuntimeBun
}

// String returns the string representation of Runtime
func (r Runtime) String() string {
	return string(r)
}

// Label returns the human readable name shown in prompts
func (r Runtime) Label() string {
	if r == RuntimeBun {
		return "Bun"
	}
	return "Node.js"
}

// PackageManager returns the package manager binary for the runtime
func (r Runtime) PackageManager() string {
	if r == RuntimeBun {
		return "bun"
	}
	return "npm"
}

// Executor returns the one-off package executor for the runtime (npx / bunx)
func (r Runtime) Executor() string {
	if r == RuntimeBun {
		return "bunx"
	}
	return "npx"
}

// Binary returns the runtime executable used for version checks
func (r Runtime) Binary() string {
	if r == RuntimeBun {
		return "bun"
	}
	return "node"
}

// ParseRuntime parses a string into a Runtime. "npm" is accepted as an alias for node.
func ParseRuntime(s string) (Runtime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "node", "nodejs", "npm":
		return RuntimeNode, nil
	case "bun":
		return RuntimeBun, nil
	}
	return "", fmt.Errorf("invalid runtime: %s (must be node or bun)", s)
}

// ModuleKind selects the module convention of the converted sources
type ModuleKind string

const (
	// ModuleCommonJS keeps require()/module.exports (legacy)
	ModuleCommonJS ModuleKind = "commonjs"
	// ModuleESM uses static import/export statements (standard)
	ModuleESM ModuleKind = "esm"
)

// ModuleKinds lists the module kinds offered by the prompt flow
var ModuleKinds = []ModuleKind{ModuleESM, ModuleCommonJS}

// IsValid checks if the module kind is known
func (m ModuleKind) IsValid() bool {
	return m == ModuleCommonJS || m == ModuleESM
}

// IsStandard reports whether static import/export syntax is emitted
func (m ModuleKind) IsStandard() bool {
	return m == ModuleESM
}

// String returns the string representation of ModuleKind
func (m ModuleKind) String() string {
	return string(m)
}

// Label returns the human readable name shown in prompts
func (m ModuleKind) Label() string {
	if m == ModuleESM {
		return "ES modules (import/export)"
	}
	return "CommonJS (require/module.exports)"
}

// ParseModuleKind parses a string into a ModuleKind
func ParseModuleKind(s string) (ModuleKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "commonjs", "cjs", "legacy":
		return ModuleCommonJS, nil
	case "esm", "module", "standard":
		return ModuleESM, nil
	}
	return "", fmt.Errorf("invalid module kind: %s (must be commonjs or esm)", s)
}

// GenerationRequest is everything the user decided before generation starts.
// It is passed by value and never mutated after the prompt flow returns it.
type GenerationRequest struct {
	// AppName is the target directory, relative to the working directory ("." for cwd)
	AppName string

	// View is the template engine passed to express-generator
	View ViewEngine

	// GitIgnore asks express-generator to write a .gitignore
	GitIgnore bool

	// Runtime selects the package manager and script commands
	Runtime Runtime

	// Module selects legacy (commonjs) or standard (esm) output
	Module ModuleKind

	// ForceAudit runs a forced audit fix after installation
	ForceAudit bool

	// NestedSource generates the sources into a src/ subfolder
	NestedSource bool
}

// DefaultRequest returns the request used when no flag, config or prompt overrides a field
func DefaultRequest() GenerationRequest {
	return GenerationRequest{
		AppName: "src",
		View:    ViewNone,
		Runtime: RuntimeNode,
		Module:  ModuleESM,
	}
}

// Validate checks that every field holds a usable value
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.AppName) == "" {
		return fmt.Errorf("%w: application name cannot be empty", ErrInvalidRequest)
	}
	if !r.View.IsValid() {
		return fmt.Errorf("%w: unknown view engine %q", ErrInvalidRequest, r.View)
	}
	if !r.Runtime.IsValid() {
		return fmt.Errorf("%w: unknown runtime %q", ErrInvalidRequest, r.Runtime)
	}
	if !r.Module.IsValid() {
		return fmt.Errorf("%w: unknown module kind %q", ErrInvalidRequest, r.Module)
	}
	return nil
}
