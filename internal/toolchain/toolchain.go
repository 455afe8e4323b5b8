// Package toolchain verifies that the JavaScript runtime a project targets is
// installed and recent enough before anything is generated.
package toolchain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jakoblorz/express-ts-generator/internal/execx"
	"github.com/jakoblorz/express-ts-generator/internal/models"
	"golang.org/x/mod/semver"
)

var (
	// ErrRuntimeNotFound indicates the runtime binary is not on PATH
	ErrRuntimeNotFound = errors.New("runtime not found")

	// ErrRuntimeTooOld indicates the installed runtime is below the minimum version
	ErrRuntimeTooOld = errors.New("runtime version too old")
)

// MinimumVersions is the oldest supported release per runtime.
// node 18 is the first LTS with a stable ESM loader hook API used by tsx.
var MinimumVersions = map[models.Runtime]string{
	models.RuntimeNode: "v18.0.0",
	models.RuntimeBun:  "v1.0.0",
}

// Checker runs `<runtime> --version` and compares it against MinimumVersions
type Checker struct {
	runner execx.Runner
}

// NewChecker creates a new Checker
func NewChecker(runner execx.Runner) *Checker {
	return &Checker{runner: runner}
}

// Check returns the detected version of the runtime
func (c *Checker) Check(runtime models.Runtime) (string, error) {
	binary := runtime.Binary()
	if _, err := c.runner.LookPath(binary); err != nil {
		return "", fmt.Errorf("%w: %s is not installed or not on PATH", ErrRuntimeNotFound, binary)
	}

	out, err := c.runner.Output(execx.NewCommand("", binary, "--version"))
	if err != nil {
		return "", fmt.Errorf("failed to read %s version: %w", binary, err)
	}

	version := NormalizeVersion(out)
	if !semver.IsValid(version) {
		return "", fmt.Errorf("failed to parse %s version %q", binary, out)
	}

	minimum := MinimumVersions[runtime]
	if semver.Compare(version, minimum) < 0 {
		return version, fmt.Errorf("%w: %s %s found, %s or newer required", ErrRuntimeTooOld, binary, version, minimum)
	}

	return version, nil
}

// NormalizeVersion turns runtime version output ("v20.11.1", "1.1.3",
// "1.2.0-canary.1+abc") into a semver string with a leading v.
func NormalizeVersion(raw string) string {
	v := strings.TrimSpace(raw)
	if i := strings.IndexAny(v, " \n"); i >= 0 {
		v = v[:i]
	}
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}
