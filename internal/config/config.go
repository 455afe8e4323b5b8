// Package config resolves the defaults offered by the prompt flow from a
// YAML defaults file, a .env file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jakoblorz/express-ts-generator/internal/filesystem"
	"github.com/jakoblorz/express-ts-generator/internal/models"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a configured value cannot be parsed
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	appDir       = "express-ts-generator"
	fileName     = "config.yaml"
	dotEnvFile   = ".env"
	envView      = "EXPRESS_TS_VIEW"
	envRuntime   = "EXPRESS_TS_RUNTIME"
	envModule    = "EXPRESS_TS_MODULE"
	envGitIgnore = "EXPRESS_TS_GIT"
)

// File is the YAML defaults file. Unset fields keep the built-in default.
type File struct {
	View     string `yaml:"view,omitempty"`
	Runtime  string `yaml:"runtime,omitempty"`
	Module   string `yaml:"module,omitempty"`
	Git      *bool  `yaml:"git,omitempty"`
	Src      *bool  `yaml:"src,omitempty"`
	AuditFix *bool  `yaml:"audit_fix,omitempty"`
}

// LookupEnvFunc matches os.LookupEnv
type LookupEnvFunc func(key string) (string, bool)

// Loader layers the defaults file and environment over the built-in request
type Loader struct {
	fs        filesystem.FileSystem
	lookupEnv LookupEnvFunc
}

// NewLoader creates a new Loader
func NewLoader(fs filesystem.FileSystem, lookupEnv LookupEnvFunc) *Loader {
	return &Loader{fs: fs, lookupEnv: lookupEnv}
}

// DefaultPath returns $XDG_CONFIG_HOME/express-ts-generator/config.yaml,
// falling back to ~/.config.
func (l *Loader) DefaultPath() string {
	if dir, ok := l.lookupEnv("XDG_CONFIG_HOME"); ok && strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, appDir, fileName)
	}
	if home, ok := l.lookupEnv("HOME"); ok && home != "" {
		return filepath.Join(home, ".config", appDir, fileName)
	}
	return ""
}

// Load returns the request defaults. An explicit path must exist; the
// default path and .env in cwd are optional.
func (l *Loader) Load(path, cwd string) (models.GenerationRequest, error) {
	req := models.DefaultRequest()

	explicit := path != ""
	if !explicit {
		path = l.DefaultPath()
	}

	if path != "" {
		if l.fs.Exists(path) {
			file, err := l.readFile(path)
			if err != nil {
				return req, err
			}
			if err := file.apply(&req); err != nil {
				return req, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
			}
		} else if explicit {
			return req, fmt.Errorf("%w: config file %s does not exist", ErrInvalidConfig, path)
		}
	}

	dotenv, err := l.readDotEnv(filepath.Join(cwd, dotEnvFile))
	if err != nil {
		return req, err
	}

	if err := l.applyEnv(&req, dotenv); err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return req, nil
}

func (l *Loader) readFile(path string) (File, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("%w: failed to parse %s: %w", ErrInvalidConfig, path, err)
	}
	return file, nil
}

func (l *Loader) readDotEnv(path string) (map[string]string, error) {
	if !l.fs.Exists(path) {
		return nil, nil
	}
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	values, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrInvalidConfig, path, err)
	}
	return values, nil
}

// applyEnv overrides request fields from the environment. Variables already
// set in the process environment win over .env values.
func (l *Loader) applyEnv(req *models.GenerationRequest, dotenv map[string]string) error {
	get := func(key string) (string, bool) {
		if v, ok := l.lookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if v, ok := get(envView); ok && v != "" {
		view, err := models.ParseViewEngine(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envView, err)
		}
		req.View = view
	}
	if v, ok := get(envRuntime); ok && v != "" {
		runtime, err := models.ParseRuntime(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envRuntime, err)
		}
		req.Runtime = runtime
	}
	if v, ok := get(envModule); ok && v != "" {
		module, err := models.ParseModuleKind(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envModule, err)
		}
		req.Module = module
	}
	if v, ok := get(envGitIgnore); ok && v != "" {
		git, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envGitIgnore, err)
		}
		req.GitIgnore = git
	}

	return nil
}

func (f File) apply(req *models.GenerationRequest) error {
	if f.View != "" {
		view, err := models.ParseViewEngine(f.View)
		if err != nil {
			return err
		}
		req.View = view
	}
	if f.Runtime != "" {
		runtime, err := models.ParseRuntime(f.Runtime)
		if err != nil {
			return err
		}
		req.Runtime = runtime
	}
	if f.Module != "" {
		module, err := models.ParseModuleKind(f.Module)
		if err != nil {
			return err
		}
		req.Module = module
	}
	if f.Git != nil {
		req.GitIgnore = *f.Git
	}
	if f.Src != nil {
		req.NestedSource = *f.Src
	}
	if f.AuditFix != nil {
		req.ForceAudit = *f.AuditFix
	}
	return nil
}
