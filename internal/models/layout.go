package models

import (
	"path/filepath"
	"strings"
)

const (
	// SourceExt is the extension express-generator emits
	SourceExt = ".js"
	// TypedExt is the extension the rewrite pipeline converts to
	TypedExt = ".ts"

	// NestedSourceDir is the subfolder used when the user opts into nested sources
	NestedSourceDir = "src"
)

// TargetLayout describes where the project lives on disk.
// It is derived once from the request and read-only afterwards.
type TargetLayout struct {
	// Root is the absolute project directory (package.json ends up here)
	Root string

	// HasNestedSourceFolder places generated sources under Root/src
	HasNestedSourceFolder bool
}

// NewTargetLayout resolves the project directory for a request relative to cwd
func NewTargetLayout(cwd string, req GenerationRequest) TargetLayout {
	root := cwd
	if name := strings.TrimSpace(req.AppName); name != "" && name != "." {
		if filepath.IsAbs(name) {
			root = filepath.Clean(name)
		} else {
			root = filepath.Join(cwd, name)
		}
	}
	return TargetLayout{
		Root:                  root,
		HasNestedSourceFolder: req.NestedSource,
	}
}

// SourceDir returns the directory express-generator writes into
func (l TargetLayout) SourceDir() string {
	if l.HasNestedSourceFolder {
		return filepath.Join(l.Root, NestedSourceDir)
	}
	return l.Root
}

// Resolve joins a path relative to the source directory
func (l TargetLayout) Resolve(rel string) string {
	return filepath.Join(l.SourceDir(), filepath.FromSlash(rel))
}

// ProjectRelative returns a slash-separated path as seen from Root, for use
// in package.json scripts and tsconfig globs.
func (l TargetLayout) ProjectRelative(rel string) string {
	if l.HasNestedSourceFolder {
		return NestedSourceDir + "/" + rel
	}
	return rel
}
