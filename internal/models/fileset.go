package models

import "strings"

// FileRole identifies what a generated file does in an Express project
type FileRole string

const (
	RoleEntry     FileRole = "entry"
	RoleRoute     FileRole = "route"
	RoleBootstrap FileRole = "bootstrap"
)

// GeneratedFile is one file express-generator is known to emit
type GeneratedFile struct {
	Role FileRole
	// Path is slash-separated and relative to the source directory
	Path string
}

// TypedPath returns the path after the rename step. Extensionless files keep their name.
func (f GeneratedFile) TypedPath() string {
	if strings.HasSuffix(f.Path, SourceExt) {
		return strings.TrimSuffix(f.Path, SourceExt) + TypedExt
	}
	return f.Path
}

// Renamed reports whether the rename step changes this file's name
func (f GeneratedFile) Renamed() bool {
	return f.TypedPath() != f.Path
}

const (
	// ManifestFile is the package manifest written by the generator
	ManifestFile = "package.json"
	// TypeConfigFile is written by the pipeline
	TypeConfigFile = "tsconfig.json"
	// GitIgnoreFile is written by the generator when --git is set
	GitIgnoreFile = ".gitignore"
	// RoutesDir holds one file per route module
	RoutesDir = "routes"
)

// GeneratedFileSet is the output shape of the supported express-generator version.
// The pipeline fails rather than adapting when the generated tree differs.
var GeneratedFileSet = []GeneratedFile{
	{Role: RoleEntry, Path: "app.js"},
	{Role: RoleRoute, Path: "routes/index.js"},
	{Role: RoleRoute, Path: "routes/users.js"},
	{Role: RoleBootstrap, Path: "bin/www"},
}

// EntryFile returns the entry file of GeneratedFileSet
func EntryFile() GeneratedFile {
	return fileWithRole(RoleEntry)
}

// BootstrapFile returns the server bootstrap file of GeneratedFileSet
func BootstrapFile() GeneratedFile {
	return fileWithRole(RoleBootstrap)
}

func fileWithRole(role FileRole) GeneratedFile {
	for _, f := range GeneratedFileSet {
		if f.Role == role {
			return f
		}
	}
	panic("no generated file with role " + string(role))
}
