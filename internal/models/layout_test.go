package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTargetLayout(t *testing.T) {
	tests := []struct {
		name      string
		appName   string
		nested    bool
		root      string
		sourceDir string
	}{
		{"named", "demo", false, "/workspace/demo", "/workspace/demo"},
		{"current directory", ".", false, "/workspace", "/workspace"},
		{"nested path", "apps/api", false, "/workspace/apps/api", "/workspace/apps/api"},
		{"absolute", "/srv/api", false, "/srv/api", "/srv/api"},
		{"src folder", "demo", true, "/workspace/demo", "/workspace/demo/src"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := DefaultRequest()
			req.AppName = tt.appName
			req.NestedSource = tt.nested

			layout := NewTargetLayout("/workspace", req)
			require.Equal(t, tt.root, layout.Root)
			require.Equal(t, tt.sourceDir, layout.SourceDir())
			require.Equal(t, tt.nested, layout.HasNestedSourceFolder)
		})
	}
}

func TestTargetLayout_Paths(t *testing.T) {
	flat := TargetLayout{Root: "/workspace/demo"}
	require.Equal(t, "/workspace/demo/routes/index.js", flat.Resolve("routes/index.js"))
	require.Equal(t, "bin/www", flat.ProjectRelative("bin/www"))

	nested := TargetLayout{Root: "/workspace/demo", HasNestedSourceFolder: true}
	require.Equal(t, "/workspace/demo/src/routes/index.js", nested.Resolve("routes/index.js"))
	require.Equal(t, "src/bin/www", nested.ProjectRelative("bin/www"))
}

func TestGeneratedFileSet(t *testing.T) {
	require.Len(t, GeneratedFileSet, 4)
	require.Equal(t, "app.js", EntryFile().Path)
	require.Equal(t, "bin/www", BootstrapFile().Path)

	var renamed []string
	for _, f := range GeneratedFileSet {
		if f.Renamed() {
			renamed = append(renamed, f.TypedPath())
		}
	}
	require.Equal(t, []string{"app.ts", "routes/index.ts", "routes/users.ts"}, renamed)
	require.Equal(t, "bin/www", BootstrapFile().TypedPath())
}

func TestNewTypeConfig(t *testing.T) {
	t.Run("standard node", func(t *testing.T) {
		req := DefaultRequest()
		cfg := NewTypeConfig(req, NewTargetLayout("/workspace", req))

		require.Equal(t, "NodeNext", cfg.CompilerOptions.Module)
		require.True(t, cfg.CompilerOptions.RewriteRelativeImportExtensions)
		require.Equal(t, []string{"node"}, cfg.CompilerOptions.Types)
		require.False(t, cfg.CompilerOptions.NoEmit)
		require.Equal(t, []string{"app.ts", "routes/**/*.ts"}, cfg.Include)
		require.NotContains(t, cfg.Include, BootstrapFile().TypedPath())
		require.Equal(t, []string{"node_modules", "dist"}, cfg.Exclude)
	})

	t.Run("legacy bun in src", func(t *testing.T) {
		req := DefaultRequest()
		req.Module = ModuleCommonJS
		req.Runtime = RuntimeBun
		req.NestedSource = true
		cfg := NewTypeConfig(req, NewTargetLayout("/workspace", req))

		require.Equal(t, "CommonJS", cfg.CompilerOptions.Module)
		require.Equal(t, "Node10", cfg.CompilerOptions.ModuleResolution)
		require.False(t, cfg.CompilerOptions.RewriteRelativeImportExtensions)
		require.Equal(t, []string{"bun"}, cfg.CompilerOptions.Types)
		require.True(t, cfg.CompilerOptions.NoEmit)
		require.Equal(t, "src", cfg.CompilerOptions.RootDir)
		require.Equal(t, []string{"src/app.ts", "src/routes/**/*.ts"}, cfg.Include)
	})
}
