package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jakoblorz/express-ts-generator/internal/execx"
	"github.com/jakoblorz/express-ts-generator/internal/filesystem"
	"github.com/jakoblorz/express-ts-generator/internal/models"
	"github.com/jakoblorz/express-ts-generator/internal/rewrite"
	"github.com/jakoblorz/express-ts-generator/internal/scaffold"
	"github.com/jakoblorz/express-ts-generator/internal/toolchain"
	"github.com/jakoblorz/express-ts-generator/internal/tui/prompt"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type harness struct {
	fs     *filesystem.MockFileSystem
	runner *execx.MockRunner
	env    map[string]string
	gen    *GenerateCommand
	out    bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		fs:     filesystem.NewMockFileSystem(),
		runner: execx.NewMockRunner(),
		env:    map[string]string{},
	}
	h.fs.AddDir("/workspace")
	h.runner.
		Reply("node --version", "v20.11.1").
		Reply("bun --version", "1.1.38").
		On("npx "+scaffold.GeneratorPackage, scaffold.GeneratorHandler(h.fs)).
		On("bunx "+scaffold.GeneratorPackage, scaffold.GeneratorHandler(h.fs))

	lookupEnv := func(key string) (string, bool) {
		v, ok := h.env[key]
		return v, ok
	}
	newRunner := func(io.Writer, *slog.Logger) execx.Runner { return h.runner }

	h.gen = newGenerateCommand(h.fs, newRunner, lookupEnv)
	h.gen.interactive = func(any) bool { return false }
	return h
}

func (h *harness) command(args ...string) *cobra.Command {
	cmd := h.gen.command()
	cmd.SetArgs(args)
	cmd.SetOut(&h.out)
	cmd.SetErr(&h.out)
	cmd.SetIn(strings.NewReader(""))
	return cmd
}

func (h *harness) execute(args ...string) error {
	return h.command(args...).Execute()
}

func TestGenerate_StandardNode(t *testing.T) {
	h := newHarness(t)

	err := h.execute("demo", "--yes")
	require.NoError(t, err)

	require.Equal(t, []string{
		"node --version",
		"npx express-generator demo --no-view",
		"npm install",
		"npm install --save-dev typescript @types/node @types/express @types/http-errors @types/debug @types/cookie-parser @types/morgan tsx",
	}, h.runner.CommandLines())

	for _, call := range h.runner.Calls()[2:] {
		require.Equal(t, "/workspace/demo", call.Dir)
	}

	paths := h.fs.Paths("/workspace/demo")
	require.Contains(t, paths, "app.ts")
	require.Contains(t, paths, "routes/index.ts")
	require.Contains(t, paths, "routes/users.ts")
	require.Contains(t, paths, "bin/www")
	require.Contains(t, paths, "tsconfig.json")
	require.NotContains(t, paths, "app.js")

	manifest := h.fs.Content("/workspace/demo/package.json")
	require.Equal(t, "module", gjson.Get(manifest, "type").String())
	require.Equal(t, "tsx watch ./bin/www", gjson.Get(manifest, "scripts.dev").String())

	app := h.fs.Content("/workspace/demo/app.ts")
	require.Contains(t, app, "import express from 'express';")
	require.Contains(t, app, "export default app;")

	out := h.out.String()
	require.Contains(t, out, "Converted 3 file(s)")
	require.Contains(t, out, "cd demo")
	require.Contains(t, out, "npm run dev")
}

func TestGenerate_LegacyBunWithView(t *testing.T) {
	h := newHarness(t)

	err := h.execute("legacy", "-y", "--runtime", "bun", "--module", "commonjs", "--view", "ejs", "--audit-fix")
	require.NoError(t, err)

	lines := h.runner.CommandLines()
	require.Equal(t, "bun --version", lines[0])
	require.Equal(t, "bunx express-generator legacy --view=ejs", lines[1])
	require.Equal(t, "bun install", lines[2])
	require.True(t, strings.HasPrefix(lines[3], "bun add --dev typescript"))
	require.Len(t, lines, 4)

	app := h.fs.Content("/workspace/legacy/app.ts")
	require.Contains(t, app, "require('express')")
	require.Contains(t, app, "module.exports = app;")

	manifest := h.fs.Content("/workspace/legacy/package.json")
	require.False(t, gjson.Get(manifest, "type").Exists())

	require.Contains(t, h.out.String(), "bun has no audit fix")
}

func TestGenerate_NodeAuditFix(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.execute("demo", "-y", "--audit-fix"))
	lines := h.runner.CommandLines()
	require.Equal(t, "npm audit fix --force", lines[len(lines)-1])
}

func TestGenerate_SkipInstall(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.execute("demo", "-y", "--skip-install"))
	require.Equal(t, []string{
		"node --version",
		"npx express-generator demo --no-view",
	}, h.runner.CommandLines())
	require.Contains(t, h.out.String(), "npm install")
}

func TestGenerate_NestedSource(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.execute("demo", "-y", "--src", "--git", "--skip-install"))

	paths := h.fs.Paths("/workspace/demo")
	require.Contains(t, paths, "package.json")
	require.Contains(t, paths, "tsconfig.json")
	require.Contains(t, paths, ".gitignore")
	require.Contains(t, paths, "src/app.ts")
	require.NotContains(t, paths, "src/package.json")

	manifest := h.fs.Content("/workspace/demo/package.json")
	require.Equal(t, "tsx ./src/bin/www", gjson.Get(manifest, "scripts.start").String())
}

func TestGenerate_CurrentDirectory(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.execute(".", "-y", "--skip-install"))
	require.Equal(t, "npx express-generator . --no-view", h.runner.CommandLines()[1])
	require.True(t, h.fs.Exists("/workspace/app.ts"))
	require.NotContains(t, h.out.String(), "cd ")
}

func TestGenerate_DefaultsFromEnvironment(t *testing.T) {
	h := newHarness(t)
	h.env["EXPRESS_TS_RUNTIME"] = "bun"
	h.env["EXPRESS_TS_VIEW"] = "pug"

	require.NoError(t, h.execute("-y", "--skip-install"))
	require.Equal(t, "bunx express-generator src --view=pug", h.runner.CommandLines()[1])
}

func TestGenerate_FlagsOverrideConfigFile(t *testing.T) {
	h := newHarness(t)
	h.fs.AddFile("/etc/ets.yaml", []byte("runtime: bun\nview: ejs\n"))

	require.NoError(t, h.execute("demo", "-y", "--skip-install", "--config", "/etc/ets.yaml", "--runtime", "node"))
	require.Equal(t, "npx express-generator demo --view=ejs", h.runner.CommandLines()[1])
}

func TestGenerate_InvalidFlag(t *testing.T) {
	h := newHarness(t)

	err := h.execute("demo", "-y", "--view", "jade")
	require.ErrorIs(t, err, models.ErrInvalidRequest)
	require.Empty(t, h.runner.Calls())
}

func TestGenerate_NameOutsideWorkingDirectory(t *testing.T) {
	h := newHarness(t)

	err := h.execute("../elsewhere", "-y")
	require.ErrorIs(t, err, models.ErrInvalidRequest)
	require.Empty(t, h.runner.Calls())
}

func TestGenerate_MissingRuntime(t *testing.T) {
	h := newHarness(t)
	h.runner.Missing["node"] = true

	err := h.execute("demo", "-y")
	require.ErrorIs(t, err, toolchain.ErrRuntimeNotFound)
	require.False(t, h.fs.Exists("/workspace/demo"))
}

func TestGenerate_GeneratorFailure(t *testing.T) {
	h := newHarness(t)
	h.runner.Fail("npx express-generator")

	err := h.execute("demo", "-y")
	require.ErrorIs(t, err, execx.ErrCommandFailed)
	require.Contains(t, err.Error(), "failed to run express-generator")
	require.False(t, h.fs.Exists("/workspace/demo/app.ts"))
}

func TestGenerate_InstallFailureKeepsConvertedFiles(t *testing.T) {
	h := newHarness(t)
	h.runner.Fail("npm install --save-dev")

	err := h.execute("demo", "-y")
	require.ErrorIs(t, err, execx.ErrCommandFailed)
	require.True(t, h.fs.Exists("/workspace/demo/app.ts"))
}

func TestGenerate_RerunFailsAtRename(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.execute("demo", "-y", "--skip-install"))

	err := h.execute("demo", "-y", "--skip-install", "--force")
	require.ErrorIs(t, err, rewrite.ErrTargetExists)
	require.Contains(t, err.Error(), "rename step failed")
}

func TestGenerate_NonEmptyTargetNeedsForce(t *testing.T) {
	h := newHarness(t)
	h.fs.AddFile("/workspace/demo/README.md", []byte("# demo\n"))

	err := h.execute("demo", "-y")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--force")
	require.Equal(t, []string{"node --version"}, h.runner.CommandLines())

	require.NoError(t, h.execute("demo", "-y", "--force", "--skip-install"))
	require.Contains(t, h.runner.CommandLines(), "npx express-generator demo --no-view --force")
	require.Equal(t, "# demo\n", h.fs.Content("/workspace/demo/README.md"))
}

func TestGenerate_DeclinedOverwriteIsCleanExit(t *testing.T) {
	h := newHarness(t)
	h.fs.AddFile("/workspace/demo/README.md", []byte("# demo\n"))

	asked := ""
	h.gen.interactive = func(any) bool { return true }
	h.gen.confirmer = func(io.Reader, io.Writer) scaffold.Confirmer {
		return scaffold.ConfirmFunc(func(dir string) (bool, error) {
			asked = dir
			return false, nil
		})
	}

	// every question is answered by a flag, so no form is shown
	err := h.execute("demo", "--view", "none", "--git=false", "--runtime", "node", "--module", "esm", "--src=false", "--audit-fix=false")
	require.NoError(t, err)

	require.Equal(t, "/workspace/demo", asked)
	require.Equal(t, []string{"node --version"}, h.runner.CommandLines())
	require.Equal(t, []string{"README.md"}, h.fs.Paths("/workspace/demo"))
	require.Contains(t, h.out.String(), "Cancelled")
}

func TestGenerate_AcceptedOverwriteForcesGenerator(t *testing.T) {
	h := newHarness(t)
	h.fs.AddFile("/workspace/demo/README.md", []byte("# demo\n"))

	h.gen.interactive = func(any) bool { return true }
	h.gen.confirmer = func(io.Reader, io.Writer) scaffold.Confirmer { return scaffold.Always(true) }

	err := h.execute("demo", "--view", "none", "--git=false", "--runtime", "node", "--module", "esm", "--src=false", "--audit-fix=false", "--skip-install")
	require.NoError(t, err)
	require.Contains(t, h.runner.CommandLines(), "npx express-generator demo --no-view --force")
	require.True(t, h.fs.Exists("/workspace/demo/app.ts"))
	require.Equal(t, "# demo\n", h.fs.Content("/workspace/demo/README.md"))
}

func TestGenerate_ConfirmsOverwriteOnce(t *testing.T) {
	h := newHarness(t)
	h.fs.AddFile("/workspace/demo/README.md", []byte("# demo\n"))

	var asked []string
	h.gen.interactive = func(any) bool { return true }
	h.gen.confirmer = func(io.Reader, io.Writer) scaffold.Confirmer {
		return scaffold.ConfirmFunc(func(dir string) (bool, error) {
			asked = append(asked, dir)
			return true, nil
		})
	}

	err := h.execute("demo", "--view", "none", "--git=false", "--runtime", "node", "--module", "esm", "--src=false", "--audit-fix=false", "--skip-install")
	require.NoError(t, err)
	require.Equal(t, []string{"/workspace/demo"}, asked)
	require.Contains(t, h.runner.CommandLines(), "npx express-generator demo --no-view --force")
}

func TestGenerate_ForceSkipsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.fs.AddFile("/workspace/demo/README.md", []byte("# demo\n"))

	h.gen.interactive = func(any) bool { return true }
	h.gen.confirmer = func(io.Reader, io.Writer) scaffold.Confirmer {
		return scaffold.ConfirmFunc(func(string) (bool, error) {
			t.Fatal("no confirmation expected with --force")
			return false, nil
		})
	}

	err := h.execute("demo", "--force", "--view", "none", "--git=false", "--runtime", "node", "--module", "esm", "--src=false", "--audit-fix=false", "--skip-install")
	require.NoError(t, err)
	require.Contains(t, h.runner.CommandLines(), "npx express-generator demo --no-view --force")
}

func TestGenerate_ForceOnEmptyTargetIsNotPassedOn(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.execute("demo", "-y", "--force", "--skip-install"))
	require.Equal(t, "npx express-generator demo --no-view", h.runner.CommandLines()[1])
}

func TestGenerate_ConfirmError(t *testing.T) {
	h := newHarness(t)
	h.fs.AddFile("/workspace/demo/README.md", []byte("# demo\n"))

	boom := errors.New("no tty")
	h.gen.interactive = func(any) bool { return true }
	h.gen.confirmer = func(io.Reader, io.Writer) scaffold.Confirmer {
		return scaffold.ConfirmFunc(func(string) (bool, error) { return false, boom })
	}

	err := h.execute("demo", "--view", "none", "--git=false", "--runtime", "node", "--module", "esm", "--src=false", "--audit-fix=false")
	require.ErrorIs(t, err, boom)
}

func TestGenerate_CancelledContext(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := h.command("demo", "-y")
	err := cmd.ExecuteContext(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, h.fs.Exists("/workspace/demo"))
}

func TestGenerate_Version(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.execute("--version"))
	require.Contains(t, h.out.String(), Version)
	require.Empty(t, h.runner.Calls())
}

func TestApplyFlags(t *testing.T) {
	h := newHarness(t)
	cmd := h.gen.command()
	require.NoError(t, cmd.ParseFlags([]string{"--runtime", "npm", "--module", "legacy", "--git"}))

	req, fixed, err := applyFlags(cmd, []string{"api"}, models.DefaultRequest())
	require.NoError(t, err)
	require.Equal(t, "api", req.AppName)
	require.Equal(t, models.RuntimeNode, req.Runtime)
	require.Equal(t, models.ModuleCommonJS, req.Module)
	require.True(t, req.GitIgnore)
	require.Equal(t, models.ViewNone, req.View)
	require.ElementsMatch(t, []prompt.Field{prompt.FieldName, prompt.FieldRuntime, prompt.FieldModule, prompt.FieldGit}, fixed)
}
