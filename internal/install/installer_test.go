package install

import (
	"strings"
	"testing"

	"github.com/jakoblorz/express-ts-generator/internal/execx"
	"github.com/jakoblorz/express-ts-generator/internal/models"
	"github.com/stretchr/testify/require"
)

func request(runtime models.Runtime, audit bool) (models.GenerationRequest, models.TargetLayout) {
	req := models.DefaultRequest()
	req.AppName = "demo"
	req.Runtime = runtime
	req.ForceAudit = audit
	return req, models.NewTargetLayout("/workspace", req)
}

func TestInstaller_Node(t *testing.T) {
	runner := execx.NewMockRunner()
	req, layout := request(models.RuntimeNode, true)

	result, err := NewInstaller(runner, nil).Install(req, layout)
	require.NoError(t, err)
	require.Empty(t, result.Warnings)

	lines := runner.CommandLines()
	require.Len(t, lines, 3)
	require.Equal(t, "npm install", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "npm install --save-dev typescript @types/node @types/express"))
	require.True(t, strings.HasSuffix(lines[1], " tsx"))
	require.Equal(t, "npm audit fix --force", lines[2])
	require.Equal(t, lines, result.Commands)

	for _, call := range runner.Calls() {
		require.Equal(t, "/workspace/demo", call.Dir)
	}
}

func TestInstaller_NodeWithoutAudit(t *testing.T) {
	runner := execx.NewMockRunner()
	req, layout := request(models.RuntimeNode, false)

	_, err := NewInstaller(runner, nil).Install(req, layout)
	require.NoError(t, err)
	require.Len(t, runner.Calls(), 2)
}

func TestInstaller_BunSkipsAudit(t *testing.T) {
	runner := execx.NewMockRunner()
	req, layout := request(models.RuntimeBun, true)

	result, err := NewInstaller(runner, nil).Install(req, layout)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)

	lines := runner.CommandLines()
	require.Len(t, lines, 2)
	require.Equal(t, "bun install", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "bun add --dev typescript"))
	require.True(t, strings.HasSuffix(lines[1], " @types/bun"))
}

func TestInstaller_StopsAtFirstFailure(t *testing.T) {
	runner := execx.NewMockRunner().Fail("npm install --save-dev")
	req, layout := request(models.RuntimeNode, true)

	result, err := NewInstaller(runner, nil).Install(req, layout)
	require.ErrorIs(t, err, execx.ErrCommandFailed)
	require.Equal(t, []string{"npm install"}, result.Commands)
	require.Len(t, runner.Calls(), 2)
}

func TestPlan_DoesNotShareDependencySlices(t *testing.T) {
	req, layout := request(models.RuntimeNode, false)
	before := len(DevDependencies)

	Plan(req, layout)
	Plan(req, layout)

	require.Len(t, DevDependencies, before)
}
