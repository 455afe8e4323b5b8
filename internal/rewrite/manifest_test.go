package rewrite

import (
	"strings"
	"testing"

	"github.com/jakoblorz/express-ts-generator/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const manifestWithExtras = `{
  "name": "demo",
  "version": "0.0.0",
  "private": true,
  "author": "Jane Doe <jane@example.com>",
  "keywords": ["express", "api"],
  "scripts": {
    "start": "node ./bin/www",
    "lint": "eslint ."
  },
  "engines": {
    "node": ">=18"
  },
  "dependencies": {
    "express": "~4.16.1"
  }
}
`

func TestEditManifest_PreservesUnrelatedKeys(t *testing.T) {
	req := models.DefaultRequest()
	layout := models.NewTargetLayout("/workspace", req)

	out, err := EditManifest([]byte(manifestWithExtras), req, layout)
	require.NoError(t, err)

	for _, key := range []string{"name", "version", "private", "author", "keywords", "engines", "dependencies", "scripts.lint"} {
		require.JSONEq(t, gjson.Get(manifestWithExtras, key).Raw, gjson.GetBytes(out, key).Raw, key)
	}

	// existing keys keep their position, new keys are appended
	var keys []string
	gjson.ParseBytes(out).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	require.Equal(t, []string{"name", "version", "private", "author", "keywords", "scripts", "engines", "dependencies", "type"}, keys)

	var scripts []string
	gjson.GetBytes(out, "scripts").ForEach(func(key, _ gjson.Result) bool {
		scripts = append(scripts, key.String())
		return true
	})
	require.Equal(t, []string{"start", "lint", "dev", "build"}, scripts)
	require.True(t, strings.HasSuffix(string(out), "}\n"))
}

func TestValidateManifest(t *testing.T) {
	require.NoError(t, validateManifest([]byte(manifestWithExtras)))
	require.NoError(t, validateManifest([]byte(`{"name": "demo", "scripts": {}, "dependencies": {"express": "4"}, "nums": [1.50, 2e3, null]}`)))
	require.ErrorIs(t, validateManifest([]byte(`{"name": "demo"}`)), ErrShapeMismatch)
}

func TestEditManifest_KeepsRawValues(t *testing.T) {
	data := `{
  "name": "demo",
  "scripts": {},
  "dependencies": {"express": "~4.16.1"},
  "nums": [1.50, 2e3, null],
  "description": "quote \" and unicode \u00e9"
}
`
	req := models.DefaultRequest()
	out, err := EditManifest([]byte(data), req, models.NewTargetLayout("/workspace", req))
	require.NoError(t, err)

	require.Equal(t, "[1.50,2e3,null]", strings.Join(strings.Fields(gjson.GetBytes(out, "nums").Raw), ""))
	require.Equal(t, `"quote \" and unicode \u00e9"`, gjson.GetBytes(out, "description").Raw)
	require.Equal(t, "module", gjson.GetBytes(out, "type").String())
}

func TestEditManifest_InvalidShape(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"name": "demo",`},
		{"array", `["demo"]`},
		{"missing dependencies", `{"name": "demo", "scripts": {}}`},
		{"missing express", `{"name": "demo", "scripts": {}, "dependencies": {"morgan": "~1.9.1"}}`},
		{"scripts not strings", `{"name": "demo", "scripts": {"start": 1}, "dependencies": {"express": "4"}}`},
		{"empty name", `{"name": "", "scripts": {}, "dependencies": {"express": "4"}}`},
	}

	req := models.DefaultRequest()
	layout := models.NewTargetLayout("/workspace", req)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EditManifest([]byte(tt.data), req, layout)
			require.ErrorIs(t, err, ErrShapeMismatch)
		})
	}
}

func TestRenderScripts(t *testing.T) {
	req := models.DefaultRequest()
	req.Runtime = models.RuntimeBun
	req.NestedSource = true

	scripts, err := RenderScripts(req, models.NewTargetLayout("/workspace", req))
	require.NoError(t, err)
	require.Equal(t, []Script{
		{Name: "start", Command: "bun ./src/bin/www"},
		{Name: "dev", Command: "bun --watch ./src/bin/www"},
	}, scripts)
}
