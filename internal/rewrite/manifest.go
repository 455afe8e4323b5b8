package rewrite

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jakoblorz/express-ts-generator/internal/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

//go:embed schema/package.schema.json
var manifestSchemaJSON []byte

const manifestSchemaURL = "https://express-ts-generator.invalid/package.schema.json"

var manifestSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(manifestSchemaURL, bytes.NewReader(manifestSchemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(manifestSchemaURL)
})

// Script is one package.json script entry
type Script struct {
	Name    string
	Command string
}

type scriptTemplate struct {
	name     string
	template string
}

// scriptTable maps each runtime to the scripts written into package.json.
// bun runs TypeScript directly and has no build step.
var scriptTable = map[models.Runtime][]scriptTemplate{
	models.RuntimeNode: {
		{name: "start", template: "node-start"},
		{name: "dev", template: "node-dev"},
		{name: "build", template: "node-build"},
	},
	models.RuntimeBun: {
		{name: "start", template: "bun-start"},
		{name: "dev", template: "bun-dev"},
	},
}

// ManifestStep edits package.json in place. Unrelated keys keep their values
// and their order.
type ManifestStep struct{}

func (ManifestStep) Name() string { return "manifest" }

func (ManifestStep) Apply(job *Job) error {
	raw, err := job.readFile(models.ManifestFile)
	if err != nil {
		return err
	}

	data, err := EditManifest([]byte(raw), job.Request, job.Layout)
	if err != nil {
		return err
	}

	return job.writeFile(models.ManifestFile, string(data))
}

// EditManifest applies the module type and runtime scripts to a manifest
func EditManifest(data []byte, req models.GenerationRequest, layout models.TargetLayout) ([]byte, error) {
	if err := validateManifest(data); err != nil {
		return nil, err
	}

	var err error
	// the commonjs default stays implicit; only esm sets the type key
	if req.Module.IsStandard() {
		data, err = sjson.SetBytes(data, "type", "module")
		if err != nil {
			return nil, fmt.Errorf("failed to set module type: %w", err)
		}
	}

	scripts, err := RenderScripts(req, layout)
	if err != nil {
		return nil, err
	}
	for _, s := range scripts {
		data, err = sjson.SetBytes(data, "scripts."+s.Name, s.Command)
		if err != nil {
			return nil, fmt.Errorf("failed to set script %s: %w", s.Name, err)
		}
	}

	return pretty.Pretty(data), nil
}

// RenderScripts returns the package.json scripts for the request's runtime
func RenderScripts(req models.GenerationRequest, layout models.TargetLayout) ([]Script, error) {
	table, ok := scriptTable[req.Runtime]
	if !ok {
		return nil, fmt.Errorf("no scripts defined for runtime %q", req.Runtime)
	}

	data := struct {
		Bootstrap string
		Nested    bool
	}{
		Bootstrap: "./" + layout.ProjectRelative(models.BootstrapFile().TypedPath()),
		Nested:    layout.HasNestedSourceFolder,
	}

	rendered := make([]Script, 0, len(table))
	for _, s := range table {
		cmd, err := render(s.template, data)
		if err != nil {
			return nil, err
		}
		rendered = append(rendered, Script{Name: s.name, Command: cmd})
	}
	return rendered, nil
}

func validateManifest(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: %s is not valid JSON", ErrShapeMismatch, models.ManifestFile)
	}
	if !gjson.ParseBytes(data).IsObject() {
		return fmt.Errorf("%w: %s is not a JSON object", ErrShapeMismatch, models.ManifestFile)
	}

	schema, err := manifestSchema()
	if err != nil {
		return fmt.Errorf("failed to compile manifest schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrShapeMismatch, models.ManifestFile, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrShapeMismatch, models.ManifestFile, err)
	}

	return nil
}
