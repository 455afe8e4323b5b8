package rewrite

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

const templateSource = `
{{- define "type-import" -}}
import type { {{ join ", " .Names }} } from {{ squote .Module }};
{{- end -}}

{{- define "value-import" -}}
import { {{ join ", " .Names }} } from {{ squote .Module }};
{{- end -}}

{{- define "default-import" -}}
{{ .Indent }}import {{ .Binding }} from {{ squote .Module }};
{{- end -}}

{{- define "default-export" -}}
{{ .Indent }}export default {{ .Binding }};
{{- end -}}

{{- define "debug-import" -}}
import debugLib from {{ squote "debug" }};
const debug = debugLib({{ squote .Namespace }});
{{- end -}}

{{- define "dirname" -}}
const __filename = fileURLToPath(import.meta.url);
const __dirname = path.dirname(__filename);
{{- end -}}

{{- define "node-start" }}tsx {{ .Bootstrap }}{{ end -}}
{{- define "node-dev" }}tsx watch {{ .Bootstrap }}{{ end -}}
{{- define "node-build" }}tsc{{ end -}}
{{- define "bun-start" }}bun {{ .Bootstrap }}{{ end -}}
{{- define "bun-dev" }}bun --watch {{ .Bootstrap }}{{ end -}}
`

var templates = template.Must(template.New("rewrite").Funcs(sprig.TxtFuncMap()).Parse(templateSource))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
