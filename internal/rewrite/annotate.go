package rewrite

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/jakoblorz/express-ts-generator/internal/models"
)

// typeRef is a TypeScript type used in a parameter annotation
type typeRef struct {
	Name string
	// Module the type is imported from; empty for ambient types
	Module string
}

var (
	requestType   = typeRef{Name: "Request", Module: "express"}
	responseType  = typeRef{Name: "Response", Module: "express"}
	nextType      = typeRef{Name: "NextFunction", Module: "express"}
	httpErrorType = typeRef{Name: "HttpError", Module: "http-errors"}
	errnoType     = typeRef{Name: "NodeJS.ErrnoException"}
	stringType    = typeRef{Name: "string"}
)

// importOrder fixes the order of modules and names in generated import lines
var importOrder = []typeRef{requestType, responseType, nextType, httpErrorType}

type paramRole int

const (
	paramError paramRole = iota
	paramRequest
	paramResponse
	paramNext
)

var paramRoles = map[string]paramRole{
	"err":      paramError,
	"error":    paramError,
	"req":      paramRequest,
	"request":  paramRequest,
	"res":      paramResponse,
	"response": paramResponse,
	"next":     paramNext,
}

var roleTypes = map[paramRole]typeRef{
	paramError:    httpErrorType,
	paramRequest:  requestType,
	paramResponse: responseType,
	paramNext:     nextType,
}

// handlerShapes are the callback signatures express-generator emits
var handlerShapes = [][]paramRole{
	{paramRequest, paramResponse},
	{paramRequest, paramResponse, paramNext},
	{paramError, paramRequest, paramResponse, paramNext},
}

// annotationRule recognizes a parameter list and decides its types. The
// pattern's first group must capture the parameter list.
type annotationRule struct {
	name    string
	pattern *regexp.Regexp
	roles   []models.FileRole
	types   func(params []string) ([]typeRef, bool)
}

var annotationRules = []annotationRule{
	{
		name:    "handler",
		pattern: regexp.MustCompile(`function\s*\(([^()]*)\)`),
		roles:   []models.FileRole{models.RoleEntry, models.RoleRoute},
		types:   handlerTypes,
	},
	{
		name:    "arrow handler",
		pattern: regexp.MustCompile(`\(([^()]*)\)\s*=>`),
		roles:   []models.FileRole{models.RoleEntry, models.RoleRoute},
		types:   handlerTypes,
	},
	{
		name:    "error listener",
		pattern: regexp.MustCompile(`function\s+onError\s*\(([^()]*)\)`),
		roles:   []models.FileRole{models.RoleBootstrap},
		types:   namedTypes(map[string]typeRef{"error": errnoType, "err": errnoType}),
	},
	{
		name:    "port normalizer",
		pattern: regexp.MustCompile(`function\s+normalizePort\s*\(([^()]*)\)`),
		roles:   []models.FileRole{models.RoleBootstrap},
		types:   namedTypes(map[string]typeRef{"val": stringType}),
	},
}

var (
	appAnchor    = regexp.MustCompile(`(?m)^var app = express\(\);\r?$`)
	debugRequire = regexp.MustCompile(`(?m)^var debug = require\('debug'\)\('([^']*)'\);\r?$`)
	shebangLine  = regexp.MustCompile(`^#![^\n]*\n`)
)

func handlerTypes(params []string) ([]typeRef, bool) {
	shape := make([]paramRole, len(params))
	for i, p := range params {
		role, ok := paramRoles[p]
		if !ok {
			return nil, false
		}
		shape[i] = role
	}
	for _, s := range handlerShapes {
		if slices.Equal(s, shape) {
			types := make([]typeRef, len(shape))
			for i, role := range shape {
				types[i] = roleTypes[role]
			}
			return types, true
		}
	}
	return nil, false
}

func namedTypes(known map[string]typeRef) func([]string) ([]typeRef, bool) {
	return func(params []string) ([]typeRef, bool) {
		if len(params) == 0 {
			return nil, false
		}
		types := make([]typeRef, len(params))
		for i, p := range params {
			t, ok := known[p]
			if !ok {
				return nil, false
			}
			types[i] = t
		}
		return types, true
	}
}

// AnnotateStep adds parameter types to the handler signatures of every
// generated file and inserts the imports those types need. Under commonjs
// the bootstrap file is left untouched.
type AnnotateStep struct{}

func (AnnotateStep) Name() string { return "annotate" }

func (AnnotateStep) Apply(job *Job) error {
	for _, f := range models.GeneratedFileSet {
		if f.Role == models.RoleBootstrap && !job.Request.Module.IsStandard() {
			job.report.Skipped = append(job.report.Skipped, "annotate "+f.TypedPath())
			continue
		}

		rel := f.TypedPath()
		src, err := job.readFile(rel)
		if err != nil {
			return err
		}

		out, err := annotateFile(src, f.Role, job.Request)
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}

		if err := job.writeFile(rel, out); err != nil {
			return err
		}
	}
	return nil
}

func annotateFile(src string, role models.FileRole, req models.GenerationRequest) (string, error) {
	var used []typeRef
	total := 0
	for _, r := range annotationRules {
		if !slices.Contains(r.roles, role) {
			continue
		}
		var n int
		src, n = applyRule(src, r, &used)
		total += n
	}

	if total == 0 && expectsHandlers(role, req) {
		return "", fmt.Errorf("%w: no handler signature found", ErrShapeMismatch)
	}

	var imports []string
	for _, group := range groupImports(used) {
		line, err := render("type-import", group)
		if err != nil {
			return "", err
		}
		imports = append(imports, line)
	}

	if req.Module.IsStandard() {
		switch role {
		case models.RoleEntry:
			var err error
			if src, err = insertDirname(src); err != nil {
				return "", err
			}
			line, err := render("value-import", importGroup{Module: "url", Names: []string{"fileURLToPath"}})
			if err != nil {
				return "", err
			}
			imports = append(imports, line)
		case models.RoleBootstrap:
			var err error
			if src, err = substituteDebug(src); err != nil {
				return "", err
			}
		}
	}

	return insertImports(src, imports), nil
}

// expectsHandlers reports whether a file must contain at least one
// annotatable signature. Without a view engine the entry file has no
// error handlers.
func expectsHandlers(role models.FileRole, req models.GenerationRequest) bool {
	switch role {
	case models.RoleEntry:
		return req.View != models.ViewNone
	default:
		return true
	}
}

func applyRule(src string, r annotationRule, used *[]typeRef) (string, int) {
	matches := r.pattern.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src, 0
	}

	var b strings.Builder
	last, count := 0, 0
	for _, m := range matches {
		start, end := m[2], m[3]
		params := splitParams(src[start:end])
		types, ok := r.types(params)
		if !ok {
			continue
		}
		b.WriteString(src[last:start])
		b.WriteString(annotateParams(params, types))
		last = end
		count++
		*used = append(*used, types...)
	}
	b.WriteString(src[last:])

	return b.String(), count
}

func splitParams(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func annotateParams(params []string, types []typeRef) string {
	annotated := make([]string, len(params))
	for i, p := range params {
		annotated[i] = p + ": " + types[i].Name
	}
	return strings.Join(annotated, ", ")
}

type importGroup struct {
	Module string
	Names  []string
}

// groupImports collects the imported types per module in importOrder
func groupImports(used []typeRef) []importGroup {
	var groups []importGroup
	for _, t := range importOrder {
		if !slices.Contains(used, t) {
			continue
		}
		if n := len(groups); n > 0 && groups[n-1].Module == t.Module {
			groups[n-1].Names = append(groups[n-1].Names, t.Name)
			continue
		}
		groups = append(groups, importGroup{Module: t.Module, Names: []string{t.Name}})
	}
	return groups
}

// insertImports places import lines at the top of the file, below a shebang
func insertImports(src string, lines []string) string {
	if len(lines) == 0 {
		return src
	}
	offset := 0
	if loc := shebangLine.FindStringIndex(src); loc != nil {
		offset = loc[1]
	}
	return src[:offset] + strings.Join(lines, "\n") + "\n" + src[offset:]
}

// insertDirname defines __filename and __dirname ahead of the app instance,
// since ES modules do not provide them.
func insertDirname(src string) (string, error) {
	loc := appAnchor.FindStringIndex(src)
	if loc == nil {
		return "", fmt.Errorf("%w: app instance declaration not found", ErrShapeMismatch)
	}
	block, err := render("dirname", nil)
	if err != nil {
		return "", err
	}
	return src[:loc[0]] + block + "\n\n" + src[loc[0]:], nil
}

// substituteDebug replaces the curried debug require with an import and a call
func substituteDebug(src string) (string, error) {
	m := debugRequire.FindStringSubmatchIndex(src)
	if m == nil {
		return "", fmt.Errorf("%w: debug logger declaration not found", ErrShapeMismatch)
	}
	block, err := render("debug-import", struct{ Namespace string }{src[m[2]:m[3]]})
	if err != nil {
		return "", err
	}
	return src[:m[0]] + block + src[m[1]:], nil
}
