package models

// TypeConfig is the tsconfig.json document written by the pipeline.
// Field order is the serialized key order.
type TypeConfig struct {
	CompilerOptions CompilerOptions `json:"compilerOptions"`
	Include         []string        `json:"include"`
	Exclude         []string        `json:"exclude"`
}

// CompilerOptions is the subset of tsc options the generator controls
type CompilerOptions struct {
	Target                           string   `json:"target"`
	Module                           string   `json:"module"`
	ModuleResolution                 string   `json:"moduleResolution"`
	Lib                              []string `json:"lib"`
	Types                            []string `json:"types"`
	BaseURL                          string   `json:"baseUrl"`
	RootDir                          string   `json:"rootDir"`
	OutDir                           string   `json:"outDir"`
	AllowJS                          bool     `json:"allowJs"`
	EsModuleInterop                  bool     `json:"esModuleInterop"`
	Strict                           bool     `json:"strict"`
	NoImplicitAny                    bool     `json:"noImplicitAny"`
	SkipLibCheck                     bool     `json:"skipLibCheck"`
	ForceConsistentCasingInFileNames bool     `json:"forceConsistentCasingInFileNames"`
	RewriteRelativeImportExtensions  bool     `json:"rewriteRelativeImportExtensions,omitempty"`
	NoEmit                           bool     `json:"noEmit,omitempty"`
}

// NewTypeConfig derives the tsconfig for a request and layout
func NewTypeConfig(req GenerationRequest, layout TargetLayout) TypeConfig {
	opts := CompilerOptions{
		Target:                           "ES2022",
		Lib:                              []string{"ES2022"},
		BaseURL:                          ".",
		RootDir:                          ".",
		OutDir:                           "dist",
		AllowJS:                          true,
		EsModuleInterop:                  true,
		Strict:                           false,
		NoImplicitAny:                    false,
		SkipLibCheck:                     true,
		ForceConsistentCasingInFileNames: true,
	}

	if req.Module.IsStandard() {
		opts.Module = "NodeNext"
		opts.ModuleResolution = "NodeNext"
		// static imports carry the .ts extension after conversion
		opts.RewriteRelativeImportExtensions = true
	} else {
		opts.Module = "CommonJS"
		opts.ModuleResolution = "Node10"
	}

	if req.Runtime == RuntimeBun {
		opts.Types = []string{"bun"}
		// bun executes TypeScript directly
		opts.NoEmit = true
	} else {
		opts.Types = []string{"node"}
	}

	if layout.HasNestedSourceFolder {
		opts.RootDir = NestedSourceDir
	}

	// tsc skips extensionless files, so the bootstrap is only checked by
	// the esbuild syntax step
	include := []string{
		layout.ProjectRelative(EntryFile().TypedPath()),
		layout.ProjectRelative(RoutesDir + "/**/*" + TypedExt),
	}

	return TypeConfig{
		CompilerOptions: opts,
		Include:         include,
		Exclude:         []string{"node_modules", "dist"},
	}
}
