package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jakoblorz/express-ts-generator/internal/config"
	"github.com/jakoblorz/express-ts-generator/internal/execx"
	"github.com/jakoblorz/express-ts-generator/internal/filesystem"
	"github.com/jakoblorz/express-ts-generator/internal/install"
	"github.com/jakoblorz/express-ts-generator/internal/models"
	"github.com/jakoblorz/express-ts-generator/internal/rewrite"
	"github.com/jakoblorz/express-ts-generator/internal/scaffold"
	"github.com/jakoblorz/express-ts-generator/internal/toolchain"
	"github.com/jakoblorz/express-ts-generator/internal/tui"
	"github.com/jakoblorz/express-ts-generator/internal/tui/components"
	"github.com/jakoblorz/express-ts-generator/internal/tui/prompt"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// GenerateCommand scaffolds an Express project and converts it to TypeScript
type GenerateCommand struct {
	fs        filesystem.FileSystem
	newRunner RunnerFactory
	lookupEnv config.LookupEnvFunc

	// replaced in tests
	interactive func(stream any) bool
	confirmer   func(in io.Reader, out io.Writer) scaffold.Confirmer
}

func newGenerateCommand(fs filesystem.FileSystem, newRunner RunnerFactory, lookupEnv config.LookupEnvFunc) *GenerateCommand {
	return &GenerateCommand{
		fs:          fs,
		newRunner:   newRunner,
		lookupEnv:   lookupEnv,
		interactive: isTerminal,
		confirmer: func(in io.Reader, out io.Writer) scaffold.Confirmer {
			return components.NewOverwriteConfirmer(fs, in, out)
		},
	}
}

func (c *GenerateCommand) command() *cobra.Command {
	cobraCmd := &cobra.Command{
		Use:   "express-ts-generator [app-name]",
		Short: "Generate an Express project written in TypeScript",
		Long: `Generate an Express application with express-generator and convert it to TypeScript.

Without flags the generator asks for every option. Flags pre-answer the
matching questions; --yes skips the prompts entirely.`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.Run,
	}

	flags := cobraCmd.Flags()
	flags.StringP("view", "v", "", "View engine (ejs, pug, none)")
	flags.Bool("git", false, "Add a .gitignore")
	flags.StringP("runtime", "r", "", "Runtime (node, bun)")
	flags.StringP("module", "m", "", "Module syntax (commonjs, esm)")
	flags.Bool("src", false, "Place sources in a src/ subfolder")
	flags.Bool("audit-fix", false, "Run a forced audit fix after installing")
	flags.Bool("force", false, "Generate into a non-empty directory without asking")
	flags.BoolP("yes", "y", false, "Do not prompt; use flags, config and defaults")
	flags.Bool("non-interactive", false, "Alias for --yes")
	flags.Bool("skip-install", false, "Do not install dependencies")
	flags.Bool("skip-syntax-check", false, "Do not parse the converted files")
	flags.String("config", "", "Path to a defaults file (default $XDG_CONFIG_HOME/express-ts-generator/config.yaml)")
	flags.Bool("verbose", false, "Log diagnostics and subprocess output to stderr")

	// -v is taken by --view
	flags.BoolP("version", "V", false, "Print the version")

	return cobraCmd
}

// Run executes the generate command
func (c *GenerateCommand) Run(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(verbose, cmd.ErrOrStderr())

	cwd, err := c.fs.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	configPath, _ := cmd.Flags().GetString("config")
	defaults, err := config.NewLoader(c.fs, c.lookupEnv).Load(configPath, cwd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	defaults, fixed, err := applyFlags(cmd, args, defaults)
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	nonInteractive, _ := cmd.Flags().GetBool("non-interactive")
	interactive := !yes && !nonInteractive && c.interactive(cmd.InOrStdin())

	req, err := c.resolveRequest(defaults, fixed, interactive)
	if err != nil {
		return err
	}
	if req == nil {
		printCancelled(out)
		return nil
	}
	logger.Debug("resolved request", "app", req.AppName, "view", req.View, "runtime", req.Runtime, "module", req.Module)

	subprocessOut := io.Discard
	if verbose {
		subprocessOut = cmd.ErrOrStderr()
	}
	runner := c.newRunner(subprocessOut, logger).WithContext(cmd.Context())
	progress := tui.NewProgress(out, interactive && isTerminal(out))
	layout := models.NewTargetLayout(cwd, *req)

	s := progress.Start(fmt.Sprintf("Checking %s", req.Runtime.Label()))
	runtimeVersion, err := toolchain.NewChecker(runner).Check(req.Runtime)
	if err != nil {
		s.Done(false, fmt.Sprintf("%s is not usable", req.Runtime.Label()))
		return err
	}
	s.Done(true, fmt.Sprintf("%s %s", req.Runtime.Label(), runtimeVersion))

	var generating tui.Spinner
	materializer := scaffold.NewMaterializer(c.fs, runner, c.overwriteConfirmer(cmd, interactive), logger).
		OnGenerate(func(execx.Command) {
			generating = progress.Start(fmt.Sprintf("Generating project with %s", scaffold.GeneratorPackage))
		})
	if err := materializer.Materialize(*req, layout); err != nil {
		if errors.Is(err, scaffold.ErrAborted) {
			printCancelled(out)
			return nil
		}
		if generating != nil {
			generating.Done(false, "Generation failed")
		}
		return fmt.Errorf("failed to generate project: %w", err)
	}
	generating.Done(true, "Project generated")

	skipSyntax, _ := cmd.Flags().GetBool("skip-syntax-check")
	s = progress.Start("Converting to TypeScript")
	pipeline := rewrite.Default(rewrite.Options{SkipSyntaxCheck: skipSyntax}).
		OnStep(func(name string) {
			s.SetTitle(fmt.Sprintf("Converting to TypeScript (%s)", name))
		})
	report, err := pipeline.Run(rewrite.Job{
		FS:      c.fs,
		Request: *req,
		Layout:  layout,
		Logger:  logger,
	})
	if err != nil {
		s.Done(false, "Conversion failed")
		return fmt.Errorf("failed to convert project: %w", err)
	}
	s.Done(true, fmt.Sprintf("Converted %d file(s)", len(report.Renamed)))

	summary := prompt.Summary{
		Request:        *req,
		Layout:         layout,
		Cwd:            cwd,
		RuntimeVersion: runtimeVersion,
		Report:         report,
	}

	skipInstall, _ := cmd.Flags().GetBool("skip-install")
	if skipInstall {
		summary.SkippedInstall = true
	} else {
		s = progress.Start("Installing dependencies")
		result, err := install.NewInstaller(runner, logger).Install(*req, layout)
		if err != nil {
			s.Done(false, "Installation failed")
			return err
		}
		s.Done(true, "Dependencies installed")
		summary.Install = result
	}

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, prompt.RenderSuccess(summary))

	return nil
}

// resolveRequest runs the prompt flow when interactive. A nil request means
// the user cancelled.
func (c *GenerateCommand) resolveRequest(defaults models.GenerationRequest, fixed []prompt.Field, interactive bool) (*models.GenerationRequest, error) {
	req := &defaults
	if interactive {
		var err error
		req, err = prompt.NewFlow(defaults, fixed...).Run()
		if err != nil {
			return nil, fmt.Errorf("failed to run prompts: %w", err)
		}
		if req == nil {
			return nil, nil
		}
	}

	if err := prompt.ValidateAppName(req.AppName); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidRequest, err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// overwriteConfirmer decides whether the generator may write into a
// non-empty target. The prompt runs before the generator spinner starts.
func (c *GenerateCommand) overwriteConfirmer(cmd *cobra.Command, interactive bool) scaffold.Confirmer {
	if force, _ := cmd.Flags().GetBool("force"); force {
		return scaffold.Always(true)
	}
	if interactive {
		return c.confirmer(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	return scaffold.ConfirmFunc(func(dir string) (bool, error) {
		return false, fmt.Errorf("%s is not empty; pass --force to generate into it", dir)
	})
}

// applyFlags layers explicitly set flags over the defaults and reports which
// prompt fields they answer
func applyFlags(cmd *cobra.Command, args []string, req models.GenerationRequest) (models.GenerationRequest, []prompt.Field, error) {
	var fixed []prompt.Field
	flags := cmd.Flags()

	if len(args) > 0 {
		req.AppName = args[0]
		fixed = append(fixed, prompt.FieldName)
	}

	if flags.Changed("view") {
		s, _ := flags.GetString("view")
		view, err := models.ParseViewEngine(s)
		if err != nil {
			return req, nil, fmt.Errorf("%w: %w", models.ErrInvalidRequest, err)
		}
		req.View = view
		fixed = append(fixed, prompt.FieldView)
	}
	if flags.Changed("git") {
		req.GitIgnore, _ = flags.GetBool("git")
		fixed = append(fixed, prompt.FieldGit)
	}
	if flags.Changed("runtime") {
		s, _ := flags.GetString("runtime")
		runtime, err := models.ParseRuntime(s)
		if err != nil {
			return req, nil, fmt.Errorf("%w: %w", models.ErrInvalidRequest, err)
		}
		req.Runtime = runtime
		fixed = append(fixed, prompt.FieldRuntime)
	}
	if flags.Changed("module") {
		s, _ := flags.GetString("module")
		module, err := models.ParseModuleKind(s)
		if err != nil {
			return req, nil, fmt.Errorf("%w: %w", models.ErrInvalidRequest, err)
		}
		req.Module = module
		fixed = append(fixed, prompt.FieldModule)
	}
	if flags.Changed("src") {
		req.NestedSource, _ = flags.GetBool("src")
		fixed = append(fixed, prompt.FieldSource)
	}
	if flags.Changed("audit-fix") {
		req.ForceAudit, _ = flags.GetBool("audit-fix")
		fixed = append(fixed, prompt.FieldAudit)
	}

	return req, fixed, nil
}

func newLogger(verbose bool, w io.Writer) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func printCancelled(out io.Writer) {
	_, _ = fmt.Fprintln(out, tui.SubtleStyle.Render("Cancelled; nothing was generated."))
}

func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
