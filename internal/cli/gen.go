package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/generic/internal/codegen"
	"github.com/roach88/generic/internal/derive"
)

// GenOptions holds flags for the gen command.
type GenOptions struct {
	*RootOptions
	Types  []string
	Dir    string
	DryRun bool
}

// GenResult describes one generated file.
type GenResult struct {
	Path    string   `json:"path" yaml:"path"`
	Package string   `json:"package" yaml:"package"`
	Types   []string `json:"types" yaml:"types"`
	Source  string   `json:"source,omitempty" yaml:"source,omitempty"`
}

// NewGenCommand creates the gen command.
func NewGenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "gen [packages]",
		Short: "Generate projection code for Go types",
		Long: `Generate projection code for the Go types of one or more packages.

Types marked //generic:derive or //generic:sum are generated, plus any
named with --type. Every type is derived before anything is written; a
type with no projection fails generation. Each package gets one file,
<package>_generic.go.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(opts, args, cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Types, "type", "t", nil, "additional type names to generate")
	cmd.Flags().StringVar(&opts.Dir, "dir", "", "directory package patterns are resolved in")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print generated source instead of writing files")

	return cmd
}

func runGen(opts *GenOptions, patterns []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	files, err := codegen.Generate(cmd.Context(), codegen.Config{
		Dir:      opts.Dir,
		Patterns: patterns,
		Types:    opts.Types,
		Logger:   slog.Default(),
	})
	if err != nil {
		if derive.CodeOf(err) != "" {
			code := derivationCode(err)
			_ = formatter.Error(code, err.Error(), nil)
			return WrapExitError(ExitFailure, code, err)
		}
		return outputCommandError(formatter, ErrCodeGenerate, err, nil)
	}

	results := make([]GenResult, len(files))
	for i, f := range files {
		results[i] = GenResult{Path: f.Path, Package: f.Package, Types: f.Types}
		if opts.DryRun {
			results[i].Source = string(f.Source)
			continue
		}
		if err := f.Write(); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Errorf("writing %s: %w", f.Path, err), nil)
		}
		formatter.VerboseLog("Wrote %s", f.Path)
	}

	if formatter.Structured() {
		return formatter.Success(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(formatter.Writer, "Nothing to generate")
		return nil
	}
	for _, r := range results {
		if opts.DryRun {
			fmt.Fprintf(formatter.Writer, "// %s\n%s\n", r.Path, r.Source)
			continue
		}
		formatter.OK("%s: %s", r.Path, strings.Join(r.Types, ", "))
	}
	return nil
}
