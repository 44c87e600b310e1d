package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/generic/internal/descriptor"
)

// DescribeOptions holds flags for the describe command.
type DescribeOptions struct {
	*RootOptions
	Output string // output file path
}

// DescribeResult holds the loaded descriptors.
type DescribeResult struct {
	Types []*descriptor.Type `json:"types" yaml:"types"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescribeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "describe <schema-dir>",
		Short: "Load CUE type declarations and print their descriptors",
		Long: `Load the CUE type declarations in a directory and print the
structural descriptor of every declared type.

Descriptors are printed in declaration order. Use --output to write them
as JSON for later use.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write descriptors as JSON to this file")

	return cmd
}

func runDescribe(opts *DescribeOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadDescriptors(dir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputCommandError(formatter, firstCode(loadErrors), loadErrors[0], nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, dir)
	for _, t := range loadResult.Types {
		formatter.VerboseLog("Described type: %s", t.Name)
	}

	if len(loadErrors) > 0 {
		return outputLoadErrors(formatter, "Loading failed", loadErrors)
	}

	result := &DescribeResult{Types: loadResult.Types}

	if opts.Output != "" {
		if err := writeDescriptorsToFile(result, opts.Output); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Errorf("writing output file: %w", err), nil)
		}
	}

	return outputDescribeSuccess(formatter, result, opts.Output)
}

// outputDescribeSuccess prints each descriptor in the configured format.
func outputDescribeSuccess(formatter *OutputFormatter, result *DescribeResult, outputFile string) error {
	if formatter.Structured() {
		return formatter.Success(result)
	}

	formatter.OK("Described %d type(s)", len(result.Types))
	fmt.Fprintln(formatter.Writer)
	for _, t := range result.Types {
		fmt.Fprintf(formatter.Writer, "%s: %s\n", formatter.Paint(color.Bold, t.Name), summarize(t))
		for _, line := range describeLines(t) {
			fmt.Fprintf(formatter.Writer, "  %s\n", line)
		}
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote descriptors to %s\n", outputFile)
	}
	return nil
}

// summarize is the one-line shape of a descriptor.
func summarize(t *descriptor.Type) string {
	switch t.Kind {
	case descriptor.KindEnum:
		return fmt.Sprintf("enum, %d variant(s)", len(t.Variants))
	case descriptor.KindUnion:
		return fmt.Sprintf("union of %s", strings.Join(t.Members, ", "))
	default:
		if t.Fields.Kind == descriptor.FieldsUnit {
			return "struct, no fields"
		}
		return fmt.Sprintf("struct, %d %s field(s)", t.Fields.Len(), t.Fields.Kind)
	}
}

// describeLines lists the fields or variants of a descriptor.
func describeLines(t *descriptor.Type) []string {
	switch t.Kind {
	case descriptor.KindEnum:
		lines := make([]string, len(t.Variants))
		for i, v := range t.Variants {
			lines[i] = v.Name + fieldsSuffix(v.Fields)
		}
		return lines
	case descriptor.KindUnion:
		return nil
	default:
		return fieldLines(t.Fields)
	}
}

func fieldLines(f descriptor.Fields) []string {
	lines := make([]string, len(f.List))
	for i, field := range f.List {
		if f.Kind == descriptor.FieldsPositional {
			lines[i] = fmt.Sprintf("%d: %s", i, field.Type)
			continue
		}
		lines[i] = fmt.Sprintf("%s: %s", field.Name, field.Type)
	}
	return lines
}

// fieldsSuffix renders a variant payload: (a, b) or {x: a, y: b}.
func fieldsSuffix(f descriptor.Fields) string {
	switch f.Kind {
	case descriptor.FieldsPositional:
		refs := make([]string, len(f.List))
		for i, field := range f.List {
			refs[i] = field.Type
		}
		return "(" + strings.Join(refs, ", ") + ")"
	case descriptor.FieldsNamed:
		return " {" + strings.Join(fieldLines(f), ", ") + "}"
	default:
		return ""
	}
}

// writeDescriptorsToFile writes descriptors as indented JSON.
func writeDescriptorsToFile(result *DescribeResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling descriptors: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// outputCommandError reports a single command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code string, err error, details any) error {
	message := err.Error()
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		message = loadErr.Message
	}
	_ = formatter.Error(code, message, details)
	return WrapExitError(ExitCommandError, code, err)
}

// outputLoadErrors reports declaration errors (exit code 2).
func outputLoadErrors(formatter *OutputFormatter, title string, errs []error) error {
	cliErrors := make([]CLIError, len(errs))
	for i, err := range errs {
		cliErrors[i] = toCLIError(err)
	}

	if formatter.Structured() {
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("%s with %d error(s)", strings.ToLower(title), len(errs)))
	}

	formatter.Fail("%s", title)
	fmt.Fprintln(formatter.Writer)
	for i, err := range errs {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", cliErrors[i].Code, cliErrors[i].Message)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("%s with %d error(s)", strings.ToLower(title), len(errs)))
}

// toCLIError extracts code and message from an error.
func toCLIError(err error) CLIError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return CLIError{Code: loadErr.Code, Message: loadErr.Message}
	}
	return CLIError{Code: ErrCodeGeneric, Message: err.Error()}
}
