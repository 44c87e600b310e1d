package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/generic/internal/compiler"
	"github.com/roach88/generic/internal/derive"
	"github.com/roach88/generic/internal/descriptor"
)

// CheckResult holds the outcome of checking a schema directory.
type CheckResult struct {
	Valid  bool                         `json:"valid" yaml:"valid"`
	Types  []TypeStatus                 `json:"types,omitempty" yaml:"types,omitempty"`
	Errors []descriptor.ValidationError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// TypeStatus reports whether one declared type can be derived.
type TypeStatus struct {
	Name      string `json:"name" yaml:"name"`
	Derivable bool   `json:"derivable" yaml:"derivable"`
	Code      string `json:"code,omitempty" yaml:"code,omitempty"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <schema-dir>",
		Short: "Derive every declared type and report failures",
		Long: `Check the CUE type declarations in a directory.

Every descriptor is validated, cross references are resolved, and every
type is derived. Types that cannot be derived are reported with their
failure: unsupported shape (unit aggregates, unions, empty enums,
recursive shapes) or missing descriptor (undeclared references).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadDescriptors(dir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputCommandError(formatter, firstCode(loadErrors), loadErrors[0], nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, dir)

	result := checkTypes(loadResult.Types, formatter)
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			result.Errors = append(result.Errors, descriptor.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
			})
		}
	}
	result.Valid = len(result.Errors) == 0
	for _, ts := range result.Types {
		result.Valid = result.Valid && ts.Derivable
	}

	if !result.Valid {
		return outputCheckFailure(formatter, result)
	}
	return outputCheckSuccess(formatter, result)
}

// checkTypes validates every descriptor, the catalog as a whole, and the
// derivability of every type.
func checkTypes(types []*descriptor.Type, formatter *OutputFormatter) *CheckResult {
	result := &CheckResult{}

	for _, t := range types {
		formatter.VerboseLog("Checking type: %s", t.Name)
	}
	result.Errors = compiler.Validate(types)

	cat, _ := derive.NewCatalog(types)
	failures := cat.Failures()
	for _, name := range cat.Names() {
		status := TypeStatus{Name: name, Derivable: true}
		if err := failures[name]; err != nil {
			status.Derivable = false
			status.Code = derivationCode(err)
			status.Reason = err.Error()
		}
		result.Types = append(result.Types, status)
	}
	return result
}

// outputCheckSuccess outputs a clean check.
func outputCheckSuccess(formatter *OutputFormatter, result *CheckResult) error {
	if formatter.Structured() {
		return formatter.Success(result)
	}
	formatter.OK("All %d type(s) derivable", len(result.Types))
	return nil
}

// outputCheckFailure outputs validation errors and underivable types.
func outputCheckFailure(formatter *OutputFormatter, result *CheckResult) error {
	failed := 0
	var first *CLIError
	for _, ts := range result.Types {
		if !ts.Derivable {
			failed++
			if first == nil {
				first = &CLIError{Code: ts.Code, Message: ts.Reason}
			}
		}
	}
	if len(result.Errors) > 0 {
		first = &CLIError{Code: result.Errors[0].Code, Message: result.Errors[0].Message}
	}
	problems := failed + len(result.Errors)

	if formatter.Structured() {
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  first,
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("check failed with %d problem(s)", problems))
	}

	formatter.Fail("Check failed")
	fmt.Fprintln(formatter.Writer)
	for _, verr := range result.Errors {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", verr.Code, verr.Field, verr.Message)
	}
	if len(result.Errors) > 0 {
		fmt.Fprintln(formatter.Writer)
	}
	for _, ts := range result.Types {
		if ts.Derivable {
			formatter.OK("%s", ts.Name)
			continue
		}
		formatter.Fail("%s: %s: %s", ts.Name, ts.Code, ts.Reason)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("check failed with %d problem(s)", problems))
}
