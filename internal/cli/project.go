package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/generic/internal/derive"
	"github.com/roach88/generic/internal/descriptor"
	"github.com/roach88/generic/internal/document"
	"github.com/roach88/generic/internal/value"
)

// ProjectResult is the structured output of a projection.
type ProjectResult struct {
	Type   string `json:"type" yaml:"type"`
	Digest string `json:"digest" yaml:"digest"`
	Tree   any    `json:"tree" yaml:"tree"`
}

// NewProjectCommand creates the project command.
func NewProjectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project <schema-dir> <type> <document>",
		Short: "Project a YAML or JSON document into a generic value tree",
		Long: `Project a document through the derived projection of a declared type
and print the resulting generic value tree.

Text output is the display form of the tree. JSON output is its canonical
encoding; YAML output renders the same tree as a YAML document.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProject(rootOpts, args[0], args[1], args[2], cmd)
		},
	}

	return cmd
}

func runProject(opts *RootOptions, dir, typeName, docPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	_, tree, err := projectDocument(formatter, dir, typeName, docPath)
	if err != nil {
		return err
	}

	digest, err := value.Digest(tree)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, err, nil)
	}

	switch formatter.Format {
	case "json":
		data, err := value.MarshalCanonical(tree)
		if err != nil {
			return outputCommandError(formatter, ErrCodeGeneric, err, nil)
		}
		return formatter.Success(ProjectResult{Type: typeName, Digest: digest, Tree: json.RawMessage(data)})
	case "yaml":
		return formatter.Success(ProjectResult{Type: typeName, Digest: digest, Tree: value.YAMLNode(tree)})
	default:
		fmt.Fprintln(formatter.Writer, value.Pretty(tree))
		formatter.VerboseLog("digest %s", digest)
		return nil
	}
}

// projectDocument loads the schema directory and projects the document as
// typeName. Failures have already been reported through formatter.
func projectDocument(formatter *OutputFormatter, dir, typeName, docPath string) ([]*descriptor.Type, value.Value, error) {
	loadResult, loadErrors := LoadDescriptors(dir, LoadModeFailFast)
	if loadResult == nil && len(loadErrors) > 0 {
		return nil, nil, outputCommandError(formatter, firstCode(loadErrors), loadErrors[0], nil)
	}
	if len(loadErrors) > 0 {
		return nil, nil, outputLoadErrors(formatter, "Loading failed", loadErrors)
	}
	formatter.VerboseLog("Loaded %d type(s) from %s", len(loadResult.Types), dir)

	data, err := os.ReadFile(docPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, outputCommandError(formatter, ErrCodeNotFound, fmt.Errorf("document not found: %s", docPath), nil)
		}
		return nil, nil, outputCommandError(formatter, ErrCodeGeneric, fmt.Errorf("reading document: %w", err), nil)
	}

	cat, _ := derive.NewCatalog(loadResult.Types)
	tree, err := document.New(cat).ProjectBytes(typeName, data)
	if err != nil {
		return nil, nil, outputProjectError(formatter, err)
	}
	return loadResult.Types, tree, nil
}

// outputProjectError reports a projection failure. Derivation failures exit
// with ExitFailure; malformed documents are command errors.
func outputProjectError(formatter *OutputFormatter, err error) error {
	var docErr *document.Error
	if errors.As(err, &docErr) {
		_ = formatter.Error(ErrCodeInvalidDocument, docErr.Error(), map[string]string{"path": docErr.Path})
		return WrapExitError(ExitCommandError, ErrCodeInvalidDocument, err)
	}
	if code := derive.CodeOf(err); code != "" {
		cliCode := derivationCode(err)
		_ = formatter.Error(cliCode, err.Error(), map[string]string{"reason": string(code)})
		return WrapExitError(ExitFailure, cliCode, err)
	}
	return outputCommandError(formatter, ErrCodeInvalidDocument, err, nil)
}
