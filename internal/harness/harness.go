package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/generic/internal/compiler"
	"github.com/roach88/generic/internal/derive"
	"github.com/roach88/generic/internal/descriptor"
	"github.com/roach88/generic/internal/document"
	"github.com/roach88/generic/internal/store"
	"github.com/roach88/generic/internal/value"
)

// Harness runs scenarios against a fresh descriptor store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Compile the CUE schemas and store every descriptor
// 2. Derive the scenario type from the stored descriptors
// 3. Project the document and store the tree as a snapshot
// 4. Check the expect clause or the assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	types, err := compileSchemas(scenario.Schemas)
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		if _, err := h.store.PutDescriptor(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to store descriptor: %w", err)
		}
	}
	h.logger.Debug("schemas loaded", "scenario", scenario.Name, "types", len(types))

	result := NewResult()
	tree, err := h.project(ctx, scenario)
	if err != nil {
		result.Err = err
		checkExpect(scenario.Expect, err, result)
		return result, nil
	}

	snap, _, err := h.store.PutSnapshot(ctx, scenario.Type, tree)
	if err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}
	result.Value = snap.Value
	result.Digest = snap.ID

	if scenario.Expect != nil {
		result.AddError(fmt.Sprintf("expected %s, projection succeeded", scenario.Expect.Error))
		return result, nil
	}
	for _, a := range scenario.Assertions {
		if err := checkAssertion(result.Value, a); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

func (h *Harness) project(ctx context.Context, scenario *Scenario) (value.Value, error) {
	// Only the scenario type's own failure matters; Project reports it
	// through the catalog before decoding.
	cat, _ := h.store.Catalog(ctx, scenario.Type)
	return document.New(cat).Project(scenario.Type, &scenario.Document)
}

// compileSchemas compiles every schema file, preserving declaration order.
func compileSchemas(paths []string) ([]*descriptor.Type, error) {
	var types []*descriptor.Type
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}
		declared, err := compiler.CompileSource(path, src)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", path, err)
		}
		types = append(types, declared...)
	}
	return types, nil
}

// checkExpect records whether a projection failure matches the scenario's
// expect clause.
func checkExpect(expect *ExpectClause, err error, result *Result) {
	if expect == nil {
		result.AddError(fmt.Sprintf("unexpected error: %v", err))
		return
	}

	code := errorCode(err)
	if code != expect.Error {
		result.AddError(fmt.Sprintf("expected %s, got %s (%v)", expect.Error, code, err))
		return
	}
	if expect.Path != "" {
		var docErr *document.Error
		if errors.As(err, &docErr) && docErr.Path != expect.Path {
			result.AddError(fmt.Sprintf("expected error at %s, got %s", expect.Path, docErr.Path))
		}
	}
	if expect.Message != "" && !strings.Contains(err.Error(), expect.Message) {
		result.AddError(fmt.Sprintf("expected error containing %q, got %q", expect.Message, err.Error()))
	}
}

// errorCode classifies a projection failure by its expect code.
func errorCode(err error) string {
	if code := derive.CodeOf(err); code != "" {
		return string(code)
	}
	if document.IsError(err) {
		return ErrInvalidDocument
	}
	return "UNKNOWN"
}
