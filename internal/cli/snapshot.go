package cli

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/generic/internal/store"
	"github.com/roach88/generic/internal/value"
)

// SnapshotOptions holds flags for the snapshot commands.
type SnapshotOptions struct {
	*RootOptions
	DBPath string
}

// SnapshotResult is the structured output of a stored snapshot.
type SnapshotResult struct {
	ID               string `json:"id" yaml:"id"`
	Type             string `json:"type" yaml:"type"`
	DescriptorDigest string `json:"descriptor_digest" yaml:"descriptor_digest"`
	Seq              int64  `json:"seq" yaml:"seq"`
	Inserted         bool   `json:"inserted" yaml:"inserted"`
	Stale            bool   `json:"stale,omitempty" yaml:"stale,omitempty"`
	Tree             any    `json:"tree,omitempty" yaml:"tree,omitempty"`
}

// NewSnapshotCommand creates the snapshot command and its list subcommand.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot <schema-dir> <type> <document>",
		Short: "Project a document and store the tree",
		Long: `Project a document as a declared type and store the resulting tree in
a SQLite database, together with the descriptors it was projected with.

Snapshots are content addressed: storing the same tree twice keeps the
first snapshot.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotPut(opts, args[0], args[1], args[2], cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (default from GENERIC_DB)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list <type>",
		Short: "List stored snapshots of a type",
		Long: `List the stored snapshots of a type in write order.

Snapshots projected with a descriptor that has since changed are marked
stale.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotList(opts, args[0], cmd)
		},
	})

	return cmd
}

func (o *SnapshotOptions) dbPath() string {
	if o.DBPath != "" {
		return o.DBPath
	}
	return o.DB
}

func runSnapshotPut(opts *SnapshotOptions, dir, typeName, docPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()

	types, tree, err := projectDocument(formatter, dir, typeName, docPath)
	if err != nil {
		return err
	}

	st, err := store.Open(opts.dbPath())
	if err != nil {
		return outputCommandError(formatter, ErrCodeStore, fmt.Errorf("opening database: %w", err), nil)
	}
	defer st.Close()

	for _, t := range types {
		digest, err := st.PutDescriptor(ctx, t)
		if err != nil {
			return outputCommandError(formatter, ErrCodeStore, fmt.Errorf("storing descriptor %s: %w", t.Name, err), nil)
		}
		formatter.VerboseLog("Stored descriptor %s (%s)", t.Name, digest)
	}

	snap, inserted, err := st.PutSnapshot(ctx, typeName, tree)
	if err != nil {
		return outputCommandError(formatter, ErrCodeStore, fmt.Errorf("storing snapshot: %w", err), nil)
	}

	result := SnapshotResult{
		ID:               snap.ID,
		Type:             snap.TypeName,
		DescriptorDigest: snap.DescriptorDigest,
		Seq:              snap.Seq,
		Inserted:         inserted,
	}
	if formatter.Structured() {
		return formatter.Success(result)
	}
	if inserted {
		formatter.OK("Stored snapshot %s of %s (seq %d)", snap.ID, snap.TypeName, snap.Seq)
	} else {
		formatter.OK("Snapshot %s of %s already stored (seq %d)", snap.ID, snap.TypeName, snap.Seq)
	}
	return nil
}

func runSnapshotList(opts *SnapshotOptions, typeName string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()

	st, err := store.Open(opts.dbPath())
	if err != nil {
		return outputCommandError(formatter, ErrCodeStore, fmt.Errorf("opening database: %w", err), nil)
	}
	defer st.Close()

	snaps, err := st.SnapshotsByType(ctx, typeName)
	if err != nil {
		return outputCommandError(formatter, ErrCodeStore, fmt.Errorf("listing snapshots: %w", err), nil)
	}
	stale, err := st.StaleSnapshots(ctx, typeName)
	if err != nil {
		return outputCommandError(formatter, ErrCodeStore, fmt.Errorf("listing stale snapshots: %w", err), nil)
	}
	staleIDs := make([]string, len(stale))
	for i, s := range stale {
		staleIDs[i] = s.ID
	}

	results := make([]SnapshotResult, len(snaps))
	for i, s := range snaps {
		results[i] = SnapshotResult{
			ID:               s.ID,
			Type:             s.TypeName,
			DescriptorDigest: s.DescriptorDigest,
			Seq:              s.Seq,
			Stale:            slices.Contains(staleIDs, s.ID),
		}
		switch formatter.Format {
		case "json":
			data, err := value.MarshalCanonical(s.Value)
			if err != nil {
				return outputCommandError(formatter, ErrCodeStore, err, nil)
			}
			results[i].Tree = json.RawMessage(data)
		case "yaml":
			results[i].Tree = value.YAMLNode(s.Value)
		}
	}

	if formatter.Structured() {
		return formatter.Success(results)
	}

	if len(results) == 0 {
		fmt.Fprintf(formatter.Writer, "No snapshots of %s\n", typeName)
		return nil
	}
	for i, r := range results {
		line := fmt.Sprintf("%d %s %s", r.Seq, r.ID, value.Pretty(snaps[i].Value))
		if r.Stale {
			formatter.Fail("%s (stale)", line)
			continue
		}
		formatter.OK("%s", line)
	}
	return nil
}
