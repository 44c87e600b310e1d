package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/generic/internal/descriptor"
	"github.com/roach88/generic/internal/value"
)

// ErrTypeMismatch is returned when a snapshot's root node belongs to a
// different type than the one it is filed under.
var ErrTypeMismatch = errors.New("snapshot type mismatch")

// PutDescriptor inserts or replaces the descriptor for t.Name and returns
// its digest. Rewriting an identical descriptor leaves its seq unchanged.
//
// Malformed descriptors are rejected; derivability is not checked, so
// descriptors may be stored before the types they reference.
func (s *Store) PutDescriptor(ctx context.Context, t *descriptor.Type) (string, error) {
	if t == nil {
		return "", fmt.Errorf("put descriptor: nil descriptor")
	}
	if errs := descriptor.Validate(t); len(errs) > 0 {
		return "", fmt.Errorf("put descriptor %s: %w", t.Name, errs[0])
	}

	body, err := marshalDescriptor(t)
	if err != nil {
		return "", fmt.Errorf("put descriptor %s: %w", t.Name, err)
	}
	digest, err := descriptorDigest(t)
	if err != nil {
		return "", fmt.Errorf("put descriptor %s: %w", t.Name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO descriptors (name, kind, body, digest, seq)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM descriptors))
		ON CONFLICT(name) DO UPDATE SET
			kind = excluded.kind,
			body = excluded.body,
			digest = excluded.digest,
			seq = excluded.seq
		WHERE descriptors.digest != excluded.digest
	`,
		t.Name,
		string(t.Kind),
		body,
		digest,
	)
	if err != nil {
		return "", fmt.Errorf("put descriptor %s: %w", t.Name, err)
	}

	return digest, nil
}

// PutSnapshot stores a projected value tree under typeName and returns
// the stored record and whether a new row was inserted. The snapshot ID is
// the value digest, so writing the same tree twice returns the existing
// record with inserted=false. Rewriting an existing tree after its
// descriptor changed moves the record to the current descriptor, which
// clears it from StaleSnapshots.
//
// The descriptor for typeName must already be stored.
func (s *Store) PutSnapshot(ctx context.Context, typeName string, v value.Value) (snap Snapshot, inserted bool, err error) {
	if err := value.Validate(v); err != nil {
		return Snapshot{}, false, fmt.Errorf("put snapshot: %w", err)
	}
	if root, ok := rootTypeName(v); !ok || root != typeName {
		return Snapshot{}, false, fmt.Errorf("put snapshot: %w: root is %q, want %q", ErrTypeMismatch, root, typeName)
	}

	body, err := marshalValue(v)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("put snapshot: %w", err)
	}
	id, err := value.Digest(v)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("put snapshot: %w", err)
	}

	// Use a transaction to ensure atomicity of insert-or-select
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("put snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var descDigest string
	err = tx.QueryRowContext(ctx, `SELECT digest FROM descriptors WHERE name = ?`, typeName).Scan(&descDigest)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, fmt.Errorf("put snapshot: descriptor %q: %w", typeName, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("put snapshot: %w", err)
	}

	var stored string
	err = tx.QueryRowContext(ctx, `SELECT descriptor_digest FROM snapshots WHERE id = ?`, id).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO snapshots (id, type_name, descriptor_digest, body, seq)
			VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM snapshots))
		`,
			id,
			typeName,
			descDigest,
			body,
		)
		if err != nil {
			return Snapshot{}, false, fmt.Errorf("put snapshot: insert: %w", err)
		}
		inserted = true
	case err != nil:
		return Snapshot{}, false, fmt.Errorf("put snapshot: %w", err)
	case stored != descDigest:
		// The tree still matches the current descriptor; record that it
		// was projected under it. Seq is unchanged.
		_, err = tx.ExecContext(ctx, `UPDATE snapshots SET descriptor_digest = ? WHERE id = ?`, descDigest, id)
		if err != nil {
			return Snapshot{}, false, fmt.Errorf("put snapshot: refresh descriptor: %w", err)
		}
	}

	snap, err = scanSnapshot(tx.QueryRowContext(ctx, snapshotSelect+` WHERE id = ?`, id))
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("put snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, false, fmt.Errorf("put snapshot: commit: %w", err)
	}

	return snap, inserted, nil
}
