package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/generic/internal/derive"
	"github.com/roach88/generic/internal/descriptor"
	"github.com/roach88/generic/internal/value"
)

// ErrNotFound is returned when a descriptor or snapshot does not exist.
var ErrNotFound = errors.New("not found")

// Descriptor is a stored descriptor.
type Descriptor struct {
	Type   *descriptor.Type
	Digest string
	Seq    int64
}

// Snapshot is a stored value tree.
type Snapshot struct {
	ID               string
	TypeName         string
	DescriptorDigest string
	Value            value.Value
	Seq              int64
}

const snapshotSelect = `SELECT id, type_name, descriptor_digest, body, seq FROM snapshots`

// GetDescriptor returns the stored descriptor for a type name.
func (s *Store) GetDescriptor(ctx context.Context, name string) (Descriptor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT body, digest, seq FROM descriptors WHERE name = ?
	`, name)

	var body string
	var d Descriptor
	if err := row.Scan(&body, &d.Digest, &d.Seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Descriptor{}, fmt.Errorf("get descriptor %q: %w", name, ErrNotFound)
		}
		return Descriptor{}, fmt.Errorf("get descriptor %q: %w", name, err)
	}

	t, err := unmarshalDescriptor(body)
	if err != nil {
		return Descriptor{}, fmt.Errorf("get descriptor %q: %w", name, err)
	}
	d.Type = t
	return d, nil
}

// ListDescriptors returns every stored descriptor ordered by name.
//
// Returns an empty slice (not nil) if none are stored.
func (s *Store) ListDescriptors(ctx context.Context) ([]Descriptor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT body, digest, seq FROM descriptors
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query descriptors: %w", err)
	}
	defer rows.Close()

	out := []Descriptor{}
	for rows.Next() {
		var body string
		var d Descriptor
		if err := rows.Scan(&body, &d.Digest, &d.Seq); err != nil {
			return nil, fmt.Errorf("scan descriptor: %w", err)
		}
		if d.Type, err = unmarshalDescriptor(body); err != nil {
			return nil, err
		}
		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descriptors: %w", err)
	}
	return out, nil
}

// GetSnapshot returns a snapshot by ID.
func (s *Store) GetSnapshot(ctx context.Context, id string) (Snapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRowContext(ctx, snapshotSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("get snapshot %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot %q: %w", id, err)
	}
	return snap, nil
}

// SnapshotsByType returns the snapshots of a type in write order:
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if none exist.
func (s *Store) SnapshotsByType(ctx context.Context, typeName string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, snapshotSelect+`
		WHERE type_name = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, typeName)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	out := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}

// StaleSnapshots returns the snapshots of a type projected under a
// descriptor other than the one currently stored.
func (s *Store) StaleSnapshots(ctx context.Context, typeName string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.type_name, s.descriptor_digest, s.body, s.seq
		FROM snapshots s
		JOIN descriptors d ON s.type_name = d.name
		WHERE s.type_name = ? AND s.descriptor_digest != d.digest
		ORDER BY s.seq ASC, s.id COLLATE BINARY ASC
	`, typeName)
	if err != nil {
		return nil, fmt.Errorf("query stale snapshots: %w", err)
	}
	defer rows.Close()

	out := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale snapshots: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (Snapshot, error) {
	var snap Snapshot
	var body string
	if err := row.Scan(&snap.ID, &snap.TypeName, &snap.DescriptorDigest, &body, &snap.Seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, err
		}
		return Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}

	v, err := unmarshalValue(body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}
	snap.Value = v
	return snap, nil
}

// Lookup implements derive.Resolver. Read errors resolve as missing, which
// derivation reports as MissingDescriptor.
func (s *Store) Lookup(name string) (*descriptor.Type, bool) {
	return s.Resolver(context.Background()).Lookup(name)
}

// Resolver returns a derive.Resolver whose reads use ctx.
func (s *Store) Resolver(ctx context.Context) derive.Resolver {
	return ctxResolver{s: s, ctx: ctx}
}

// Catalog derives the named types and everything they reference from the
// stored descriptors.
func (s *Store) Catalog(ctx context.Context, names ...string) (*derive.Catalog, error) {
	return derive.DeriveFrom(s.Resolver(ctx), names...)
}

type ctxResolver struct {
	s   *Store
	ctx context.Context
}

func (r ctxResolver) Lookup(name string) (*descriptor.Type, bool) {
	d, err := r.s.GetDescriptor(r.ctx, name)
	if err != nil {
		return nil, false
	}
	return d.Type, true
}

var _ derive.Resolver = (*Store)(nil)
