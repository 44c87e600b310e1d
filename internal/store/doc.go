// Package store provides SQLite-backed storage for descriptors and
// projected value snapshots.
//
// Descriptors are keyed by type name and carry a digest of their own value
// tree (the descriptor projected through the default registry), so a
// snapshot records exactly which shape produced it. Snapshots are content
// addressed by value digest; writing the same tree twice is a no-op.
//
// # Conventions
//
//   - All ordering uses seq INTEGER (logical clock), never timestamps
//   - Queries order by seq ASC, id ASC COLLATE BINARY
//   - Value trees are stored as canonical JSON
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The store implements derive.Resolver, so a catalog can be derived
// straight from persisted descriptors.
package store
