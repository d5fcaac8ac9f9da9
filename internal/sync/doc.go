// Package sync provides the offline-first synchronization engine.
//
// The engine reconciles the local embedded store against the user's single
// cloud copy under intermittent connectivity. Local writes are always
// served immediately from the store; the engine pushes dirty rows to the
// cloud in one batched call and pulls the cloud's full snapshot at session
// start.
//
// Reconciliation rules:
//   - Push collects every row with synced=0 across all syncable tables into
//     one batch. After the cloud acknowledges, each pushed row is marked
//     synced=1 only if its updated_at is unchanged since it was read, so a
//     concurrent local write is never incorrectly marked synced. Soft-deleted
//     rows are purged once both deleted=1 and synced=1.
//   - Pull never overwrites an existing local row for ordinary entities
//     (first-writer-at-pull-time wins — a deliberate simplification, not a
//     field merge). The single-row user preferences entity is the exception:
//     local-unsynced wins outright, otherwise cloud values are applied in
//     place. Settings keys are skipped while locally unsynced.
//   - Push failures are logged and retried on the next trigger; push is
//     idempotent because the cloud applies upserts by id with
//     last-write-wins on updatedAt. Pull failures are reported as "no new
//     data" so a transient error can never trigger a destructive reset.
//
// A single mutex serializes push and pull, so the two can never interleave
// mid-transaction on the store.
package sync
