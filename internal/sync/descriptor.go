// Package sync contains the synchronization engine: the operation
// descriptor model, the per-entity bindings between local repositories and
// remote table adapters, and the coordinator that drains dirty records.
package sync

import "github.com/cruxlog/cruxlog/internal/models"

// Op is the kind of remote mutation a dirty record requires. A local create
// and a local field update both map to an idempotent remote upsert of the
// record's current state, so they share one op.
type Op string

const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// Descriptor identifies what changed: which entity, which record, and
// whether the pending change is an upsert or a soft delete. Descriptors are
// derived from current record state at drain time rather than stored in a
// separate log; the dirty flag on the record itself is the durable intent,
// and intermediate mutations coalesce for free.
type Descriptor struct {
	Kind models.EntityKind
	Key  string
	Op   Op
}

// DescriptorFor derives the descriptor for a pending record.
func DescriptorFor(rec models.PendingRecord) Descriptor {
	op := OpUpsert
	if rec.Deleted {
		op = OpDelete
	}
	return Descriptor{Kind: rec.Kind, Key: rec.Key, Op: op}
}
