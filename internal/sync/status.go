package sync

import (
	"context"
	"fmt"

	"github.com/cruxlog/cruxlog/internal/models"
)

// KindStatus summarizes one kind's outstanding sync work.
type KindStatus struct {
	Pending int
	Failed  int
}

// Status reports pending and failed counts per bound kind.
func (c *Coordinator) Status(ctx context.Context) (map[models.EntityKind]KindStatus, error) {
	out := make(map[models.EntityKind]KindStatus, len(c.bindings))
	for kind, b := range c.bindings {
		pending, failed, err := b.Counts(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting %s records: %w", kind, err)
		}
		out[kind] = KindStatus{Pending: pending, Failed: failed}
	}
	return out, nil
}
