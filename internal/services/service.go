// Package services implements the application operations of the climb log.
// Every mutation runs in one local transaction that writes the business
// change and its dirty flag together, so a crash can never leave a change
// unqueued.
package services

import (
	"context"

	"github.com/cruxlog/cruxlog/internal/common"
	"github.com/cruxlog/cruxlog/internal/store/meta"
)

// ownProfileID returns the device's profile id, or ErrNotFound before a
// profile has been set up.
func ownProfileID(ctx context.Context, m meta.Repository) (string, error) {
	id, err := m.Get(ctx, meta.KeyProfileID)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", common.ErrNotFound
	}
	return id, nil
}
