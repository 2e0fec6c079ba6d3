package store

import (
	"context"
	"fmt"
)

// Optimize reclaims space and refreshes planner statistics after a rebuild.
// VACUUM cannot run inside a transaction, so this is a separate maintenance
// step rather than part of Rebuild.
func (s *Store) Optimize(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("%w: database not opened", ErrPersistence)
	}

	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return fmt.Errorf("%w: vacuum: %v", ErrPersistence, err)
	}
	if _, err := s.db.ExecContext(ctx, `ANALYZE`); err != nil {
		return fmt.Errorf("%w: analyze: %v", ErrPersistence, err)
	}

	return nil
}
