// Package store persists challenge-response records.
//
// Every backend implements the same contract:
//   - InsertAll is all-or-nothing. A key that already exists, or that repeats
//     within the batch, aborts the whole batch with ErrUniquenessViolation.
//   - QueryByUser returns the committed records for one user (empty when none)
//     as a consistent snapshot.
package store

import (
	"fmt"

	"crpstore/pkg/platform/sentinel"
)

// ErrUniquenessViolation marks an insert that collided on (user, challenge).
// It never leaves the service layer.
var ErrUniquenessViolation = fmt.Errorf("crp uniqueness violation: %w", sentinel.ErrConflict)

func uniquenessViolation(user, challenge string) error {
	return fmt.Errorf("insert crp %s/%s: %w", user, challenge, ErrUniquenessViolation)
}
