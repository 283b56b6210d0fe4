// Package sequence allocates per-key monotonically increasing integers.
//
// Every implementation performs a single atomic increment-and-fetch in the
// backing store. There is no in-process counter: several service instances
// share one store and must agree on the next value.
package sequence

import (
	"context"

	"github.com/google/uuid"
)

// Allocator hands out the next value for key. A missing counter starts at 1.
// Values are never repeated for a key; they may skip when a caller discards
// an allocated value (for example when its transaction aborts).
type Allocator interface {
	Allocate(ctx context.Context, key string) (int64, error)
}

// Key builds the counter key for a clinic/doctor pair.
func Key(clinicID, doctorID uuid.UUID) string {
	return clinicID.String() + ":" + doctorID.String()
}
