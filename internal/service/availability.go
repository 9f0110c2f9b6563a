package service

import (
	"context"
	"time"
)

// OverlapCounter counts active reservations on a place that overlap a
// window.  ReservationStore satisfies it.
type OverlapCounter interface {
	CountOverlapping(ctx context.Context, placeID uint64, start, end time.Time) (int64, error)
}

// AvailabilityChecker answers whether a place is free for a window.
type AvailabilityChecker struct {
	store OverlapCounter
}

func NewAvailabilityChecker(store OverlapCounter) *AvailabilityChecker {
	return &AvailabilityChecker{store: store}
}

// IsAvailable reports whether no active reservation on placeID overlaps
// [start, end] under the closed-interval rule of Overlaps.  It never
// writes.  The result is advisory: creation repeats the check inside its
// transaction.
func (a *AvailabilityChecker) IsAvailable(ctx context.Context, placeID uint64, start, end time.Time) (bool, error) {
	n, err := a.store.CountOverlapping(ctx, placeID, start, end)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Overlaps reports whether an existing window conflicts with a candidate
// window.  Bounds are inclusive: windows that only share an instant
// conflict.
func Overlaps(existingStart, existingEnd, candStart, candEnd time.Time) bool {
	return !existingStart.After(candEnd) && !existingEnd.Before(candStart)
}
