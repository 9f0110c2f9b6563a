package service

import (
	"fmt"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// Scope turns the filter a caller asked for into the filter the caller is
// allowed to run.  Each role has exactly one Scope.
type Scope interface {
	Apply(callerID uint64, requested model.ReservationFilter) (model.ReservationFilter, error)
}

// ownReservationsScope pins the reservator to the caller, whatever was
// requested.
type ownReservationsScope struct{}

func (ownReservationsScope) Apply(callerID uint64, f model.ReservationFilter) (model.ReservationFilter, error) {
	f.ReservatorID = callerID
	return f, nil
}

// corporateScope requires an explicit host or reservator so corporate
// accounts cannot browse the whole reservation set.
type corporateScope struct{}

func (corporateScope) Apply(_ uint64, f model.ReservationFilter) (model.ReservationFilter, error) {
	if f.HostID == 0 && f.ReservatorID == 0 {
		return model.ReservationFilter{}, ErrFilterRequired
	}
	return f, nil
}

// unrestrictedScope passes the filter through.
type unrestrictedScope struct{}

func (unrestrictedScope) Apply(_ uint64, f model.ReservationFilter) (model.ReservationFilter, error) {
	return f, nil
}

// ScopeFor returns the listing scope of role.
func ScopeFor(role model.Role) (Scope, error) {
	switch role {
	case model.RoleUser:
		return ownReservationsScope{}, nil
	case model.RoleCorporativeUser:
		return corporateScope{}, nil
	case model.RoleWorker, model.RoleAdmin:
		return unrestrictedScope{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrRoleNotAllowed, role)
}

// CanCancel allows only the reservator to cancel, for every role.
func CanCancel(callerID uint64, r model.Reservation) error {
	if r.UserID != callerID {
		return ErrNotReservationOwner
	}
	return nil
}
