package service

import "errors"

// Kind classifies service errors so the HTTP layer can pick a status
// code without knowing every sentinel.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindForbidden
	KindPolicy
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindPolicy:
		return "policy_violation"
	}
	return "internal"
}

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrPlaceNotBookable = errors.New("place is not open for reservations")

	ErrPlaceNotAvailable = errors.New("the place is not available for the selected dates")

	ErrReservationNotFound = errors.New("reservation not found")
	ErrPlaceNotFound       = errors.New("place not found")
	ErrUserNotFound        = errors.New("user not found")

	ErrFilterRequired     = errors.New("as corporative user you need to specify hostId or reservatorId")
	ErrCancellationWindow = errors.New("reservation is outside the cancellation window")

	ErrNotReservationOwner = errors.New("you can only cancel your own reservations")
	ErrRoleNotAllowed      = errors.New("role is not allowed to list reservations")
)

// KindOf maps an error returned by ReservationService to its Kind.
// Unknown errors are internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrPlaceNotBookable):
		return KindValidation
	case errors.Is(err, ErrPlaceNotAvailable):
		return KindConflict
	case errors.Is(err, ErrReservationNotFound), errors.Is(err, ErrPlaceNotFound), errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrFilterRequired), errors.Is(err, ErrCancellationWindow):
		return KindPolicy
	case errors.Is(err, ErrNotReservationOwner), errors.Is(err, ErrRoleNotAllowed):
		return KindForbidden
	}
	return KindInternal
}
