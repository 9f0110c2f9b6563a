package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// ReservationRepo persists reservations and the records created with
// them: the bill, the payment and the selected services.  All timestamp
// fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// rowQueryer is satisfied by both *sql.DB and *sql.Tx so the overlap query
// can run inside or outside the creation transaction.
type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// overlapQuery counts active reservations on a place whose window touches
// the candidate window.  Both bounds are inclusive, so a booking ending at
// 12:00 conflicts with one starting at 12:00.
const overlapQuery = `SELECT COUNT(*) FROM reservations
	WHERE place_id = ? AND is_active = TRUE AND start_time <= ? AND end_time >= ?`

func countOverlapping(ctx context.Context, q rowQueryer, placeID uint64, start, end time.Time) (int64, error) {
	var n int64
	err := q.QueryRowContext(ctx, overlapQuery, placeID, end.UTC(), start.UTC()).Scan(&n)
	return n, err
}

// CountOverlapping returns how many active reservations on placeID overlap
// [start, end].  It has no side effects.
func (r *ReservationRepo) CountOverlapping(ctx context.Context, placeID uint64, start, end time.Time) (int64, error) {
	return countOverlapping(ctx, r.db, placeID, start, end)
}

// CreateAggregate writes a reservation, its bill, its payment and its
// service selections in a single transaction.  The place row is locked
// with SELECT ... FOR UPDATE before the overlap re-check, which serializes
// concurrent creations on the same place: the second request blocks until
// the first commits and then sees its row.  On success the generated IDs
// are populated on in.  On any failure the transaction is rolled back and
// nothing is persisted.  Returns ErrNotFound when the place does not
// exist, ErrOverlap on a conflicting window and ErrDuplicateReference
// when the payment reference code is taken.
func (r *ReservationRepo) CreateAggregate(ctx context.Context, in *model.NewReservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var placeID uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM places WHERE id = ? FOR UPDATE`, in.Reservation.PlaceID).Scan(&placeID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	n, err := countOverlapping(ctx, tx, in.Reservation.PlaceID, in.Reservation.StartTime, in.Reservation.EndTime)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrOverlap
	}

	res := &in.Reservation
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (place_id, user_id, start_time, end_time, reservation_date, is_confirmed, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.PlaceID, res.UserID, res.StartTime.UTC(), res.EndTime.UTC(), res.ReservationDate.UTC(),
		res.IsConfirmed, res.IsActive,
	)
	if err != nil {
		return err
	}
	if res.ID, err = lastID(result); err != nil {
		return err
	}

	bill := &in.Bill
	bill.ReservationID = res.ID
	result, err = tx.ExecContext(ctx,
		`INSERT INTO bills (reservation_id, sub_total, iva, service_tax, total) VALUES (?, ?, ?, ?, ?)`,
		bill.ReservationID, bill.SubTotal, bill.IVA, bill.ServiceTax, bill.Total,
	)
	if err != nil {
		return err
	}
	if bill.ID, err = lastID(result); err != nil {
		return err
	}

	pay := &in.Payment
	pay.BillID = bill.ID
	result, err = tx.ExecContext(ctx,
		`INSERT INTO payments (bill_id, reference_code, card_number, full_name) VALUES (?, ?, ?, ?)`,
		pay.BillID, pay.ReferenceCode, pay.CardNumber, pay.FullName,
	)
	if err != nil {
		if isDuplicateKey(err, "uq_payments_reference") {
			return ErrDuplicateReference
		}
		return err
	}
	if pay.ID, err = lastID(result); err != nil {
		return err
	}

	if err := insertSelectionsTx(ctx, tx, res.ID, in.PlaceServiceIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// insertSelectionsTx inserts one place_service_reservations row per id in
// a single multi-row statement.  An empty slice is a no-op.
func insertSelectionsTx(ctx context.Context, tx *sql.Tx, reservationID uint64, placeServiceIDs []uint64) error {
	if len(placeServiceIDs) == 0 {
		return nil
	}
	query := `INSERT INTO place_service_reservations (reservation_id, place_service_id) VALUES `
	args := make([]any, 0, len(placeServiceIDs)*2)
	for i, id := range placeServiceIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, reservationID, id)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func lastID(res sql.Result) (uint64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindActive returns the active reservation with the given id, or
// ErrNotFound when it does not exist or has been cancelled.
func (r *ReservationRepo) FindActive(ctx context.Context, id uint64) (model.Reservation, error) {
	const q = `SELECT id, place_id, user_id, start_time, end_time, reservation_date, is_confirmed, is_active
	           FROM reservations WHERE id = ? AND is_active = TRUE`
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.PlaceID, &res.UserID, &res.StartTime, &res.EndTime,
		&res.ReservationDate, &res.IsConfirmed, &res.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrNotFound
	}
	if err != nil {
		return model.Reservation{}, err
	}
	return res, nil
}

// Deactivate soft-deletes a reservation.  The update only matches an
// active row, so when two cancellations race the loser gets ErrNotFound.
func (r *ReservationRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reservations SET is_active = FALSE WHERE id = ? AND is_active = TRUE`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetDetail loads the joined read model of one reservation regardless of
// its active flag.  Returns ErrNotFound when the id is unknown.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (model.ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, detailSelect+` WHERE r.id = ?`, id)
	if err != nil {
		return model.ReservationDetail{}, err
	}
	details, err := scanDetails(rows)
	if err != nil {
		return model.ReservationDetail{}, err
	}
	if len(details) == 0 {
		return model.ReservationDetail{}, ErrNotFound
	}
	if err := r.attachServices(ctx, details); err != nil {
		return model.ReservationDetail{}, err
	}
	return details[0], nil
}
