package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// detailFrom joins a reservation with its place, the place owner's
// profile, the reservator's profile, the bill and the payment.  Profiles
// are LEFT JOINed because a user may not have filled one in yet.
const detailFrom = `
	FROM reservations r
	JOIN places p          ON p.id = r.place_id
	LEFT JOIN user_infos oi ON oi.user_id = p.user_id
	LEFT JOIN user_infos ui ON ui.user_id = r.user_id
	JOIN bills b           ON b.reservation_id = r.id
	JOIN payments pay      ON pay.bill_id = b.id`

const detailSelect = `SELECT
		r.id, r.reservation_date, r.start_time, r.end_time, r.is_confirmed, r.is_active,
		p.id, p.name, p.category_id, p.price_per_hour,
		p.user_id, COALESCE(oi.name, ''), COALESCE(oi.lastname, ''),
		r.user_id, COALESCE(ui.name, ''), COALESCE(ui.lastname, ''),
		b.id, b.sub_total, b.iva, b.service_tax, b.total,
		pay.id, pay.reference_code, pay.full_name` + detailFrom

// buildWhere turns a filter into a WHERE condition and its arguments.
// Cancelled reservations are never listed.  Search is a case-insensitive
// substring match on the place name, the owner's full name or the
// reservator's full name; LIKE wildcards in the input are escaped.
func buildWhere(f model.ReservationFilter) (string, []any) {
	where := []string{"r.is_active = TRUE"}
	args := []any{}

	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + escapeLike(strings.ToLower(s)) + "%"
		where = append(where, `(LOWER(p.name) LIKE ?
			OR LOWER(CONCAT_WS(' ', oi.name, oi.lastname)) LIKE ?
			OR LOWER(CONCAT_WS(' ', ui.name, ui.lastname)) LIKE ?)`)
		args = append(args, like, like, like)
	}
	if f.DayStart != nil {
		where = append(where, "r.reservation_date >= ?")
		args = append(args, f.DayStart.UTC())
	}
	if f.DayEnd != nil {
		where = append(where, "r.reservation_date < ?")
		args = append(args, f.DayEnd.UTC())
	}
	if f.CategoryID != 0 {
		where = append(where, "p.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.HostID != 0 {
		where = append(where, "p.user_id = ?")
		args = append(args, f.HostID)
	}
	if f.ReservatorID != 0 {
		where = append(where, "r.user_id = ?")
		args = append(args, f.ReservatorID)
	}
	return strings.Join(where, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List returns the reservations matching f, newest first.  A zero
// page.Limit returns every match.  The selected services of every returned
// reservation are loaded with one additional IN query.
func (r *ReservationRepo) List(ctx context.Context, f model.ReservationFilter, page model.Pagination) ([]model.ReservationDetail, error) {
	cond, args := buildWhere(f)
	q := detailSelect + ` WHERE ` + cond + ` ORDER BY r.reservation_date DESC, r.id DESC`
	switch {
	case page.Limit > 0:
		q += ` LIMIT ? OFFSET ?`
		args = append(args, page.Limit, page.Offset)
	case page.Offset > 0:
		// MySQL has no OFFSET without LIMIT.
		q += ` LIMIT 18446744073709551615 OFFSET ?`
		args = append(args, page.Offset)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	details, err := scanDetails(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachServices(ctx, details); err != nil {
		return nil, err
	}
	return details, nil
}

// Count returns the number of reservations matching f.
func (r *ReservationRepo) Count(ctx context.Context, f model.ReservationFilter) (int64, error) {
	cond, args := buildWhere(f)
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+detailFrom+` WHERE `+cond, args...).Scan(&n)
	return n, err
}

// scanDetails reads every row of a detailSelect query and closes rows.
func scanDetails(rows *sql.Rows) ([]model.ReservationDetail, error) {
	defer rows.Close()
	out := make([]model.ReservationDetail, 0)
	for rows.Next() {
		var d model.ReservationDetail
		if err := rows.Scan(
			&d.ID, &d.ReservationDate, &d.StartTime, &d.EndTime, &d.IsConfirmed, &d.IsActive,
			&d.Place.ID, &d.Place.Name, &d.Place.CategoryID, &d.Place.PricePerHour,
			&d.Place.Owner.ID, &d.Place.Owner.Name, &d.Place.Owner.Lastname,
			&d.User.ID, &d.User.Name, &d.User.Lastname,
			&d.Bill.ID, &d.Bill.SubTotal, &d.Bill.IVA, &d.Bill.ServiceTax, &d.Bill.Total,
			&d.Bill.Payment.ID, &d.Bill.Payment.ReferenceCode, &d.Bill.Payment.FullName,
		); err != nil {
			return nil, err
		}
		d.Services = []model.ServiceLine{}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// attachServices fills Services on every detail with one IN query over
// the reservation ids.  Prices are the current place_services prices.
func (r *ReservationRepo) attachServices(ctx context.Context, details []model.ReservationDetail) error {
	if len(details) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(details))
	ids := make([]any, 0, len(details))
	for i, d := range details {
		index[d.ID] = i
		ids = append(ids, d.ID)
	}
	q := `SELECT psr.reservation_id, ps.id, s.name, COALESCE(s.icon_url, ''), ps.price
	      FROM place_service_reservations psr
	      JOIN place_services ps ON ps.id = psr.place_service_id
	      JOIN services s        ON s.id = ps.service_id
	      WHERE psr.reservation_id IN (` + placeholders(len(ids)) + `)
	      ORDER BY psr.reservation_id, psr.id`
	rows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var resID uint64
		var line model.ServiceLine
		if err := rows.Scan(&resID, &line.PlaceServiceID, &line.Name, &line.IconURL, &line.Price); err != nil {
			return err
		}
		if i, ok := index[resID]; ok {
			details[i].Services = append(details[i].Services, line)
		}
	}
	return rows.Err()
}
