package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// PlaceRepo provides read access to venues and the add-on services they
// offer.  Venue administration is out of scope for this service, so only
// the lookups needed to price and validate a reservation are exposed.
type PlaceRepo struct {
	db *sql.DB
}

// NewPlaceRepo returns a PlaceRepo bound to the given database.
func NewPlaceRepo(db *sql.DB) *PlaceRepo { return &PlaceRepo{db: db} }

// GetPlace returns the venue with the given id.  The hourly rate, owner
// and moderation status are the fields the reservation engine relies on.
// When no venue exists, ErrNotFound is returned.
func (r *PlaceRepo) GetPlace(ctx context.Context, id uint64) (model.Place, error) {
	const q = `SELECT id, user_id, category_id, name, COALESCE(address, ''),
	                  price_per_hour, status, created_at
	           FROM places WHERE id = ?`
	var p model.Place
	var status string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.OwnerID, &p.CategoryID, &p.Name, &p.Address,
		&p.PricePerHour, &status, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Place{}, ErrNotFound
	}
	if err != nil {
		return model.Place{}, err
	}
	p.Status = model.PlaceStatus(status)
	return p, nil
}

// ActiveServices returns the active services offered by placeID whose
// place_services id is in ids.  IDs that belong to another venue, are
// inactive or do not exist are simply absent from the result.  An empty
// ids slice returns an empty result without querying.
func (r *PlaceRepo) ActiveServices(ctx context.Context, placeID uint64, ids []uint64) ([]model.PlaceService, error) {
	if len(ids) == 0 {
		return []model.PlaceService{}, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, placeID)
	for _, id := range ids {
		args = append(args, id)
	}
	q := `SELECT ps.id, ps.place_id, ps.service_id, s.name, COALESCE(s.icon_url, ''), ps.price, ps.is_active
	      FROM place_services ps
	      JOIN services s ON s.id = ps.service_id
	      WHERE ps.place_id = ? AND ps.is_active = TRUE AND ps.id IN (` + placeholders(len(ids)) + `)
	      ORDER BY ps.id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.PlaceService, 0, len(ids))
	for rows.Next() {
		var s model.PlaceService
		if err := rows.Scan(&s.ID, &s.PlaceID, &s.ServiceID, &s.Name, &s.IconURL, &s.Price, &s.IsActive); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// placeholders returns n comma separated "?" markers for an IN clause.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
