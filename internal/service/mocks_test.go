package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

type mockReservationStore struct{ mock.Mock }

func (m *mockReservationStore) CountOverlapping(ctx context.Context, placeID uint64, start, end time.Time) (int64, error) {
	args := m.Called(ctx, placeID, start, end)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockReservationStore) CreateAggregate(ctx context.Context, in *model.NewReservation) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *mockReservationStore) GetDetail(ctx context.Context, id uint64) (model.ReservationDetail, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.ReservationDetail), args.Error(1)
}

func (m *mockReservationStore) FindActive(ctx context.Context, id uint64) (model.Reservation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Reservation), args.Error(1)
}

func (m *mockReservationStore) List(ctx context.Context, f model.ReservationFilter, page model.Pagination) ([]model.ReservationDetail, error) {
	args := m.Called(ctx, f, page)
	return args.Get(0).([]model.ReservationDetail), args.Error(1)
}

func (m *mockReservationStore) Count(ctx context.Context, f model.ReservationFilter) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockReservationStore) Deactivate(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

type mockPlaceStore struct{ mock.Mock }

func (m *mockPlaceStore) GetPlace(ctx context.Context, id uint64) (model.Place, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Place), args.Error(1)
}

func (m *mockPlaceStore) ActiveServices(ctx context.Context, placeID uint64, ids []uint64) ([]model.PlaceService, error) {
	args := m.Called(ctx, placeID, ids)
	return args.Get(0).([]model.PlaceService), args.Error(1)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetUser(ctx context.Context, id uint64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

type mockRenderer struct{ mock.Mock }

func (m *mockRenderer) Render(data model.InvoiceData) (model.Document, error) {
	args := m.Called(data)
	return args.Get(0).(model.Document), args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Send(ctx context.Context, msg model.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type countingListener struct{ calls int }

func (l *countingListener) ReservationsChanged(context.Context) { l.calls++ }

// memStore is an in-memory ReservationStore that applies the same
// overlap rule as the SQL repository.
type memStore struct {
	rows   []model.Reservation
	nextID uint64
}

func (s *memStore) CountOverlapping(_ context.Context, placeID uint64, start, end time.Time) (int64, error) {
	var n int64
	for _, r := range s.rows {
		if r.PlaceID == placeID && r.IsActive && Overlaps(r.StartTime, r.EndTime, start, end) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CreateAggregate(ctx context.Context, in *model.NewReservation) error {
	n, _ := s.CountOverlapping(ctx, in.Reservation.PlaceID, in.Reservation.StartTime, in.Reservation.EndTime)
	if n > 0 {
		return repository.ErrOverlap
	}
	s.nextID++
	in.Reservation.ID = s.nextID
	s.rows = append(s.rows, in.Reservation)
	return nil
}

func (s *memStore) GetDetail(_ context.Context, id uint64) (model.ReservationDetail, error) {
	for _, r := range s.rows {
		if r.ID == id {
			return model.ReservationDetail{ID: r.ID, StartTime: r.StartTime, EndTime: r.EndTime, IsActive: r.IsActive}, nil
		}
	}
	return model.ReservationDetail{}, repository.ErrNotFound
}

func (s *memStore) FindActive(_ context.Context, id uint64) (model.Reservation, error) {
	for _, r := range s.rows {
		if r.ID == id && r.IsActive {
			return r, nil
		}
	}
	return model.Reservation{}, repository.ErrNotFound
}

func (s *memStore) List(context.Context, model.ReservationFilter, model.Pagination) ([]model.ReservationDetail, error) {
	return nil, nil
}

func (s *memStore) Count(context.Context, model.ReservationFilter) (int64, error) {
	return int64(len(s.rows)), nil
}

func (s *memStore) Deactivate(_ context.Context, id uint64) error {
	for i := range s.rows {
		if s.rows[i].ID == id && s.rows[i].IsActive {
			s.rows[i].IsActive = false
			return nil
		}
	}
	return repository.ErrNotFound
}
