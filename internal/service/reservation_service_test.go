package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

var (
	now     = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	bkStart = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	bkEnd   = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ana     = model.User{ID: 3, Email: "ana@example.com", Role: model.RoleUser, Name: "Ana", Lastname: "Lopez"}
	pdf     = model.Document{Filename: "Factura.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.3")}
)

type fixture struct {
	res      *mockReservationStore
	places   *mockPlaceStore
	users    *mockUserStore
	renderer *mockRenderer
	notifier *mockNotifier
	listener *countingListener
	svc      *ReservationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		res:      &mockReservationStore{},
		places:   &mockPlaceStore{},
		users:    &mockUserStore{},
		renderer: &mockRenderer{},
		notifier: &mockNotifier{},
		listener: &countingListener{},
	}
	codes := []string{"111111111111", "222222222222", "333333333333"}
	f.svc = NewReservationService(f.res, f.places, f.users, f.renderer, f.notifier, Options{
		Clock:    ClockFunc(func() time.Time { return now }),
		Listener: f.listener,
		NewReference: func() (string, error) {
			c := codes[0]
			codes = codes[1:]
			return c, nil
		},
	})
	t.Cleanup(func() {
		f.res.AssertExpectations(t)
		f.places.AssertExpectations(t)
		f.users.AssertExpectations(t)
		f.renderer.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})
	return f
}

func createRequest() CreateRequest {
	return CreateRequest{
		PlaceID:     7,
		Start:       bkStart,
		End:         bkEnd,
		ServiceIDs:  []uint64{11},
		PaymentName: "Ana Lopez",
		CardNumber:  "4242 4242 4242 4242",
	}
}

func (f *fixture) expectPricingInputs() {
	f.places.On("GetPlace", mock.Anything, uint64(7)).Return(venue("1000"), nil)
	f.users.On("GetUser", mock.Anything, uint64(3)).Return(ana, nil)
	f.places.On("ActiveServices", mock.Anything, uint64(7), []uint64{11}).Return(offered()[:1], nil)
}

func TestCreatePersistsAggregateAndSendsInvoice(t *testing.T) {
	f := newFixture(t)
	f.res.On("CountOverlapping", mock.Anything, uint64(7), bkStart, bkEnd).Return(int64(0), nil)
	f.expectPricingInputs()

	var written *model.NewReservation
	f.res.On("CreateAggregate", mock.Anything, mock.AnythingOfType("*model.NewReservation")).
		Run(func(args mock.Arguments) {
			written = args.Get(1).(*model.NewReservation)
			written.Reservation.ID = 100
		}).
		Return(nil)
	detail := model.ReservationDetail{ID: 100, IsActive: true, IsConfirmed: true}
	f.res.On("GetDetail", mock.Anything, uint64(100)).Return(detail, nil)
	f.renderer.On("Render", mock.MatchedBy(func(d model.InvoiceData) bool {
		return d.PlaceName == "Salon Azul" && d.DurationHours.Equal(dec("2")) && len(d.Services) == 1 && d.Reservation.ID == 100
	})).Return(pdf, nil)
	f.notifier.On("Send", mock.Anything, mock.MatchedBy(func(m model.Message) bool {
		return m.To == "ana@example.com" &&
			m.Subject == "Factura de reserva" &&
			len(m.Attachments) == 1 && m.Attachments[0].Filename == "Factura.pdf"
	})).Return(nil)

	got, err := f.svc.Create(context.Background(), createRequest(), 3)
	require.NoError(t, err)
	assert.EqualValues(t, 100, got.ID)

	require.NotNil(t, written)
	assert.True(t, written.Reservation.IsConfirmed)
	assert.True(t, written.Reservation.IsActive)
	assert.Equal(t, now, written.Reservation.ReservationDate)
	assert.EqualValues(t, 3, written.Reservation.UserID)
	assert.Equal(t, "2500.00", written.Bill.SubTotal.StringFixed(2))
	assert.Equal(t, "375.00", written.Bill.IVA.StringFixed(2))
	assert.Equal(t, "125.00", written.Bill.ServiceTax.StringFixed(2))
	assert.Equal(t, "3000.00", written.Bill.Total.StringFixed(2))
	assert.Equal(t, "111111111111", written.Payment.ReferenceCode)
	assert.Equal(t, "**** **** **** 4242", written.Payment.CardNumber)
	assert.Equal(t, []uint64{11}, written.PlaceServiceIDs)
	assert.Equal(t, 1, f.listener.calls)
}

func TestCreateRejectsTakenWindowBeforeLoadingPlace(t *testing.T) {
	f := newFixture(t)
	f.res.On("CountOverlapping", mock.Anything, uint64(7), bkStart, bkEnd).Return(int64(1), nil)

	_, err := f.svc.Create(context.Background(), createRequest(), 3)
	assert.ErrorIs(t, err, ErrPlaceNotAvailable)
	assert.Equal(t, KindConflict, KindOf(err))
	f.places.AssertNotCalled(t, "GetPlace", mock.Anything, mock.Anything)
	f.res.AssertNotCalled(t, "CreateAggregate", mock.Anything, mock.Anything)
}

func TestCreateMapsTransactionalOverlapToConflict(t *testing.T) {
	f := newFixture(t)
	f.res.On("CountOverlapping", mock.Anything, uint64(7), bkStart, bkEnd).Return(int64(0), nil)
	f.expectPricingInputs()
	f.res.On("CreateAggregate", mock.Anything, mock.Anything).Return(repository.ErrOverlap)

	_, err := f.svc.Create(context.Background(), createRequest(), 3)
	assert.ErrorIs(t, err, ErrPlaceNotAvailable)
	f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	assert.Zero(t, f.listener.calls)
}

func TestCreateRetriesOnReferenceCollision(t *testing.T) {
	f := newFixture(t)
	f.res.On("CountOverlapping", mock.Anything, uint64(7), bkStart, bkEnd).Return(int64(0), nil)
	f.expectPricingInputs()

	var codes []string
	capture := func(args mock.Arguments) {
		in := args.Get(1).(*model.NewReservation)
		codes = append(codes, in.Payment.ReferenceCode)
		in.Reservation.ID = 100
	}
	f.res.On("CreateAggregate", mock.Anything, mock.Anything).Run(capture).Return(repository.ErrDuplicateReference).Once()
	f.res.On("CreateAggregate", mock.Anything, mock.Anything).Run(capture).Return(nil).Once()
	f.res.On("GetDetail", mock.Anything, uint64(100)).Return(model.ReservationDetail{ID: 100}, nil)
	f.renderer.On("Render", mock.Anything).Return(pdf, nil)
	f.notifier.On("Send", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Create(context.Background(), createRequest(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"111111111111", "222222222222"}, codes)
}

func TestCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	f.res.On("CountOverlapping", mock.Anything, uint64(7), bkStart, bkEnd).Return(int64(0), nil)
	f.expectPricingInputs()
	f.res.On("CreateAggregate", mock.Anything, mock.Anything).Return(repository.ErrDuplicateReference).Times(maxReferenceAttempts)

	_, err := f.svc.Create(context.Background(), createRequest(), 3)
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestCreateSucceedsWhenEmailFails(t *testing.T) {
	f := newFixture(t)
	f.res.On("CountOverlapping", mock.Anything, uint64(7), bkStart, bkEnd).Return(int64(0), nil)
	f.expectPricingInputs()
	f.res.On("CreateAggregate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*model.NewReservation).Reservation.ID = 100 }).
		Return(nil)
	f.res.On("GetDetail", mock.Anything, uint64(100)).Return(model.ReservationDetail{ID: 100}, nil)
	f.renderer.On("Render", mock.Anything).Return(pdf, nil)
	f.notifier.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	got, err := f.svc.Create(context.Background(), createRequest(), 3)
	require.NoError(t, err)
	assert.EqualValues(t, 100, got.ID)
}

func TestCreateSucceedsWhenInvoiceRenderFails(t *testing.T) {
	f := newFixture(t)
	f.res.On("CountOverlapping", mock.Anything, uint64(7), bkStart, bkEnd).Return(int64(0), nil)
	f.expectPricingInputs()
	f.res.On("CreateAggregate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*model.NewReservation).Reservation.ID = 100 }).
		Return(nil)
	f.res.On("GetDetail", mock.Anything, uint64(100)).Return(model.ReservationDetail{ID: 100}, nil)
	f.renderer.On("Render", mock.Anything).Return(model.Document{}, errors.New("font missing"))

	_, err := f.svc.Create(context.Background(), createRequest(), 3)
	require.NoError(t, err)
	f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestCreateAnswersFromWrittenRowsWhenReloadFails(t *testing.T) {
	f := newFixture(t)
	f.res.On("CountOverlapping", mock.Anything, uint64(7), bkStart, bkEnd).Return(int64(0), nil)
	f.expectPricingInputs()
	f.res.On("CreateAggregate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			in := args.Get(1).(*model.NewReservation)
			in.Reservation.ID = 100
			in.Bill.ID = 200
			in.Payment.ID = 300
		}).
		Return(nil)
	f.res.On("GetDetail", mock.Anything, uint64(100)).Return(model.ReservationDetail{}, errors.New("connection reset"))
	f.renderer.On("Render", mock.MatchedBy(func(d model.InvoiceData) bool {
		return d.Reservation.ID == 100 && d.Reservation.Bill.Total.Equal(dec("3000"))
	})).Return(pdf, nil)
	f.notifier.On("Send", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.Create(context.Background(), createRequest(), 3)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.EqualValues(t, 100, got.ID)
	assert.True(t, got.IsActive)
	assert.True(t, got.IsConfirmed)
	assert.Equal(t, bkStart, got.StartTime)
	assert.Equal(t, bkEnd, got.EndTime)
	assert.Equal(t, now, got.ReservationDate)
	assert.EqualValues(t, 7, got.Place.ID)
	assert.Equal(t, "Salon Azul", got.Place.Name)
	assert.EqualValues(t, 3, got.User.ID)
	assert.Equal(t, "Ana", got.User.Name)
	assert.EqualValues(t, 200, got.Bill.ID)
	assert.Equal(t, "3000.00", got.Bill.Total.StringFixed(2))
	assert.EqualValues(t, 300, got.Bill.Payment.ID)
	assert.Equal(t, "111111111111", got.Bill.Payment.ReferenceCode)
	require.Len(t, got.Services, 1)
	assert.EqualValues(t, 11, got.Services[0].PlaceServiceID)
	assert.Equal(t, 1, f.listener.calls)
}

func TestCreateValidatesInput(t *testing.T) {
	f := newFixture(t)

	req := createRequest()
	req.End = req.Start
	_, err := f.svc.Create(context.Background(), req, 3)
	assert.ErrorIs(t, err, ErrInvalidInput)

	req = createRequest()
	req.PaymentName = " "
	_, err = f.svc.Create(context.Background(), req, 3)
	assert.ErrorIs(t, err, ErrInvalidInput)

	req = createRequest()
	req.PlaceID = 0
	_, err = f.svc.Create(context.Background(), req, 3)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateRejectsPlaceUnderReview(t *testing.T) {
	f := newFixture(t)
	f.res.On("CountOverlapping", mock.Anything, uint64(7), bkStart, bkEnd).Return(int64(0), nil)
	p := venue("1000")
	p.Status = model.PlaceReview
	f.places.On("GetPlace", mock.Anything, uint64(7)).Return(p, nil)

	_, err := f.svc.Create(context.Background(), createRequest(), 3)
	assert.ErrorIs(t, err, ErrPlaceNotBookable)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestSecondOverlappingCreateConflicts(t *testing.T) {
	store := &memStore{}
	places := &mockPlaceStore{}
	users := &mockUserStore{}
	renderer := &mockRenderer{}
	notifier := &mockNotifier{}
	places.On("GetPlace", mock.Anything, uint64(7)).Return(venue("1000"), nil)
	places.On("ActiveServices", mock.Anything, uint64(7), mock.Anything).Return([]model.PlaceService{}, nil)
	users.On("GetUser", mock.Anything, uint64(3)).Return(ana, nil)
	renderer.On("Render", mock.Anything).Return(pdf, nil)
	notifier.On("Send", mock.Anything, mock.Anything).Return(nil)
	svc := NewReservationService(store, places, users, renderer, notifier, Options{
		Clock: ClockFunc(func() time.Time { return now }),
	})

	first := createRequest()
	_, err := svc.Create(context.Background(), first, 3)
	require.NoError(t, err)

	second := createRequest()
	second.Start = time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)
	second.End = time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	_, err = svc.Create(context.Background(), second, 3)
	assert.ErrorIs(t, err, ErrPlaceNotAvailable)

	// Back-to-back on the shared boundary also conflicts.
	touching := createRequest()
	touching.Start = bkEnd
	touching.End = bkEnd.Add(time.Hour)
	_, err = svc.Create(context.Background(), touching, 3)
	assert.ErrorIs(t, err, ErrPlaceNotAvailable)

	free, err := svc.VerifyAvailability(context.Background(), 7, bkEnd.Add(time.Minute), bkEnd.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, free)
}

func TestVerifyAvailability(t *testing.T) {
	f := newFixture(t)
	f.places.On("GetPlace", mock.Anything, uint64(7)).Return(venue("1000"), nil)
	f.places.On("GetPlace", mock.Anything, uint64(8)).Return(model.Place{}, repository.ErrNotFound)
	f.res.On("CountOverlapping", mock.Anything, uint64(7), bkStart, bkEnd).Return(int64(1), nil)

	free, err := f.svc.VerifyAvailability(context.Background(), 7, bkStart, bkEnd)
	require.NoError(t, err)
	assert.False(t, free)

	_, err = f.svc.VerifyAvailability(context.Background(), 8, bkStart, bkEnd)
	assert.ErrorIs(t, err, ErrPlaceNotFound)

	_, err = f.svc.VerifyAvailability(context.Background(), 7, bkEnd, bkStart)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFindAllForcesUserScope(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetUser", mock.Anything, uint64(3)).Return(ana, nil)
	page := model.Pagination{Limit: 10}
	f.res.On("List", mock.Anything, model.ReservationFilter{ReservatorID: 3, Search: "salon"}, page).
		Return([]model.ReservationDetail{{ID: 1}}, nil)

	got, err := f.svc.FindAll(context.Background(), ListQuery{ReservatorID: 99, Search: " salon "}, page, 3)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFindAllCorporateWithoutFilterFailsBeforeQuerying(t *testing.T) {
	f := newFixture(t)
	corp := ana
	corp.Role = model.RoleCorporativeUser
	f.users.On("GetUser", mock.Anything, uint64(3)).Return(corp, nil)

	_, err := f.svc.FindAll(context.Background(), ListQuery{CategoryID: 2}, model.Pagination{}, 3)
	assert.ErrorIs(t, err, ErrFilterRequired)

	_, err = f.svc.Count(context.Background(), ListQuery{}, 3)
	assert.ErrorIs(t, err, ErrFilterRequired)

	f.res.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	f.res.AssertNotCalled(t, "Count", mock.Anything, mock.Anything)
}

func TestFindAllAdminResolvesBusinessDay(t *testing.T) {
	f := newFixture(t)
	admin := ana
	admin.Role = model.RoleAdmin
	f.users.On("GetUser", mock.Anything, uint64(3)).Return(admin, nil)
	f.res.On("List", mock.Anything, mock.MatchedBy(func(fl model.ReservationFilter) bool {
		return fl.DayStart != nil && fl.DayEnd != nil &&
			fl.DayStart.Equal(time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)) &&
			fl.DayEnd.Equal(time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC)) &&
			fl.ReservatorID == 0 && fl.HostID == 9
	}), model.Pagination{}).Return([]model.ReservationDetail{}, nil)

	_, err := f.svc.FindAll(context.Background(), ListQuery{Date: "2024-01-01", HostID: 9}, model.Pagination{}, 3)
	require.NoError(t, err)
}

func TestFindAllRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.FindAll(context.Background(), ListQuery{}, model.Pagination{Limit: -1}, 3)
	assert.ErrorIs(t, err, ErrInvalidInput)

	f.users.On("GetUser", mock.Anything, uint64(3)).Return(ana, nil)
	_, err = f.svc.FindAll(context.Background(), ListQuery{Date: "01/02/2024"}, model.Pagination{}, 3)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCountAppliesScope(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetUser", mock.Anything, uint64(3)).Return(ana, nil)
	f.res.On("Count", mock.Anything, model.ReservationFilter{ReservatorID: 3}).Return(int64(4), nil)

	n, err := f.svc.Count(context.Background(), ListQuery{ReservatorID: 1}, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func activeReservation(bookedAt time.Time) model.Reservation {
	return model.Reservation{ID: 5, PlaceID: 7, UserID: 3, StartTime: bkStart, EndTime: bkEnd, ReservationDate: bookedAt, IsActive: true, IsConfirmed: true}
}

func TestRemoveWithinWindowDeactivatesAndNotifies(t *testing.T) {
	f := newFixture(t)
	f.res.On("FindActive", mock.Anything, uint64(5)).Return(activeReservation(now.Add(24*time.Hour)), nil)
	f.res.On("Deactivate", mock.Anything, uint64(5)).Return(nil)
	f.users.On("GetUser", mock.Anything, uint64(3)).Return(ana, nil)
	f.notifier.On("Send", mock.Anything, mock.MatchedBy(func(m model.Message) bool {
		return m.Subject == "Reservación cancelada" && m.To == ana.Email && len(m.Attachments) == 0
	})).Return(nil)

	msg, err := f.svc.Remove(context.Background(), 5, 3)
	require.NoError(t, err)
	assert.Equal(t, "Reservation canceled", msg)
	assert.Equal(t, 1, f.listener.calls)
}

func TestRemoveOutsideWindowFails(t *testing.T) {
	f := newFixture(t)
	f.res.On("FindActive", mock.Anything, uint64(5)).Return(activeReservation(now.Add(24*time.Hour+time.Second)), nil)

	_, err := f.svc.Remove(context.Background(), 5, 3)
	assert.ErrorIs(t, err, ErrCancellationWindow)
	assert.Equal(t, KindPolicy, KindOf(err))
	assert.Contains(t, err.Error(), "24 hours")
	f.res.AssertNotCalled(t, "Deactivate", mock.Anything, mock.Anything)
}

func TestRemoveByOtherUserFails(t *testing.T) {
	f := newFixture(t)
	f.res.On("FindActive", mock.Anything, uint64(5)).Return(activeReservation(now.Add(-time.Hour)), nil)

	_, err := f.svc.Remove(context.Background(), 5, 4)
	assert.ErrorIs(t, err, ErrNotReservationOwner)
	f.res.AssertNotCalled(t, "Deactivate", mock.Anything, mock.Anything)
}

func TestRemoveInactiveReservationIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.res.On("FindActive", mock.Anything, uint64(5)).Return(model.Reservation{}, repository.ErrNotFound)

	_, err := f.svc.Remove(context.Background(), 5, 3)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestRemoveLosingConcurrentCancelIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.res.On("FindActive", mock.Anything, uint64(5)).Return(activeReservation(now), nil)
	f.res.On("Deactivate", mock.Anything, uint64(5)).Return(repository.ErrNotFound)

	_, err := f.svc.Remove(context.Background(), 5, 3)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRemoveTwiceFailsTheSecondTime(t *testing.T) {
	store := &memStore{rows: []model.Reservation{activeReservation(now)}}
	store.rows[0].ID = 5
	users := &mockUserStore{}
	notifier := &mockNotifier{}
	users.On("GetUser", mock.Anything, uint64(3)).Return(ana, nil)
	notifier.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	svc := NewReservationService(store, &mockPlaceStore{}, users, &mockRenderer{}, notifier, Options{
		Clock: ClockFunc(func() time.Time { return now }),
	})

	_, err := svc.Remove(context.Background(), 5, 3)
	require.NoError(t, err)
	assert.False(t, store.rows[0].IsActive)

	_, err = svc.Remove(context.Background(), 5, 3)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}
