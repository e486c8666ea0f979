package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/lock"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// failingLocker simulates an unreachable lock store.
type failingLocker struct{}

func (failingLocker) Acquire(context.Context, uint64, uint64, string, time.Duration) (bool, error) {
	return false, errors.New("dial tcp 127.0.0.1:6379: connection refused")
}
func (failingLocker) Release(context.Context, ...string) error        { return nil }
func (failingLocker) TTL(context.Context, string) (time.Duration, error) { return 0, nil }
func (failingLocker) Inspect(context.Context) ([]lock.Info, error)    { return nil, nil }

// recordingPublisher captures the confirmed-event payload for assertions.
type recordingPublisher struct {
	bookingID uint64
	eventID   uint64
	userID    uint64
	amount    string
	ref       string
	calls     int
}

func (p *recordingPublisher) PublishBookingConfirmed(_ context.Context, bookingID, eventID, userID uint64, totalAmount, transactionRef string) {
	p.bookingID = bookingID
	p.eventID = eventID
	p.userID = userID
	p.amount = totalAmount
	p.ref = transactionRef
	p.calls++
}

func newTestService(t *testing.T, locker lock.Manager, pub ConfirmedPublisher) (*BookingService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewBookingService(db,
		repository.NewEventRepo(db),
		repository.NewEventSeatRepo(db),
		repository.NewBookingRepo(db),
		repository.NewPaymentRepo(db),
		locker, pub, time.Minute)
	return svc, mock, db
}

func eventColumns() []string {
	return []string{"id", "venue_id", "title", "description", "default_price",
		"start_time", "end_time", "is_active", "created_by", "created_at", "updated_at"}
}

// expectBookable arms the event lookup behind the bookable check.
func expectBookable(mock sqlmock.Sqlmock, eventID uint64, active bool, end time.Time) {
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, venue_id, title, description, default_price").
		WithArgs(eventID).
		WillReturnRows(sqlmock.NewRows(eventColumns()).
			AddRow(eventID, 1, "Concert", nil, "50.00", now.Add(-time.Hour), end, active, 1, now, now))
}

func TestValidateSeatSelection(t *testing.T) {
	sorted, err := validateSeatSelection([]uint64{9, 3, 5})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 5, 9}, sorted)

	_, err = validateSeatSelection(nil)
	assert.ErrorIs(t, err, repository.ErrValidation)

	_, err = validateSeatSelection([]uint64{1, 2, 1})
	assert.ErrorIs(t, err, repository.ErrValidation)

	_, err = validateSeatSelection([]uint64{0})
	assert.ErrorIs(t, err, repository.ErrValidation)

	tooMany := make([]uint64, MaxSeatsPerBooking+1)
	for i := range tooMany {
		tooMany[i] = uint64(i + 1)
	}
	_, err = validateSeatSelection(tooMany)
	assert.ErrorIs(t, err, repository.ErrValidation)

	atLimit := tooMany[:MaxSeatsPerBooking]
	_, err = validateSeatSelection(atLimit)
	assert.NoError(t, err)
}

func TestReserveSuccess(t *testing.T) {
	locker := lock.NewMemoryManager()
	svc, mock, _ := newTestService(t, locker, nil)
	ctx := context.Background()

	expectBookable(mock, 1, true, time.Now().UTC().Add(2*time.Hour))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, event_id, seat_id, price, status, version FROM event_seats").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "seat_id", "price", "status", "version"}).
			AddRow(101, 1, 5, "50.00", model.SeatAvailable, 0).
			AddRow(102, 1, 9, "75.50", model.SeatAvailable, 0))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("INSERT INTO booking_seats").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE event_seats SET status").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	result, err := svc.Reserve(ctx, 1, 55, []uint64{9, 5})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), result.BookingID)
	assert.Equal(t, model.BookingPending, result.Status)
	assert.True(t, result.TotalAmount.Equal(decimal.RequireFromString("125.50")),
		"total should be the exact sum of seat prices, got %s", result.TotalAmount)

	// Locks cover only the reserve window; both must be gone afterwards.
	ok, err := locker.Acquire(ctx, 1, 5, "other", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = locker.Acquire(ctx, 1, 9, "other", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveValidationBeforeAnyStore(t *testing.T) {
	svc, mock, _ := newTestService(t, lock.NewMemoryManager(), nil)

	_, err := svc.Reserve(context.Background(), 1, 55, nil)
	assert.ErrorIs(t, err, repository.ErrValidation)

	// No query, no lock traffic.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveEventNotBookable(t *testing.T) {
	svc, mock, _ := newTestService(t, lock.NewMemoryManager(), nil)

	expectBookable(mock, 1, true, time.Now().UTC().Add(-time.Minute)) // already ended
	_, err := svc.Reserve(context.Background(), 1, 55, []uint64{5})
	assert.ErrorIs(t, err, repository.ErrEventNotBookable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveEventNotFound(t *testing.T) {
	svc, mock, _ := newTestService(t, lock.NewMemoryManager(), nil)

	mock.ExpectQuery("SELECT id, venue_id, title, description, default_price").
		WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)
	_, err := svc.Reserve(context.Background(), 404, 55, []uint64{5})
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestReserveLockContention(t *testing.T) {
	locker := lock.NewMemoryManager()
	svc, mock, _ := newTestService(t, locker, nil)
	ctx := context.Background()

	// Seat 5 is mid-reservation by someone else.
	ok, err := locker.Acquire(ctx, 1, 5, "other", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	expectBookable(mock, 1, true, time.Now().UTC().Add(2*time.Hour))
	_, err = svc.Reserve(ctx, 1, 55, []uint64{3, 5})
	assert.ErrorIs(t, err, repository.ErrSeatUnavailable)

	// Seat 3 was acquired before the contention and must be released.
	ok, err = locker.Acquire(ctx, 1, 3, "other", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// The transaction never opened.
	assert.NoError(t, mock.ExpectationsWereMet())
}

// raceLocker forces a deterministic interleaving for the same-seat
// contention test: the first acquirer holds its lock until the rival has
// been refused, so the loser always observes the seat as held.
type raceLocker struct {
	inner *lock.MemoryManager
	won   sync.Once
	lost  chan struct{}
}

func newRaceLocker() *raceLocker {
	return &raceLocker{inner: lock.NewMemoryManager(), lost: make(chan struct{})}
}

func (r *raceLocker) Acquire(ctx context.Context, eventID, seatID uint64, holder string, ttl time.Duration) (bool, error) {
	ok, err := r.inner.Acquire(ctx, eventID, seatID, holder, ttl)
	if err != nil {
		return ok, err
	}
	if ok {
		r.won.Do(func() { <-r.lost })
	} else {
		close(r.lost)
	}
	return ok, nil
}

func (r *raceLocker) Release(ctx context.Context, keys ...string) error { return r.inner.Release(ctx, keys...) }
func (r *raceLocker) TTL(ctx context.Context, key string) (time.Duration, error) {
	return r.inner.TTL(ctx, key)
}
func (r *raceLocker) Inspect(ctx context.Context) ([]lock.Info, error) { return r.inner.Inspect(ctx) }

func TestReserveConcurrentDisjointSeats(t *testing.T) {
	locker := lock.NewMemoryManager()
	svc, mock, _ := newTestService(t, locker, nil)
	ctx := context.Background()
	end := time.Now().UTC().Add(2 * time.Hour)

	// Two reservations interleave freely, so expectations are unordered.
	mock.MatchExpectationsInOrder(false)
	expectBookable(mock, 1, true, end)
	expectBookable(mock, 1, true, end)
	mock.ExpectBegin()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, event_id, seat_id, price, status, version FROM event_seats").
		WithArgs(uint64(1), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "seat_id", "price", "status", "version"}).
			AddRow(101, 1, 5, "50.00", model.SeatAvailable, 0))
	mock.ExpectQuery("SELECT id, event_id, seat_id, price, status, version FROM event_seats").
		WithArgs(uint64(1), uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "seat_id", "price", "status", "version"}).
			AddRow(102, 1, 9, "50.00", model.SeatAvailable, 0))
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectExec("INSERT INTO booking_seats").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO booking_seats").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE event_seats SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE event_seats SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectCommit()

	type outcome struct {
		result *ReserveResult
		err    error
	}
	results := make(chan outcome, 2)
	for _, seatID := range []uint64{5, 9} {
		go func(sid uint64) {
			r, err := svc.Reserve(ctx, 1, 55, []uint64{sid})
			results <- outcome{r, err}
		}(seatID)
	}

	ids := map[uint64]bool{}
	for i := 0; i < 2; i++ {
		o := <-results
		require.NoError(t, o.err)
		ids[o.result.BookingID] = true
		assert.True(t, o.result.TotalAmount.Equal(decimal.RequireFromString("50.00")))
	}
	// Disjoint seat sets never contend: both bookings exist.
	assert.Equal(t, map[uint64]bool{11: true, 12: true}, ids)

	// Both locks released once the reservations committed.
	for _, sid := range []uint64{5, 9} {
		ok, err := locker.Acquire(ctx, 1, sid, "other", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveConcurrentSameSeat(t *testing.T) {
	svc, mock, _ := newTestService(t, newRaceLocker(), nil)
	ctx := context.Background()
	end := time.Now().UTC().Add(2 * time.Hour)

	// Both attempts read the event; only the lock winner reaches the
	// transaction.
	mock.MatchExpectationsInOrder(false)
	expectBookable(mock, 1, true, end)
	expectBookable(mock, 1, true, end)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, event_id, seat_id, price, status, version FROM event_seats").
		WithArgs(uint64(1), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "seat_id", "price", "status", "version"}).
			AddRow(101, 1, 5, "50.00", model.SeatAvailable, 0))
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("INSERT INTO booking_seats").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE event_seats SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	errs := make(chan error, 2)
	for _, userID := range []uint64{55, 99} {
		go func(uid uint64) {
			_, err := svc.Reserve(ctx, 1, uid, []uint64{5})
			errs <- err
		}(userID)
	}

	var won, lost int
	for i := 0; i < 2; i++ {
		err := <-errs
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrSeatUnavailable)
		lost++
	}
	// At most one booking may claim a contended seat.
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveLockStoreUnavailable(t *testing.T) {
	svc, mock, _ := newTestService(t, failingLocker{}, nil)

	expectBookable(mock, 1, true, time.Now().UTC().Add(2*time.Hour))
	_, err := svc.Reserve(context.Background(), 1, 55, []uint64{5})
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
}

func TestReserveSeatAlreadyLockedInStore(t *testing.T) {
	locker := lock.NewMemoryManager()
	svc, mock, _ := newTestService(t, locker, nil)
	ctx := context.Background()

	expectBookable(mock, 1, true, time.Now().UTC().Add(2*time.Hour))
	mock.ExpectBegin()
	// The durable row says LOCKED even though no redis lock is held:
	// another booking already claimed this seat and is awaiting payment.
	mock.ExpectQuery("SELECT id, event_id, seat_id, price, status, version FROM event_seats").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "seat_id", "price", "status", "version"}).
			AddRow(101, 1, 5, "50.00", model.SeatLocked, 3))
	mock.ExpectRollback()

	_, err := svc.Reserve(ctx, 1, 55, []uint64{5})
	assert.ErrorIs(t, err, repository.ErrSeatUnavailable)

	// Redis lock released on the failure path too.
	ok, err := locker.Acquire(ctx, 1, 5, "other", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func bookingColumns() []string {
	return []string{"id", "event_id", "user_id", "total_amount", "status", "created_at", "updated_at"}
}

func expectTransition(mock sqlmock.Sqlmock, bookingID uint64, current string) {
	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, event_id, user_id, total_amount, status, created_at, updated_at").
		WithArgs(bookingID).
		WillReturnRows(sqlmock.NewRows(bookingColumns()).
			AddRow(bookingID, 1, 55, "125.50", current, now, now))
	if current != model.BookingPending {
		mock.ExpectRollback()
		return
	}
	mock.ExpectExec("INSERT INTO payments").
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT event_seat_id FROM booking_seats").
		WithArgs(bookingID).
		WillReturnRows(sqlmock.NewRows([]string{"event_seat_id"}).AddRow(101).AddRow(102))
	mock.ExpectExec("UPDATE event_seats SET status").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
}

func TestConfirmSuccess(t *testing.T) {
	pub := &recordingPublisher{}
	svc, mock, _ := newTestService(t, lock.NewMemoryManager(), pub)

	expectTransition(mock, 11, model.BookingPending)
	// Re-read for the broker payload after commit.
	mock.ExpectQuery("SELECT event_id, user_id, total_amount FROM bookings").
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "user_id", "total_amount"}).
			AddRow(1, 55, "125.50"))

	result, err := svc.Confirm(context.Background(), 11, "TXN_ABCDEF123456")
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, result.Status)
	assert.Equal(t, "TXN_ABCDEF123456", result.TransactionRef)

	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, uint64(11), pub.bookingID)
	assert.Equal(t, uint64(1), pub.eventID)
	assert.Equal(t, uint64(55), pub.userID)
	assert.Equal(t, "125.50", pub.amount)
	assert.Equal(t, "TXN_ABCDEF123456", pub.ref)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmGeneratesReference(t *testing.T) {
	svc, mock, _ := newTestService(t, lock.NewMemoryManager(), nil)

	expectTransition(mock, 11, model.BookingPending)
	result, err := svc.Confirm(context.Background(), 11, "")
	require.NoError(t, err)
	assert.Regexp(t, `^TXN_[0-9A-F]{12}$`, result.TransactionRef)
}

func TestConfirmTerminalBooking(t *testing.T) {
	svc, mock, _ := newTestService(t, lock.NewMemoryManager(), nil)

	expectTransition(mock, 11, model.BookingConfirmed)
	_, err := svc.Confirm(context.Background(), 11, "TXN_AAAAAAAAAAAA")
	assert.ErrorIs(t, err, repository.ErrInvalidState)

	expectTransition(mock, 12, model.BookingCancelled)
	_, err = svc.Confirm(context.Background(), 12, "TXN_AAAAAAAAAAAA")
	assert.ErrorIs(t, err, repository.ErrInvalidState)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmNotFound(t *testing.T) {
	svc, mock, _ := newTestService(t, lock.NewMemoryManager(), nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, event_id, user_id, total_amount, status, created_at, updated_at").
		WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Confirm(context.Background(), 404, "TXN_AAAAAAAAAAAA")
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestCancelSuccess(t *testing.T) {
	svc, mock, _ := newTestService(t, lock.NewMemoryManager(), nil)

	expectTransition(mock, 11, model.BookingPending)
	result, err := svc.Cancel(context.Background(), 11, "")
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, result.Status)
	// The reason doubles as the FAILED payment's reference.
	assert.Equal(t, "USER_CANCELLED", result.TransactionRef)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelWithReason(t *testing.T) {
	svc, mock, _ := newTestService(t, lock.NewMemoryManager(), nil)

	expectTransition(mock, 11, model.BookingPending)
	result, err := svc.Cancel(context.Background(), 11, ReasonAutoExpired)
	require.NoError(t, err)
	assert.Equal(t, ReasonAutoExpired, result.TransactionRef)
}

func TestCancelTerminalBooking(t *testing.T) {
	svc, mock, _ := newTestService(t, lock.NewMemoryManager(), nil)

	expectTransition(mock, 11, model.BookingCancelled)
	_, err := svc.Cancel(context.Background(), 11, "USER_CANCELLED")
	assert.ErrorIs(t, err, repository.ErrInvalidState)
}

func TestGetStatus(t *testing.T) {
	svc, mock, _ := newTestService(t, lock.NewMemoryManager(), nil)
	now := time.Now().UTC()

	cols := []string{"id", "status", "total_amount", "p.status", "p.transaction_ref", "created_at"}
	mock.ExpectQuery("SELECT b.id, b.status, b.total_amount, p.status, p.transaction_ref").
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(11, model.BookingConfirmed, "125.50", model.PaymentSuccess, "TXN_ABCDEF123456", now))

	d, err := svc.GetStatus(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, d.Status)
	require.NotNil(t, d.PaymentStatus)
	assert.Equal(t, model.PaymentSuccess, *d.PaymentStatus)
	require.NotNil(t, d.TransactionRef)
	assert.Equal(t, "TXN_ABCDEF123456", *d.TransactionRef)
	assert.True(t, d.TotalAmount.Equal(decimal.RequireFromString("125.50")))
}

func TestGetStatusPendingHasNoPayment(t *testing.T) {
	svc, mock, _ := newTestService(t, lock.NewMemoryManager(), nil)
	now := time.Now().UTC()

	cols := []string{"id", "status", "total_amount", "p.status", "p.transaction_ref", "created_at"}
	mock.ExpectQuery("SELECT b.id, b.status, b.total_amount, p.status, p.transaction_ref").
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(11, model.BookingPending, "125.50", nil, nil, now))

	d, err := svc.GetStatus(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, d.Status)
	assert.Nil(t, d.PaymentStatus)
	assert.Nil(t, d.TransactionRef)
}

func TestGetStatusNotFound(t *testing.T) {
	svc, mock, _ := newTestService(t, lock.NewMemoryManager(), nil)

	mock.ExpectQuery("SELECT b.id, b.status, b.total_amount").
		WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetStatus(context.Background(), 404)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestNewTransactionRef(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		ref := NewTransactionRef()
		assert.Regexp(t, `^TXN_[0-9A-F]{12}$`, ref)
		assert.False(t, seen[ref], "references must not repeat: %s", ref)
		seen[ref] = true
	}
}
