package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/model"
)

func TestBookingCreateTx(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewBookingRepo(nil)

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(42, 1))

	b := &model.Booking{EventID: 1, UserID: 55, Status: model.BookingPending}
	require.NoError(t, repo.CreateTx(context.Background(), tx, b))
	assert.Equal(t, uint64(42), b.ID)
}

func TestBookingUpdateStatusTx(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewBookingRepo(nil)

	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs(model.BookingConfirmed, uint64(42), model.BookingPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatusTx(context.Background(), tx, 42, model.BookingPending, model.BookingConfirmed)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingUpdateStatusTxAlreadyTransitioned(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewBookingRepo(nil)

	// The booking is no longer PENDING, so the guarded update matches
	// nothing and the caller must not overwrite the terminal state.
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatusTx(context.Background(), tx, 42, model.BookingPending, model.BookingCancelled)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestGetForUpdateTxNotFound(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewBookingRepo(nil)

	mock.ExpectQuery("SELECT id, event_id, user_id, total_amount, status, created_at, updated_at").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetForUpdateTx(context.Background(), tx, 404)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestFindExpiredPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewBookingRepo(db)

	cutoff := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id FROM bookings WHERE status").
		WithArgs(model.BookingPending, cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11).AddRow(12))

	ids, err := repo.FindExpiredPending(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, []uint64{11, 12}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
