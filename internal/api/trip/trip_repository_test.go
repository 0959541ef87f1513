package trip

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/tripforge/tripforge/internal/types"
)

var metricReader *sdkmetric.ManualReader

// TestMain installs a readable meter provider before any instrument is
// created, so counter increments can be asserted on.
func TestMain(m *testing.M) {
	metricReader = sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader)))
	os.Exit(m.Run())
}

func dbQueryErrorCount(t *testing.T) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, metricReader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "db_query_errors_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresTripRepo) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return mock, NewPostgresTripRepo(mock, logger)
}

func TestGetTripForUser_OwnerMismatchIsNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)
	userID, tripID := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT id, user_id, title, subtitle, trip_type, completed, cover").
		WithArgs(tripID, userID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetTripForUser(context.Background(), userID, tripID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTripForUser_ScansAllColumns(t *testing.T) {
	mock, repo := newMockRepo(t)
	userID, tripID := uuid.New(), uuid.New()
	subtitle := "A week in the Algarve"
	now := time.Now()

	mock.ExpectQuery("SELECT id, user_id, title, subtitle, trip_type, completed, cover").
		WithArgs(tripID, userID).
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "user_id", "title", "subtitle", "trip_type", "completed", "cover", "created_at", "updated_at"}).
			AddRow(tripID, userID, "Portugal", &subtitle, (*string)(nil), false, (*string)(nil), now, now))

	trip, err := repo.GetTripForUser(context.Background(), userID, tripID)
	require.NoError(t, err)
	assert.Equal(t, "Portugal", trip.Title)
	require.NotNil(t, trip.Subtitle)
	assert.Equal(t, subtitle, *trip.Subtitle)
	assert.Nil(t, trip.Cover)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTripContent_NoRowTouchedIsNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)
	userID, tripID := uuid.New(), uuid.New()

	mock.ExpectExec("UPDATE trips SET subtitle").
		WithArgs("new content", tripID, userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateTripContent(context.Background(), userID, tripID, "new content")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteTrip_OwnerFiltered(t *testing.T) {
	mock, repo := newMockRepo(t)
	userID, tripID := uuid.New(), uuid.New()

	mock.ExpectExec("UPDATE trips SET completed = TRUE").
		WithArgs(tripID, userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.CompleteTrip(context.Background(), userID, tripID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTripWithDetails_RollsBackOnDetailFailure(t *testing.T) {
	mock, repo := newMockRepo(t)
	userID := uuid.New()
	now := time.Now()
	trip := &types.Trip{ID: uuid.New(), UserID: userID, Title: "Japan", CreatedAt: now, UpdatedAt: now}
	detail := &types.Detail{ID: uuid.New(), TripID: trip.ID, Title: "Day 1 - Tokyo", Language: "en", CreatedAt: now, UpdatedAt: now}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO trips").
		WithArgs(trip.ID, trip.UserID, trip.Title, trip.Subtitle, trip.TripType, trip.Completed,
			trip.Cover, trip.CreatedAt, trip.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO details").
		WithArgs(detail.ID, detail.TripID, 0, detail.Title, detail.HTML, detail.EstimatedDuration,
			detail.Language, detail.Completed, detail.CreatedAt, detail.UpdatedAt).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.CreateTripWithDetails(context.Background(), trip, []*types.Detail{detail})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTripWithDetails_CommitsTripAndDetails(t *testing.T) {
	mock, repo := newMockRepo(t)
	userID := uuid.New()
	now := time.Now()
	trip := &types.Trip{ID: uuid.New(), UserID: userID, Title: "Japan", CreatedAt: now, UpdatedAt: now}
	details := []*types.Detail{
		{ID: uuid.New(), TripID: trip.ID, Title: "Day 1 - Tokyo", Language: "en", CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), TripID: trip.ID, Title: "Day 2 - Kyoto", Language: "en", CreatedAt: now, UpdatedAt: now},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO trips").
		WithArgs(trip.ID, trip.UserID, trip.Title, trip.Subtitle, trip.TripType, trip.Completed,
			trip.Cover, trip.CreatedAt, trip.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	for i, d := range details {
		mock.ExpectExec("INSERT INTO details").
			WithArgs(d.ID, d.TripID, i, d.Title, d.HTML, d.EstimatedDuration,
				d.Language, d.Completed, d.CreatedAt, d.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()
	mock.ExpectRollback() // deferred rollback after commit is a no-op

	err := repo.CreateTripWithDetails(context.Background(), trip, details)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTripsForUser_QueryErrorIsCounted(t *testing.T) {
	mock, repo := newMockRepo(t)
	userID := uuid.New()
	before := dbQueryErrorCount(t)

	mock.ExpectQuery("SELECT id, user_id, title, subtitle, trip_type, completed, cover").
		WithArgs(userID).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetTripsForUser(context.Background(), userID)
	require.Error(t, err)
	assert.Equal(t, before+1, dbQueryErrorCount(t))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDetailsForTrip_EmptyTripGivesEmptySlice(t *testing.T) {
	mock, repo := newMockRepo(t)
	userID, tripID := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT d.id, d.trip_id, d.title").
		WithArgs(tripID, userID).
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "trip_id", "title", "html", "estimated_duration", "language", "completed", "created_at", "updated_at"}))

	details, err := repo.GetDetailsForTrip(context.Background(), userID, tripID)
	require.NoError(t, err)
	assert.NotNil(t, details)
	assert.Empty(t, details)
	assert.NoError(t, mock.ExpectationsWereMet())
}
