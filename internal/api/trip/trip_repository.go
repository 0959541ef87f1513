package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tripforge/tripforge/app/observability/metrics"
	"github.com/tripforge/tripforge/internal/types"
)

// PgxPool is the pool surface the repository needs. Satisfied by
// *pgxpool.Pool in production and by pgxmock in tests.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ TripRepo = (*PostgresTripRepo)(nil)

// TripRepo defines the persistence contract for trips and their details.
// Every read or write that is reachable from an HTTP handler carries the
// owner's user id and filters on it; a mismatch surfaces as ErrNotFound so
// foreign trip ids are indistinguishable from missing ones.
type TripRepo interface {
	CreateTrip(ctx context.Context, trip *types.Trip) error
	// CreateTripWithDetails inserts the trip and all of its details in one
	// transaction so a failed insert never leaves an orphaned trip behind.
	CreateTripWithDetails(ctx context.Context, trip *types.Trip, details []*types.Detail) error
	GetTripsForUser(ctx context.Context, userID uuid.UUID) ([]types.Trip, error)
	GetTripForUser(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, error)
	UpdateTripContent(ctx context.Context, userID, tripID uuid.UUID, newContent string) error
	CompleteTrip(ctx context.Context, userID, tripID uuid.UUID) error
	GetDetailsForTrip(ctx context.Context, userID, tripID uuid.UUID) ([]*types.Detail, error)
	GetDetailForUser(ctx context.Context, userID, detailID uuid.UUID) (*types.Detail, error)
	// UpdateDetailHTML backfills a generated body. It is only called from the
	// enrichment path after an owner-filtered read, so it carries no user id.
	UpdateDetailHTML(ctx context.Context, detailID uuid.UUID, html string) error
	Analytics(ctx context.Context, userID uuid.UUID) (*types.AnalyticsData, error)
}

type PostgresTripRepo struct {
	logger *slog.Logger
	pgpool PgxPool
}

func NewPostgresTripRepo(pgpool PgxPool, logger *slog.Logger) *PostgresTripRepo {
	return &PostgresTripRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const insertTripSQL = `INSERT INTO trips (id, user_id, title, subtitle, trip_type, completed, cover, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const insertDetailSQL = `INSERT INTO details (id, trip_id, position, title, html, estimated_duration, language, completed, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (r *PostgresTripRepo) CreateTrip(ctx context.Context, trip *types.Trip) error {
	_, err := r.pgpool.Exec(ctx, insertTripSQL,
		trip.ID, trip.UserID, trip.Title, trip.Subtitle, trip.TripType, trip.Completed,
		trip.Cover, trip.CreatedAt, trip.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert trip", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	return nil
}

func (r *PostgresTripRepo) CreateTripWithDetails(ctx context.Context, trip *types.Trip, details []*types.Detail) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, insertTripSQL,
		trip.ID, trip.UserID, trip.Title, trip.Subtitle, trip.TripType, trip.Completed,
		trip.Cover, trip.CreatedAt, trip.UpdatedAt); err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert trip", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return fmt.Errorf("failed to insert trip: %w", err)
	}

	for i, d := range details {
		if _, err = tx.Exec(ctx, insertDetailSQL,
			d.ID, d.TripID, i, d.Title, d.HTML, d.EstimatedDuration, d.Language,
			d.Completed, d.CreatedAt, d.UpdatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Failed to insert detail", slog.Any("error", err))
			metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
			return fmt.Errorf("failed to insert detail: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit trip insert: %w", err)
	}
	return nil
}

func (r *PostgresTripRepo) GetTripsForUser(ctx context.Context, userID uuid.UUID) ([]types.Trip, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT id, user_id, title, subtitle, trip_type, completed, cover, created_at, updated_at
         FROM trips WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to fetch trips", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to fetch trips: %w", err)
	}
	defer rows.Close()

	trips := make([]types.Trip, 0)
	for rows.Next() {
		var t types.Trip
		if err = rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Subtitle, &t.TripType,
			&t.Completed, &t.Cover, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}
	return trips, nil
}

func (r *PostgresTripRepo) GetTripForUser(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, error) {
	var t types.Trip
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, user_id, title, subtitle, trip_type, completed, cover, created_at, updated_at
         FROM trips WHERE id = $1 AND user_id = $2`,
		tripID, userID).Scan(&t.ID, &t.UserID, &t.Title, &t.Subtitle, &t.TripType,
		&t.Completed, &t.Cover, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to fetch trip", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to fetch trip: %w", err)
	}
	return &t, nil
}

func (r *PostgresTripRepo) UpdateTripContent(ctx context.Context, userID, tripID uuid.UUID, newContent string) error {
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE trips SET subtitle = $1, updated_at = now() WHERE id = $2 AND user_id = $3",
		newContent, tripID, userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update trip content", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return fmt.Errorf("failed to update trip content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresTripRepo) CompleteTrip(ctx context.Context, userID, tripID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE trips SET completed = TRUE, updated_at = now() WHERE id = $1 AND user_id = $2",
		tripID, userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to complete trip", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return fmt.Errorf("failed to complete trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresTripRepo) GetDetailsForTrip(ctx context.Context, userID, tripID uuid.UUID) ([]*types.Detail, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT d.id, d.trip_id, d.title, d.html, d.estimated_duration, d.language, d.completed, d.created_at, d.updated_at
         FROM details d
         JOIN trips t ON t.id = d.trip_id
         WHERE d.trip_id = $1 AND t.user_id = $2
         ORDER BY d.position ASC`,
		tripID, userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to fetch details", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to fetch details: %w", err)
	}
	defer rows.Close()

	details := make([]*types.Detail, 0)
	for rows.Next() {
		var d types.Detail
		if err = rows.Scan(&d.ID, &d.TripID, &d.Title, &d.HTML, &d.EstimatedDuration,
			&d.Language, &d.Completed, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan detail: %w", err)
		}
		details = append(details, &d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate details: %w", err)
	}
	return details, nil
}

func (r *PostgresTripRepo) GetDetailForUser(ctx context.Context, userID, detailID uuid.UUID) (*types.Detail, error) {
	var d types.Detail
	err := r.pgpool.QueryRow(ctx,
		`SELECT d.id, d.trip_id, d.title, d.html, d.estimated_duration, d.language, d.completed, d.created_at, d.updated_at
         FROM details d
         JOIN trips t ON t.id = d.trip_id
         WHERE d.id = $1 AND t.user_id = $2`,
		detailID, userID).Scan(&d.ID, &d.TripID, &d.Title, &d.HTML, &d.EstimatedDuration,
		&d.Language, &d.Completed, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to fetch detail", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to fetch detail: %w", err)
	}
	return &d, nil
}

func (r *PostgresTripRepo) UpdateDetailHTML(ctx context.Context, detailID uuid.UUID, html string) error {
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE details SET html = $1, updated_at = now() WHERE id = $2",
		html, detailID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update detail html", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return fmt.Errorf("failed to update detail html: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Analytics aggregates the per-user dashboard panels. The predictive numbers
// are derived from the same aggregates; there is no separate model behind
// them.
func (r *PostgresTripRepo) Analytics(ctx context.Context, userID uuid.UUID) (*types.AnalyticsData, error) {
	var data types.AnalyticsData
	err := r.pgpool.QueryRow(ctx,
		`SELECT
            (SELECT count(*) FROM trips WHERE user_id = $1),
            (SELECT count(*) FROM details d JOIN trips t ON t.id = d.trip_id WHERE t.user_id = $1),
            (SELECT count(*) FROM details d JOIN trips t ON t.id = d.trip_id WHERE t.user_id = $1 AND d.html <> ''),
            (SELECT COALESCE(avg(d.estimated_duration), 0) FROM details d JOIN trips t ON t.id = d.trip_id WHERE t.user_id = $1),
            (SELECT count(*) FROM trips WHERE user_id = $1 AND created_at > now() - interval '30 days')`,
		userID).Scan(&data.Engagement.TotalTrips, &data.Engagement.TotalDetails,
		&data.AIUsage.TotalAIDetails, &data.AIUsage.AvgEstimatedDuration, &data.Predictions.MonthlyGrowth)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to fetch analytics", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to fetch analytics: %w", err)
	}

	if data.Engagement.TotalTrips > 0 {
		data.Engagement.AvgDetailsPerTrip = float64(data.Engagement.TotalDetails) / float64(data.Engagement.TotalTrips)
	}
	if data.Engagement.TotalDetails > 0 {
		data.AIUsage.SuccessRate = float64(data.AIUsage.TotalAIDetails) / float64(data.Engagement.TotalDetails)
	}

	var topic *string
	err = r.pgpool.QueryRow(ctx,
		`SELECT title FROM trips WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`,
		userID).Scan(&topic)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		r.logger.ErrorContext(ctx, "Failed to fetch trending topic", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to fetch trending topic: %w", err)
	}
	if topic != nil {
		data.Predictions.TrendingTopic = *topic
	}

	return &data, nil
}
