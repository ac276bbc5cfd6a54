package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ridwanfathin/tour-quote-service/internal/domain"
)

// PostgresItineraryRepository implements ItineraryRepository using PostgreSQL.
// The day list lives in a JSONB column; domain.DayRecord keeps the keys this
// service does not model, nested ones included, across a round trip.
type PostgresItineraryRepository struct {
	db *pgxpool.Pool
}

// NewPostgresItineraryRepository creates a new PostgreSQL itinerary repository
func NewPostgresItineraryRepository(db *pgxpool.Pool) *PostgresItineraryRepository {
	return &PostgresItineraryRepository{
		db: db,
	}
}

// Create saves a new itinerary
func (r *PostgresItineraryRepository) Create(ctx context.Context, itinerary *domain.Itinerary) error {
	days, err := json.Marshal(nonNilDays(itinerary.DailyItinerary))
	if err != nil {
		return &RepositoryError{Op: "create_itinerary", Err: fmt.Errorf("failed to encode days: %w", err)}
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO itineraries (id, title, tagline, daily_itinerary)
		VALUES ($1, $2, $3, $4)
		RETURNING updated_at
	`, itinerary.ID, itinerary.Title, itinerary.Tagline, days).Scan(&itinerary.UpdatedAt)
	if err != nil {
		return &RepositoryError{Op: "create_itinerary", Err: fmt.Errorf("failed to insert itinerary: %w", err)}
	}
	return nil
}

// GetByID retrieves an itinerary by its ID
func (r *PostgresItineraryRepository) GetByID(ctx context.Context, itineraryID string) (*domain.Itinerary, error) {
	var itinerary domain.Itinerary
	var days []byte
	err := r.db.QueryRow(ctx, `
		SELECT id, title, tagline, daily_itinerary, updated_at
		FROM itineraries
		WHERE id = $1
	`, itineraryID).Scan(&itinerary.ID, &itinerary.Title, &itinerary.Tagline, &days, &itinerary.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &RepositoryError{Op: "get_itinerary", Err: domain.ErrItineraryNotFound}
		}
		return nil, &RepositoryError{Op: "get_itinerary", Err: fmt.Errorf("failed to get itinerary: %w", err)}
	}

	if err := json.Unmarshal(days, &itinerary.DailyItinerary); err != nil {
		return nil, &RepositoryError{Op: "get_itinerary", Err: fmt.Errorf("failed to decode days: %w", err)}
	}
	return &itinerary, nil
}

// UpdateDays replaces the day list in a single statement
func (r *PostgresItineraryRepository) UpdateDays(ctx context.Context, itineraryID string, days []domain.DayRecord) error {
	encoded, err := json.Marshal(nonNilDays(days))
	if err != nil {
		return &RepositoryError{Op: "update_itinerary_days", Err: fmt.Errorf("failed to encode days: %w", err)}
	}

	commandTag, err := r.db.Exec(ctx, `
		UPDATE itineraries
		SET daily_itinerary = $1, updated_at = NOW()
		WHERE id = $2
	`, encoded, itineraryID)
	if err != nil {
		return &RepositoryError{Op: "update_itinerary_days", Err: fmt.Errorf("failed to update itinerary: %w", err)}
	}
	if commandTag.RowsAffected() == 0 {
		return &RepositoryError{Op: "update_itinerary_days", Err: domain.ErrItineraryNotFound}
	}
	return nil
}

// Delete removes an itinerary
func (r *PostgresItineraryRepository) Delete(ctx context.Context, itineraryID string) error {
	commandTag, err := r.db.Exec(ctx, `DELETE FROM itineraries WHERE id = $1`, itineraryID)
	if err != nil {
		return &RepositoryError{Op: "delete_itinerary", Err: fmt.Errorf("failed to delete itinerary: %w", err)}
	}
	if commandTag.RowsAffected() == 0 {
		return &RepositoryError{Op: "delete_itinerary", Err: domain.ErrItineraryNotFound}
	}
	return nil
}

func nonNilDays(days []domain.DayRecord) []domain.DayRecord {
	if days == nil {
		return []domain.DayRecord{}
	}
	return days
}
