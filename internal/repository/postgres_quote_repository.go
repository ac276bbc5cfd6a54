package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ridwanfathin/tour-quote-service/internal/domain"
)

// PostgresQuoteRepository implements QuoteRepository using PostgreSQL.
// Pricing state, versions and tiers are stored as JSONB documents.
type PostgresQuoteRepository struct {
	db *pgxpool.Pool
}

// NewPostgresQuoteRepository creates a new PostgreSQL quote repository
func NewPostgresQuoteRepository(db *pgxpool.Pool) *PostgresQuoteRepository {
	return &PostgresQuoteRepository{
		db: db,
	}
}

type quoteDocuments struct {
	state    []byte
	primary  []byte
	versions []byte
	tiers    []byte
}

func encodeQuote(quote *domain.Quote) (*quoteDocuments, error) {
	var docs quoteDocuments
	var err error
	if docs.state, err = json.Marshal(quote.State); err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	if quote.Primary != nil {
		if docs.primary, err = json.Marshal(quote.Primary); err != nil {
			return nil, fmt.Errorf("failed to encode primary state: %w", err)
		}
	}
	versions := quote.Versions
	if versions == nil {
		versions = []domain.VersionRecord{}
	}
	if docs.versions, err = json.Marshal(versions); err != nil {
		return nil, fmt.Errorf("failed to encode versions: %w", err)
	}
	tiers := quote.TierPricings
	if tiers == nil {
		tiers = []domain.TierPricing{}
	}
	if docs.tiers, err = json.Marshal(tiers); err != nil {
		return nil, fmt.Errorf("failed to encode tier pricings: %w", err)
	}
	return &docs, nil
}

// Create saves a new quote to the database
func (r *PostgresQuoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	docs, err := encodeQuote(quote)
	if err != nil {
		return &RepositoryError{Op: "create_quote", Err: err}
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO quotes (id, name, itinerary_id, state, primary_state, versions,
			current_version, last_version_number, tier_pricings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, quote.ID, quote.Name, quote.ItineraryID, docs.state, docs.primary, docs.versions,
		quote.CurrentVersion, quote.LastVersionNumber, docs.tiers).Scan(&quote.CreatedAt, &quote.UpdatedAt)
	if err != nil {
		return &RepositoryError{Op: "create_quote", Err: fmt.Errorf("failed to insert quote: %w", err)}
	}
	return nil
}

// GetByID retrieves a quote by its ID
func (r *PostgresQuoteRepository) GetByID(ctx context.Context, quoteID string) (*domain.Quote, error) {
	var quote domain.Quote
	var state, primary, versions, tiers []byte
	err := r.db.QueryRow(ctx, `
		SELECT id, name, itinerary_id, state, primary_state, versions,
			current_version, last_version_number, tier_pricings, created_at, updated_at
		FROM quotes
		WHERE id = $1
	`, quoteID).Scan(
		&quote.ID, &quote.Name, &quote.ItineraryID, &state, &primary, &versions,
		&quote.CurrentVersion, &quote.LastVersionNumber, &tiers, &quote.CreatedAt, &quote.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &RepositoryError{Op: "get_quote", Err: domain.ErrQuoteNotFound}
		}
		return nil, &RepositoryError{Op: "get_quote", Err: fmt.Errorf("failed to get quote: %w", err)}
	}

	if err := json.Unmarshal(state, &quote.State); err != nil {
		return nil, &RepositoryError{Op: "get_quote", Err: fmt.Errorf("failed to decode state: %w", err)}
	}
	if len(primary) > 0 {
		var p domain.PricingState
		if err := json.Unmarshal(primary, &p); err != nil {
			return nil, &RepositoryError{Op: "get_quote", Err: fmt.Errorf("failed to decode primary state: %w", err)}
		}
		quote.Primary = &p
	}
	if err := json.Unmarshal(versions, &quote.Versions); err != nil {
		return nil, &RepositoryError{Op: "get_quote", Err: fmt.Errorf("failed to decode versions: %w", err)}
	}
	if err := json.Unmarshal(tiers, &quote.TierPricings); err != nil {
		return nil, &RepositoryError{Op: "get_quote", Err: fmt.Errorf("failed to decode tier pricings: %w", err)}
	}
	return &quote, nil
}

// Update writes the whole quote in one transaction
func (r *PostgresQuoteRepository) Update(ctx context.Context, quote *domain.Quote) error {
	docs, err := encodeQuote(quote)
	if err != nil {
		return &RepositoryError{Op: "update_quote", Err: err}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return &RepositoryError{Op: "update_quote", Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer tx.Rollback(ctx) // Rollback if not committed

	err = tx.QueryRow(ctx, `
		UPDATE quotes
		SET name = $1, itinerary_id = $2, state = $3, primary_state = $4, versions = $5,
			current_version = $6, last_version_number = $7, tier_pricings = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at
	`, quote.Name, quote.ItineraryID, docs.state, docs.primary, docs.versions,
		quote.CurrentVersion, quote.LastVersionNumber, docs.tiers, quote.ID).Scan(&quote.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return &RepositoryError{Op: "update_quote", Err: domain.ErrQuoteNotFound}
		}
		return &RepositoryError{Op: "update_quote", Err: fmt.Errorf("failed to update quote: %w", err)}
	}

	if err = tx.Commit(ctx); err != nil {
		return &RepositoryError{Op: "update_quote", Err: fmt.Errorf("failed to commit transaction: %w", err)}
	}
	return nil
}

// List retrieves quote summaries with an optional name filter and pagination
func (r *PostgresQuoteRepository) List(ctx context.Context, filter domain.QuoteFilter) (*domain.PaginatedQuotes, error) {
	filter = filter.Normalize()
	result := &domain.PaginatedQuotes{
		Data: []domain.QuoteSummary{},
		Pagination: domain.Pagination{
			CurrentPage: filter.Page,
			Limit:       filter.Limit,
		},
	}

	whereClause := ""
	args := []interface{}{}
	if filter.Name != "" {
		whereClause = "WHERE name ILIKE $1"
		args = append(args, "%"+filter.Name+"%") // Case-insensitive partial match
	}

	var totalItems int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM quotes %s`, whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalItems); err != nil {
		return nil, &RepositoryError{Op: "list_quotes", Err: fmt.Errorf("failed to count quotes: %w", err)}
	}
	result.Pagination.TotalItems = totalItems
	result.Pagination.TotalPages = totalPages(totalItems, filter.Limit)
	if totalItems == 0 {
		return result, nil
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	query := fmt.Sprintf(`
		SELECT id, name, itinerary_id, current_version, jsonb_array_length(versions), updated_at
		FROM quotes
		%s
		ORDER BY updated_at DESC, id
		LIMIT $%d OFFSET $%d
	`, whereClause, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &RepositoryError{Op: "list_quotes", Err: fmt.Errorf("failed to query quotes: %w", err)}
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.QuoteSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.ItineraryID, &s.CurrentVersion, &s.VersionCount, &s.UpdatedAt); err != nil {
			return nil, &RepositoryError{Op: "list_quotes", Err: fmt.Errorf("failed to scan quote: %w", err)}
		}
		result.Data = append(result.Data, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &RepositoryError{Op: "list_quotes", Err: fmt.Errorf("error iterating quotes: %w", err)}
	}
	return result, nil
}
