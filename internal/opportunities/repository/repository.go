// Package repository implements Postgres persistence for opportunities.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"venue_crm_backend/internal/opportunities/domain"
	"venue_crm_backend/platform/apperr"
)

const opportunityNotFoundMessage = "opportunity not found"

// CreateOpportunityParams carries the fields for a new opportunity.
type CreateOpportunityParams struct {
	OrganizationID uuid.UUID
	ContactID      uuid.UUID
	Title          string
	ValueCents     int64
	Probability    int
	EventDate      *time.Time
}

// UpdateOpportunityParams carries optional field updates; nil means unchanged.
type UpdateOpportunityParams struct {
	Title       *string
	ValueCents  *int64
	Probability *int
	EventDate   *time.Time
}

// StageTotal aggregates one pipeline stage for the forecast.
type StageTotal struct {
	Stage              string `json:"stage"`
	Count              int    `json:"count"`
	ValueCents         int64  `json:"valueCents"`
	WeightedValueCents int64  `json:"weightedValueCents"`
}

// OpportunitiesRepository is the persistence boundary for opportunities.
type OpportunitiesRepository interface {
	Create(ctx context.Context, params CreateOpportunityParams) (domain.Opportunity, error)
	GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Opportunity, error)
	List(ctx context.Context, organizationID uuid.UUID, stage string) ([]domain.Opportunity, error)
	ListByContact(ctx context.Context, contactID uuid.UUID, organizationID uuid.UUID) ([]domain.Opportunity, error)
	Update(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, params UpdateOpportunityParams) (domain.Opportunity, error)
	UpdateStage(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, stage string) (domain.Opportunity, error)
	Delete(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error

	// ForecastByStage aggregates count, raw value, and probability-weighted
	// value per stage.
	ForecastByStage(ctx context.Context, organizationID uuid.UUID) ([]StageTotal, error)
}

// Repo implements OpportunitiesRepository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new opportunities repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ OpportunitiesRepository = (*Repo)(nil)

const opportunityColumns = `
	id, organization_id, contact_id, title, stage, value_cents, probability,
	event_date, created_at, updated_at`

// Create inserts a new opportunity in the PROSPECT stage.
func (r *Repo) Create(ctx context.Context, params CreateOpportunityParams) (domain.Opportunity, error) {
	query := `
		INSERT INTO opportunities (organization_id, contact_id, title, stage, value_cents, probability, event_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING` + opportunityColumns

	row := r.pool.QueryRow(ctx, query,
		params.OrganizationID, params.ContactID, params.Title, domain.StageProspect,
		params.ValueCents, params.Probability, params.EventDate,
	)

	opportunity, err := scanOpportunity(row)
	if err != nil {
		return domain.Opportunity{}, fmt.Errorf("create opportunity: %w", err)
	}
	return opportunity, nil
}

// GetByID retrieves an opportunity scoped to its organization.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Opportunity, error) {
	query := `SELECT` + opportunityColumns + `
		FROM opportunities
		WHERE id = $1 AND organization_id = $2`

	opportunity, err := scanOpportunity(r.pool.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Opportunity{}, apperr.NotFound(opportunityNotFoundMessage)
		}
		return domain.Opportunity{}, fmt.Errorf("get opportunity: %w", err)
	}
	return opportunity, nil
}

// List returns the organization's opportunities, optionally filtered by stage.
func (r *Repo) List(ctx context.Context, organizationID uuid.UUID, stage string) ([]domain.Opportunity, error) {
	var stageParam any
	if stage != "" {
		stageParam = stage
	}

	query := `SELECT` + opportunityColumns + `
		FROM opportunities
		WHERE organization_id = $1 AND ($2::text IS NULL OR stage = $2)
		ORDER BY created_at DESC`

	return r.queryOpportunities(ctx, query, organizationID, stageParam)
}

// ListByContact returns a contact's opportunities.
func (r *Repo) ListByContact(ctx context.Context, contactID uuid.UUID, organizationID uuid.UUID) ([]domain.Opportunity, error) {
	query := `SELECT` + opportunityColumns + `
		FROM opportunities
		WHERE contact_id = $1 AND organization_id = $2
		ORDER BY created_at DESC`

	return r.queryOpportunities(ctx, query, contactID, organizationID)
}

// Update applies the non-nil fields and returns the updated opportunity.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, params UpdateOpportunityParams) (domain.Opportunity, error) {
	query := `
		UPDATE opportunities SET
			title = COALESCE($3, title),
			value_cents = COALESCE($4, value_cents),
			probability = COALESCE($5, probability),
			event_date = COALESCE($6, event_date),
			updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING` + opportunityColumns

	row := r.pool.QueryRow(ctx, query, id, organizationID,
		params.Title, params.ValueCents, params.Probability, params.EventDate)

	opportunity, err := scanOpportunity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Opportunity{}, apperr.NotFound(opportunityNotFoundMessage)
		}
		return domain.Opportunity{}, fmt.Errorf("update opportunity: %w", err)
	}
	return opportunity, nil
}

// UpdateStage moves the opportunity to a new stage.
func (r *Repo) UpdateStage(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, stage string) (domain.Opportunity, error) {
	query := `
		UPDATE opportunities SET stage = $3, updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING` + opportunityColumns

	opportunity, err := scanOpportunity(r.pool.QueryRow(ctx, query, id, organizationID, stage))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Opportunity{}, apperr.NotFound(opportunityNotFoundMessage)
		}
		return domain.Opportunity{}, fmt.Errorf("update opportunity stage: %w", err)
	}
	return opportunity, nil
}

// Delete removes an opportunity.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM opportunities WHERE id = $1 AND organization_id = $2`,
		id, organizationID)
	if err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(opportunityNotFoundMessage)
	}
	return nil
}

// ForecastByStage aggregates value and weighted value per stage.
func (r *Repo) ForecastByStage(ctx context.Context, organizationID uuid.UUID) ([]StageTotal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT stage, COUNT(*), COALESCE(SUM(value_cents), 0),
		       COALESCE(SUM(value_cents * probability / 100), 0)
		FROM opportunities
		WHERE organization_id = $1
		GROUP BY stage`,
		organizationID)
	if err != nil {
		return nil, fmt.Errorf("forecast by stage: %w", err)
	}
	defer rows.Close()

	totals := make([]StageTotal, 0)
	for rows.Next() {
		var total StageTotal
		if err := rows.Scan(&total.Stage, &total.Count, &total.ValueCents, &total.WeightedValueCents); err != nil {
			return nil, fmt.Errorf("scan forecast row: %w", err)
		}
		totals = append(totals, total)
	}
	return totals, rows.Err()
}

func (r *Repo) queryOpportunities(ctx context.Context, query string, args ...any) ([]domain.Opportunity, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	opportunities := make([]domain.Opportunity, 0)
	for rows.Next() {
		opportunity, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		opportunities = append(opportunities, opportunity)
	}
	return opportunities, rows.Err()
}

type opportunityRowScanner interface {
	Scan(dest ...any) error
}

func scanOpportunity(s opportunityRowScanner) (domain.Opportunity, error) {
	var opportunity domain.Opportunity
	err := s.Scan(
		&opportunity.ID, &opportunity.OrganizationID, &opportunity.ContactID,
		&opportunity.Title, &opportunity.Stage, &opportunity.ValueCents,
		&opportunity.Probability, &opportunity.EventDate,
		&opportunity.CreatedAt, &opportunity.UpdatedAt,
	)
	return opportunity, err
}
