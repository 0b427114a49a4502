// Package repository implements Postgres persistence for contacts and their
// interaction events.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"venue_crm_backend/internal/contacts/domain"
	"venue_crm_backend/platform/apperr"
)

const contactNotFoundMessage = "contact not found"

// Repo implements ContactsRepository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new contacts repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time checks.
var (
	_ ContactsRepository     = (*Repo)(nil)
	_ InteractionsRepository = (*InteractionsRepo)(nil)
)

const contactColumns = `
	id, organization_id, name, email, phone, source,
	lead_heat_score, lead_heat, status, assigned_agent_id,
	last_interaction_at, created_at, updated_at`

// Create inserts a new contact in the UNQUALIFIED stage with a cold score.
func (r *Repo) Create(ctx context.Context, params CreateContactParams) (domain.Contact, error) {
	query := `
		INSERT INTO contacts (organization_id, name, email, phone, source, assigned_agent_id, lead_heat_score, lead_heat, status)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)
		RETURNING` + contactColumns

	row := r.pool.QueryRow(ctx, query,
		params.OrganizationID, params.Name, params.Email, params.Phone,
		params.Source, params.AssignedAgentID, domain.HeatCold, domain.StageUnqualified,
	)

	contact, err := scanContact(row)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("create contact: %w", err)
	}
	return contact, nil
}

// GetByID retrieves a contact scoped to its organization.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Contact, error) {
	query := `SELECT` + contactColumns + `
		FROM contacts
		WHERE id = $1 AND organization_id = $2`

	contact, err := scanContact(r.pool.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Contact{}, apperr.NotFound(contactNotFoundMessage)
		}
		return domain.Contact{}, fmt.Errorf("get contact by id: %w", err)
	}
	return contact, nil
}

// List retrieves contacts with optional status/heat filters and pagination.
func (r *Repo) List(ctx context.Context, organizationID uuid.UUID, params ListContactsParams) ([]domain.Contact, int, error) {
	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var statusParam, heatParam, searchParam interface{}
	if params.Status != "" {
		statusParam = params.Status
	}
	if params.Heat != "" {
		heatParam = params.Heat
	}
	if params.Search != "" {
		searchParam = "%" + params.Search + "%"
	}

	query := `SELECT` + contactColumns + `, COUNT(*) OVER() AS total
		FROM contacts
		WHERE organization_id = $1
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text IS NULL OR lead_heat = $3)
		  AND ($4::text IS NULL OR name ILIKE $4 OR email ILIKE $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`

	rows, err := r.pool.Query(ctx, query, organizationID, statusParam, heatParam, searchParam, limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]domain.Contact, 0)
	total := 0
	for rows.Next() {
		contact, count, err := scanContactWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contact: %w", err)
		}
		total = count
		contacts = append(contacts, contact)
	}
	return contacts, total, rows.Err()
}

// Update applies the non-nil fields and returns the updated contact.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, params UpdateContactParams) (domain.Contact, error) {
	query := `
		UPDATE contacts SET
			name = COALESCE($3, name),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			source = COALESCE($6, source),
			assigned_agent_id = COALESCE($7, assigned_agent_id),
			updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING` + contactColumns

	row := r.pool.QueryRow(ctx, query, id, organizationID,
		params.Name, params.Email, params.Phone, params.Source, params.AssignedAgentID)

	contact, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Contact{}, apperr.NotFound(contactNotFoundMessage)
		}
		return domain.Contact{}, fmt.Errorf("update contact: %w", err)
	}
	return contact, nil
}

// UpdateHeat persists a recalculated score and heat level.
func (r *Repo) UpdateHeat(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, score float64, heat domain.Heat) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contacts SET lead_heat_score = $3, lead_heat = $4, updated_at = now()
		WHERE id = $1 AND organization_id = $2`,
		id, organizationID, score, heat)
	if err != nil {
		return fmt.Errorf("update contact heat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(contactNotFoundMessage)
	}
	return nil
}

// UpdateStatus moves the contact to a new pipeline stage.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contacts SET status = $3, updated_at = now()
		WHERE id = $1 AND organization_id = $2`,
		id, organizationID, status)
	if err != nil {
		return fmt.Errorf("update contact status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(contactNotFoundMessage)
	}
	return nil
}

// TouchLastInteraction bumps last_interaction_at.
func (r *Repo) TouchLastInteraction(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE contacts SET last_interaction_at = $3, updated_at = now()
		WHERE id = $1 AND organization_id = $2`,
		id, organizationID, at)
	if err != nil {
		return fmt.Errorf("touch last interaction: %w", err)
	}
	return nil
}

// FindByEmail looks a contact up by exact email match.
func (r *Repo) FindByEmail(ctx context.Context, organizationID uuid.UUID, email string) (domain.Contact, error) {
	query := `SELECT` + contactColumns + `
		FROM contacts
		WHERE organization_id = $1 AND lower(email) = lower($2)
		LIMIT 1`

	contact, err := scanContact(r.pool.QueryRow(ctx, query, organizationID, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Contact{}, apperr.NotFound(contactNotFoundMessage)
		}
		return domain.Contact{}, fmt.Errorf("find contact by email: %w", err)
	}
	return contact, nil
}

// ListNonTerminal returns contacts eligible for automated progression.
func (r *Repo) ListNonTerminal(ctx context.Context, organizationID uuid.UUID, limit int) ([]domain.Contact, error) {
	if limit <= 0 {
		limit = 500
	}

	query := `SELECT` + contactColumns + `
		FROM contacts
		WHERE organization_id = $1 AND status NOT IN ($2, $3)
		ORDER BY created_at ASC
		LIMIT $4`

	rows, err := r.pool.Query(ctx, query, organizationID, domain.StageCustomer, domain.StageLost, limit)
	if err != nil {
		return nil, fmt.Errorf("list non-terminal contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]domain.Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}

// contactRowScanner is satisfied by pgx.Rows and pgx.Row so scanning can be
// shared between single-row and multi-row queries.
type contactRowScanner interface {
	Scan(dest ...any) error
}

func scanContact(s contactRowScanner) (domain.Contact, error) {
	var contact domain.Contact
	err := s.Scan(
		&contact.ID, &contact.OrganizationID, &contact.Name, &contact.Email,
		&contact.Phone, &contact.Source, &contact.LeadHeatScore, &contact.LeadHeat,
		&contact.Status, &contact.AssignedAgentID, &contact.LastInteractionAt,
		&contact.CreatedAt, &contact.UpdatedAt,
	)
	return contact, err
}

func scanContactWithTotal(s contactRowScanner) (domain.Contact, int, error) {
	var contact domain.Contact
	var total int
	err := s.Scan(
		&contact.ID, &contact.OrganizationID, &contact.Name, &contact.Email,
		&contact.Phone, &contact.Source, &contact.LeadHeatScore, &contact.LeadHeat,
		&contact.Status, &contact.AssignedAgentID, &contact.LastInteractionAt,
		&contact.CreatedAt, &contact.UpdatedAt, &total,
	)
	return contact, total, err
}
