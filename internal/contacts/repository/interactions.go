package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"venue_crm_backend/internal/contacts/domain"
	"venue_crm_backend/platform/apperr"
)

const interactionNotFoundMessage = "interaction not found"

// InteractionsRepo implements InteractionsRepository with PostgreSQL. It is a
// separate concrete type from Repo because both interfaces declare GetByID
// with different return types.
type InteractionsRepo struct {
	pool *pgxpool.Pool
}

// NewInteractions creates a new interactions repository.
func NewInteractions(pool *pgxpool.Pool) *InteractionsRepo {
	return &InteractionsRepo{pool: pool}
}

// Insert appends an interaction event. Events are immutable once written.
func (r *InteractionsRepo) Insert(ctx context.Context, params CreateInteractionParams) (domain.Interaction, error) {
	metadataJSON, err := json.Marshal(params.Metadata)
	if err != nil {
		return domain.Interaction{}, fmt.Errorf("marshal interaction metadata: %w", err)
	}

	var interaction domain.Interaction
	err = r.pool.QueryRow(ctx, `
		INSERT INTO interactions (contact_id, organization_id, type, platform, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, contact_id, organization_id, type, platform, created_at`,
		params.ContactID, params.OrganizationID, params.Type, params.Platform, metadataJSON,
	).Scan(
		&interaction.ID, &interaction.ContactID, &interaction.OrganizationID,
		&interaction.Type, &interaction.Platform, &interaction.CreatedAt,
	)
	if err != nil {
		return domain.Interaction{}, fmt.Errorf("insert interaction: %w", err)
	}

	interaction.Metadata = params.Metadata
	return interaction, nil
}

// GetByID retrieves a single interaction scoped to its organization.
func (r *InteractionsRepo) GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Interaction, error) {
	interaction, err := scanInteraction(r.pool.QueryRow(ctx, `
		SELECT id, contact_id, organization_id, type, platform, metadata, created_at
		FROM interactions
		WHERE id = $1 AND organization_id = $2`,
		id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Interaction{}, apperr.NotFound(interactionNotFoundMessage)
		}
		return domain.Interaction{}, fmt.Errorf("get interaction by id: %w", err)
	}
	return interaction, nil
}

// ListByContact returns the full interaction history for a contact, newest
// first. The engines re-sort as needed.
func (r *InteractionsRepo) ListByContact(ctx context.Context, contactID uuid.UUID, organizationID uuid.UUID) ([]domain.Interaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, contact_id, organization_id, type, platform, metadata, created_at
		FROM interactions
		WHERE contact_id = $1 AND organization_id = $2
		ORDER BY created_at DESC`,
		contactID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	interactions := make([]domain.Interaction, 0)
	for rows.Next() {
		interaction, err := scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		interactions = append(interactions, interaction)
	}
	return interactions, rows.Err()
}

// Delete removes an interaction. The caller is responsible for triggering a
// heat recalculation afterwards.
func (r *InteractionsRepo) Delete(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM interactions WHERE id = $1 AND organization_id = $2`,
		id, organizationID)
	if err != nil {
		return fmt.Errorf("delete interaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(interactionNotFoundMessage)
	}
	return nil
}

func scanInteraction(s contactRowScanner) (domain.Interaction, error) {
	var interaction domain.Interaction
	var metadataJSON []byte

	err := s.Scan(
		&interaction.ID, &interaction.ContactID, &interaction.OrganizationID,
		&interaction.Type, &interaction.Platform, &metadataJSON, &interaction.CreatedAt,
	)
	if err != nil {
		return domain.Interaction{}, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &interaction.Metadata); err != nil {
			return domain.Interaction{}, fmt.Errorf("unmarshal interaction metadata: %w", err)
		}
	}
	return interaction, nil
}
