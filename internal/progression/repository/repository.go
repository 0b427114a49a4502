// Package repository implements Postgres persistence for stage progression
// rules.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"venue_crm_backend/internal/progression/domain"
	"venue_crm_backend/platform/apperr"
)

const ruleNotFoundMessage = "progression rule not found"

// CreateRuleParams carries the fields for a new rule.
type CreateRuleParams struct {
	OrganizationID   uuid.UUID
	Name             string
	FromStage        string
	ToStage          string
	TriggerType      string
	TriggerCondition json.RawMessage
	Priority         int
	IsActive         bool
}

// UpdateRuleParams carries optional field updates; nil means unchanged.
type UpdateRuleParams struct {
	Name             *string
	FromStage        *string
	ToStage          *string
	TriggerType      *string
	TriggerCondition json.RawMessage
	Priority         *int
	IsActive         *bool
}

// RulesRepository is the persistence boundary for progression rules.
type RulesRepository interface {
	Create(ctx context.Context, params CreateRuleParams) (domain.StageProgressionRule, error)
	GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.StageProgressionRule, error)
	List(ctx context.Context, organizationID uuid.UUID) ([]domain.StageProgressionRule, error)
	Update(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, params UpdateRuleParams) (domain.StageProgressionRule, error)
	Delete(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error

	// ListActiveByFromStage returns the active rules for one origin stage in
	// creation order, so the engine's stable priority sort preserves it on
	// priority ties.
	ListActiveByFromStage(ctx context.Context, organizationID uuid.UUID, fromStage string) ([]domain.StageProgressionRule, error)

	// Count reports how many rules the organization has, active or not.
	Count(ctx context.Context, organizationID uuid.UUID) (int, error)
}

// Repo implements RulesRepository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new rules repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ RulesRepository = (*Repo)(nil)

const ruleColumns = `
	id, organization_id, name, from_stage, to_stage, trigger_type,
	trigger_condition, priority, is_active, created_at, updated_at`

// Create inserts a new progression rule.
func (r *Repo) Create(ctx context.Context, params CreateRuleParams) (domain.StageProgressionRule, error) {
	query := `
		INSERT INTO progression_rules (organization_id, name, from_stage, to_stage, trigger_type, trigger_condition, priority, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING` + ruleColumns

	row := r.pool.QueryRow(ctx, query,
		params.OrganizationID, params.Name, params.FromStage, params.ToStage,
		params.TriggerType, conditionOrEmpty(params.TriggerCondition), params.Priority, params.IsActive,
	)

	rule, err := scanRule(row)
	if err != nil {
		return domain.StageProgressionRule{}, fmt.Errorf("create progression rule: %w", err)
	}
	return rule, nil
}

// GetByID retrieves a rule scoped to its organization.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.StageProgressionRule, error) {
	query := `SELECT` + ruleColumns + `
		FROM progression_rules
		WHERE id = $1 AND organization_id = $2`

	rule, err := scanRule(r.pool.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StageProgressionRule{}, apperr.NotFound(ruleNotFoundMessage)
		}
		return domain.StageProgressionRule{}, fmt.Errorf("get progression rule: %w", err)
	}
	return rule, nil
}

// List returns all of an organization's rules, highest priority first.
func (r *Repo) List(ctx context.Context, organizationID uuid.UUID) ([]domain.StageProgressionRule, error) {
	query := `SELECT` + ruleColumns + `
		FROM progression_rules
		WHERE organization_id = $1
		ORDER BY priority DESC, created_at ASC`

	return r.queryRules(ctx, query, organizationID)
}

// ListActiveByFromStage returns the active rules for one origin stage.
func (r *Repo) ListActiveByFromStage(ctx context.Context, organizationID uuid.UUID, fromStage string) ([]domain.StageProgressionRule, error) {
	query := `SELECT` + ruleColumns + `
		FROM progression_rules
		WHERE organization_id = $1 AND from_stage = $2 AND is_active
		ORDER BY created_at ASC`

	return r.queryRules(ctx, query, organizationID, fromStage)
}

// Update applies the non-nil fields and returns the updated rule.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, params UpdateRuleParams) (domain.StageProgressionRule, error) {
	query := `
		UPDATE progression_rules SET
			name = COALESCE($3, name),
			from_stage = COALESCE($4, from_stage),
			to_stage = COALESCE($5, to_stage),
			trigger_type = COALESCE($6, trigger_type),
			trigger_condition = COALESCE($7, trigger_condition),
			priority = COALESCE($8, priority),
			is_active = COALESCE($9, is_active),
			updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING` + ruleColumns

	var condition any
	if len(params.TriggerCondition) > 0 {
		condition = []byte(params.TriggerCondition)
	}

	row := r.pool.QueryRow(ctx, query, id, organizationID,
		params.Name, params.FromStage, params.ToStage, params.TriggerType,
		condition, params.Priority, params.IsActive)

	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StageProgressionRule{}, apperr.NotFound(ruleNotFoundMessage)
		}
		return domain.StageProgressionRule{}, fmt.Errorf("update progression rule: %w", err)
	}
	return rule, nil
}

// Delete removes a rule.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM progression_rules WHERE id = $1 AND organization_id = $2`,
		id, organizationID)
	if err != nil {
		return fmt.Errorf("delete progression rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(ruleNotFoundMessage)
	}
	return nil
}

// Count reports the organization's total rule count.
func (r *Repo) Count(ctx context.Context, organizationID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM progression_rules WHERE organization_id = $1`,
		organizationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count progression rules: %w", err)
	}
	return count, nil
}

func (r *Repo) queryRules(ctx context.Context, query string, args ...any) ([]domain.StageProgressionRule, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list progression rules: %w", err)
	}
	defer rows.Close()

	rules := make([]domain.StageProgressionRule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progression rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func conditionOrEmpty(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("{}")
	}
	return raw
}

type ruleRowScanner interface {
	Scan(dest ...any) error
}

func scanRule(s ruleRowScanner) (domain.StageProgressionRule, error) {
	var rule domain.StageProgressionRule
	var condition []byte

	err := s.Scan(
		&rule.ID, &rule.OrganizationID, &rule.Name, &rule.FromStage, &rule.ToStage,
		&rule.TriggerType, &condition, &rule.Priority, &rule.IsActive,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return domain.StageProgressionRule{}, err
	}

	rule.TriggerCondition = json.RawMessage(condition)
	return rule, nil
}
