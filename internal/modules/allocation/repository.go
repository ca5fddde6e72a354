package allocation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Target types stored in allocation_targets.type and allocation_groups.type.
const (
	TargetTypeCountry  = "country"
	TargetTypeIndustry = "industry"
)

// Repository handles allocation target and group database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new allocation repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "allocation").Logger(),
	}
}

// GetCountryGroupTargets returns country group targets as raw fractions.
func (r *Repository) GetCountryGroupTargets(ctx context.Context) (map[string]float64, error) {
	return r.getTargets(ctx, TargetTypeCountry)
}

// GetIndustryGroupTargets returns industry group targets as raw fractions.
func (r *Repository) GetIndustryGroupTargets(ctx context.Context) (map[string]float64, error) {
	return r.getTargets(ctx, TargetTypeIndustry)
}

// GetCountryGroups returns country group membership.
func (r *Repository) GetCountryGroups(ctx context.Context) (map[string][]string, error) {
	return r.getGroups(ctx, TargetTypeCountry)
}

// GetIndustryGroups returns industry group membership.
func (r *Repository) GetIndustryGroups(ctx context.Context) (map[string][]string, error) {
	return r.getGroups(ctx, TargetTypeIndustry)
}

func (r *Repository) getTargets(ctx context.Context, targetType string) (map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name, target_pct FROM allocation_targets WHERE type = ?", targetType)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s targets: %w", targetType, err)
	}
	defer rows.Close()

	result := make(map[string]float64)
	for rows.Next() {
		var name string
		var pct float64
		if err := rows.Scan(&name, &pct); err != nil {
			return nil, fmt.Errorf("failed to scan allocation target: %w", err)
		}
		result[name] = pct
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation targets: %w", err)
	}

	return result, nil
}

func (r *Repository) getGroups(ctx context.Context, targetType string) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT group_name, member FROM allocation_groups WHERE type = ? ORDER BY group_name, member", targetType)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s groups: %w", targetType, err)
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var group, member string
		if err := rows.Scan(&group, &member); err != nil {
			return nil, fmt.Errorf("failed to scan allocation group: %w", err)
		}
		result[group] = append(result[group], member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation groups: %w", err)
	}

	return result, nil
}

// SetTargets replaces all targets of one type.
func (r *Repository) SetTargets(ctx context.Context, targetType string, targets map[string]float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM allocation_targets WHERE type = ?", targetType); err != nil {
		return fmt.Errorf("failed to clear %s targets: %w", targetType, err)
	}

	for name, pct := range targets {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO allocation_targets (type, name, target_pct) VALUES (?, ?, ?)",
			targetType, name, pct,
		); err != nil {
			return fmt.Errorf("failed to insert target %s:%s: %w", targetType, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s targets: %w", targetType, err)
	}

	r.log.Info().Str("type", targetType).Int("count", len(targets)).Msg("Allocation targets updated")
	return nil
}

// SetGroup replaces the members of one group.
func (r *Repository) SetGroup(ctx context.Context, targetType, group string, members []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM allocation_groups WHERE type = ? AND group_name = ?", targetType, group,
	); err != nil {
		return fmt.Errorf("failed to clear group %s: %w", group, err)
	}

	for _, member := range members {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO allocation_groups (type, group_name, member) VALUES (?, ?, ?)",
			targetType, group, member,
		); err != nil {
			return fmt.Errorf("failed to insert group member %s: %w", member, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit group %s: %w", group, err)
	}
	return nil
}
