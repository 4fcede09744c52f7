package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noortjevm/forno/internal/domain/delivery"
)

const (
	getAgentByPostalCodeSQL = `SELECT id, first_name, last_name, postal_code, next_available_at
		FROM delivery_agents WHERE postal_code = $1`

	listServedPostalCodesSQL = `SELECT postal_code FROM delivery_agents ORDER BY postal_code`
)

var _ delivery.Repository = (*AgentRepository)(nil)

// AgentRepository implements delivery.Repository backed by PostgreSQL.
type AgentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository returns an AgentRepository that uses the given pool.
func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{pool: pool}
}

// FindByPostalCode returns the agent serving the given normalized postal
// code, or delivery.ErrNoAgentAvailable.
func (r *AgentRepository) FindByPostalCode(ctx context.Context, postalCode string) (*delivery.Agent, error) {
	rows, err := r.pool.Query(ctx, getAgentByPostalCodeSQL, postalCode)
	if err != nil {
		return nil, fmt.Errorf("finding agent for %q: %w", postalCode, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAgent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, delivery.ErrNoAgentAvailable
		}
		return nil, fmt.Errorf("finding agent for %q: %w", postalCode, err)
	}
	return &a, nil
}

// ListServedPostalCodes returns every postal code with an assigned agent.
func (r *AgentRepository) ListServedPostalCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listServedPostalCodesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing served postal codes: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanAgent(row pgx.CollectableRow) (delivery.Agent, error) {
	var a delivery.Agent
	err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.PostalCode, &a.NextAvailableAt)
	return a, err
}
