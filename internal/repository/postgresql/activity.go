package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/bagstore/storefront/internal/db"
	"github.com/bagstore/storefront/internal/repository"
	"github.com/bagstore/storefront/internal/workflow"
)

const activityColumns = "id, admin_id, action, entity_type, entity_id, description, metadata, ip_address, user_agent, created_at"

// ActivityRepo reads and appends admin_activities. Rows are never updated.
type ActivityRepo struct {
	db db.DB
}

func NewActivityRepo(db db.DB) workflow.ActivityRepository {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) CreateTx(ctx context.Context, tx db.Tx, a *repository.AdminActivity) error {
	err := tx.ExecQueryRow(ctx, `
        INSERT INTO admin_activities (
            admin_id, action, entity_type, entity_id, description, metadata, ip_address, user_agent, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `, a.AdminID, a.Action, a.EntityType, a.EntityID, a.Description, a.Metadata, a.IPAddress, a.UserAgent, a.CreatedAt).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to insert %s activity: %w", a.Action, err)
	}
	return nil
}

func (r *ActivityRepo) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*repository.AdminActivity, error) {
	var entries []*repository.AdminActivity
	err := r.db.Select(ctx, &entries, `
        SELECT `+activityColumns+`
        FROM admin_activities
        WHERE entity_type = $1 AND entity_id = $2
        ORDER BY created_at ASC, id ASC
    `, entityType, entityID)
	return entries, err
}

func (r *ActivityRepo) ListBetween(ctx context.Context, from, to time.Time) ([]*repository.AdminActivity, error) {
	var entries []*repository.AdminActivity
	err := r.db.Select(ctx, &entries, `
        SELECT `+activityColumns+`
        FROM admin_activities
        WHERE created_at >= $1 AND created_at < $2
        ORDER BY created_at ASC, id ASC
    `, from, to)
	return entries, err
}

func (r *ActivityRepo) SummarySince(ctx context.Context, adminID int64, since time.Time) (*repository.ActivitySummary, error) {
	var sum repository.ActivitySummary
	err := r.db.Get(ctx, &sum, `
        SELECT
            COUNT(*)::int AS total_actions,
            (COUNT(*) FILTER (WHERE entity_type = 'order'))::int AS orders_updated,
            COALESCE(SUM((metadata->>'amount')::numeric) FILTER (WHERE action = 'revenue_collected'), 0) AS revenue_collected
        FROM admin_activities
        WHERE admin_id = $1 AND created_at >= $2
    `, adminID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise activities of admin %d: %w", adminID, err)
	}
	return &sum, nil
}
