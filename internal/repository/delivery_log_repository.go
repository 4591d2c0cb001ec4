package repository

import (
	"context"
	"fmt"

	"github.com/unveiledecho/formrelay/internal/database"
	"github.com/unveiledecho/formrelay/internal/model"
)

// DeliveryLogRepository handles delivery log persistence
type DeliveryLogRepository struct {
	db *database.Postgres
}

// NewDeliveryLogRepository creates a new DeliveryLogRepository
func NewDeliveryLogRepository(db *database.Postgres) *DeliveryLogRepository {
	return &DeliveryLogRepository{db: db}
}

// Record inserts a new delivery log entry
func (r *DeliveryLogRepository) Record(ctx context.Context, entry *model.DeliveryLog) error {
	if err := validateEntry(entry); err != nil {
		return err
	}

	query := `
		INSERT INTO delivery_log (id, request_id, operation, channel, recipient,
		    status, error_kind, reason, provider_message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.RequestID,
		entry.Operation,
		entry.Channel,
		entry.Recipient,
		entry.Status,
		entry.ErrorKind,
		entry.Reason,
		entry.ProviderMessageID,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create delivery log: %w", err)
	}
	return nil
}

// CountByStatus returns the number of attempts per status since the table
// was created. It backs the migrate status command.
func (r *DeliveryLogRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM delivery_log GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count delivery log: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan delivery log count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
