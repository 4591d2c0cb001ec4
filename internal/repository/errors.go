package repository

import (
	"errors"
	"fmt"

	"github.com/unveiledecho/formrelay/internal/model"
)

// ErrInvalidEntry is returned for a delivery log entry that cannot be stored.
var ErrInvalidEntry = errors.New("invalid delivery log entry")

// validateEntry checks the NOT NULL columns and the request_id width before
// a round trip to Postgres.
func validateEntry(entry *model.DeliveryLog) error {
	if entry == nil {
		return ErrInvalidEntry
	}
	for column, value := range map[string]string{
		"id":        entry.ID,
		"operation": entry.Operation,
		"channel":   entry.Channel,
		"status":    entry.Status,
	} {
		if value == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidEntry, column)
		}
	}
	if entry.RequestID != nil && len(*entry.RequestID) > 64 {
		return fmt.Errorf("%w: request_id longer than 64", ErrInvalidEntry)
	}
	return nil
}
