package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/unveiledecho/formrelay/internal/model"
)

func TestRecord_RejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("r", 65)
	valid := func() *model.DeliveryLog {
		return &model.DeliveryLog{
			ID:        "6f1c0b7e-7d0f-4c55-9b8e-3f7f2f9a1c11",
			Operation: model.OperationSubmission,
			Channel:   "resend",
			Recipient: "owner@unveiledecho.com",
			Status:    model.DeliveryStatusDelivered,
			CreatedAt: time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC),
		}
	}

	tests := []struct {
		name   string
		mutate func(*model.DeliveryLog) *model.DeliveryLog
		want   string
	}{
		{"nil entry", func(*model.DeliveryLog) *model.DeliveryLog { return nil }, "invalid delivery log entry"},
		{"no id", func(e *model.DeliveryLog) *model.DeliveryLog { e.ID = ""; return e }, "id is empty"},
		{"no channel", func(e *model.DeliveryLog) *model.DeliveryLog { e.Channel = ""; return e }, "channel is empty"},
		{"no status", func(e *model.DeliveryLog) *model.DeliveryLog { e.Status = ""; return e }, "status is empty"},
		{"request id too long", func(e *model.DeliveryLog) *model.DeliveryLog { e.RequestID = &long; return e }, "request_id"},
	}

	// Validation runs before the pool is touched, so no database is needed.
	repo := NewDeliveryLogRepository(nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := repo.Record(context.Background(), tt.mutate(valid()))
			assert.ErrorIs(t, err, ErrInvalidEntry)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, validateEntry(valid()))
}
