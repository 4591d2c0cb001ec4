package model

import "time"

// DeliveryLog records one delivery attempt. It is written after the attempt
// and never read back for redelivery.
type DeliveryLog struct {
	ID                string    `json:"id"`
	RequestID         *string   `json:"requestId,omitempty"`
	Operation         string    `json:"operation"`
	Channel           string    `json:"channel"`
	Recipient         string    `json:"recipient"`
	Status            string    `json:"status"`
	ErrorKind         *string   `json:"errorKind,omitempty"`
	Reason            *string   `json:"reason,omitempty"`
	ProviderMessageID *string   `json:"providerMessageId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Delivery operations
const (
	OperationSubmission   = "submission"
	OperationTestDispatch = "test_dispatch"
	OperationSheetAppend  = "sheet_append"
)

// Delivery statuses
const (
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusFailed    = "failed"
)
