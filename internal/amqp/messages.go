package amqp

import (
	"encoding/json"
	"time"
)

const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// InvoiceSyncMessage is the lightweight export notification. It carries only
// the invoice id, its version and the operation; the worker fetches the full
// row from the database.
type InvoiceSyncMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewInvoiceSyncMessage(id string, version int64) *InvoiceSyncMessage {
	return &InvoiceSyncMessage{
		ID:        id,
		Version:   version,
		Op:        OpUpsert,
		Timestamp: time.Now(),
	}
}

func NewInvoiceDeleteMessage(id string) *InvoiceSyncMessage {
	return &InvoiceSyncMessage{
		ID:        id,
		Op:        OpDelete,
		Timestamp: time.Now(),
	}
}

func (m *InvoiceSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func InvoiceSyncMessageFromJSON(data []byte) (*InvoiceSyncMessage, error) {
	var msg InvoiceSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
