package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransactionsRecordedMessage announces rows that were committed to the
// ledger. It carries only the row IDs; consumers load the rows themselves.
type TransactionsRecordedMessage struct {
	ID             string    `json:"id"`
	TransactionIDs []int64   `json:"transaction_ids"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewTransactionsRecordedMessage(ids []int64) *TransactionsRecordedMessage {
	return &TransactionsRecordedMessage{
		ID:             uuid.NewString(),
		TransactionIDs: ids,
		Timestamp:      time.Now().UTC(),
	}
}

func (m *TransactionsRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionsRecordedMessageFromJSON decodes a message and rejects one
// without row IDs.
func TransactionsRecordedMessageFromJSON(data []byte) (*TransactionsRecordedMessage, error) {
	var msg TransactionsRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if len(msg.TransactionIDs) == 0 {
		return nil, fmt.Errorf("message %s has no transaction ids", msg.ID)
	}
	return &msg, nil
}
