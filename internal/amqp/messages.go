package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TransactionRecordedMessage announces that a transaction was stored.
// It carries only identifiers; consumers read the full record from the store.
type TransactionRecordedMessage struct {
	MessageID     string    `json:"message_id"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(userID, transactionID string) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		MessageID:     uuid.NewString(),
		UserID:        userID,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedMessageFromJSON decodes and checks a message body.
func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" || msg.TransactionID == "" {
		return nil, errors.New("message missing user_id or transaction_id")
	}
	return &msg, nil
}
