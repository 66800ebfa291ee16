package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RateUpdatedMessage asks the reprocess worker to recompute a user's stored
// amounts against a specific quote. It carries ids only; the worker reads
// everything else from the store.
type RateUpdatedMessage struct {
	MessageID      string    `json:"message_id"`
	UserID         int64     `json:"user_id"`
	ExchangeRateID int64     `json:"exchange_rate_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewRateUpdatedMessage(userID, exchangeRateID int64) *RateUpdatedMessage {
	return &RateUpdatedMessage{
		MessageID:      uuid.NewString(),
		UserID:         userID,
		ExchangeRateID: exchangeRateID,
		OccurredAt:     time.Now().UTC(),
	}
}

func (m *RateUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RateUpdatedMessageFromJSON(data []byte) (*RateUpdatedMessage, error) {
	var m RateUpdatedMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
