package amqp

import (
	"encoding/json"
	"time"
)

// TransactionEvent is the lightweight message published after a ledger write.
// It carries only the ID and type; consumers fetch the full transaction from
// the store.
type TransactionEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(id, txType string) *TransactionEvent {
	return &TransactionEvent{
		ID:        id,
		Type:      txType,
		Timestamp: time.Now().UTC(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.ID == "" {
		return nil, errEmptyEventID
	}
	return &e, nil
}
