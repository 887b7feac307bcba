package amqp

import (
	"encoding/json"
	"time"
)

// DueNoticeMessage tells the notify worker what happened to one obligation
// during an auto-pay pass, so reminders can go out for anything left unpaid.
type DueNoticeMessage struct {
	ObligationID string    `json:"obligationId"`
	Name         string    `json:"name"`
	Period       string    `json:"period"`
	Status       string    `json:"status"`
	AmountPaise  int64     `json:"amountPaise"`
	Reason       string    `json:"reason,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewDueNoticeMessage creates a notice for one obligation outcome.
func NewDueNoticeMessage(obligationID, name, period, status string, amountPaise int64, reason string) *DueNoticeMessage {
	return &DueNoticeMessage{
		ObligationID: obligationID,
		Name:         name,
		Period:       period,
		Status:       status,
		AmountPaise:  amountPaise,
		Reason:       reason,
		Timestamp:    time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DueNoticeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DueNoticeMessageFromJSON creates a message from JSON bytes
func DueNoticeMessageFromJSON(data []byte) (*DueNoticeMessage, error) {
	var msg DueNoticeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
