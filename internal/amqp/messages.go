package amqp

import (
	"encoding/json"
	"time"

	"energi/internal/core"
)

// DaySyncMessage asks the replication worker to push one calendar day to the
// remote sheet. It carries only the date; the worker reads the rebuilt rows
// from the local store, so a burst of edits to the same day collapses into
// idempotent replays.
type DaySyncMessage struct {
	Date      core.Date `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDaySyncMessage(date core.Date) *DaySyncMessage {
	return &DaySyncMessage{
		Date:      date,
		Timestamp: time.Now(),
	}
}

func (m *DaySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DaySyncMessageFromJSON(data []byte) (*DaySyncMessage, error) {
	var msg DaySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Date.IsZero() {
		return nil, errMissingDate
	}
	return &msg, nil
}
