package amqp

import (
	"encoding/json"
	"time"
)

// SnapshotSyncMessage asks the mirror worker to push the current state.
// It carries no payload on purpose: the worker reads the latest snapshot
// from the store, which keeps out-of-order deliveries harmless.
type SnapshotSyncMessage struct {
	RequestedAt time.Time `json:"requestedAt"`
}

func NewSnapshotSyncMessage() *SnapshotSyncMessage {
	return &SnapshotSyncMessage{RequestedAt: time.Now()}
}

func (m *SnapshotSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotSyncMessageFromJSON(data []byte) (*SnapshotSyncMessage, error) {
	var msg SnapshotSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
