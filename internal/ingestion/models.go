package ingestion

import (
	"encoding/json"
	"time"
)

// HeartbeatMessage is the liveness report a device publishes to the broker.
// Devices identify themselves by serial number on the wire.
type HeartbeatMessage struct {
	SerialNumber   string    `json:"serial_number"`
	BatteryLevel   *int      `json:"battery_level"`
	SignalStrength *int      `json:"signal_strength"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

// ParseHeartbeat parses a JSON payload into a HeartbeatMessage.
func ParseHeartbeat(payload []byte) (*HeartbeatMessage, error) {
	var msg HeartbeatMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	// Receipt time wins when the device did not timestamp the report.
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return &msg, nil
}
