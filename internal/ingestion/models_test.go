package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeartbeat(t *testing.T) {
	payload := []byte(`{"serial_number":"SN-P-001","battery_level":82,"signal_strength":64,"status":"connected","timestamp":"2026-08-30T10:00:00Z"}`)

	msg, err := ParseHeartbeat(payload)

	require.NoError(t, err)
	assert.Equal(t, "SN-P-001", msg.SerialNumber)
	assert.Equal(t, 82, *msg.BatteryLevel)
	assert.Equal(t, 64, *msg.SignalStrength)
	assert.Equal(t, "connected", msg.Status)
	assert.Equal(t, time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), msg.Timestamp)
}

func TestParseHeartbeat_MissingTimestampDefaultsToReceipt(t *testing.T) {
	payload := []byte(`{"serial_number":"SN-P-002","battery_level":50,"signal_strength":50,"status":"disconnected"}`)

	before := time.Now()
	msg, err := ParseHeartbeat(payload)
	after := time.Now()

	require.NoError(t, err)
	assert.False(t, msg.Timestamp.Before(before))
	assert.False(t, msg.Timestamp.After(after))
}

func TestParseHeartbeat_MalformedJSON(t *testing.T) {
	_, err := ParseHeartbeat([]byte(`{"serial_number":`))

	assert.Error(t, err)
}

func TestValidateHeartbeat(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*HeartbeatMessage)
		wantField string
	}{
		{"valid", func(m *HeartbeatMessage) {}, ""},
		{"missing serial", func(m *HeartbeatMessage) { m.SerialNumber = "" }, "serial_number"},
		{"missing battery", func(m *HeartbeatMessage) { m.BatteryLevel = nil }, "battery_level"},
		{"battery too high", func(m *HeartbeatMessage) { m.BatteryLevel = intPtr(101) }, "battery_level"},
		{"battery negative", func(m *HeartbeatMessage) { m.BatteryLevel = intPtr(-1) }, "battery_level"},
		{"missing signal", func(m *HeartbeatMessage) { m.SignalStrength = nil }, "signal_strength"},
		{"signal too high", func(m *HeartbeatMessage) { m.SignalStrength = intPtr(200) }, "signal_strength"},
		{"bad status", func(m *HeartbeatMessage) { m.Status = "online" }, "status"},
		{"zero timestamp", func(m *HeartbeatMessage) { m.Timestamp = time.Time{} }, "timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validMessage("SN-V-001")
			tt.mutate(msg)

			err := ValidateHeartbeat(msg)

			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestValidateHeartbeat_BoundaryValues(t *testing.T) {
	msg := validMessage("SN-V-002")
	msg.BatteryLevel = intPtr(0)
	msg.SignalStrength = intPtr(100)

	assert.NoError(t, ValidateHeartbeat(msg))
}
