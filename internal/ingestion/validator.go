package ingestion

import (
	"fmt"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}

// ValidateHeartbeat validates a heartbeat message before it enters the
// pipeline. The bounds match the HTTP heartbeat endpoint.
func ValidateHeartbeat(msg *HeartbeatMessage) error {
	if msg.SerialNumber == "" {
		return &ValidationError{Field: "serial_number", Message: "serial_number is required"}
	}

	if msg.BatteryLevel == nil {
		return &ValidationError{Field: "battery_level", Message: "battery_level is required"}
	}
	if *msg.BatteryLevel < 0 || *msg.BatteryLevel > 100 {
		return &ValidationError{Field: "battery_level", Message: "battery_level must be between 0 and 100"}
	}

	if msg.SignalStrength == nil {
		return &ValidationError{Field: "signal_strength", Message: "signal_strength is required"}
	}
	if *msg.SignalStrength < 0 || *msg.SignalStrength > 100 {
		return &ValidationError{Field: "signal_strength", Message: "signal_strength must be between 0 and 100"}
	}

	if msg.Status != "connected" && msg.Status != "disconnected" {
		return &ValidationError{Field: "status", Message: "status must be connected or disconnected"}
	}

	if msg.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Message: "timestamp is required"}
	}

	return nil
}
