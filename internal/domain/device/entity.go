package device

import (
	"time"
)

// Device represents a monitoring device mounted on a vehicle.
type Device struct {
	ID               uint
	SerialNumber     string
	Category         DeviceCategory
	Protocol         string
	Status           DeviceStatus
	Features         MonitoringFeatures
	BatteryLevel     *int
	SignalStrength   *int
	ConnectionStatus ConnectionStatus
	VehicleID        *uint
	Version          int
	LastSeenAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

// DeviceStatus is the lifecycle state of a device, distinct from its live
// connectivity (ConnectionStatus).
type DeviceStatus string

const (
	StatusPending      DeviceStatus = "pending"
	StatusActive       DeviceStatus = "active"
	StatusInactive     DeviceStatus = "inactive"
	StatusMaintenance  DeviceStatus = "maintenance"
	StatusDisconnected DeviceStatus = "disconnected"
)

// IsValid reports whether s is a recognized lifecycle status.
func (s DeviceStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusInactive, StatusMaintenance, StatusDisconnected:
		return true
	}
	return false
}

type DeviceCategory string

const (
	CategoryMotorcycle DeviceCategory = "motorcycle"
	CategoryCar        DeviceCategory = "car"
	CategoryTruck      DeviceCategory = "truck"
	CategoryTricycle   DeviceCategory = "tricycle"
	CategoryOther      DeviceCategory = "other"
)

// ConnectionStatus is derived from the most recent heartbeat.
type ConnectionStatus string

const (
	Connected    ConnectionStatus = "connected"
	Disconnected ConnectionStatus = "disconnected"
)

// MonitoringFeatures is the set of capability flags on a device. Every
// combination is a valid state.
type MonitoringFeatures struct {
	Obd      bool
	Gps      bool
	Emission bool
	Fuel     bool
}

// AllOff returns the feature set with every flag cleared.
func AllOff() MonitoringFeatures {
	return MonitoringFeatures{}
}

// Heartbeat is an immutable point-in-time observation reported by a device.
type Heartbeat struct {
	ID             uint
	DeviceID       uint
	BatteryLevel   int
	SignalStrength int
	Status         ConnectionStatus
	Timestamp      time.Time
}

// StatusHistoryEntry records one accepted lifecycle transition.
type StatusHistoryEntry struct {
	ID             uint
	DeviceID       uint
	PreviousStatus DeviceStatus
	NewStatus      DeviceStatus
	Forced         bool
	Actor          string
	Timestamp      time.Time
}

// IsDeleted reports whether the device is soft-deleted.
func (d *Device) IsDeleted() bool {
	return d.DeletedAt != nil
}

// IsOnline checks if the device heartbeated within the last 5 minutes.
func (d *Device) IsOnline() bool {
	if d.LastSeenAt == nil {
		return false
	}
	return time.Since(*d.LastSeenAt) < 5*time.Minute
}
