package device

import (
	"context"
	"time"
)

// Repository defines persistence operations for devices.
type Repository interface {
	Create(ctx context.Context, device *Device) error
	GetByID(ctx context.Context, deviceID uint) (*Device, error)
	GetBySerialNumber(ctx context.Context, serialNumber string) (*Device, error)
	// UpdateStatus persists a status change guarded by the version the
	// caller validated against, appending the history entry in the same
	// transaction. Returns ErrConcurrentModification when the row moved on
	// underneath.
	UpdateStatus(ctx context.Context, deviceID uint, status DeviceStatus, features *MonitoringFeatures, version int, entry *StatusHistoryEntry) error
	// UpdateFeatures persists the feature flags under the same version guard.
	UpdateFeatures(ctx context.Context, deviceID uint, features MonitoringFeatures, version int) error
	UpdateConnection(ctx context.Context, deviceID uint, status ConnectionStatus, batteryLevel, signalStrength int, seenAt time.Time) error
	AssignVehicle(ctx context.Context, deviceID, vehicleID uint) error
	UnassignVehicle(ctx context.Context, deviceID uint) error
	Delete(ctx context.Context, deviceID uint) error
	List(ctx context.Context, filter *Filter) ([]*Device, int64, error)
	GetStatistics(ctx context.Context) (*Statistics, error)
}

// HeartbeatRepository stores the append-only heartbeat log.
type HeartbeatRepository interface {
	Create(ctx context.Context, hb *Heartbeat) error
	CreateBatch(ctx context.Context, hbs []*Heartbeat) error
	ListSince(ctx context.Context, deviceID uint, since time.Time) ([]*Heartbeat, error)
}

// StatusHistoryRepository reads the append-only transition log. Entries are
// written by Repository.UpdateStatus inside the status transaction.
type StatusHistoryRepository interface {
	// ListSince returns entries newest first.
	ListSince(ctx context.Context, deviceID uint, since time.Time) ([]*StatusHistoryEntry, error)
}

// Filter represents filtering options for listing devices
type Filter struct {
	Status    *DeviceStatus
	Category  *DeviceCategory
	VehicleID *uint
	IsOffline *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Statistics represents fleet-wide device counts.
type Statistics struct {
	TotalDevices        int
	PendingDevices      int
	ActiveDevices       int
	InactiveDevices     int
	MaintenanceDevices  int
	DisconnectedDevices int
	LowBatteryDevices   int
	OfflineDevices      int
}
