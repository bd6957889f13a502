package device

import (
	"context"
	"sort"
	"time"

	"fleet-device-monitor/internal/config"
	domainDevice "fleet-device-monitor/internal/domain/device"
	"fleet-device-monitor/internal/logger"
)

func init() {
	// Tests exercise the service's structured logging paths.
	_ = logger.Init("development")
}

type mockDeviceRepo struct {
	devices      map[uint]*domainDevice.Device
	nextID       uint
	failVersions bool  // simulate a concurrent writer on guarded updates
	serialErr    error // injected failure for serial number lookups
	history      *mockHistoryRepo
}

func newMockDeviceRepo() *mockDeviceRepo {
	return &mockDeviceRepo{
		devices: make(map[uint]*domainDevice.Device),
		nextID:  1,
	}
}

func (m *mockDeviceRepo) add(d *domainDevice.Device) *domainDevice.Device {
	if d.ID == 0 {
		d.ID = m.nextID
		m.nextID++
	} else if d.ID >= m.nextID {
		m.nextID = d.ID + 1
	}
	m.devices[d.ID] = d
	return d
}

func (m *mockDeviceRepo) Create(_ context.Context, d *domainDevice.Device) error {
	for _, existing := range m.devices {
		if existing.SerialNumber == d.SerialNumber {
			return domainDevice.ErrDeviceAlreadyExists
		}
	}
	m.add(d)
	return nil
}

func (m *mockDeviceRepo) GetByID(_ context.Context, deviceID uint) (*domainDevice.Device, error) {
	d, ok := m.devices[deviceID]
	if !ok {
		return nil, domainDevice.ErrDeviceNotFound
	}
	clone := *d
	return &clone, nil
}

func (m *mockDeviceRepo) GetBySerialNumber(_ context.Context, serialNumber string) (*domainDevice.Device, error) {
	if m.serialErr != nil {
		return nil, m.serialErr
	}
	for _, d := range m.devices {
		if d.SerialNumber == serialNumber && d.DeletedAt == nil {
			clone := *d
			return &clone, nil
		}
	}
	return nil, domainDevice.ErrDeviceNotFound
}

func (m *mockDeviceRepo) UpdateStatus(ctx context.Context, deviceID uint, status domainDevice.DeviceStatus, features *domainDevice.MonitoringFeatures, version int, entry *domainDevice.StatusHistoryEntry) error {
	d, ok := m.devices[deviceID]
	if !ok {
		return domainDevice.ErrDeviceNotFound
	}
	if m.failVersions || d.Version != version {
		return domainDevice.ErrConcurrentModification
	}
	d.Status = status
	if features != nil {
		d.Features = *features
	}
	d.Version++
	d.UpdatedAt = time.Now()
	if m.history != nil {
		return m.history.Create(ctx, entry)
	}
	return nil
}

func (m *mockDeviceRepo) UpdateFeatures(_ context.Context, deviceID uint, features domainDevice.MonitoringFeatures, version int) error {
	d, ok := m.devices[deviceID]
	if !ok {
		return domainDevice.ErrDeviceNotFound
	}
	if m.failVersions || d.Version != version {
		return domainDevice.ErrConcurrentModification
	}
	d.Features = features
	d.Version++
	d.UpdatedAt = time.Now()
	return nil
}

func (m *mockDeviceRepo) UpdateConnection(_ context.Context, deviceID uint, status domainDevice.ConnectionStatus, batteryLevel, signalStrength int, seenAt time.Time) error {
	d, ok := m.devices[deviceID]
	if !ok {
		return domainDevice.ErrDeviceNotFound
	}
	d.ConnectionStatus = status
	d.BatteryLevel = &batteryLevel
	d.SignalStrength = &signalStrength
	d.LastSeenAt = &seenAt
	return nil
}

func (m *mockDeviceRepo) AssignVehicle(_ context.Context, deviceID, vehicleID uint) error {
	d, ok := m.devices[deviceID]
	if !ok {
		return domainDevice.ErrDeviceNotFound
	}
	if d.VehicleID != nil {
		return domainDevice.ErrVehicleAlreadyAssigned
	}
	d.VehicleID = &vehicleID
	return nil
}

func (m *mockDeviceRepo) UnassignVehicle(_ context.Context, deviceID uint) error {
	d, ok := m.devices[deviceID]
	if !ok {
		return domainDevice.ErrDeviceNotFound
	}
	if d.VehicleID == nil {
		return domainDevice.ErrNoVehicleAssigned
	}
	d.VehicleID = nil
	return nil
}

func (m *mockDeviceRepo) Delete(_ context.Context, deviceID uint) error {
	d, ok := m.devices[deviceID]
	if !ok {
		return domainDevice.ErrDeviceNotFound
	}
	now := time.Now()
	d.DeletedAt = &now
	return nil
}

func (m *mockDeviceRepo) List(_ context.Context, filter *domainDevice.Filter) ([]*domainDevice.Device, int64, error) {
	out := []*domainDevice.Device{}
	for _, d := range m.devices {
		if d.DeletedAt != nil {
			continue
		}
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		clone := *d
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	total := int64(len(out))
	if filter.Page > 0 && filter.PageSize > 0 {
		start := (filter.Page - 1) * filter.PageSize
		if start >= len(out) {
			return []*domainDevice.Device{}, total, nil
		}
		end := start + filter.PageSize
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (m *mockDeviceRepo) GetStatistics(_ context.Context) (*domainDevice.Statistics, error) {
	stats := &domainDevice.Statistics{}
	for _, d := range m.devices {
		if d.DeletedAt != nil {
			continue
		}
		stats.TotalDevices++
		switch d.Status {
		case domainDevice.StatusPending:
			stats.PendingDevices++
		case domainDevice.StatusActive:
			stats.ActiveDevices++
		case domainDevice.StatusInactive:
			stats.InactiveDevices++
		case domainDevice.StatusMaintenance:
			stats.MaintenanceDevices++
		case domainDevice.StatusDisconnected:
			stats.DisconnectedDevices++
		}
	}
	return stats, nil
}

type mockHeartbeatRepo struct {
	heartbeats []*domainDevice.Heartbeat
	nextID     uint
}

func newMockHeartbeatRepo() *mockHeartbeatRepo {
	return &mockHeartbeatRepo{nextID: 1}
}

func (m *mockHeartbeatRepo) Create(_ context.Context, hb *domainDevice.Heartbeat) error {
	hb.ID = m.nextID
	m.nextID++
	clone := *hb
	m.heartbeats = append(m.heartbeats, &clone)
	return nil
}

func (m *mockHeartbeatRepo) CreateBatch(ctx context.Context, hbs []*domainDevice.Heartbeat) error {
	for _, hb := range hbs {
		if err := m.Create(ctx, hb); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockHeartbeatRepo) ListSince(_ context.Context, deviceID uint, since time.Time) ([]*domainDevice.Heartbeat, error) {
	out := []*domainDevice.Heartbeat{}
	for _, hb := range m.heartbeats {
		if hb.DeviceID == deviceID && !hb.Timestamp.Before(since) {
			clone := *hb
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

type mockHistoryRepo struct {
	entries []*domainDevice.StatusHistoryEntry
	nextID  uint
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{nextID: 1}
}

func (m *mockHistoryRepo) Create(_ context.Context, entry *domainDevice.StatusHistoryEntry) error {
	entry.ID = m.nextID
	m.nextID++
	clone := *entry
	m.entries = append(m.entries, &clone)
	return nil
}

func (m *mockHistoryRepo) ListSince(_ context.Context, deviceID uint, since time.Time) ([]*domainDevice.StatusHistoryEntry, error) {
	out := []*domainDevice.StatusHistoryEntry{}
	for _, entry := range m.entries {
		if entry.DeviceID == deviceID && !entry.Timestamp.Before(since) {
			clone := *entry
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func testHealthConfig() config.HealthConfig {
	return config.HealthConfig{
		HealthyUptimeRatio:   0.9,
		HealthyMaxStaleness:  15 * time.Minute,
		DegradedUptimeRatio:  0.5,
		DegradedMaxStaleness: 60 * time.Minute,
		DefaultWindowHours:   24,
		DefaultHistoryDays:   30,
	}
}

type testEnv struct {
	service   *Service
	devices   *mockDeviceRepo
	heartbeat *mockHeartbeatRepo
	history   *mockHistoryRepo
}

func newTestEnv() *testEnv {
	devices := newMockDeviceRepo()
	heartbeat := newMockHeartbeatRepo()
	history := newMockHistoryRepo()
	devices.history = history

	service := NewService(devices, heartbeat, history, domainDevice.DefaultTransitions(), testHealthConfig())

	return &testEnv{
		service:   service,
		devices:   devices,
		heartbeat: heartbeat,
		history:   history,
	}
}

func (e *testEnv) addDevice(status domainDevice.DeviceStatus, features domainDevice.MonitoringFeatures) *domainDevice.Device {
	return e.devices.add(&domainDevice.Device{
		SerialNumber:     "SN-" + string(status) + "-" + time.Now().Format("150405.000000000"),
		Category:         domainDevice.CategoryCar,
		Status:           status,
		Features:         features,
		ConnectionStatus: domainDevice.Disconnected,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	})
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
