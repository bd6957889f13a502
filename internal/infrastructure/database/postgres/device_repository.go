package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	domainDevice "fleet-device-monitor/internal/domain/device"
	"fleet-device-monitor/internal/infrastructure/database/postgres/models"
)

// DeviceRepository implements domainDevice.Repository on top of gorm.
type DeviceRepository struct {
	db *DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *DB) domainDevice.Repository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Create(ctx context.Context, d *domainDevice.Device) error {
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()

	dbModel := toDeviceModel(d)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key value") {
			return domainDevice.ErrDeviceAlreadyExists
		}
		return fmt.Errorf("failed to create device: %w", err)
	}

	d.ID = dbModel.ID
	d.CreatedAt = dbModel.CreatedAt
	d.UpdatedAt = dbModel.UpdatedAt

	return nil
}

func (r *DeviceRepository) GetByID(ctx context.Context, deviceID uint) (*domainDevice.Device, error) {
	var dbModel models.DeviceModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", deviceID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDevice.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return toDeviceEntity(&dbModel), nil
}

func (r *DeviceRepository) GetBySerialNumber(ctx context.Context, serialNumber string) (*domainDevice.Device, error) {
	var dbModel models.DeviceModel
	err := r.db.DB.WithContext(ctx).
		Where("serial_number = ? AND deleted_at IS NULL", serialNumber).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDevice.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return toDeviceEntity(&dbModel), nil
}

// UpdateStatus applies the status change (and optionally the feature flags)
// with a version guard and appends the audit entry in the same transaction,
// so a transition is never persisted unaudited. A zero-row update on an
// existing device means the row moved between read and write.
func (r *DeviceRepository) UpdateStatus(ctx context.Context, deviceID uint, status domainDevice.DeviceStatus, features *domainDevice.MonitoringFeatures, version int, entry *domainDevice.StatusHistoryEntry) error {
	updates := map[string]interface{}{
		"status":     string(status),
		"version":    version + 1,
		"updated_at": time.Now(),
	}
	if features != nil {
		updates["obd_enabled"] = features.Obd
		updates["gps_enabled"] = features.Gps
		updates["emission_enabled"] = features.Emission
		updates["fuel_enabled"] = features.Fuel
	}

	return r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.DeviceModel{}).
			Where("id = ? AND version = ? AND deleted_at IS NULL", deviceID, version).
			Updates(updates)

		if result.Error != nil {
			return fmt.Errorf("failed to update status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return staleOrMissing(tx, deviceID)
		}

		dbEntry := toStatusHistoryModel(entry)
		if err := tx.Create(dbEntry).Error; err != nil {
			return fmt.Errorf("failed to append status history: %w", err)
		}
		entry.ID = dbEntry.ID

		return nil
	})
}

func (r *DeviceRepository) UpdateFeatures(ctx context.Context, deviceID uint, features domainDevice.MonitoringFeatures, version int) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("id = ? AND version = ? AND deleted_at IS NULL", deviceID, version).
		Updates(map[string]interface{}{
			"obd_enabled":      features.Obd,
			"gps_enabled":      features.Gps,
			"emission_enabled": features.Emission,
			"fuel_enabled":     features.Fuel,
			"version":          version + 1,
			"updated_at":       time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update features: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return staleOrMissing(r.db.DB.WithContext(ctx), deviceID)
	}

	return nil
}

// UpdateConnection records the live connectivity reported by the latest
// heartbeat. No version guard: this is a monotonic last-writer-wins field.
func (r *DeviceRepository) UpdateConnection(ctx context.Context, deviceID uint, status domainDevice.ConnectionStatus, batteryLevel, signalStrength int, seenAt time.Time) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("id = ? AND deleted_at IS NULL", deviceID).
		Updates(map[string]interface{}{
			"connection_status": string(status),
			"battery_level":     batteryLevel,
			"signal_strength":   signalStrength,
			"last_seen_at":      seenAt,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update connection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDevice.ErrDeviceNotFound
	}

	return nil
}

func (r *DeviceRepository) AssignVehicle(ctx context.Context, deviceID, vehicleID uint) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("id = ? AND vehicle_id IS NULL AND deleted_at IS NULL", deviceID).
		Updates(map[string]interface{}{
			"vehicle_id": vehicleID,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to assign vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDevice.ErrVehicleAlreadyAssigned
	}

	return nil
}

func (r *DeviceRepository) UnassignVehicle(ctx context.Context, deviceID uint) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("id = ? AND vehicle_id IS NOT NULL AND deleted_at IS NULL", deviceID).
		Updates(map[string]interface{}{
			"vehicle_id": nil,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to unassign vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDevice.ErrNoVehicleAssigned
	}

	return nil
}

func (r *DeviceRepository) Delete(ctx context.Context, deviceID uint) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("id = ? AND deleted_at IS NULL", deviceID).
		Updates(map[string]interface{}{
			"deleted_at": time.Now(),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to delete device: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDevice.ErrDeviceNotFound
	}

	return nil
}

func (r *DeviceRepository) GetStatistics(ctx context.Context) (*domainDevice.Statistics, error) {
	stats := &domainDevice.Statistics{}
	err := r.db.DB.WithContext(ctx).Raw(`
        SELECT
            COUNT(*) as total_devices,
            COUNT(*) FILTER (WHERE status = 'pending') as pending_devices,
            COUNT(*) FILTER (WHERE status = 'active') as active_devices,
            COUNT(*) FILTER (WHERE status = 'inactive') as inactive_devices,
            COUNT(*) FILTER (WHERE status = 'maintenance') as maintenance_devices,
            COUNT(*) FILTER (WHERE status = 'disconnected') as disconnected_devices,
            COUNT(*) FILTER (WHERE battery_level < 20) as low_battery_devices,
            COUNT(*) FILTER (WHERE last_seen_at IS NULL OR last_seen_at < NOW() - INTERVAL '5 minutes') as offline_devices
        FROM devices
        WHERE deleted_at IS NULL
    `).Scan(stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}

	return stats, nil
}

func (r *DeviceRepository) List(ctx context.Context, filter *domainDevice.Filter) ([]*domainDevice.Device, int64, error) {
	var dbModels []models.DeviceModel
	var total int64

	db := r.db.DB.WithContext(ctx).Model(&models.DeviceModel{}).
		Where("deleted_at IS NULL")

	if filter.Status != nil {
		db = db.Where("status = ?", string(*filter.Status))
	}
	if filter.Category != nil {
		db = db.Where("category = ?", string(*filter.Category))
	}
	if filter.VehicleID != nil {
		db = db.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if filter.IsOffline != nil && *filter.IsOffline {
		db = db.Where("(last_seen_at IS NULL OR last_seen_at < NOW() - INTERVAL '5 minutes')")
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		db = db.Where("serial_number ILIKE ?", search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count devices: %w", err)
	}

	sortBy := "created_at"
	if filter.SortBy != "" {
		sortBy = filter.SortBy
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	err := db.Order(fmt.Sprintf("%s %s", sortBy, sortOrder)).
		Limit(pageSize).
		Offset(offset).
		Find(&dbModels).Error

	if err != nil {
		return nil, 0, fmt.Errorf("failed to list devices: %w", err)
	}

	devices := make([]*domainDevice.Device, len(dbModels))
	for i, dbModel := range dbModels {
		devices[i] = toDeviceEntity(&dbModel)
	}

	return devices, total, nil
}

// staleOrMissing distinguishes a version mismatch from a missing device
// after a zero-row guarded update.
func staleOrMissing(db *gorm.DB, deviceID uint) error {
	var count int64
	if err := db.
		Model(&models.DeviceModel{}).
		Where("id = ? AND deleted_at IS NULL", deviceID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check device existence: %w", err)
	}
	if count == 0 {
		return domainDevice.ErrDeviceNotFound
	}
	return domainDevice.ErrConcurrentModification
}

// Helper functions to convert between domain entities and database models

func toDeviceModel(d *domainDevice.Device) *models.DeviceModel {
	return &models.DeviceModel{
		ID:               d.ID,
		SerialNumber:     d.SerialNumber,
		Category:         string(d.Category),
		Protocol:         d.Protocol,
		Status:           string(d.Status),
		ObdEnabled:       d.Features.Obd,
		GpsEnabled:       d.Features.Gps,
		EmissionEnabled:  d.Features.Emission,
		FuelEnabled:      d.Features.Fuel,
		BatteryLevel:     d.BatteryLevel,
		SignalStrength:   d.SignalStrength,
		ConnectionStatus: string(d.ConnectionStatus),
		VehicleID:        d.VehicleID,
		Version:          d.Version,
		LastSeenAt:       d.LastSeenAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
		DeletedAt:        d.DeletedAt,
	}
}

func toDeviceEntity(m *models.DeviceModel) *domainDevice.Device {
	return &domainDevice.Device{
		ID:           m.ID,
		SerialNumber: m.SerialNumber,
		Category:     domainDevice.DeviceCategory(m.Category),
		Protocol:     m.Protocol,
		Status:       domainDevice.DeviceStatus(m.Status),
		Features: domainDevice.MonitoringFeatures{
			Obd:      m.ObdEnabled,
			Gps:      m.GpsEnabled,
			Emission: m.EmissionEnabled,
			Fuel:     m.FuelEnabled,
		},
		BatteryLevel:     m.BatteryLevel,
		SignalStrength:   m.SignalStrength,
		ConnectionStatus: domainDevice.ConnectionStatus(m.ConnectionStatus),
		VehicleID:        m.VehicleID,
		Version:          m.Version,
		LastSeenAt:       m.LastSeenAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		DeletedAt:        m.DeletedAt,
	}
}
