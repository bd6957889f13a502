package postgres

import (
	"context"
	"fmt"
	"time"

	domainDevice "fleet-device-monitor/internal/domain/device"
	"fleet-device-monitor/internal/infrastructure/database/postgres/models"
)

// HeartbeatRepository implements the append-only heartbeat log. Rows are
// never updated or deleted, so no locking is needed on writes.
type HeartbeatRepository struct {
	db *DB
}

func NewHeartbeatRepository(db *DB) domainDevice.HeartbeatRepository {
	return &HeartbeatRepository{db: db}
}

func (r *HeartbeatRepository) Create(ctx context.Context, hb *domainDevice.Heartbeat) error {
	dbModel := toHeartbeatModel(hb)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create heartbeat: %w", err)
	}

	hb.ID = dbModel.ID
	return nil
}

func (r *HeartbeatRepository) CreateBatch(ctx context.Context, hbs []*domainDevice.Heartbeat) error {
	if len(hbs) == 0 {
		return nil
	}

	dbModels := make([]models.HeartbeatModel, len(hbs))
	for i, hb := range hbs {
		dbModels[i] = *toHeartbeatModel(hb)
	}

	if err := r.db.DB.WithContext(ctx).CreateInBatches(dbModels, 100).Error; err != nil {
		return fmt.Errorf("failed to create heartbeats: %w", err)
	}

	return nil
}

func (r *HeartbeatRepository) ListSince(ctx context.Context, deviceID uint, since time.Time) ([]*domainDevice.Heartbeat, error) {
	var dbModels []models.HeartbeatModel
	err := r.db.DB.WithContext(ctx).
		Where("device_id = ? AND timestamp >= ?", deviceID, since).
		Order("timestamp DESC").
		Find(&dbModels).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list heartbeats: %w", err)
	}

	heartbeats := make([]*domainDevice.Heartbeat, len(dbModels))
	for i, dbModel := range dbModels {
		heartbeats[i] = toHeartbeatEntity(&dbModel)
	}

	return heartbeats, nil
}

func toHeartbeatModel(hb *domainDevice.Heartbeat) *models.HeartbeatModel {
	return &models.HeartbeatModel{
		ID:             hb.ID,
		DeviceID:       hb.DeviceID,
		BatteryLevel:   hb.BatteryLevel,
		SignalStrength: hb.SignalStrength,
		Status:         string(hb.Status),
		Timestamp:      hb.Timestamp,
	}
}

func toHeartbeatEntity(m *models.HeartbeatModel) *domainDevice.Heartbeat {
	return &domainDevice.Heartbeat{
		ID:             m.ID,
		DeviceID:       m.DeviceID,
		BatteryLevel:   m.BatteryLevel,
		SignalStrength: m.SignalStrength,
		Status:         domainDevice.ConnectionStatus(m.Status),
		Timestamp:      m.Timestamp,
	}
}
