package postgres

import (
	"context"
	"fmt"
	"time"

	domainDevice "fleet-device-monitor/internal/domain/device"
	"fleet-device-monitor/internal/infrastructure/database/postgres/models"
)

// StatusHistoryRepository reads the append-only transition audit log. Writes
// happen inside DeviceRepository.UpdateStatus so the transition and its audit
// entry commit together.
type StatusHistoryRepository struct {
	db *DB
}

func NewStatusHistoryRepository(db *DB) domainDevice.StatusHistoryRepository {
	return &StatusHistoryRepository{db: db}
}

func (r *StatusHistoryRepository) ListSince(ctx context.Context, deviceID uint, since time.Time) ([]*domainDevice.StatusHistoryEntry, error) {
	var dbModels []models.StatusHistoryModel
	err := r.db.DB.WithContext(ctx).
		Where("device_id = ? AND timestamp >= ?", deviceID, since).
		Order("timestamp DESC").
		Find(&dbModels).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list status history: %w", err)
	}

	entries := make([]*domainDevice.StatusHistoryEntry, len(dbModels))
	for i, dbModel := range dbModels {
		entries[i] = toStatusHistoryEntity(&dbModel)
	}

	return entries, nil
}

func toStatusHistoryModel(entry *domainDevice.StatusHistoryEntry) *models.StatusHistoryModel {
	return &models.StatusHistoryModel{
		ID:             entry.ID,
		DeviceID:       entry.DeviceID,
		PreviousStatus: string(entry.PreviousStatus),
		NewStatus:      string(entry.NewStatus),
		Forced:         entry.Forced,
		Actor:          entry.Actor,
		Timestamp:      entry.Timestamp,
	}
}

func toStatusHistoryEntity(m *models.StatusHistoryModel) *domainDevice.StatusHistoryEntry {
	return &domainDevice.StatusHistoryEntry{
		ID:             m.ID,
		DeviceID:       m.DeviceID,
		PreviousStatus: domainDevice.DeviceStatus(m.PreviousStatus),
		NewStatus:      domainDevice.DeviceStatus(m.NewStatus),
		Forced:         m.Forced,
		Actor:          m.Actor,
		Timestamp:      m.Timestamp,
	}
}
