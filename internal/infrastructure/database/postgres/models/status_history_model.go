package models

import (
	"time"
)

// StatusHistoryModel is the append-only audit log of accepted transitions.
type StatusHistoryModel struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	DeviceID       uint      `gorm:"not null;index:idx_status_history_device_time"`
	PreviousStatus string    `gorm:"type:varchar(50);not null"`
	NewStatus      string    `gorm:"type:varchar(50);not null"`
	Forced         bool      `gorm:"not null;default:false"`
	Actor          string    `gorm:"type:varchar(100)"`
	Timestamp      time.Time `gorm:"not null;index:idx_status_history_device_time"`
}

func (StatusHistoryModel) TableName() string {
	return "device_status_history"
}
