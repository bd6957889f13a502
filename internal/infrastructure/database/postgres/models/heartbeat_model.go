package models

import (
	"time"
)

// HeartbeatModel is an append-only row; heartbeats are never updated or
// deleted inside the retention window.
type HeartbeatModel struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	DeviceID       uint      `gorm:"not null;index:idx_heartbeats_device_time"`
	BatteryLevel   int       `gorm:"not null"`
	SignalStrength int       `gorm:"not null"`
	Status         string    `gorm:"type:varchar(20);not null"`
	Timestamp      time.Time `gorm:"not null;index:idx_heartbeats_device_time"`
}

func (HeartbeatModel) TableName() string {
	return "device_heartbeats"
}
