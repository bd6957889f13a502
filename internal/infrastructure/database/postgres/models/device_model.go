package models

import (
	"time"
)

// DeviceModel represents the database row for a monitoring device.
type DeviceModel struct {
	ID               uint       `gorm:"primaryKey;autoIncrement"`
	SerialNumber     string     `gorm:"type:varchar(100);not null;uniqueIndex"`
	Category         string     `gorm:"type:varchar(50);not null;default:'other'"`
	Protocol         string     `gorm:"type:varchar(50)"`
	Status           string     `gorm:"type:varchar(50);not null;default:'pending';index"`
	ObdEnabled       bool       `gorm:"not null;default:false"`
	GpsEnabled       bool       `gorm:"not null;default:false"`
	EmissionEnabled  bool       `gorm:"not null;default:false"`
	FuelEnabled      bool       `gorm:"not null;default:false"`
	BatteryLevel     *int       `gorm:"type:integer"`
	SignalStrength   *int       `gorm:"type:integer"`
	ConnectionStatus string     `gorm:"type:varchar(20);not null;default:'disconnected'"`
	VehicleID        *uint      `gorm:"index"`
	Version          int        `gorm:"not null;default:0"`
	LastSeenAt       *time.Time `gorm:"type:timestamp"`
	CreatedAt        time.Time  `gorm:"not null"`
	UpdatedAt        time.Time  `gorm:"not null"`
	DeletedAt        *time.Time `gorm:"type:timestamp;index"`
}

func (DeviceModel) TableName() string {
	return "devices"
}
