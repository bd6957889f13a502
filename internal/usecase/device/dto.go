package device

import (
	"time"

	domainDevice "fleet-device-monitor/internal/domain/device"
)

type CreateDeviceRequest struct {
	SerialNumber string `json:"serial_number" validate:"required,min=5,max=100"`
	Category     string `json:"category" validate:"required,oneof=motorcycle car truck tricycle other"`
	Protocol     string `json:"protocol" validate:"omitempty,max=50"`
}

type UpdateStatusRequest struct {
	Status            string `json:"status" validate:"required,oneof=pending active inactive maintenance disconnected"`
	Force             bool   `json:"force"`
	DisableMonitoring *bool  `json:"disable_monitoring"`
	Actor             string `json:"actor" validate:"omitempty,max=100"`
}

type BatchUpdateStatusRequest struct {
	DeviceIDs         []uint `json:"device_ids" validate:"required,min=1"`
	Status            string `json:"status" validate:"required,oneof=pending active inactive maintenance disconnected"`
	Force             bool   `json:"force"`
	DisableMonitoring *bool  `json:"disable_monitoring"`
	Actor             string `json:"actor" validate:"omitempty,max=100"`
}

type ToggleFeaturesRequest struct {
	Obd               *bool `json:"obd"`
	Gps               *bool `json:"gps"`
	Emission          *bool `json:"emission"`
	Fuel              *bool `json:"fuel"`
	IgnoreStatusCheck bool  `json:"ignore_status_check"`
}

type RecordHeartbeatRequest struct {
	BatteryLevel   *int   `json:"battery_level" validate:"required,min=0,max=100"`
	SignalStrength *int   `json:"signal_strength" validate:"required,min=0,max=100"`
	Status         string `json:"status" validate:"required,oneof=connected disconnected"`
}

// HeartbeatObservation is one already-resolved heartbeat inside a batch.
// The ingestion pipeline produces these after mapping serial numbers to ids.
type HeartbeatObservation struct {
	DeviceID       uint
	BatteryLevel   int
	SignalStrength int
	Status         string
	Timestamp      time.Time
}

type AssignVehicleRequest struct {
	VehicleID uint `json:"vehicle_id" validate:"required"`
}

type HealthQuery struct {
	HoursBack *int `form:"hoursBack" validate:"omitempty,min=1"`
}

type HistoryQuery struct {
	DaysBack *int `form:"daysBack" validate:"omitempty,min=1"`
}

type DeviceFilterRequest struct {
	Status    *string `form:"status" validate:"omitempty,oneof=pending active inactive maintenance disconnected"`
	Category  *string `form:"category" validate:"omitempty,oneof=motorcycle car truck tricycle other"`
	VehicleID *uint   `form:"vehicle_id"`
	IsOffline *bool   `form:"is_offline"`
	Search    string  `form:"search"`
	Page      int     `form:"page" validate:"omitempty,min=1"`
	PageSize  int     `form:"page_size" validate:"omitempty,min=1,max=100"`
	SortBy    string  `form:"sort_by" validate:"omitempty,oneof=created_at updated_at battery_level last_seen_at"`
	SortOrder string  `form:"sort_order" validate:"omitempty,oneof=asc desc"`
}

type FeatureSetResponse struct {
	DeviceID uint `json:"device_id"`
	Obd      bool `json:"obd"`
	Gps      bool `json:"gps"`
	Emission bool `json:"emission"`
	Fuel     bool `json:"fuel"`
}

type DeviceResponse struct {
	ID               uint       `json:"id"`
	SerialNumber     string     `json:"serial_number"`
	Category         string     `json:"category"`
	Protocol         string     `json:"protocol,omitempty"`
	Status           string     `json:"status"`
	Obd              bool       `json:"obd"`
	Gps              bool       `json:"gps"`
	Emission         bool       `json:"emission"`
	Fuel             bool       `json:"fuel"`
	BatteryLevel     *int       `json:"battery_level"`
	SignalStrength   *int       `json:"signal_strength"`
	ConnectionStatus string     `json:"connection_status"`
	VehicleID        *uint      `json:"vehicle_id"`
	IsOnline         bool       `json:"is_online"`
	LastSeenAt       *time.Time `json:"last_seen_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type DeviceListResponse struct {
	Devices    []DeviceResponse `json:"devices"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

type BatchOutcome string

const (
	OutcomeSucceeded BatchOutcome = "succeeded"
	OutcomeFailed    BatchOutcome = "failed"
)

type BatchUpdateResult struct {
	DeviceID     uint            `json:"device_id"`
	Outcome      BatchOutcome    `json:"outcome"`
	Device       *DeviceResponse `json:"device,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

type BatchUpdateStatusResponse struct {
	TotalRequested int                 `json:"total_requested"`
	Succeeded      int                 `json:"succeeded"`
	Failed         int                 `json:"failed"`
	Results        []BatchUpdateResult `json:"results"`
}

type HeartbeatResponse struct {
	ID             uint      `json:"id"`
	DeviceID       uint      `json:"device_id"`
	BatteryLevel   int       `json:"battery_level"`
	SignalStrength int       `json:"signal_strength"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

type HealthClassification string

const (
	HealthHealthy  HealthClassification = "healthy"
	HealthDegraded HealthClassification = "degraded"
	HealthCritical HealthClassification = "critical"
)

type HealthReportResponse struct {
	DeviceID              uint                 `json:"device_id"`
	WindowHours           int                  `json:"window_hours"`
	HeartbeatCount        int                  `json:"heartbeat_count"`
	AverageBatteryLevel   float64              `json:"average_battery_level"`
	AverageSignalStrength float64              `json:"average_signal_strength"`
	UptimeRatio           float64              `json:"uptime_ratio"`
	LastHeartbeatAt       *time.Time           `json:"last_heartbeat_at"`
	StalenessSeconds      *float64             `json:"staleness_seconds"`
	Classification        HealthClassification `json:"classification"`
}

type StatusHistoryResponse struct {
	ID             uint      `json:"id"`
	DeviceID       uint      `json:"device_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Forced         bool      `json:"forced"`
	Actor          string    `json:"actor,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type DeviceStatisticsResponse struct {
	TotalDevices        int `json:"total_devices"`
	PendingDevices      int `json:"pending_devices"`
	ActiveDevices       int `json:"active_devices"`
	InactiveDevices     int `json:"inactive_devices"`
	MaintenanceDevices  int `json:"maintenance_devices"`
	DisconnectedDevices int `json:"disconnected_devices"`
	LowBatteryDevices   int `json:"low_battery_devices"`
	OfflineDevices      int `json:"offline_devices"`
}

func ToDeviceResponse(d *domainDevice.Device) *DeviceResponse {
	if d == nil {
		return nil
	}
	return &DeviceResponse{
		ID:               d.ID,
		SerialNumber:     d.SerialNumber,
		Category:         string(d.Category),
		Protocol:         d.Protocol,
		Status:           string(d.Status),
		Obd:              d.Features.Obd,
		Gps:              d.Features.Gps,
		Emission:         d.Features.Emission,
		Fuel:             d.Features.Fuel,
		BatteryLevel:     d.BatteryLevel,
		SignalStrength:   d.SignalStrength,
		ConnectionStatus: string(d.ConnectionStatus),
		VehicleID:        d.VehicleID,
		IsOnline:         d.IsOnline(),
		LastSeenAt:       d.LastSeenAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func ToFeatureSetResponse(deviceID uint, f domainDevice.MonitoringFeatures) *FeatureSetResponse {
	return &FeatureSetResponse{
		DeviceID: deviceID,
		Obd:      f.Obd,
		Gps:      f.Gps,
		Emission: f.Emission,
		Fuel:     f.Fuel,
	}
}

func ToHeartbeatResponse(hb *domainDevice.Heartbeat) *HeartbeatResponse {
	if hb == nil {
		return nil
	}
	return &HeartbeatResponse{
		ID:             hb.ID,
		DeviceID:       hb.DeviceID,
		BatteryLevel:   hb.BatteryLevel,
		SignalStrength: hb.SignalStrength,
		Status:         string(hb.Status),
		Timestamp:      hb.Timestamp,
	}
}

func ToStatusHistoryResponse(entry *domainDevice.StatusHistoryEntry) *StatusHistoryResponse {
	if entry == nil {
		return nil
	}
	return &StatusHistoryResponse{
		ID:             entry.ID,
		DeviceID:       entry.DeviceID,
		PreviousStatus: string(entry.PreviousStatus),
		NewStatus:      string(entry.NewStatus),
		Forced:         entry.Forced,
		Actor:          entry.Actor,
		Timestamp:      entry.Timestamp,
	}
}

func ToDomainFilter(req *DeviceFilterRequest) *domainDevice.Filter {
	if req == nil {
		return &domainDevice.Filter{}
	}
	filter := &domainDevice.Filter{
		VehicleID: req.VehicleID,
		IsOffline: req.IsOffline,
		Search:    req.Search,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if req.Status != nil {
		status := domainDevice.DeviceStatus(*req.Status)
		filter.Status = &status
	}
	if req.Category != nil {
		category := domainDevice.DeviceCategory(*req.Category)
		filter.Category = &category
	}
	return filter
}

func ToStatisticsResponse(s *domainDevice.Statistics) *DeviceStatisticsResponse {
	if s == nil {
		return nil
	}
	return &DeviceStatisticsResponse{
		TotalDevices:        s.TotalDevices,
		PendingDevices:      s.PendingDevices,
		ActiveDevices:       s.ActiveDevices,
		InactiveDevices:     s.InactiveDevices,
		MaintenanceDevices:  s.MaintenanceDevices,
		DisconnectedDevices: s.DisconnectedDevices,
		LowBatteryDevices:   s.LowBatteryDevices,
		OfflineDevices:      s.OfflineDevices,
	}
}
