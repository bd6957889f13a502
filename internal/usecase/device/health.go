package device

import (
	"context"
	"time"

	"go.uber.org/zap"

	domainDevice "fleet-device-monitor/internal/domain/device"
	"fleet-device-monitor/internal/logger"
	appErrors "fleet-device-monitor/pkg/errors"
	"fleet-device-monitor/pkg/utils"
)

// RecordHeartbeat appends an immutable heartbeat row and updates the
// device's live connection status. The lifecycle status is never touched
// here.
func (s *Service) RecordHeartbeat(ctx context.Context, deviceID uint, req *RecordHeartbeatRequest) (*HeartbeatResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation,
			"Battery level and signal strength must be within [0,100]", err)
	}

	if _, err := s.loadDevice(ctx, deviceID); err != nil {
		return nil, err
	}

	hb := &domainDevice.Heartbeat{
		DeviceID:       deviceID,
		BatteryLevel:   *req.BatteryLevel,
		SignalStrength: *req.SignalStrength,
		Status:         domainDevice.ConnectionStatus(req.Status),
		Timestamp:      time.Now(),
	}

	if err := s.heartbeatRepo.Create(ctx, hb); err != nil {
		return nil, err
	}

	if err := s.deviceRepo.UpdateConnection(ctx, deviceID, hb.Status, hb.BatteryLevel, hb.SignalStrength, hb.Timestamp); err != nil {
		return nil, s.wrapRepoError(err)
	}

	logger.Debug("Heartbeat recorded",
		zap.Uint("device_id", deviceID),
		zap.Int("battery_level", hb.BatteryLevel),
		zap.Int("signal_strength", hb.SignalStrength),
		zap.String("connection_status", string(hb.Status)),
	)

	return ToHeartbeatResponse(hb), nil
}

// RecordHeartbeatBatch persists a set of heartbeats in one insert and
// advances each device's live connection to its newest observation in the
// batch. Used by the MQTT pipeline, which flushes buffered observations; the
// HTTP path records heartbeats one at a time.
func (s *Service) RecordHeartbeatBatch(ctx context.Context, observations []HeartbeatObservation) error {
	if len(observations) == 0 {
		return nil
	}

	heartbeats := make([]*domainDevice.Heartbeat, 0, len(observations))
	latest := make(map[uint]*domainDevice.Heartbeat, len(observations))
	for _, obs := range observations {
		if obs.BatteryLevel < 0 || obs.BatteryLevel > 100 || obs.SignalStrength < 0 || obs.SignalStrength > 100 {
			return appErrors.NewAppError(appErrors.CodeValidation,
				"Battery level and signal strength must be within [0,100]", nil)
		}
		status := domainDevice.ConnectionStatus(obs.Status)
		if status != domainDevice.Connected && status != domainDevice.Disconnected {
			return appErrors.NewAppError(appErrors.CodeValidation,
				"Connection status must be connected or disconnected", nil)
		}

		timestamp := obs.Timestamp
		if timestamp.IsZero() {
			timestamp = time.Now()
		}

		hb := &domainDevice.Heartbeat{
			DeviceID:       obs.DeviceID,
			BatteryLevel:   obs.BatteryLevel,
			SignalStrength: obs.SignalStrength,
			Status:         status,
			Timestamp:      timestamp,
		}
		heartbeats = append(heartbeats, hb)
		if current, ok := latest[obs.DeviceID]; !ok || hb.Timestamp.After(current.Timestamp) {
			latest[obs.DeviceID] = hb
		}
	}

	if err := s.heartbeatRepo.CreateBatch(ctx, heartbeats); err != nil {
		return err
	}

	// Heartbeat rows are already committed; a failed connection update only
	// delays the live view until the device's next report.
	for deviceID, hb := range latest {
		if err := s.deviceRepo.UpdateConnection(ctx, deviceID, hb.Status, hb.BatteryLevel, hb.SignalStrength, hb.Timestamp); err != nil {
			logger.Warn("Failed to update connection from heartbeat batch",
				zap.Uint("device_id", deviceID),
				zap.Error(err),
			)
		}
	}

	logger.Debug("Heartbeat batch recorded",
		zap.Int("count", len(heartbeats)),
		zap.Int("devices", len(latest)),
	)

	return nil
}

// GetDeviceHealth aggregates the heartbeat history over a trailing window
// into a health report. Read-only; safe to call repeatedly.
func (s *Service) GetDeviceHealth(ctx context.Context, deviceID uint, query *HealthQuery) (*HealthReportResponse, error) {
	if err := utils.ValidateStruct(query); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "hoursBack must be a positive integer", err)
	}

	hoursBack := s.health.DefaultWindowHours
	if query.HoursBack != nil {
		hoursBack = *query.HoursBack
	}

	if _, err := s.loadDevice(ctx, deviceID); err != nil {
		return nil, err
	}

	now := time.Now()
	since := now.Add(-time.Duration(hoursBack) * time.Hour)
	heartbeats, err := s.heartbeatRepo.ListSince(ctx, deviceID, since)
	if err != nil {
		return nil, err
	}

	report := &HealthReportResponse{
		DeviceID:       deviceID,
		WindowHours:    hoursBack,
		HeartbeatCount: len(heartbeats),
	}

	if len(heartbeats) == 0 {
		// No observations means staleness is unbounded; always critical.
		report.Classification = HealthCritical
		return report, nil
	}

	var batterySum, signalSum, connected int
	latest := heartbeats[0].Timestamp
	for _, hb := range heartbeats {
		batterySum += hb.BatteryLevel
		signalSum += hb.SignalStrength
		if hb.Status == domainDevice.Connected {
			connected++
		}
		if hb.Timestamp.After(latest) {
			latest = hb.Timestamp
		}
	}

	count := float64(len(heartbeats))
	report.AverageBatteryLevel = float64(batterySum) / count
	report.AverageSignalStrength = float64(signalSum) / count
	report.UptimeRatio = float64(connected) / count
	report.LastHeartbeatAt = &latest

	staleness := now.Sub(latest)
	stalenessSeconds := staleness.Seconds()
	report.StalenessSeconds = &stalenessSeconds

	report.Classification = s.classify(report.UptimeRatio, staleness)

	return report, nil
}

// classify buckets a device into one of three health bands using the
// configured cutoffs.
func (s *Service) classify(uptimeRatio float64, staleness time.Duration) HealthClassification {
	if uptimeRatio >= s.health.HealthyUptimeRatio && staleness <= s.health.HealthyMaxStaleness {
		return HealthHealthy
	}
	if uptimeRatio >= s.health.DegradedUptimeRatio || staleness <= s.health.DegradedMaxStaleness {
		return HealthDegraded
	}
	return HealthCritical
}
