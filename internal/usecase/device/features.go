package device

import (
	"context"

	"go.uber.org/zap"

	domainDevice "fleet-device-monitor/internal/domain/device"
	"fleet-device-monitor/internal/logger"
	appErrors "fleet-device-monitor/pkg/errors"
	"fleet-device-monitor/pkg/utils"
)

// ToggleFeatures applies only the flags present in the request, leaving the
// rest untouched. Unless ignoreStatusCheck is set the device has to be
// active. Toggling a flag to its current value is a no-op success.
func (s *Service) ToggleFeatures(ctx context.Context, deviceID uint, req *ToggleFeaturesRequest) (*FeatureSetResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	device, err := s.loadDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if !req.IgnoreStatusCheck && device.Status != domainDevice.StatusActive {
		return nil, appErrors.NewAppError(appErrors.CodeDeviceNotActive,
			"Monitoring features can only be changed while the device is active",
			domainDevice.ErrDeviceNotActive)
	}

	features := device.Features
	if req.Obd != nil {
		features.Obd = *req.Obd
	}
	if req.Gps != nil {
		features.Gps = *req.Gps
	}
	if req.Emission != nil {
		features.Emission = *req.Emission
	}
	if req.Fuel != nil {
		features.Fuel = *req.Fuel
	}

	if err := s.deviceRepo.UpdateFeatures(ctx, deviceID, features, device.Version); err != nil {
		return nil, s.wrapRepoError(err)
	}

	logger.Info("Monitoring features toggled",
		zap.Uint("device_id", deviceID),
		zap.Bool("obd", features.Obd),
		zap.Bool("gps", features.Gps),
		zap.Bool("emission", features.Emission),
		zap.Bool("fuel", features.Fuel),
		zap.Bool("ignore_status_check", req.IgnoreStatusCheck),
		zap.String("event", "monitoring_features_toggled"),
	)

	return ToFeatureSetResponse(deviceID, features), nil
}

// ResetMonitoringFeatures clears all four flags regardless of device status.
// Used as a cleanup operation, so it never checks the lifecycle state.
func (s *Service) ResetMonitoringFeatures(ctx context.Context, deviceID uint) (*DeviceResponse, error) {
	device, err := s.loadDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if err := s.deviceRepo.UpdateFeatures(ctx, deviceID, domainDevice.AllOff(), device.Version); err != nil {
		return nil, s.wrapRepoError(err)
	}

	updated, err := s.loadDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	logger.Info("Monitoring features reset",
		zap.Uint("device_id", deviceID),
		zap.String("event", "monitoring_features_reset"),
	)

	return ToDeviceResponse(updated), nil
}
