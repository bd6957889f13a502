package device

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"fleet-device-monitor/internal/config"
	domainDevice "fleet-device-monitor/internal/domain/device"
	"fleet-device-monitor/internal/logger"
	appErrors "fleet-device-monitor/pkg/errors"
	"fleet-device-monitor/pkg/utils"
)

// Service implements device use cases: registration, lifecycle transitions,
// feature toggles, heartbeat recording and health reporting.
type Service struct {
	deviceRepo    domainDevice.Repository
	heartbeatRepo domainDevice.HeartbeatRepository
	historyRepo   domainDevice.StatusHistoryRepository
	transitions   *domainDevice.TransitionTable
	health        config.HealthConfig
}

// NewService creates a new device service.
func NewService(
	deviceRepo domainDevice.Repository,
	heartbeatRepo domainDevice.HeartbeatRepository,
	historyRepo domainDevice.StatusHistoryRepository,
	transitions *domainDevice.TransitionTable,
	health config.HealthConfig,
) *Service {
	return &Service{
		deviceRepo:    deviceRepo,
		heartbeatRepo: heartbeatRepo,
		historyRepo:   historyRepo,
		transitions:   transitions,
		health:        health,
	}
}

func (s *Service) RegisterDevice(ctx context.Context, req *CreateDeviceRequest) (*DeviceResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	existing, err := s.deviceRepo.GetBySerialNumber(ctx, req.SerialNumber)
	if err != nil && !errors.Is(err, domainDevice.ErrDeviceNotFound) {
		return nil, s.wrapRepoError(err)
	}
	if existing != nil {
		return nil, appErrors.NewAppError(appErrors.CodeDeviceExists, "Device with this serial number already exists", nil)
	}

	device := &domainDevice.Device{
		SerialNumber:     req.SerialNumber,
		Category:         domainDevice.DeviceCategory(req.Category),
		Protocol:         req.Protocol,
		Status:           domainDevice.StatusPending,
		Features:         domainDevice.AllOff(),
		ConnectionStatus: domainDevice.Disconnected,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := s.deviceRepo.Create(ctx, device); err != nil {
		return nil, err
	}

	logger.Info("Device registered",
		zap.Uint("device_id", device.ID),
		zap.String("serial_number", device.SerialNumber),
		zap.String("event", "device_registered"),
	)

	return ToDeviceResponse(device), nil
}

func (s *Service) GetDevice(ctx context.Context, deviceID uint) (*DeviceResponse, error) {
	device, err := s.loadDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	return ToDeviceResponse(device), nil
}

func (s *Service) GetDeviceBySerialNumber(ctx context.Context, serialNumber string) (*DeviceResponse, error) {
	device, err := s.deviceRepo.GetBySerialNumber(ctx, serialNumber)
	if err != nil {
		return nil, s.wrapRepoError(err)
	}

	return ToDeviceResponse(device), nil
}

func (s *Service) ListDevices(ctx context.Context, filter *DeviceFilterRequest) (*DeviceListResponse, error) {
	if err := utils.ValidateStruct(filter); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid query parameters", err)
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	devices, total, err := s.deviceRepo.List(ctx, ToDomainFilter(filter))
	if err != nil {
		return nil, err
	}

	deviceResponses := make([]DeviceResponse, len(devices))
	for i, device := range devices {
		deviceResponses[i] = *ToDeviceResponse(device)
	}

	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	return &DeviceListResponse{
		Devices:    deviceResponses,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *Service) DeleteDevice(ctx context.Context, deviceID uint) error {
	if _, err := s.loadDevice(ctx, deviceID); err != nil {
		return err
	}

	if err := s.deviceRepo.Delete(ctx, deviceID); err != nil {
		return s.wrapRepoError(err)
	}

	logger.Info("Device deleted",
		zap.Uint("device_id", deviceID),
		zap.String("event", "device_deleted"),
	)

	return nil
}

func (s *Service) AssignVehicle(ctx context.Context, deviceID uint, req *AssignVehicleRequest) (*DeviceResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	device, err := s.loadDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if device.VehicleID != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Device already has an assigned vehicle", nil)
	}

	if err := s.deviceRepo.AssignVehicle(ctx, deviceID, req.VehicleID); err != nil {
		return nil, s.wrapRepoError(err)
	}

	updated, err := s.loadDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	logger.Info("Vehicle assigned to device",
		zap.Uint("device_id", deviceID),
		zap.Uint("vehicle_id", req.VehicleID),
		zap.String("event", "vehicle_assigned"),
	)

	return ToDeviceResponse(updated), nil
}

func (s *Service) UnassignVehicle(ctx context.Context, deviceID uint) (*DeviceResponse, error) {
	device, err := s.loadDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if device.VehicleID == nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Device has no assigned vehicle", nil)
	}

	if err := s.deviceRepo.UnassignVehicle(ctx, deviceID); err != nil {
		return nil, s.wrapRepoError(err)
	}

	updated, err := s.loadDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	logger.Info("Vehicle unassigned from device",
		zap.Uint("device_id", deviceID),
		zap.String("event", "vehicle_unassigned"),
	)

	return ToDeviceResponse(updated), nil
}

func (s *Service) GetStatistics(ctx context.Context) (*DeviceStatisticsResponse, error) {
	stats, err := s.deviceRepo.GetStatistics(ctx)
	if err != nil {
		return nil, err
	}

	return ToStatisticsResponse(stats), nil
}

// loadDevice fetches a device and maps missing/deleted rows to the
// not-found error the API contract promises.
func (s *Service) loadDevice(ctx context.Context, deviceID uint) (*domainDevice.Device, error) {
	device, err := s.deviceRepo.GetByID(ctx, deviceID)
	if err != nil {
		return nil, s.wrapRepoError(err)
	}
	if device.IsDeleted() {
		return nil, appErrors.NewAppError(appErrors.CodeDeviceNotFound, "Device not found", domainDevice.ErrDeviceDeleted)
	}
	return device, nil
}

func (s *Service) wrapRepoError(err error) error {
	switch {
	case errors.Is(err, domainDevice.ErrDeviceNotFound):
		return appErrors.NewAppError(appErrors.CodeDeviceNotFound, "Device not found", err)
	case errors.Is(err, domainDevice.ErrConcurrentModification):
		return appErrors.NewAppError(appErrors.CodeConcurrentModification, "Device was modified concurrently, retry the request", err)
	case errors.Is(err, domainDevice.ErrVehicleAlreadyAssigned):
		return appErrors.NewAppError(appErrors.CodeValidation, "Device already has an assigned vehicle", err)
	case errors.Is(err, domainDevice.ErrNoVehicleAssigned):
		return appErrors.NewAppError(appErrors.CodeValidation, "Device has no assigned vehicle", err)
	default:
		return err
	}
}
