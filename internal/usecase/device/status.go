package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domainDevice "fleet-device-monitor/internal/domain/device"
	"fleet-device-monitor/internal/logger"
	appErrors "fleet-device-monitor/pkg/errors"
	"fleet-device-monitor/pkg/utils"
)

// UpdateStatus applies one lifecycle transition to a single device.
//
// Without force the target must be a legal successor of the current status;
// self-transitions are rejected. With force any target is accepted and the
// history entry is flagged accordingly. When the target is inactive,
// maintenance or disconnected and the caller did not opt out, the monitoring
// feature flags are cleared in the same update.
func (s *Service) UpdateStatus(ctx context.Context, deviceID uint, req *UpdateStatusRequest) (*DeviceResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	device, err := s.loadDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	target := domainDevice.DeviceStatus(req.Status)
	if !target.IsValid() {
		return nil, appErrors.NewAppError(appErrors.CodeValidation,
			fmt.Sprintf("Unknown device status %q", req.Status), domainDevice.ErrInvalidStatus)
	}

	if !req.Force {
		if target == device.Status {
			return nil, appErrors.NewAppError(appErrors.CodeInvalidTransition,
				fmt.Sprintf("Device %d is already %s", deviceID, device.Status),
				domainDevice.ErrInvalidStatusTransition)
		}
		if !s.transitions.CanTransition(device.Status, target) {
			return nil, appErrors.NewAppError(appErrors.CodeInvalidTransition,
				fmt.Sprintf("Device %d cannot transition from %s to %s", deviceID, device.Status, target),
				domainDevice.ErrInvalidStatusTransition)
		}
	}

	// disableMonitoring defaults to true unless the caller explicitly
	// passes false.
	var features *domainDevice.MonitoringFeatures
	if domainDevice.DisablesMonitoring(target) && (req.DisableMonitoring == nil || *req.DisableMonitoring) {
		off := domainDevice.AllOff()
		features = &off
	}

	entry := &domainDevice.StatusHistoryEntry{
		DeviceID:       deviceID,
		PreviousStatus: device.Status,
		NewStatus:      target,
		Forced:         req.Force,
		Actor:          req.Actor,
		Timestamp:      time.Now(),
	}

	// The repository commits the transition and its audit entry together.
	if err := s.deviceRepo.UpdateStatus(ctx, deviceID, target, features, device.Version, entry); err != nil {
		return nil, s.wrapRepoError(err)
	}

	updated, err := s.loadDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	logger.Info("Device status changed",
		zap.Uint("device_id", deviceID),
		zap.String("old_status", string(device.Status)),
		zap.String("new_status", string(target)),
		zap.Bool("forced", req.Force),
		zap.String("event", "device_status_changed"),
	)

	return ToDeviceResponse(updated), nil
}

// BatchUpdateStatus applies the same transition to a set of devices,
// isolating per-device failures. One bad device never loses the rest of the
// batch; callers needing all-or-nothing semantics must pre-validate.
func (s *Service) BatchUpdateStatus(ctx context.Context, req *BatchUpdateStatusRequest) (*BatchUpdateStatusResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	// Duplicate ids collapse to one attempt each, preserving input order.
	seen := make(map[uint]struct{}, len(req.DeviceIDs))
	ids := make([]uint, 0, len(req.DeviceIDs))
	for _, id := range req.DeviceIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	response := &BatchUpdateStatusResponse{
		TotalRequested: len(ids),
		Results:        make([]BatchUpdateResult, 0, len(ids)),
	}

	update := &UpdateStatusRequest{
		Status:            req.Status,
		Force:             req.Force,
		DisableMonitoring: req.DisableMonitoring,
		Actor:             req.Actor,
	}

	for _, id := range ids {
		updated, err := s.UpdateStatus(ctx, id, update)
		if err != nil {
			response.Failed++
			response.Results = append(response.Results, BatchUpdateResult{
				DeviceID:     id,
				Outcome:      OutcomeFailed,
				ErrorCode:    errorCode(err),
				ErrorMessage: err.Error(),
			})
			continue
		}

		response.Succeeded++
		response.Results = append(response.Results, BatchUpdateResult{
			DeviceID: id,
			Outcome:  OutcomeSucceeded,
			Device:   updated,
		})
	}

	logger.Info("Batch status update completed",
		zap.Int("total_requested", response.TotalRequested),
		zap.Int("succeeded", response.Succeeded),
		zap.Int("failed", response.Failed),
		zap.String("target_status", req.Status),
		zap.String("event", "batch_status_update_completed"),
	)

	return response, nil
}

func errorCode(err error) string {
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return appErrors.CodeInternal
}
