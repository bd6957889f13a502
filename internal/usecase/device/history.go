package device

import (
	"context"
	"time"

	appErrors "fleet-device-monitor/pkg/errors"
	"fleet-device-monitor/pkg/utils"
)

// GetStatusHistory returns the accepted transitions for a device within the
// trailing window, newest first. Purely for audit/reporting; transition
// legality never consults it.
func (s *Service) GetStatusHistory(ctx context.Context, deviceID uint, query *HistoryQuery) ([]StatusHistoryResponse, error) {
	if err := utils.ValidateStruct(query); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "daysBack must be a positive integer", err)
	}

	daysBack := s.health.DefaultHistoryDays
	if query.DaysBack != nil {
		daysBack = *query.DaysBack
	}

	if _, err := s.loadDevice(ctx, deviceID); err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -daysBack)
	entries, err := s.historyRepo.ListSince(ctx, deviceID, since)
	if err != nil {
		return nil, err
	}

	responses := make([]StatusHistoryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = *ToStatusHistoryResponse(entry)
	}

	return responses, nil
}
