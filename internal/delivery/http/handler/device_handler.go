package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fleet-device-monitor/internal/usecase/device"
	"fleet-device-monitor/pkg/utils"
)

type DeviceHandler struct {
	service *device.Service
}

func NewDeviceHandler(service *device.Service) *DeviceHandler {
	return &DeviceHandler{service: service}
}

func (h *DeviceHandler) RegisterRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices")
	{
		devices.POST("", h.RegisterDevice)
		devices.GET("", h.ListDevices)
		devices.GET("/statistics", h.GetStatistics)
		devices.GET("/serial/:serial", h.GetDeviceBySerial)
		devices.POST("/batch/status", h.BatchUpdateStatus)
		devices.GET("/:id", h.GetDevice)
		devices.DELETE("/:id", h.DeleteDevice)
		devices.PATCH("/:id/status", h.UpdateStatus)
		devices.PATCH("/:id/monitoring-features", h.ToggleFeatures)
		devices.PATCH("/:id/reset-monitoring-features", h.ResetFeatures)
		devices.POST("/:id/heartbeat", h.RecordHeartbeat)
		devices.GET("/:id/health", h.GetDeviceHealth)
		devices.GET("/:id/history/status", h.GetStatusHistory)
		devices.POST("/:id/assign-vehicle", h.AssignVehicle)
		devices.POST("/:id/unassign-vehicle", h.UnassignVehicle)
	}
}

func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	var req device.CreateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.service.RegisterDevice(c.Request.Context(), &req)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Device registered successfully", created)
}

func (h *DeviceHandler) GetDevice(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	result, err := h.service.GetDevice(c.Request.Context(), deviceID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device retrieved successfully", result)
}

func (h *DeviceHandler) GetDeviceBySerial(c *gin.Context) {
	serial := c.Param("serial")
	if serial == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Serial number required")
		return
	}

	result, err := h.service.GetDeviceBySerialNumber(c.Request.Context(), serial)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device retrieved successfully", result)
}

func (h *DeviceHandler) ListDevices(c *gin.Context) {
	var filter device.DeviceFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	devices, err := h.service.ListDevices(c.Request.Context(), &filter)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Devices retrieved successfully", devices)
}

func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteDevice(c.Request.Context(), deviceID); err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device deleted successfully", nil)
}

func (h *DeviceHandler) UpdateStatus(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	var req device.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.UpdateStatus(c.Request.Context(), deviceID, &req)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Status updated successfully", updated)
}

func (h *DeviceHandler) BatchUpdateStatus(c *gin.Context) {
	var req device.BatchUpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.BatchUpdateStatus(c.Request.Context(), &req)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Batch status update completed", result)
}

func (h *DeviceHandler) ToggleFeatures(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	var req device.ToggleFeaturesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	features, err := h.service.ToggleFeatures(c.Request.Context(), deviceID, &req)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Monitoring features updated successfully", features)
}

func (h *DeviceHandler) ResetFeatures(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	updated, err := h.service.ResetMonitoringFeatures(c.Request.Context(), deviceID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Monitoring features reset successfully", updated)
}

func (h *DeviceHandler) RecordHeartbeat(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	var req device.RecordHeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	hb, err := h.service.RecordHeartbeat(c.Request.Context(), deviceID, &req)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Heartbeat recorded successfully", hb)
}

func (h *DeviceHandler) GetDeviceHealth(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	var query device.HealthQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "hoursBack must be a positive integer")
		return
	}

	report, err := h.service.GetDeviceHealth(c.Request.Context(), deviceID, &query)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device health retrieved successfully", report)
}

func (h *DeviceHandler) GetStatusHistory(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	var query device.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "daysBack must be a positive integer")
		return
	}

	history, err := h.service.GetStatusHistory(c.Request.Context(), deviceID, &query)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Status history retrieved successfully", history)
}

func (h *DeviceHandler) AssignVehicle(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	var req device.AssignVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.AssignVehicle(c.Request.Context(), deviceID, &req)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle assigned successfully", updated)
}

func (h *DeviceHandler) UnassignVehicle(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	updated, err := h.service.UnassignVehicle(c.Request.Context(), deviceID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle unassigned successfully", updated)
}

func (h *DeviceHandler) GetStatistics(c *gin.Context) {
	stats, err := h.service.GetStatistics(c.Request.Context())
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Statistics retrieved successfully", stats)
}

func (h *DeviceHandler) deviceID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid device ID")
		return 0, false
	}
	return uint(id), true
}
