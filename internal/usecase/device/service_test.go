package device

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainDevice "fleet-device-monitor/internal/domain/device"
	appErrors "fleet-device-monitor/pkg/errors"
)

func TestRegisterDevice_StartsPending(t *testing.T) {
	env := newTestEnv()

	result, err := env.service.RegisterDevice(context.Background(), &CreateDeviceRequest{
		SerialNumber: "SN-00001",
		Category:     "truck",
		Protocol:     "mqtt",
	})

	require.NoError(t, err)
	assert.NotZero(t, result.ID)
	assert.Equal(t, "SN-00001", result.SerialNumber)
	assert.Equal(t, string(domainDevice.StatusPending), result.Status)
	assert.False(t, result.Obd, "new devices start with all monitoring off")
	assert.False(t, result.Gps)
	assert.False(t, result.Emission)
	assert.False(t, result.Fuel)
}

func TestRegisterDevice_DuplicateSerial(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.RegisterDevice(context.Background(), &CreateDeviceRequest{
		SerialNumber: "SN-00002",
		Category:     "car",
	})
	require.NoError(t, err)

	_, err = env.service.RegisterDevice(context.Background(), &CreateDeviceRequest{
		SerialNumber: "SN-00002",
		Category:     "motorcycle",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.CodeDeviceExists, errorCode(err))
}

func TestRegisterDevice_InvalidCategory(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.RegisterDevice(context.Background(), &CreateDeviceRequest{
		SerialNumber: "SN-00003",
		Category:     "bicycle",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.CodeValidation, errorCode(err))
}

func TestGetDevice_DeletedIsNotFound(t *testing.T) {
	env := newTestEnv()
	d := env.addDevice(domainDevice.StatusActive, domainDevice.AllOff())

	require.NoError(t, env.service.DeleteDevice(context.Background(), d.ID))

	_, err := env.service.GetDevice(context.Background(), d.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.CodeDeviceNotFound, errorCode(err))
}

func TestGetDeviceBySerialNumber(t *testing.T) {
	env := newTestEnv()
	d := env.addDevice(domainDevice.StatusActive, domainDevice.AllOff())

	result, err := env.service.GetDeviceBySerialNumber(context.Background(), d.SerialNumber)

	require.NoError(t, err)
	assert.Equal(t, d.ID, result.ID)
}

func TestAssignVehicle(t *testing.T) {
	env := newTestEnv()
	d := env.addDevice(domainDevice.StatusActive, domainDevice.AllOff())

	result, err := env.service.AssignVehicle(context.Background(), d.ID, &AssignVehicleRequest{VehicleID: 17})

	require.NoError(t, err)
	require.NotNil(t, result.VehicleID)
	assert.Equal(t, uint(17), *result.VehicleID)
}

func TestAssignVehicle_AlreadyAssigned(t *testing.T) {
	env := newTestEnv()
	d := env.addDevice(domainDevice.StatusActive, domainDevice.AllOff())

	_, err := env.service.AssignVehicle(context.Background(), d.ID, &AssignVehicleRequest{VehicleID: 17})
	require.NoError(t, err)

	_, err = env.service.AssignVehicle(context.Background(), d.ID, &AssignVehicleRequest{VehicleID: 18})
	require.Error(t, err)
	assert.Equal(t, appErrors.CodeValidation, errorCode(err))
}

func TestUnassignVehicle(t *testing.T) {
	env := newTestEnv()
	d := env.addDevice(domainDevice.StatusActive, domainDevice.AllOff())

	_, err := env.service.AssignVehicle(context.Background(), d.ID, &AssignVehicleRequest{VehicleID: 17})
	require.NoError(t, err)

	result, err := env.service.UnassignVehicle(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Nil(t, result.VehicleID)
}

func TestUnassignVehicle_NoneAssigned(t *testing.T) {
	env := newTestEnv()
	d := env.addDevice(domainDevice.StatusActive, domainDevice.AllOff())

	_, err := env.service.UnassignVehicle(context.Background(), d.ID)

	require.Error(t, err)
	assert.Equal(t, appErrors.CodeValidation, errorCode(err))
}

func TestListDevices_Pagination(t *testing.T) {
	env := newTestEnv()
	for i := 0; i < 5; i++ {
		env.addDevice(domainDevice.StatusActive, domainDevice.AllOff())
	}

	result, err := env.service.ListDevices(context.Background(), &DeviceFilterRequest{Page: 1, PageSize: 2})

	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Total)
	assert.Len(t, result.Devices, 2)
	assert.Equal(t, 3, result.TotalPages)
}

func TestListDevices_FilterByStatus(t *testing.T) {
	env := newTestEnv()
	env.addDevice(domainDevice.StatusActive, domainDevice.AllOff())
	env.addDevice(domainDevice.StatusActive, domainDevice.AllOff())
	env.addDevice(domainDevice.StatusMaintenance, domainDevice.AllOff())

	status := "maintenance"
	result, err := env.service.ListDevices(context.Background(), &DeviceFilterRequest{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	require.Len(t, result.Devices, 1)
	assert.Equal(t, "maintenance", result.Devices[0].Status)
}

func TestListDevices_RejectsUnknownSortColumn(t *testing.T) {
	env := newTestEnv()
	env.addDevice(domainDevice.StatusActive, domainDevice.AllOff())

	// sort_by ends up in an ORDER BY clause, so only whitelisted
	// columns may pass.
	_, err := env.service.ListDevices(context.Background(), &DeviceFilterRequest{
		SortBy: "created_at; SELECT pg_sleep(10)--",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.CodeValidation, errorCode(err))
}

func TestListDevices_RejectsUnknownSortOrder(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.ListDevices(context.Background(), &DeviceFilterRequest{
		SortBy:    "created_at",
		SortOrder: "sideways",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.CodeValidation, errorCode(err))
}

func TestRegisterDevice_SerialLookupFailureSurfaces(t *testing.T) {
	env := newTestEnv()
	env.devices.serialErr = errors.New("connection refused")

	_, err := env.service.RegisterDevice(context.Background(), &CreateDeviceRequest{
		SerialNumber: "SN-00004",
		Category:     "car",
	})

	require.Error(t, err)
	assert.NotEqual(t, appErrors.CodeDeviceExists, errorCode(err))
	assert.Empty(t, env.devices.devices, "a failed uniqueness check must not register the device")
}

func TestDeleteDevice_Twice(t *testing.T) {
	env := newTestEnv()
	d := env.addDevice(domainDevice.StatusInactive, domainDevice.AllOff())

	require.NoError(t, env.service.DeleteDevice(context.Background(), d.ID))

	err := env.service.DeleteDevice(context.Background(), d.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.CodeDeviceNotFound, errorCode(err))
}
