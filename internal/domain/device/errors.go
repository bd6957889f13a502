package device

import "errors"

var (
	ErrDeviceNotFound          = errors.New("device not found")
	ErrDeviceAlreadyExists     = errors.New("device already exists")
	ErrDeviceDeleted           = errors.New("device has been deleted")
	ErrInvalidStatus           = errors.New("invalid device status")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrDeviceNotActive         = errors.New("device is not active")
	ErrConcurrentModification  = errors.New("device was modified concurrently")
	ErrVehicleAlreadyAssigned  = errors.New("device already has an assigned vehicle")
	ErrNoVehicleAssigned       = errors.New("device has no assigned vehicle")
)
