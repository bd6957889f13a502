package ingestion

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainDevice "fleet-device-monitor/internal/domain/device"
	"fleet-device-monitor/internal/logger"
	"fleet-device-monitor/internal/usecase/device"
)

func init() {
	logger.Init("development")
}

type fakeRecorder struct {
	mu      sync.Mutex
	devices map[string]uint
	lookups int
	batches int
	records []device.HeartbeatObservation
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{devices: make(map[string]uint)}
}

func (f *fakeRecorder) GetDeviceBySerialNumber(_ context.Context, serialNumber string) (*device.DeviceResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lookups++
	id, ok := f.devices[serialNumber]
	if !ok {
		return nil, domainDevice.ErrDeviceNotFound
	}
	return &device.DeviceResponse{ID: id, SerialNumber: serialNumber}, nil
}

func (f *fakeRecorder) RecordHeartbeatBatch(_ context.Context, observations []device.HeartbeatObservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batches++
	f.records = append(f.records, observations...)
	return nil
}

func (f *fakeRecorder) recorded() []device.HeartbeatObservation {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]device.HeartbeatObservation, len(f.records))
	copy(out, f.records)
	return out
}

func (f *fakeRecorder) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batches
}

func (f *fakeRecorder) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

func intPtr(v int) *int { return &v }

func validMessage(serial string) *HeartbeatMessage {
	return &HeartbeatMessage{
		SerialNumber:   serial,
		BatteryLevel:   intPtr(75),
		SignalStrength: intPtr(60),
		Status:         "connected",
		Timestamp:      time.Now(),
	}
}

func TestProcessor_EnqueueAndDrain(t *testing.T) {
	recorder := newFakeRecorder()
	recorder.devices["SN-ING-001"] = 11

	p := NewProcessor(recorder, 2, 10, 50, time.Second)
	p.Start()

	for i := 0; i < 5; i++ {
		p.Enqueue(validMessage("SN-ING-001"))
	}
	p.Stop()

	records := recorder.recorded()
	require.Len(t, records, 5)
	for _, r := range records {
		assert.Equal(t, uint(11), r.DeviceID)
		assert.Equal(t, 75, r.BatteryLevel)
		assert.Equal(t, "connected", r.Status)
	}

	metrics := p.Metrics()
	assert.Equal(t, int64(5), metrics.MessagesReceived)
	assert.Equal(t, int64(5), metrics.MessagesProcessed)
	assert.Equal(t, int64(0), metrics.MessagesFailed)
}

func TestProcessor_FlushOnBatchSize(t *testing.T) {
	recorder := newFakeRecorder()
	recorder.devices["SN-ING-005"] = 5

	// Interval far in the future, so only the size trigger can flush.
	p := NewProcessor(recorder, 1, 10, 2, time.Hour)
	p.Start()
	defer p.Stop()

	p.Enqueue(validMessage("SN-ING-005"))
	p.Enqueue(validMessage("SN-ING-005"))

	require.Eventually(t, func() bool {
		return len(recorder.recorded()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, recorder.batchCount(), "a full buffer flushes as one batch")
}

func TestProcessor_FlushOnInterval(t *testing.T) {
	recorder := newFakeRecorder()
	recorder.devices["SN-ING-006"] = 6

	// Batch size never reached, so only the ticker can flush.
	p := NewProcessor(recorder, 1, 10, 100, 50*time.Millisecond)
	p.Start()
	defer p.Stop()

	p.Enqueue(validMessage("SN-ING-006"))

	require.Eventually(t, func() bool {
		return len(recorder.recorded()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestProcessor_SerialCacheAvoidsRepeatLookups(t *testing.T) {
	recorder := newFakeRecorder()
	recorder.devices["SN-ING-002"] = 7

	p := NewProcessor(recorder, 1, 10, 50, time.Second)
	p.Start()

	for i := 0; i < 4; i++ {
		p.Enqueue(validMessage("SN-ING-002"))
	}
	p.Stop()

	require.Len(t, recorder.recorded(), 4)
	assert.Equal(t, 1, recorder.lookupCount(), "single worker resolves the serial once")
}

func TestProcessor_UnknownDeviceCounted(t *testing.T) {
	recorder := newFakeRecorder()

	p := NewProcessor(recorder, 1, 10, 50, time.Second)
	p.Start()

	p.Enqueue(validMessage("SN-UNKNOWN"))
	p.Stop()

	assert.Empty(t, recorder.recorded())

	metrics := p.Metrics()
	assert.Equal(t, int64(1), metrics.UnknownDevices)
	assert.Equal(t, int64(1), metrics.MessagesFailed)
}

func TestProcessor_InvalidMessageRejectedBeforeQueue(t *testing.T) {
	recorder := newFakeRecorder()
	recorder.devices["SN-ING-003"] = 3

	p := NewProcessor(recorder, 1, 10, 50, time.Second)
	p.Start()

	msg := validMessage("SN-ING-003")
	msg.BatteryLevel = intPtr(150)
	p.Enqueue(msg)
	p.Stop()

	assert.Empty(t, recorder.recorded())

	metrics := p.Metrics()
	assert.Equal(t, int64(0), metrics.MessagesReceived)
	assert.Equal(t, int64(1), metrics.MessagesFailed)
}

func TestProcessor_DropsWhenBufferFull(t *testing.T) {
	recorder := newFakeRecorder()
	recorder.devices["SN-ING-004"] = 4

	// Workers never started, so the buffer fills and overflow is dropped.
	p := NewProcessor(recorder, 1, 2, 50, time.Second)

	for i := 0; i < 5; i++ {
		p.Enqueue(validMessage("SN-ING-004"))
	}

	metrics := p.Metrics()
	assert.Equal(t, int64(2), metrics.MessagesReceived)
	assert.Equal(t, int64(3), metrics.MessagesFailed)

	p.Start()
	p.Stop()
	assert.Len(t, recorder.recorded(), 2)
}
