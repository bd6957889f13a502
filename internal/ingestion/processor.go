package ingestion

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"fleet-device-monitor/internal/logger"
	"fleet-device-monitor/internal/usecase/device"
)

// HeartbeatRecorder is the slice of the device service the pipeline needs.
type HeartbeatRecorder interface {
	GetDeviceBySerialNumber(ctx context.Context, serialNumber string) (*device.DeviceResponse, error)
	RecordHeartbeatBatch(ctx context.Context, observations []device.HeartbeatObservation) error
}

// Processor fans heartbeat messages out to a pool of workers that resolve
// the device by serial number, then flushes the resolved observations to the
// recorder in batches, by size or on an interval, whichever comes first.
type Processor struct {
	recorder HeartbeatRecorder

	// serial number -> device id, devices rarely change identity
	idCache map[string]uint

	workerCount   int
	bufferSize    int
	batchSize     int
	flushInterval time.Duration

	heartbeatChan chan *HeartbeatMessage

	pending   []device.HeartbeatObservation
	pendingMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex

	metrics *MetricsTracker
}

// NewProcessor creates a new heartbeat processor.
func NewProcessor(recorder HeartbeatRecorder, workerCount, bufferSize, batchSize int, flushInterval time.Duration) *Processor {
	ctx, cancel := context.WithCancel(context.Background())

	if workerCount <= 0 {
		workerCount = 4
	}
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}

	return &Processor{
		recorder:      recorder,
		idCache:       make(map[string]uint),
		workerCount:   workerCount,
		bufferSize:    bufferSize,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		heartbeatChan: make(chan *HeartbeatMessage, bufferSize),
		ctx:           ctx,
		cancel:        cancel,
		metrics:       NewMetricsTracker(),
	}
}

// Start starts the worker pool and the batch flusher.
func (p *Processor) Start() {
	logger.Info("Starting heartbeat processor",
		zap.Int("worker_count", p.workerCount),
		zap.Int("buffer_size", p.bufferSize),
		zap.Int("batch_size", p.batchSize),
		zap.Duration("flush_interval", p.flushInterval),
	)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.wg.Add(1)
	go p.flusher()
}

// Stop drains the pipeline, flushes the remaining batch and waits for the
// workers to finish.
func (p *Processor) Stop() {
	logger.Info("Stopping heartbeat processor")

	p.cancel()
	close(p.heartbeatChan)
	p.wg.Wait()
	p.flush()

	logger.Info("Heartbeat processor stopped")
}

// Enqueue queues a heartbeat for processing. Messages are dropped when the
// buffer is full so a slow database never blocks the MQTT callback.
func (p *Processor) Enqueue(msg *HeartbeatMessage) {
	if err := ValidateHeartbeat(msg); err != nil {
		logger.Warn("Invalid heartbeat message",
			zap.String("serial_number", msg.SerialNumber),
			zap.Error(err),
		)
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesFailed++
		})
		return
	}

	select {
	case p.heartbeatChan <- msg:
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesReceived++
			m.BufferSize = len(p.heartbeatChan)
		})
	case <-p.ctx.Done():
		return
	default:
		logger.Warn("Heartbeat buffer full, dropping message",
			zap.String("serial_number", msg.SerialNumber),
		)
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesFailed++
		})
	}
}

// Metrics returns a snapshot of the pipeline counters.
func (p *Processor) Metrics() IngestMetrics {
	return p.metrics.Snapshot()
}

func (p *Processor) worker(id int) {
	defer p.wg.Done()

	for msg := range p.heartbeatChan {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		deviceID, err := p.resolveDevice(ctx, msg.SerialNumber)
		cancel()
		if err != nil {
			logger.Warn("Heartbeat from unknown device",
				zap.Int("worker", id),
				zap.String("serial_number", msg.SerialNumber),
				zap.Error(err),
			)
			p.metrics.Update(func(m *IngestMetrics) {
				m.UnknownDevices++
				m.MessagesFailed++
			})
			continue
		}

		p.buffer(device.HeartbeatObservation{
			DeviceID:       deviceID,
			BatteryLevel:   *msg.BatteryLevel,
			SignalStrength: *msg.SignalStrength,
			Status:         msg.Status,
			Timestamp:      msg.Timestamp,
		})
	}
}

// flusher flushes the pending batch on a timer so a trickle of heartbeats
// never sits in the buffer longer than the flush interval.
func (p *Processor) flusher() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.flush()
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Processor) buffer(obs device.HeartbeatObservation) {
	p.pendingMu.Lock()
	p.pending = append(p.pending, obs)
	full := len(p.pending) >= p.batchSize
	p.pendingMu.Unlock()

	if full {
		p.flush()
	}
}

func (p *Processor) flush() {
	p.pendingMu.Lock()
	batch := p.pending
	p.pending = nil
	p.pendingMu.Unlock()

	if len(batch) == 0 {
		return
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.recorder.RecordHeartbeatBatch(ctx, batch); err != nil {
		logger.Warn("Failed to flush heartbeat batch",
			zap.Int("batch_size", len(batch)),
			zap.Error(err),
		)
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesFailed += int64(len(batch))
		})
		return
	}

	p.metrics.Update(func(m *IngestMetrics) {
		m.MessagesProcessed += int64(len(batch))
		m.LastProcessedAt = time.Now()

		processingTime := time.Since(start)
		if m.AverageProcessingTime == 0 {
			m.AverageProcessingTime = processingTime
		} else {
			m.AverageProcessingTime = (m.AverageProcessingTime + processingTime) / 2
		}
	})
}

func (p *Processor) resolveDevice(ctx context.Context, serialNumber string) (uint, error) {
	p.mu.Lock()
	id, ok := p.idCache[serialNumber]
	p.mu.Unlock()
	if ok {
		return id, nil
	}

	resolved, err := p.recorder.GetDeviceBySerialNumber(ctx, serialNumber)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	p.idCache[serialNumber] = resolved.ID
	p.mu.Unlock()

	return resolved.ID, nil
}
