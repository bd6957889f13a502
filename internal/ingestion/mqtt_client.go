package ingestion

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"fleet-device-monitor/internal/logger"
	pkgmqtt "fleet-device-monitor/pkg/mqtt"
)

// MQTTIngestionConfig describes the topic and MQTT connection parameters.
type MQTTIngestionConfig struct {
	ClientConfig   *pkgmqtt.Config
	HeartbeatTopic string
	QoS            byte
}

// MQTTIngestionClient wires MQTT heartbeat messages into the processor.
type MQTTIngestionClient struct {
	cfg       *MQTTIngestionConfig
	client    *pkgmqtt.Client
	processor *Processor

	mu            sync.Mutex
	started       bool
	subscriptions []string
}

// NewMQTTIngestionClient builds a new MQTT client for heartbeat ingestion.
func NewMQTTIngestionClient(cfg *MQTTIngestionConfig, processor *Processor) (*MQTTIngestionClient, error) {
	if cfg == nil || cfg.ClientConfig == nil {
		return nil, errors.New("mqtt ingestion config is not configured")
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}

	client := pkgmqtt.NewClient(cfg.ClientConfig)
	return &MQTTIngestionClient{
		cfg:       cfg,
		client:    client,
		processor: processor,
	}, nil
}

// Start establishes the MQTT connection and subscribes to the heartbeat topic.
func (c *MQTTIngestionClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}

	if c.cfg.HeartbeatTopic == "" {
		return errors.New("no heartbeat topic configured for ingestion")
	}

	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	if err := c.client.Subscribe(c.cfg.HeartbeatTopic, c.cfg.QoS, c.handleHeartbeatMessage); err != nil {
		c.client.Disconnect()
		return fmt.Errorf("subscribe failed for topic %s: %w", c.cfg.HeartbeatTopic, err)
	}
	c.subscriptions = append(c.subscriptions, c.cfg.HeartbeatTopic)

	logger.Info("Listening for MQTT heartbeats",
		zap.String("topic", c.cfg.HeartbeatTopic),
	)

	c.started = true
	return nil
}

// Stop unsubscribes and disconnects from the broker.
func (c *MQTTIngestionClient) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return
	}

	if len(c.subscriptions) > 0 {
		if err := c.client.Unsubscribe(c.subscriptions...); err != nil {
			logger.Warn("Failed to unsubscribe from MQTT topics", zap.Error(err))
		}
	}

	c.client.Disconnect()
	c.started = false
	c.subscriptions = nil
}

// handleHeartbeatMessage decodes a heartbeat payload and hands it to the
// processor.
func (c *MQTTIngestionClient) handleHeartbeatMessage(topic string, payload []byte) {
	msg, err := ParseHeartbeat(payload)
	if err != nil {
		logger.Warn("Invalid heartbeat payload",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return
	}

	c.processor.Enqueue(msg)
}
