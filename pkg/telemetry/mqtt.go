// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Thermoquad/boilerstat/pkg/logger"
)

const (
	mqttConnectRetry   = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
	mqttQuiesceMillis  = 250
)

// MQTTOptions configure the broker connection
type MQTTOptions struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
}

// Publisher is the subset of mqtt.Client used by MQTTSink
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTSink publishes retained readings to <prefix>/sensor/<kind> and
// <prefix>/binary_sensor/<kind>. Publishing never waits on the broker.
type MQTTSink struct {
	client Publisher
	prefix string
	log    logger.Logger
}

var _ Sink = (*MQTTSink)(nil)

// NewMQTTSink starts connecting to the broker and returns without waiting.
// The client connects and reconnects in the background; readings published
// before the first connection are dropped.
func NewMQTTSink(opts MQTTOptions, log logger.Logger) (*MQTTSink, error) {
	if opts.Broker == "" {
		return nil, fmt.Errorf("mqtt broker not configured")
	}

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	if opts.Username != "" {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
	}
	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetOnConnectHandler(func(mqtt.Client) {
		log.Info("connected to mqtt broker", "broker", opts.Broker)
	})
	co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost", "error", err)
	})

	co.SetConnectRetryInterval(mqttConnectRetry)

	client := mqtt.NewClient(co)
	token := client.Connect()
	// with connect retry the token only completes once a connection is made
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Warn("mqtt connect failed", "error", token.Error())
		}
	}()

	return NewMQTTSinkWithClient(client, opts.TopicPrefix, log), nil
}

// NewMQTTSinkWithClient wraps an existing client
func NewMQTTSinkWithClient(client Publisher, prefix string, log logger.Logger) *MQTTSink {
	return &MQTTSink{
		client: client,
		prefix: strings.TrimSuffix(prefix, "/"),
		log:    log,
	}
}

func (s *MQTTSink) PublishSensor(kind SensorKind, value float64) {
	s.publish(s.prefix+"/sensor/"+string(kind), strconv.FormatFloat(value, 'f', -1, 64))
}

func (s *MQTTSink) PublishBinarySensor(kind BinarySensorKind, value bool) {
	payload := "OFF"
	if value {
		payload = "ON"
	}
	s.publish(s.prefix+"/binary_sensor/"+string(kind), payload)
}

func (s *MQTTSink) publish(topic, payload string) {
	token := s.client.Publish(topic, 0, true, payload)
	go func() {
		if token.WaitTimeout(mqttPublishTimeout) && token.Error() != nil {
			s.log.Warn("mqtt publish failed", "topic", topic, "error", token.Error())
		}
	}()
}

// Close disconnects from the broker
func (s *MQTTSink) Close() {
	s.client.Disconnect(mqttQuiesceMillis)
}
