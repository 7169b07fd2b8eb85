package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/benmeehan/telemetry-agent/internal/models"
	"github.com/benmeehan/telemetry-agent/pkg/mqtt"
	"github.com/benmeehan/telemetry-agent/pkg/sensor"
	"github.com/benmeehan/telemetry-agent/pkg/signalk"
)

// Output receives every new sensor reading seen by the consumer.
type Output interface {
	Name() string
	Write(r sensor.Reading) error
}

// DeltaSender is the part of a Signal K stream used to forward readings.
type DeltaSender interface {
	SendDelta(d signalk.Delta) error
}

// SignalKOutput forwards readings as Signal K deltas.
type SignalKOutput struct {
	stream DeltaSender
	label  string
}

// NewSignalKOutput creates an output writing to stream, labelling updates
// with label.
func NewSignalKOutput(stream DeltaSender, label string) *SignalKOutput {
	return &SignalKOutput{stream: stream, label: label}
}

func (o *SignalKOutput) Name() string {
	return "signalk"
}

func (o *SignalKOutput) Write(r sensor.Reading) error {
	return o.stream.SendDelta(signalk.NewDelta(o.label, r.Path, r.Value, r.Timestamp))
}

// MQTTOutput mirrors readings to an MQTT broker, one topic per sensor path.
type MQTTOutput struct {
	client   mqtt.MQTTClient
	topic    string
	qos      byte
	clientID string
	timeout  time.Duration
}

// NewMQTTOutput creates an output publishing under topic/<path>.
func NewMQTTOutput(client mqtt.MQTTClient, topic string, qos int, clientID string) *MQTTOutput {
	return &MQTTOutput{
		client:   client,
		topic:    strings.TrimRight(topic, "/"),
		qos:      byte(qos),
		clientID: clientID,
		timeout:  5 * time.Second,
	}
}

func (o *MQTTOutput) Name() string {
	return "mqtt"
}

func (o *MQTTOutput) Write(r sensor.Reading) error {
	payload, err := json.Marshal(models.Reading{
		ClientID:  o.clientID,
		Path:      r.Path,
		Value:     r.Value,
		Timestamp: r.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize reading: %w", err)
	}

	token := o.client.Publish(o.topic+"/"+r.Path, o.qos, false, payload)
	if !token.WaitTimeout(o.timeout) {
		return fmt.Errorf("timed out publishing %s", r.Path)
	}
	return token.Error()
}
