// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 2 * time.Second

// Connect dials the broker with the given client id.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return client, nil
}

// mqttClient is the slice of mqtt.Client the publisher uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes events as retained JSON messages.
type MQTTPublisher struct {
	client           mqttClient
	topicWindow      string
	topicCalibration string
}

func NewMQTTPublisher(client mqttClient, topicWindow, topicCalibration string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topicWindow: topicWindow, topicCalibration: topicCalibration}
}

func (p *MQTTPublisher) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal (%s): %w", topic, err)
	}
	token := p.client.Publish(topic, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish (%s): timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish (%s): %w", topic, err)
	}
	return nil
}

func (p *MQTTPublisher) PublishCalibration(_ context.Context, ev CalibrationEvent) error {
	return p.publish(p.topicCalibration, ev)
}

func (p *MQTTPublisher) PublishWindow(_ context.Context, ev WindowEvent) error {
	return p.publish(p.topicWindow, ev)
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

// SubscribeWindows decodes every message on topic and hands it to fn.
// Undecodable payloads go to onErr when it is not nil.
func SubscribeWindows(client mqtt.Client, topic string, fn func(WindowEvent), onErr func(error)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		ev, err := DecodeWindow(msg.Payload())
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		fn(ev)
	})
	token.Wait()
	return token.Error()
}

// SubscribeCalibrations is SubscribeWindows for calibration events.
func SubscribeCalibrations(client mqtt.Client, topic string, fn func(CalibrationEvent), onErr func(error)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		ev, err := DecodeCalibration(msg.Payload())
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		fn(ev)
	})
	token.Wait()
	return token.Error()
}
