// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mirror republishes accepted tracker samples on MQTT.
package mirror

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/relabs-tech/headtrack_logger/internal/capture"
	"github.com/relabs-tech/headtrack_logger/internal/pose"
)

// Message is the JSON payload published for each mirrored sample.
type Message struct {
	Session   string      `json:"session"`
	RunID     string      `json:"run_id"`
	ElapsedMs uint64      `json:"elapsed_ms"`
	Pose      pose.Sample `json:"pose"`
	Logged    uint64      `json:"logged"`
	Missed    uint64      `json:"missed"`
}

// Client is the part of mqtt.Client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Options configure a Publisher.
type Options struct {
	Topic   string
	Session string
	RunID   string
	// RateHz caps the publish rate. Zero or less publishes every sample.
	RateHz float64
	Logger *zap.SugaredLogger
}

// Publisher is a capture.Listener. Publishing never blocks the loop:
// samples over the rate limit are dropped and delivery is checked in the
// background.
type Publisher struct {
	client  Client
	opts    Options
	limiter *rate.Limiter
	log     *zap.SugaredLogger

	published atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewPublisher wraps an already connected client.
func NewPublisher(client Client, opts Options) *Publisher {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	limit := rate.Inf
	if opts.RateHz > 0 {
		limit = rate.Limit(opts.RateHz)
	}
	return &Publisher{
		client:  client,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		log:     opts.Logger,
	}
}

// OnRecord implements capture.Listener.
func (p *Publisher) OnRecord(r capture.Record) {
	if !p.limiter.Allow() {
		p.dropped.Add(1)
		return
	}

	payload, err := json.Marshal(Message{
		Session:   p.opts.Session,
		RunID:     p.opts.RunID,
		ElapsedMs: r.ElapsedMs,
		Pose:      r.Sample,
		Logged:    r.Stats.Logged,
		Missed:    r.Stats.Missed,
	})
	if err != nil {
		p.log.Warnf("pose JSON marshal error: %v", err)
		return
	}

	token := p.client.Publish(p.opts.Topic, 0, false, payload)
	p.published.Add(1)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			p.failed.Add(1)
			p.log.Debugf("pose publish error: %v", err)
		}
	}()
}

// Counts returns how many samples were handed to the client, skipped by
// the rate limit, and reported as failed by the broker.
func (p *Publisher) Counts() (published, dropped, failed uint64) {
	return p.published.Load(), p.dropped.Load(), p.failed.Load()
}

// Connect opens an MQTT connection and waits for it to be established.
func Connect(broker, clientID string, timeout time.Duration) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mirror: connect to %s timed out after %v", broker, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mirror: connect to %s: %w", broker, err)
	}
	return client, nil
}
