// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/headtrack_logger/internal/config"
	"github.com/relabs-tech/headtrack_logger/internal/mirror"
)

// RunConsoleMQTT prints the poses a running logger mirrors on MQTT until
// ctx is done.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, out io.Writer, log *zap.SugaredLogger) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("console: MQTT_BROKER is not set")
	}
	if out == nil {
		out = os.Stdout
	}

	client, err := mirror.Connect(cfg.MQTTBroker, cfg.MQTTClientID+"-console", 5*time.Second)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Infof("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicPose, 0, consoleHandler(out, log))
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("console: subscribe %s: %w", cfg.TopicPose, err)
	}
	log.Infof("console: subscribed to %s", cfg.TopicPose)

	<-ctx.Done()
	log.Info("console: shutting down")
	return nil
}

// consoleHandler prints one line per mirrored pose. paho may call it from
// several goroutines.
func consoleHandler(out io.Writer, log *zap.SugaredLogger) mqtt.MessageHandler {
	var mu sync.Mutex
	return func(_ mqtt.Client, msg mqtt.Message) {
		var m mirror.Message
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Warnf("console: pose unmarshal error: %v", err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(out, formatMirrorMessage(m))
	}
}

func formatMirrorMessage(m mirror.Message) string {
	p := m.Pose
	return fmt.Sprintf(
		"[%s %7d ms] #%-8d ROLL=%7.2f PITCH=%7.2f YAW=%7.2f  X=%7.3f Y=%7.3f Z=%7.3f  logged=%d missed=%d",
		m.RunID, m.ElapsedMs, p.FrameID, p.Roll, p.Pitch, p.Yaw, p.X, p.Y, p.Z, m.Logged, m.Missed,
	)
}
