// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/a8m/envsubst"
	"github.com/docker/go-units"
)

// Source kinds.
const (
	SourceMock   = "mock"
	SourceSerial = "serial"
	SourceReplay = "replay"
)

// Shell kinds.
const (
	ShellTerminal = "terminal"
	ShellHeadless = "headless"
)

// DefaultPath is read when no config file is given on the command line.
const DefaultPath = "headtrack_config.txt"

// SSD1306Addr is the only I2C address the SSD1306 driver talks to.
const SSD1306Addr uint16 = 0x3C

// Config holds all application configuration values.
type Config struct {
	// Capture
	DataRoot     string
	TargetHz     float64
	MaxFileBytes int64
	MaxFileCount int

	// Source
	Source             string
	SerialPort         string
	SerialBaudRate     uint
	SourceStartTimeout time.Duration
	ReplayPath         string
	ReplayPaced        bool
	MockDeviceHz       float64

	// Shell
	Shell string

	// MQTT mirror (disabled when MQTTBroker is empty)
	MQTTBroker   string
	MQTTClientID string
	TopicPose    string
	MirrorRateHz float64

	// Web status (disabled when empty)
	WebServerAddr string

	// Run catalog (disabled when empty)
	CatalogPath string

	// Display
	DisplayEnabled        bool
	DisplayI2CBus         string
	DisplayI2CAddr        uint16
	DisplayUpdateInterval time.Duration

	// Diagnostics
	DiagLogPath string
	LogLevel    string
}

// Default returns the configuration used when a key is not set: poll at
// 300 Hz, keep ten 1 MiB log files under ./Data, read the mock tracker.
func Default() *Config {
	return &Config{
		DataRoot:     "Data",
		TargetHz:     300,
		MaxFileBytes: 1 << 20,
		MaxFileCount: 10,

		Source:             SourceMock,
		SerialPort:         "/dev/ttyUSB0",
		SerialBaudRate:     115200,
		SourceStartTimeout: 3 * time.Second,
		MockDeviceHz:       120,

		Shell: ShellTerminal,

		MQTTClientID: "headtrack-logger",
		TopicPose:    "headtrack/pose",
		MirrorRateHz: 30,

		DisplayI2CBus:         "",
		DisplayI2CAddr:        SSD1306Addr,
		DisplayUpdateInterval: 200 * time.Millisecond,

		LogLevel: "info",
	}
}

// Load reads the configuration file on top of the defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines. Values may reference environment variables
// as $VAR or ${VAR:-default}.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value, err := envsubst.String(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("config line %d: expand %s: %w", lineNum, key, err)
		}

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Capture
	case "DATA_ROOT":
		c.DataRoot = value
	case "TARGET_FREQUENCY_HZ":
		hz, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid TARGET_FREQUENCY_HZ %q: %w", value, err)
		}
		c.TargetHz = hz
	case "MAX_FILE_SIZE":
		size, err := units.RAMInBytes(value)
		if err != nil {
			return fmt.Errorf("invalid MAX_FILE_SIZE %q: %w", value, err)
		}
		c.MaxFileBytes = size
	case "MAX_FILE_COUNT":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MAX_FILE_COUNT %q: %w", value, err)
		}
		c.MaxFileCount = n

	// Source
	case "SOURCE":
		c.Source = strings.ToLower(value)
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = uint(rate)
	case "SOURCE_START_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SOURCE_START_TIMEOUT_MS %q: %w", value, err)
		}
		c.SourceStartTimeout = time.Duration(ms) * time.Millisecond
	case "REPLAY_PATH":
		c.ReplayPath = value
	case "REPLAY_PACED":
		paced, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid REPLAY_PACED %q: %w", value, err)
		}
		c.ReplayPaced = paced
	case "MOCK_DEVICE_HZ":
		hz, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MOCK_DEVICE_HZ %q: %w", value, err)
		}
		c.MockDeviceHz = hz

	// Shell
	case "SHELL":
		c.Shell = strings.ToLower(value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_POSE":
		c.TopicPose = value
	case "MIRROR_RATE_HZ":
		hz, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MIRROR_RATE_HZ %q: %w", value, err)
		}
		c.MirrorRateHz = hz

	// Web Server
	case "WEB_SERVER_ADDR":
		c.WebServerAddr = value

	// Catalog
	case "CATALOG_PATH":
		c.CatalogPath = value

	// Display
	case "DISPLAY_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = enabled
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = time.Duration(interval) * time.Millisecond

	// Diagnostics
	case "DIAG_LOG_PATH":
		c.DiagLogPath = value
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// Validate checks value ranges and the settings the chosen source needs.
// It runs again after command line overrides are applied.
func (c *Config) Validate() error {
	if c.DataRoot == "" {
		return fmt.Errorf("DATA_ROOT is required")
	}
	if c.TargetHz <= 0 {
		return fmt.Errorf("TARGET_FREQUENCY_HZ must be positive, got %v", c.TargetHz)
	}
	if c.MaxFileBytes < 0 {
		return fmt.Errorf("MAX_FILE_SIZE must not be negative, got %d", c.MaxFileBytes)
	}
	if c.MaxFileCount < 1 {
		return fmt.Errorf("MAX_FILE_COUNT must be at least 1, got %d", c.MaxFileCount)
	}

	switch c.Source {
	case SourceMock:
		if c.MockDeviceHz <= 0 {
			return fmt.Errorf("MOCK_DEVICE_HZ must be positive, got %v", c.MockDeviceHz)
		}
	case SourceSerial:
		if c.SerialPort == "" {
			return fmt.Errorf("SERIAL_PORT is required for the serial source")
		}
		if c.SerialBaudRate == 0 {
			return fmt.Errorf("SERIAL_BAUD_RATE is required for the serial source")
		}
	case SourceReplay:
		if c.ReplayPath == "" {
			return fmt.Errorf("REPLAY_PATH is required for the replay source")
		}
	default:
		return fmt.Errorf("SOURCE must be %s, %s or %s, got %q", SourceMock, SourceSerial, SourceReplay, c.Source)
	}

	switch c.Shell {
	case ShellTerminal, ShellHeadless:
	default:
		return fmt.Errorf("SHELL must be %s or %s, got %q", ShellTerminal, ShellHeadless, c.Shell)
	}

	if c.MQTTBroker != "" && c.TopicPose == "" {
		return fmt.Errorf("TOPIC_POSE is required when MQTT_BROKER is set")
	}
	if c.DisplayI2CAddr != SSD1306Addr {
		return fmt.Errorf("DISPLAY_I2C_ADDR must be 0x%02X, got 0x%02X", SSD1306Addr, c.DisplayI2CAddr)
	}
	if c.DisplayEnabled && c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive")
	}
	return nil
}
