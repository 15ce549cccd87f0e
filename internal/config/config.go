// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultPath is the configuration file the cmd tools read when --config is not given.
const DefaultPath = "tremor_config.txt"

// ErrUnknownKey is returned for a config key that no field maps to.
var ErrUnknownKey = errors.New("unknown config key")

// Config holds all application configuration values.
type Config struct {
	// Sensor
	SensorKind   string // "lsm6dsl", "mpu9250", "serial" or "mock"
	I2CBus       string
	I2CAddr      uint16 // 0 = auto-detect
	IMUSPIDevice string
	IMUCSPin     string
	SerialPort   string
	SerialBaud   int

	// Sampling
	SampleRateHz       int
	WindowSamples      int
	FFTSize            int
	CalibrationWindows int
	CalibrationPauseMS int

	// Decision tuning
	StableWindows    int
	PeakToRMS        float64
	RMSFloorFraction float64
	AccTremorTh      float64 // g
	AccDyskTh        float64
	GyrTremorTh      float64 // dps
	GyrDyskTh        float64
	AccLevelScale    float64
	GyrLevelScale    float64
	AccLSB           float64 // LSB -> g
	GyrLSB           float64 // LSB -> dps

	// Actuation
	ActuationMode string // "independent" or "multiplexed"
	TremorBlinkHz float64
	DyskBlinkHz   float64
	LEDTremorPin  string
	LEDDyskPin    string
	LEDStatusPin  string
	LEDSharedPin  string

	// Diagnostics
	DebugRawEvery int
	LogLevel      string
	LogFormat     string

	// MQTT
	MQTTBroker           string
	MQTTClientIDDetector string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicWindow      string
	TopicCalibration string

	// History
	HistoryDB string

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot modify it without going through InitGlobal.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the parameter set the wrist firmware shipped with.
func Default() *Config {
	return &Config{
		SensorKind:   "lsm6dsl",
		IMUSPIDevice: "/dev/spidev0.0",
		IMUCSPin:     "8",
		SerialPort:   "/dev/ttyACM0",
		SerialBaud:   115200,

		SampleRateHz:       104,
		WindowSamples:      104,
		FFTSize:            256,
		CalibrationWindows: 5,
		CalibrationPauseMS: 100,

		StableWindows:    1,
		PeakToRMS:        1.5,
		RMSFloorFraction: 0.5,
		AccTremorTh:      0.10,
		AccDyskTh:        0.10,
		GyrTremorTh:      10.0,
		GyrDyskTh:        10.0,
		AccLevelScale:    0.5,
		GyrLevelScale:    100.0,
		AccLSB:           0.000061,
		GyrLSB:           0.00875,

		ActuationMode: "independent",
		TremorBlinkHz: 2,
		DyskBlinkHz:   5,

		DebugRawEvery: 50,
		LogLevel:      "info",
		LogFormat:     "json",

		MQTTClientIDDetector: "tremor-detector",
		MQTTClientIDConsole:  "tremor-console",
		MQTTClientIDWeb:      "tremor-web",
		MQTTClientIDDisplay:  "tremor-display",

		TopicWindow:      "tremor/window",
		TopicCalibration: "tremor/calibration",

		WebServerPort:         8080,
		DisplayUpdateInterval: 500,
	}
}

// Load reads the configuration file and returns a Config struct.
// Keys absent from the file keep their Default() values.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines from r on top of Default().
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

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Set applies one KEY=VALUE override, such as a command-line flag, with the
// same checks as a line of the config file.
func (c *Config) Set(key, value string) error {
	if err := c.setValue(key, value); err != nil {
		return err
	}
	return c.validate()
}

// Clone returns a copy that can be changed without touching c.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func parseInt(key, value string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, lo, hi, v)
	}
	return v, nil
}

func parsePositiveFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %g", key, v)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// Sensor
	case "SENSOR_KIND":
		switch value {
		case "lsm6dsl", "mpu9250", "serial", "mock":
			c.SensorKind = value
		default:
			return fmt.Errorf("SENSOR_KIND must be lsm6dsl, mpu9250, serial or mock, got %q", value)
		}
	case "I2C_BUS":
		c.I2CBus = value
	case "I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 16)
		if perr != nil {
			return fmt.Errorf("invalid I2C_ADDR %q: %w", value, perr)
		}
		if addr > 0x7F {
			return fmt.Errorf("I2C_ADDR must be a 7-bit address, got 0x%X", addr)
		}
		c.I2CAddr = uint16(addr)
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		c.SerialBaud, err = parseInt(key, value, 1200, 4000000)

	// Sampling
	case "SAMPLE_RATE_HZ":
		c.SampleRateHz, err = parseInt(key, value, 1, 10000)
	case "WINDOW_SAMPLES":
		c.WindowSamples, err = parseInt(key, value, 1, 1<<16)
	case "FFT_SIZE":
		c.FFTSize, err = parseInt(key, value, 2, 1<<16)
	case "CALIBRATION_WINDOWS":
		c.CalibrationWindows, err = parseInt(key, value, 1, 1000)
	case "CALIBRATION_PAUSE_MS":
		c.CalibrationPauseMS, err = parseInt(key, value, 0, 60000)

	// Decision tuning
	case "STABLE_WINDOWS":
		c.StableWindows, err = parseInt(key, value, 1, 1000)
	case "PEAK_TO_RMS":
		c.PeakToRMS, err = parsePositiveFloat(key, value)
	case "RMS_FLOOR_FRACTION":
		c.RMSFloorFraction, err = strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid RMS_FLOOR_FRACTION %q: %w", value, err)
		}
		if c.RMSFloorFraction < 0 || c.RMSFloorFraction > 1 {
			return fmt.Errorf("RMS_FLOOR_FRACTION must be 0-1, got %g", c.RMSFloorFraction)
		}
	case "ACC_TREMOR_TH":
		c.AccTremorTh, err = parsePositiveFloat(key, value)
	case "ACC_DYSK_TH":
		c.AccDyskTh, err = parsePositiveFloat(key, value)
	case "GYR_TREMOR_TH":
		c.GyrTremorTh, err = parsePositiveFloat(key, value)
	case "GYR_DYSK_TH":
		c.GyrDyskTh, err = parsePositiveFloat(key, value)
	case "ACC_LEVEL_SCALE":
		c.AccLevelScale, err = parsePositiveFloat(key, value)
	case "GYR_LEVEL_SCALE":
		c.GyrLevelScale, err = parsePositiveFloat(key, value)
	case "ACC_LSB":
		c.AccLSB, err = parsePositiveFloat(key, value)
	case "GYR_LSB":
		c.GyrLSB, err = parsePositiveFloat(key, value)

	// Actuation
	case "ACTUATION_MODE":
		if value != "independent" && value != "multiplexed" {
			return fmt.Errorf("ACTUATION_MODE must be independent or multiplexed, got %q", value)
		}
		c.ActuationMode = value
	case "TREMOR_BLINK_HZ":
		c.TremorBlinkHz, err = parsePositiveFloat(key, value)
	case "DYSK_BLINK_HZ":
		c.DyskBlinkHz, err = parsePositiveFloat(key, value)
	case "LED_TREMOR_PIN":
		c.LEDTremorPin = value
	case "LED_DYSK_PIN":
		c.LEDDyskPin = value
	case "LED_STATUS_PIN":
		c.LEDStatusPin = value
	case "LED_SHARED_PIN":
		c.LEDSharedPin = value

	// Diagnostics
	case "DEBUG_RAW_EVERY":
		c.DebugRawEvery, err = parseInt(key, value, 0, 1<<16)
	case "LOG_LEVEL":
		c.LogLevel = value
	case "LOG_FORMAT":
		c.LogFormat = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_DETECTOR":
		c.MQTTClientIDDetector = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_WINDOW":
		c.TopicWindow = value
	case "TOPIC_CALIBRATION":
		c.TopicCalibration = value

	// History
	case "HISTORY_DB":
		c.HistoryDB = value

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value, 1, 65535)

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value, 10, 60000)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	return err
}

// validate checks cross-field constraints.
func (c *Config) validate() error {
	if c.WindowSamples > c.FFTSize {
		return fmt.Errorf("WINDOW_SAMPLES (%d) must not exceed FFT_SIZE (%d)", c.WindowSamples, c.FFTSize)
	}
	if c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("FFT_SIZE must be a power of two, got %d", c.FFTSize)
	}
	// The 7 Hz band edge plus the two RMS guard bins must fit in the spectrum.
	i7 := int(float64(7*c.FFTSize)/float64(c.SampleRateHz) + 0.5)
	if i7+2 >= c.FFTSize/2 {
		return fmt.Errorf("SAMPLE_RATE_HZ %d too low for FFT_SIZE %d: 7 Hz band exceeds spectrum", c.SampleRateHz, c.FFTSize)
	}
	if c.SensorKind == "serial" && c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required when SENSOR_KIND=serial")
	}
	if c.TopicWindow == "" || c.TopicCalibration == "" {
		return fmt.Errorf("TOPIC_WINDOW and TOPIC_CALIBRATION are required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
