// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/tremor_detector/internal/classifier"
	"github.com/relabs-tech/tremor_detector/internal/config"
	"github.com/relabs-tech/tremor_detector/internal/telemetry"
)

const (
	displayW = 128
	displayH = 64
	barTop   = 56
)

// DisplayData holds the latest events for the display.
type DisplayData struct {
	mu sync.RWMutex

	window     telemetry.WindowEvent
	haveWindow bool
	cal        telemetry.CalibrationEvent
	haveCal    bool
}

// displaySnapshot is a lock-free copy taken once per refresh.
type displaySnapshot struct {
	window     telemetry.WindowEvent
	haveWindow bool
	cal        telemetry.CalibrationEvent
	haveCal    bool
}

func (d *DisplayData) setWindow(ev telemetry.WindowEvent) {
	d.mu.Lock()
	d.window, d.haveWindow = ev, true
	d.mu.Unlock()
}

func (d *DisplayData) setCalibration(ev telemetry.CalibrationEvent) {
	d.mu.Lock()
	d.cal, d.haveCal = ev, true
	d.mu.Unlock()
}

func (d *DisplayData) snapshot() displaySnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return displaySnapshot{window: d.window, haveWindow: d.haveWindow, cal: d.cal, haveCal: d.haveCal}
}

// RunDisplay mirrors the detector's decisions on an SSD1306 OLED.
func RunDisplay(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := requireBroker(cfg, "display"); err != nil {
		return err
	}
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	logger.Info("display initialized", zap.String("bus", cfg.DisplayI2CBus))

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		logger.Warn("error showing splash", zap.Error(err))
	}

	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	logger.Info("connected to MQTT broker", zap.String("broker", cfg.MQTTBroker))

	data := &DisplayData{}
	onErr := func(err error) { logger.Warn("bad payload", zap.Error(err)) }
	if err := telemetry.SubscribeWindows(client, cfg.TopicWindow, data.setWindow, onErr); err != nil {
		return err
	}
	if err := telemetry.SubscribeCalibrations(client, cfg.TopicCalibration, data.setCalibration, onErr); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	logger.Info("starting update loop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := dev.Draw(dev.Bounds(), renderStatus(data.snapshot()), image.Point{}); err != nil {
				logger.Warn("error updating display", zap.Error(err))
			}
		}
	}
}

func newCanvas() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLine(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

func renderSplash() *image1bit.VerticalLSB {
	img, d := newCanvas()
	drawLine(d, 8, 26, "Tremor detector")
	drawLine(d, 8, 43, "Calibrating...")
	return img
}

// renderStatus draws the latest action, both levels and an intensity bar
// along the bottom rows.
func renderStatus(s displaySnapshot) *image1bit.VerticalLSB {
	img, d := newCanvas()

	if !s.haveWindow {
		title := "Waiting..."
		if s.haveCal {
			title = "Calibrated"
		}
		drawLine(d, 0, 26, title)
		if s.haveCal {
			drawLine(d, 0, 39, s.cal.Sensor)
		}
		return img
	}

	r := s.window.Report
	title := "no motion"
	switch r.Action {
	case classifier.ActionTremor:
		title = "TREMOR"
	case classifier.ActionDyskinesia:
		title = "DYSKINESIA"
	}
	drawLine(d, 0, 13, title)
	drawLine(d, 0, 26, fmt.Sprintf("T %.2f  D %.2f", r.Decision.LevelT, r.Decision.LevelD))
	drawLine(d, 0, 39, fmt.Sprintf("#%d k %d/%d", r.Window, r.Counters.Tremor, r.Counters.Dyskinesia))
	if s.window.MissedTicks > 0 {
		drawLine(d, 0, 52, fmt.Sprintf("missed %d", s.window.MissedTicks))
	}

	width := int(s.window.Command.Intensity * displayW)
	for y := barTop; y < displayH; y++ {
		for x := 0; x < width && x < displayW; x++ {
			img.Set(x, y, image1bit.On)
		}
	}
	return img
}
