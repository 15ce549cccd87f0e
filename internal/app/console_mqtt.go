// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/relabs-tech/tremor_detector/internal/classifier"
	"github.com/relabs-tech/tremor_detector/internal/config"
	"github.com/relabs-tech/tremor_detector/internal/telemetry"
)

var (
	colorTremor = lipgloss.Color("#FF5F00")
	colorDysk   = lipgloss.Color("#AF5FFF")
	colorQuiet  = lipgloss.Color("#5F875F")
	colorDim    = lipgloss.Color("#808080")

	styleTag = lipgloss.NewStyle().Bold(true).Width(12)

	styleTremor = styleTag.Foreground(colorTremor)
	styleDysk   = styleTag.Foreground(colorDysk)
	styleQuiet  = styleTag.Foreground(colorQuiet)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleCal    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00AFFF"))
)

// Console prints detector events as they arrive, one line per window.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// NewConsole writes to out. verbose adds the per-channel feature lines.
func NewConsole(out io.Writer, verbose bool) *Console {
	return &Console{out: out, verbose: verbose}
}

// OnCalibration prints the session header.
func (c *Console) OnCalibration(ev telemetry.CalibrationEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := ev.Baseline
	fmt.Fprintf(c.out, "%s session=%s sensor=%s bins=%d/%d/%d\n",
		styleCal.Render("[CAL]"), ev.Session, ev.Sensor, ev.Bands.I3, ev.Bands.I5, ev.Bands.I7)
	fmt.Fprintf(c.out, "      acc=[%.3f %.3f %.3f] g  gyr=[%.3f %.3f %.3f] dps  roll=%.1f pitch=%.1f\n",
		b.Accel[0], b.Accel[1], b.Accel[2], b.Gyro[0], b.Gyro[1], b.Gyro[2], ev.Mount.Roll, ev.Mount.Pitch)
}

// OnWindow prints the decision line for one window.
func (c *Console) OnWindow(ev telemetry.WindowEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out, FormatWindow(ev))
	if !c.verbose {
		return
	}
	for _, cr := range ev.Report.Channels {
		fmt.Fprintln(c.out, styleDim.Render("      "+telemetry.ChannelSummary(cr)))
	}
}

func (c *Console) PublishCalibration(_ context.Context, ev telemetry.CalibrationEvent) error {
	c.OnCalibration(ev)
	return nil
}

func (c *Console) PublishWindow(_ context.Context, ev telemetry.WindowEvent) error {
	c.OnWindow(ev)
	return nil
}

func (c *Console) Close() error { return nil }

// FormatWindow renders the one-line summary of a window event.
func FormatWindow(ev telemetry.WindowEvent) string {
	r := ev.Report

	var tag string
	switch r.Action {
	case classifier.ActionTremor:
		tag = styleTremor.Render("TREMOR")
	case classifier.ActionDyskinesia:
		tag = styleDysk.Render("DYSKINESIA")
	default:
		tag = styleQuiet.Render("none")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%6d] %s T=%.2f D=%.2f k=%d/%d", r.Window, tag,
		r.Decision.LevelT, r.Decision.LevelD, r.Counters.Tremor, r.Counters.Dyskinesia)
	if !ev.Command.Off() {
		fmt.Fprintf(&b, " led=%.0f%%@%.1fHz", ev.Command.Intensity*100, ev.Command.BlinkHz)
	}
	if ev.MissedTicks > 0 || r.ReadRetries > 0 {
		b.WriteString(styleDim.Render(fmt.Sprintf(" missed=%d retries=%d", ev.MissedTicks, r.ReadRetries)))
	}
	return b.String()
}

// RunConsoleMQTT subscribes to the detector topics and prints every event
// until ctx is cancelled.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := requireBroker(cfg, "console_mqtt"); err != nil {
		return err
	}
	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	logger.Info("connected to MQTT broker", zap.String("broker", cfg.MQTTBroker))

	console := NewConsole(os.Stdout, logger.Core().Enabled(zap.DebugLevel))
	onErr := func(err error) { logger.Warn("bad payload", zap.Error(err)) }

	if err := telemetry.SubscribeCalibrations(client, cfg.TopicCalibration, console.OnCalibration, onErr); err != nil {
		return err
	}
	logger.Info("subscribed", zap.String("topic", cfg.TopicCalibration))

	if err := telemetry.SubscribeWindows(client, cfg.TopicWindow, console.OnWindow, onErr); err != nil {
		return err
	}
	logger.Info("subscribed", zap.String("topic", cfg.TopicWindow))

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
