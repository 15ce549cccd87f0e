// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/tremor_detector/internal/config"
	"github.com/relabs-tech/tremor_detector/internal/telemetry"
	"github.com/relabs-tech/tremor_detector/internal/web"
)

// RunWeb serves the dashboard fed from the detector's MQTT topics. History
// is read from the detector's database when one is configured.
func RunWeb(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := requireBroker(cfg, "web"); err != nil {
		return err
	}

	var history web.HistorySource
	if cfg.HistoryDB != "" {
		rec, err := telemetry.OpenRecorder(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer rec.Close()
		history = rec
	}

	srv := web.NewServer(web.NewHub(logger), history, logger)

	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	logger.Info("connected to MQTT broker", zap.String("broker", cfg.MQTTBroker))

	onErr := func(err error) { logger.Warn("bad payload", zap.Error(err)) }
	if err := telemetry.SubscribeCalibrations(client, cfg.TopicCalibration, srv.OnCalibration, onErr); err != nil {
		return err
	}
	if err := telemetry.SubscribeWindows(client, cfg.TopicWindow, srv.OnWindow, onErr); err != nil {
		return err
	}
	logger.Info("subscribed", zap.String("window", cfg.TopicWindow), zap.String("calibration", cfg.TopicCalibration))

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return serve(ctx, httpSrv, logger)
}

// serve runs s until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, s *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("web server listening", zap.String("addr", s.Addr))
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
