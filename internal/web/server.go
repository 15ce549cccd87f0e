// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package web serves the live dashboard: the latest decision, recent
// history and a websocket feed of window events.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/relabs-tech/tremor_detector/internal/telemetry"
)

//go:embed static
var staticFiles embed.FS

const (
	defaultHistory = 100
	maxHistory     = 5000
)

// HistorySource is the part of telemetry.Recorder the server reads.
type HistorySource interface {
	Recent(ctx context.Context, n int) ([]telemetry.HistoryRow, error)
}

// Server holds the latest events and serves them over HTTP.
type Server struct {
	hub     *Hub
	history HistorySource
	logger  *zap.Logger

	mu          sync.RWMutex
	window      *telemetry.WindowEvent
	calibration *telemetry.CalibrationEvent
}

// NewServer builds a server. history may be nil when no database is configured.
func NewServer(hub *Hub, history HistorySource, logger *zap.Logger) *Server {
	return &Server{hub: hub, history: history, logger: logger}
}

// OnWindow stores ev as the latest decision and pushes it to websocket clients.
func (s *Server) OnWindow(ev telemetry.WindowEvent) {
	s.mu.Lock()
	s.window = &ev
	s.mu.Unlock()

	if err := s.hub.Broadcast(ev); err != nil {
		s.logger.Warn("broadcast window", zap.Error(err))
	}
}

// OnCalibration stores the session's calibration.
func (s *Server) OnCalibration(ev telemetry.CalibrationEvent) {
	s.mu.Lock()
	s.calibration = &ev
	s.mu.Unlock()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/decision", s.handleDecision)
	mux.HandleFunc("/api/calibration", s.handleCalibration)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.Handle("/ws", s.hub)

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("/", http.FileServer(http.FS(static)))
	return mux
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ev := s.window
	s.mu.RUnlock()

	if ev == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, ev)
}

func (s *Server) handleCalibration(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ev := s.calibration
	s.mu.RUnlock()

	if ev == nil {
		http.Error(w, "not calibrated yet", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, ev)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}

	limit := defaultHistory
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistory {
			http.Error(w, "limit must be 1-5000", http.StatusBadRequest)
			return
		}
		limit = n
	}

	rows, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("history query", zap.Error(err))
		http.Error(w, "history query failed", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []telemetry.HistoryRow{}
	}
	s.writeJSON(w, rows)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("json encode", zap.Error(err))
	}
}
