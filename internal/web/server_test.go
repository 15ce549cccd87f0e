// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/relabs-tech/tremor_detector/internal/classifier"
	"github.com/relabs-tech/tremor_detector/internal/telemetry"
)

type fakeHistory struct {
	rows  []telemetry.HistoryRow
	err   error
	limit int
}

func (f *fakeHistory) Recent(_ context.Context, n int) ([]telemetry.HistoryRow, error) {
	f.limit = n
	return f.rows, f.err
}

func newTestServer(t *testing.T, history HistorySource) (*Server, *httptest.Server) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	s := NewServer(NewHub(logger), history, logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func window(n uint64, a classifier.Action) telemetry.WindowEvent {
	return telemetry.WindowEvent{
		Session: "s1",
		Time:    time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		Report:  classifier.Report{Window: n, Action: a},
	}
}

func TestDecisionEndpoint(t *testing.T) {
	s, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/decision")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	s.OnWindow(window(4, classifier.ActionDyskinesia))

	resp, err = http.Get(ts.URL + "/api/decision")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got telemetry.WindowEvent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, uint64(4), got.Report.Window)
	assert.Equal(t, classifier.ActionDyskinesia, got.Report.Action)
}

func TestCalibrationEndpoint(t *testing.T) {
	s, ts := newTestServer(t, nil)
	s.OnCalibration(telemetry.CalibrationEvent{Session: "s1", Sensor: "mock"})

	resp, err := http.Get(ts.URL + "/api/calibration")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got telemetry.CalibrationEvent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "mock", got.Sensor)
}

func TestHistoryEndpoint(t *testing.T) {
	h := &fakeHistory{rows: []telemetry.HistoryRow{{Session: "s1", Window: 9, Action: "tremor"}}}
	_, ts := newTestServer(t, h)

	resp, err := http.Get(ts.URL + "/api/history?limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 10, h.limit)

	var rows []telemetry.HistoryRow
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "tremor", rows[0].Action)

	for _, q := range []string{"limit=0", "limit=x", "limit=999999"} {
		resp, err := http.Get(ts.URL + "/api/history?" + q)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}

	h.err = errors.New("disk full")
	resp2, err := http.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp2.StatusCode)
	assert.Equal(t, defaultHistory, h.limit)
}

func TestHistoryDisabled(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIndexServed(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebsocketFeed(t *testing.T) {
	s, ts := newTestServer(t, nil)

	// A window published before the client connects is replayed on connect.
	s.OnWindow(window(1, classifier.ActionNone))

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() telemetry.WindowEvent {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev telemetry.WindowEvent
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}
	assert.Equal(t, uint64(1), read().Report.Window)

	require.Eventually(t, func() bool { return s.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	s.OnWindow(window(2, classifier.ActionTremor))
	ev := read()
	assert.Equal(t, uint64(2), ev.Report.Window)
	assert.Equal(t, classifier.ActionTremor, ev.Report.Action)

	conn.Close()
	assert.Eventually(t, func() bool { return s.hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}
