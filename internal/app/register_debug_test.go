// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
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

	"github.com/relabs-tech/tremor_detector/internal/sensors"
)

// fakeDevice is a register file with a small map.
type fakeDevice struct {
	regs    map[byte]byte
	failing bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{regs: map[byte]byte{0x0F: 0x6A, 0x10: 0x40, 0x1E: 0x07}}
}

func (f *fakeDevice) ReadRegister(reg byte) (byte, error) {
	if f.failing {
		return 0, errors.New("nack")
	}
	return f.regs[reg], nil
}

func (f *fakeDevice) WriteRegister(reg, value byte) error {
	f.regs[reg] = value
	return nil
}

func (f *fakeDevice) RegisterMap() []sensors.RegisterInfo {
	return []sensors.RegisterInfo{
		{Address: "0x0F", Name: "WHO_AM_I", Access: "R", Default: "0x6A"},
		{Address: "0x10", Name: "CTRL1_XL", Access: "RW"},
		{Address: "0x1E", Name: "STATUS_REG", Access: "R"},
	}
}

func newTestDebugger(t *testing.T, dev *fakeDevice) *RegisterDebugger {
	rd := NewRegisterDebugger(dev, "lsm6dsl", zaptest.NewLogger(t))
	rd.now = func() time.Time { return time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC) }
	return rd
}

func TestRegisterDebuggerHandle(t *testing.T) {
	dev := newFakeDevice()
	rd := newTestDebugger(t, dev)

	tests := []struct {
		name    string
		cmd     RegisterCmd
		typ     string
		value   string
		message string
	}{
		{"read", RegisterCmd{Action: "read", Address: "0x0F"}, "register_data", "0x6A", ""},
		{"read decimal address", RegisterCmd{Action: "read", Address: "16"}, "register_data", "0x40", ""},
		{"bad address", RegisterCmd{Action: "read", Address: "0xZZ"}, "error", "", "invalid address format"},
		{"write", RegisterCmd{Action: "write", Address: "0x10", Value: "0x60"}, "register_data", "0x60", "write successful"},
		{"write read-only", RegisterCmd{Action: "write", Address: "0x0F", Value: "0x00"}, "error", "", "not writable"},
		{"write unmapped", RegisterCmd{Action: "write", Address: "0x7F", Value: "0x00"}, "error", "", "not writable"},
		{"bad value", RegisterCmd{Action: "write", Address: "0x10", Value: "0x100"}, "error", "", "invalid value format"},
		{"missing action", RegisterCmd{}, "error", "", "missing action"},
		{"unknown action", RegisterCmd{Action: "set_spi_speed"}, "error", "", "unknown action: set_spi_speed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := rd.Handle(tt.cmd)
			assert.Equal(t, tt.typ, resp.Type)
			assert.Equal(t, tt.value, resp.Value)
			assert.Contains(t, resp.Message, tt.message)
		})
	}

	assert.Equal(t, byte(0x60), dev.regs[0x10])
	assert.Equal(t, byte(0x6A), dev.regs[0x0F])
}

func TestRegisterDebuggerReadAllAndExport(t *testing.T) {
	dev := newFakeDevice()
	rd := newTestDebugger(t, dev)

	resp := rd.Handle(RegisterCmd{Action: "read_all"})
	assert.Equal(t, map[string]string{"0x0F": "0x6A", "0x10": "0x40", "0x1E": "0x07"}, resp.Registers)

	resp = rd.Handle(RegisterCmd{Action: "export_config"})
	require.Equal(t, "export_config", resp.Type)
	assert.Equal(t, "lsm6dsl_20260301_123000_registers.json", resp.Filename)

	var file RegisterConfigFile
	require.NoError(t, json.Unmarshal([]byte(resp.Config), &file))
	assert.Equal(t, 1, file.Version)
	assert.Equal(t, "2026-03-01T12:30:00Z", file.Timestamp)
	assert.Equal(t, "0x40", file.Registers["0x10"])

	dev.failing = true
	resp = rd.Handle(RegisterCmd{Action: "read_all"})
	assert.Equal(t, "error", resp.Type)
	assert.Contains(t, resp.Message, "WHO_AM_I")
}

func TestRegisterDebuggerWebsocket(t *testing.T) {
	rd := newTestDebugger(t, newFakeDevice())
	ts := httptest.NewServer(rd.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var resp RegisterResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "register_map", resp.Type)
	assert.Equal(t, "lsm6dsl", resp.Device)
	require.Len(t, resp.RegisterMap, 3)

	require.NoError(t, conn.WriteJSON(RegisterCmd{Action: "read", Address: "0x1E"}))
	resp = RegisterResponse{}
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "0x1E", resp.Address)
	assert.Equal(t, "0x07", resp.Value)

	page, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer page.Body.Close()
	assert.Equal(t, http.StatusOK, page.StatusCode)
}

func TestDumpRegisters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DumpRegisters(&buf, newFakeDevice()))
	assert.Equal(t,
		"0x0F WHO_AM_I     0x6A\n"+
			"0x10 CTRL1_XL     0x40\n"+
			"0x1E STATUS_REG   0x07\n",
		buf.String())
}
