// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/tremor_detector/internal/config"
	"github.com/relabs-tech/tremor_detector/internal/sensors"
)

//go:embed register_debug.html
var registerDebugPage []byte

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RegisterCmd is a request from the register debug page.
type RegisterCmd struct {
	Action  string `json:"action"` // "get_map", "read", "read_all", "write", "export_config"
	Address string `json:"addr,omitempty"`
	Value   string `json:"value,omitempty"`
}

// RegisterResponse is every message the debugger sends back.
type RegisterResponse struct {
	Type        string                 `json:"type"` // "register_data", "register_map", "export_config", "error"
	Device      string                 `json:"device,omitempty"`
	Address     string                 `json:"addr,omitempty"`
	Value       string                 `json:"value,omitempty"`
	Registers   map[string]string      `json:"registers,omitempty"`
	Timestamp   string                 `json:"timestamp,omitempty"`
	Message     string                 `json:"message,omitempty"`
	RegisterMap []sensors.RegisterInfo `json:"register_map,omitempty"`
	Config      string                 `json:"config,omitempty"`
	Filename    string                 `json:"filename,omitempty"`
}

// RegisterConfigFile is the exported register snapshot.
type RegisterConfigFile struct {
	Version   int               `json:"version"`
	Device    string            `json:"device"`
	Timestamp string            `json:"timestamp"`
	Registers map[string]string `json:"registers"` // hex address -> hex value
}

// RegisterDebugger exposes raw register access to one device over a
// websocket. Writes are limited to registers the map marks writable.
type RegisterDebugger struct {
	dev    sensors.RegisterAccess
	device string
	logger *zap.Logger
	now    func() time.Time
}

func NewRegisterDebugger(dev sensors.RegisterAccess, device string, logger *zap.Logger) *RegisterDebugger {
	return &RegisterDebugger{dev: dev, device: device, logger: logger, now: time.Now}
}

// Handler serves the debug page on / and the session on /ws.
func (rd *RegisterDebugger) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", rd.ServeWS)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(registerDebugPage)
	})
	return mux
}

// ServeWS runs one debug session. The register map is sent on connect.
func (rd *RegisterDebugger) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		rd.logger.Warn("websocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(rd.registerMap()); err != nil {
		rd.logger.Warn("error sending register map", zap.Error(err))
		return
	}

	for {
		var cmd RegisterCmd
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				rd.logger.Warn("websocket error", zap.Error(err))
			}
			return
		}
		if err := conn.WriteJSON(rd.Handle(cmd)); err != nil {
			rd.logger.Warn("websocket write error", zap.Error(err))
			return
		}
	}
}

// Handle executes one command and builds its reply.
func (rd *RegisterDebugger) Handle(cmd RegisterCmd) RegisterResponse {
	switch cmd.Action {
	case "get_map":
		return rd.registerMap()
	case "read":
		return rd.read(cmd)
	case "read_all":
		return rd.readAll()
	case "write":
		return rd.write(cmd)
	case "export_config":
		return rd.export()
	case "":
		return errorResponse("missing action field")
	}
	return errorResponse(fmt.Sprintf("unknown action: %s", cmd.Action))
}

func (rd *RegisterDebugger) registerMap() RegisterResponse {
	return RegisterResponse{Type: "register_map", Device: rd.device, RegisterMap: rd.dev.RegisterMap()}
}

func (rd *RegisterDebugger) read(cmd RegisterCmd) RegisterResponse {
	addr, err := sensors.ParseHexByte(cmd.Address)
	if err != nil {
		return errorResponse(fmt.Sprintf("invalid address format: %s", cmd.Address))
	}
	v, err := rd.dev.ReadRegister(addr)
	if err != nil {
		return errorResponse(fmt.Sprintf("read error: %v", err))
	}
	return RegisterResponse{
		Type:      "register_data",
		Device:    rd.device,
		Address:   hexByte(addr),
		Value:     hexByte(v),
		Timestamp: rd.now().Format(time.RFC3339),
	}
}

func (rd *RegisterDebugger) readAll() RegisterResponse {
	regs, err := sensors.ReadAll(rd.dev)
	if err != nil {
		return errorResponse(fmt.Sprintf("read all error: %v", err))
	}
	return RegisterResponse{
		Type:      "register_data",
		Device:    rd.device,
		Registers: hexMap(regs),
		Timestamp: rd.now().Format(time.RFC3339),
	}
}

func (rd *RegisterDebugger) write(cmd RegisterCmd) RegisterResponse {
	addr, err := sensors.ParseHexByte(cmd.Address)
	if err != nil {
		return errorResponse(fmt.Sprintf("invalid address format: %s", cmd.Address))
	}
	v, err := sensors.ParseHexByte(cmd.Value)
	if err != nil {
		return errorResponse(fmt.Sprintf("invalid value format: %s", cmd.Value))
	}
	if !sensors.Writable(rd.dev.RegisterMap(), addr) {
		return errorResponse(fmt.Sprintf("register %s is not writable", hexByte(addr)))
	}
	if err := rd.dev.WriteRegister(addr, v); err != nil {
		return errorResponse(fmt.Sprintf("write error: %v", err))
	}
	rd.logger.Info("register written", zap.String("addr", hexByte(addr)), zap.String("value", hexByte(v)))
	return RegisterResponse{
		Type:      "register_data",
		Device:    rd.device,
		Address:   hexByte(addr),
		Value:     hexByte(v),
		Timestamp: rd.now().Format(time.RFC3339),
		Message:   "write successful",
	}
}

func (rd *RegisterDebugger) export() RegisterResponse {
	regs, err := sensors.ReadAll(rd.dev)
	if err != nil {
		return errorResponse(fmt.Sprintf("export error: %v", err))
	}
	now := rd.now()
	file := RegisterConfigFile{
		Version:   1,
		Device:    rd.device,
		Timestamp: now.Format(time.RFC3339),
		Registers: hexMap(regs),
	}
	b, err := json.Marshal(file)
	if err != nil {
		return errorResponse(fmt.Sprintf("export error: %v", err))
	}
	return RegisterResponse{
		Type:     "export_config",
		Device:   rd.device,
		Message:  "config exported",
		Config:   string(b),
		Filename: fmt.Sprintf("%s_%s_registers.json", rd.device, now.Format("20060102_150405")),
	}
}

func errorResponse(msg string) RegisterResponse {
	return RegisterResponse{Type: "error", Message: msg}
}

func hexByte(b byte) string { return fmt.Sprintf("0x%02X", b) }

func hexMap(regs map[byte]byte) map[string]string {
	out := make(map[string]string, len(regs))
	for addr, v := range regs {
		out[hexByte(addr)] = hexByte(v)
	}
	return out
}

// DumpRegisters writes every readable register as "0xAA NAME 0xVV", in
// address order.
func DumpRegisters(w io.Writer, dev sensors.RegisterAccess) error {
	regs, err := sensors.ReadAll(dev)
	if err != nil {
		return err
	}
	names := make(map[byte]string)
	for _, r := range dev.RegisterMap() {
		if addr, err := sensors.ParseHexByte(r.Address); err == nil {
			names[addr] = r.Name
		}
	}

	addrs := make([]int, 0, len(regs))
	for a := range regs {
		addrs = append(addrs, int(a))
	}
	sort.Ints(addrs)
	for _, a := range addrs {
		if _, err := fmt.Fprintf(w, "%s %-12s %s\n", hexByte(byte(a)), names[byte(a)], hexByte(regs[byte(a)])); err != nil {
			return err
		}
	}
	return nil
}

// RunRegisterDebug opens the configured sensor and either dumps its
// registers to out or serves the debug page until ctx is cancelled.
func RunRegisterDebug(ctx context.Context, cfg *config.Config, logger *zap.Logger, addr string, out io.Writer) error {
	src, closer, err := sensors.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	dev, ok := src.(sensors.RegisterAccess)
	if !ok {
		return fmt.Errorf("sensor kind %q has no register access", cfg.SensorKind)
	}
	if out != nil {
		return DumpRegisters(out, dev)
	}

	rd := NewRegisterDebugger(dev, cfg.SensorKind, logger)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           rd.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return serve(ctx, httpSrv, logger)
}
