// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"strconv"
	"strings"
)

// RegisterInfo describes one device register for the register debugger.
type RegisterInfo struct {
	Address     string     `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// BitField describes a bit range inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterAccess is the raw byte access the register debugger needs.
type RegisterAccess interface {
	ReadRegister(reg byte) (byte, error)
	WriteRegister(reg, value byte) error
	RegisterMap() []RegisterInfo
}

// ParseHexByte parses "0x1A", "1A" or "26" style register values.
func ParseHexByte(s string) (byte, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	v, err := strconv.ParseUint(s, base, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid register byte %q: %w", s, err)
	}
	return byte(v), nil
}

// Writable reports whether reg is marked writable in the map.
func Writable(regs []RegisterInfo, reg byte) bool {
	for _, r := range regs {
		addr, err := ParseHexByte(r.Address)
		if err != nil || addr != reg {
			continue
		}
		return strings.Contains(r.Access, "W")
	}
	return false
}

// ReadAll reads every register listed in the map.
func ReadAll(dev RegisterAccess) (map[byte]byte, error) {
	out := make(map[byte]byte)
	for _, r := range dev.RegisterMap() {
		addr, err := ParseHexByte(r.Address)
		if err != nil {
			return nil, err
		}
		if !strings.Contains(r.Access, "R") {
			continue
		}
		v, err := dev.ReadRegister(addr)
		if err != nil {
			return nil, fmt.Errorf("read %s (0x%02X): %w", r.Name, addr, err)
		}
		out[addr] = v
	}
	return out, nil
}
