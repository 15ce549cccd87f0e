// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package classifier

import (
	"encoding/json"
	"fmt"
)

// Action is what the indicator should show for a window.
type Action int

const (
	ActionNone Action = iota
	ActionTremor
	ActionDyskinesia
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionTremor:
		return "tremor"
	case ActionDyskinesia:
		return "dyskinesia"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// MarshalJSON encodes the action by name.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an action name.
func (a *Action) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "none":
		*a = ActionNone
	case "tremor":
		*a = ActionTremor
	case "dyskinesia":
		*a = ActionDyskinesia
	default:
		return fmt.Errorf("classifier: unknown action %q", s)
	}
	return nil
}

// Counters are the consecutive-window win counts.
type Counters struct {
	Tremor     int `json:"tremor"`
	Dyskinesia int `json:"dyskinesia"`
}

// Stability gates decisions on persistence across windows.
type Stability struct {
	required int
	counters Counters
}

// NewStability requires a condition to win `required` consecutive windows
// before it is acted upon. Values below 1 behave as 1 (pass-through).
func NewStability(required int) *Stability {
	if required < 1 {
		required = 1
	}
	return &Stability{required: required}
}

// Update advances the counters with one window's decision.
// Dyskinesia wins a tie on level and any window where tremor is absent.
func (s *Stability) Update(d Decision) Action {
	switch {
	case d.Dyskinesia && (!d.Tremor || d.LevelD >= d.LevelT):
		s.counters.Dyskinesia++
		s.counters.Tremor = 0
		if s.counters.Dyskinesia >= s.required {
			return ActionDyskinesia
		}
	case d.Tremor:
		s.counters.Tremor++
		s.counters.Dyskinesia = 0
		if s.counters.Tremor >= s.required {
			return ActionTremor
		}
	default:
		s.counters = Counters{}
	}
	return ActionNone
}

// Counters returns the current counts.
func (s *Stability) Counters() Counters { return s.counters }
