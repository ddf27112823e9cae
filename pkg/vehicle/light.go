// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vehicle

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/Thermoquad/rover/pkg/hal"
)

// Default light thresholds on the 0..1023 sensor scale
const (
	DefaultUnlitBelow = 450
	DefaultLitAbove   = 550
)

// LightState is the ambient light state as seen by the controller
type LightState uint8

const (
	// Unlit means the surroundings are dark and the headlamp is on
	Unlit LightState = iota
	// Lit means the surroundings are bright and the headlamp is off
	Lit
)

// String returns the state name
func (s LightState) String() string {
	if s == Lit {
		return "LIT"
	}
	return "UNLIT"
}

// LightConfig configures a LightController
type LightConfig struct {
	HeadlampPin hal.Pin
	SensorPin   hal.Pin
	// UnlitBelow switches Lit to Unlit when a sample is strictly below it
	UnlitBelow int
	// LitAbove switches Unlit to Lit when a sample is strictly above it
	LitAbove     int
	InitialState LightState
}

// LightController switches the headlamp from a photo sensor with a
// hysteresis band so readings between the thresholds never toggle it.
type LightController struct {
	board  hal.Board
	cfg    LightConfig
	state  LightState
	sample int
}

// NewLightController validates cfg and returns a controller in its
// initial state. Call Init to drive the headlamp pin.
func NewLightController(board hal.Board, cfg LightConfig) (*LightController, error) {
	if cfg.LitAbove <= cfg.UnlitBelow {
		return nil, fmt.Errorf("invalid light thresholds: lit above %d must exceed unlit below %d",
			cfg.LitAbove, cfg.UnlitBelow)
	}
	return &LightController{
		board: board,
		cfg:   cfg,
		state: cfg.InitialState,
	}, nil
}

// Init returns to the initial state, configures the headlamp pin and
// drives it to match
func (c *LightController) Init() {
	c.state = c.cfg.InitialState
	c.board.SetPinMode(c.cfg.HeadlampPin, hal.Output)
	c.board.DigitalWrite(c.cfg.HeadlampPin, c.headlampLevel())
}

// Tick reads one sensor sample and toggles the headlamp if a threshold was
// crossed. It reports whether the state changed.
func (c *LightController) Tick() bool {
	c.sample = c.board.AnalogRead(c.cfg.SensorPin)
	if glog.V(3) {
		glog.Infof("photo sensor value %d, state %s", c.sample, c.state)
	}

	switch c.state {
	case Lit:
		if c.sample >= c.cfg.UnlitBelow {
			return false
		}
		c.state = Unlit
	case Unlit:
		if c.sample <= c.cfg.LitAbove {
			return false
		}
		c.state = Lit
	}

	c.board.DigitalWrite(c.cfg.HeadlampPin, c.headlampLevel())
	glog.V(1).Infof("light state %s at sample %d", c.state, c.sample)
	return true
}

// State returns the current light state
func (c *LightController) State() LightState {
	return c.state
}

// HeadlampOn reports whether the headlamp is driven on
func (c *LightController) HeadlampOn() bool {
	return c.state == Unlit
}

// LastSample returns the most recent sensor reading
func (c *LightController) LastSample() int {
	return c.sample
}

// Config returns the controller configuration
func (c *LightController) Config() LightConfig {
	return c.cfg
}

func (c *LightController) headlampLevel() hal.Level {
	return hal.Level(c.HeadlampOn())
}
