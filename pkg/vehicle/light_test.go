// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vehicle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/rover/pkg/hal"
)

func testLightConfig(initial LightState) LightConfig {
	return LightConfig{
		HeadlampPin:  11,
		SensorPin:    AnalogPinA0,
		UnlitBelow:   DefaultUnlitBelow,
		LitAbove:     DefaultLitAbove,
		InitialState: initial,
	}
}

func TestLightControllerRejectsThresholds(t *testing.T) {
	for _, cfg := range []LightConfig{
		{UnlitBelow: 550, LitAbove: 550},
		{UnlitBelow: 600, LitAbove: 450},
	} {
		_, err := NewLightController(hal.NewSim(), cfg)
		require.Error(t, err)
	}
}

func TestLightControllerInit(t *testing.T) {
	board := hal.NewSim()
	c, err := NewLightController(board, testLightConfig(Unlit))
	require.NoError(t, err)
	c.Init()
	require.Equal(t, hal.Output, board.PinModeOf(11))
	require.Equal(t, hal.High, board.Level(11))
	require.True(t, c.HeadlampOn())

	board = hal.NewSim()
	c, err = NewLightController(board, testLightConfig(Lit))
	require.NoError(t, err)
	c.Init()
	require.Equal(t, hal.Low, board.Level(11))
	require.False(t, c.HeadlampOn())
}

func TestLightControllerHysteresis(t *testing.T) {
	board := hal.NewSim()
	c, err := NewLightController(board, testLightConfig(Lit))
	require.NoError(t, err)
	c.Init()
	board.Reset()

	samples := []int{600, 500, 400, 500, 600}
	expectChanged := []bool{false, false, true, false, true}
	expectState := []LightState{Lit, Lit, Unlit, Unlit, Lit}

	toggles := 0
	for i, sample := range samples {
		board.SetAnalogInput(AnalogPinA0, sample)
		changed := c.Tick()
		require.Equal(t, expectChanged[i], changed, "sample %d", i)
		require.Equal(t, expectState[i], c.State(), "sample %d", i)
		require.Equal(t, sample, c.LastSample())
		if changed {
			toggles++
		}
	}
	require.Equal(t, 2, toggles)
	require.Len(t, board.Writes(), 2)
	require.Equal(t, hal.Low, board.Level(11))
}

func TestLightControllerThresholdsAreStrict(t *testing.T) {
	board := hal.NewSim()
	c, err := NewLightController(board, testLightConfig(Lit))
	require.NoError(t, err)

	board.SetAnalogInput(AnalogPinA0, DefaultUnlitBelow)
	require.False(t, c.Tick())
	board.SetAnalogInput(AnalogPinA0, DefaultUnlitBelow-1)
	require.True(t, c.Tick())
	require.Equal(t, hal.High, board.Level(11))

	board.SetAnalogInput(AnalogPinA0, DefaultLitAbove)
	require.False(t, c.Tick())
	board.SetAnalogInput(AnalogPinA0, DefaultLitAbove+1)
	require.True(t, c.Tick())
	require.Equal(t, hal.Low, board.Level(11))
}

func TestLightStateString(t *testing.T) {
	require.Equal(t, "LIT", Lit.String())
	require.Equal(t, "UNLIT", Unlit.String())
}
