// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/rover/pkg/frame"
	"github.com/Thermoquad/rover/pkg/hal"
	"github.com/Thermoquad/rover/pkg/vehicle"
)

const (
	lightStep     = 50
	lightMaxInput = 1023
)

// boardView is what the dashboard shows of the simulated board. It is read
// from the Sim, which is safe while the control loop runs.
type boardView struct {
	left, right vehicle.MotorState
	steering    int
	cameraX     int
	cameraZ     int
	headlamp    bool
	light       int
	tones       int
	stats       frame.Statistics
}

// runModel is the Bubble Tea model for `run --tui`
type runModel struct {
	dispatcher *vehicle.Dispatcher
	sim        *hal.Sim
	layout     vehicle.Layout
	connInfo   string

	view          boardView
	errorLog      []errorLogEntry
	maxLogEntries int
	stopped       bool
	stopErr       error

	width    int
	height   int
	quitting bool
}

type runTickMsg time.Time

type diagnosticMsg string

type loopStoppedMsg struct {
	err error
}

func initialRunModel(d *vehicle.Dispatcher, sim *hal.Sim, connInfo string) runModel {
	m := runModel{
		dispatcher:    d,
		sim:           sim,
		layout:        d.Vehicle.Layout(),
		connInfo:      connInfo,
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 200,
		width:         80,
		height:        24,
	}
	m.refresh()
	return m
}

// motorFromBoard reads a motor's state back from its pins
func motorFromBoard(sim *hal.Sim, pins vehicle.MotorPins) vehicle.MotorState {
	d := vehicle.Forward
	if sim.Level(pins.Control1) == hal.Low && sim.Level(pins.Control2) == hal.High {
		d = vehicle.Backward
	}
	return vehicle.MotorState{Direction: d, Magnitude: sim.PWM(pins.Enable)}
}

func (m *runModel) refresh() {
	l := m.layout
	m.view.left = motorFromBoard(m.sim, l.LeftMotor)
	m.view.right = motorFromBoard(m.sim, l.RightMotor)
	m.view.steering, _ = m.sim.ServoAngle(l.Steering.Pin)
	m.view.cameraX, _ = m.sim.ServoAngle(l.CameraX.Pin)
	m.view.cameraZ, _ = m.sim.ServoAngle(l.CameraZ.Pin)
	m.view.headlamp = bool(m.sim.Level(l.Light.HeadlampPin))
	m.view.light = m.sim.AnalogInput(l.Light.SensorPin)
	m.view.tones = m.sim.ToneCount()
	m.view.stats = m.dispatcher.Statistics()
	m.view.stats.CalculateRates()
}

func (m runModel) Init() tea.Cmd {
	return runTickCmd()
}

func runTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return runTickMsg(t)
	})
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "+", "=":
			m.setLight(m.view.light + lightStep)
		case "-":
			m.setLight(m.view.light - lightStep)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case runTickMsg:
		m.refresh()
		return m, runTickCmd()

	case diagnosticMsg:
		isError := strings.HasPrefix(string(msg), vehicle.MsgDropped)
		m.addLogEntry(string(msg), isError)

	case loopStoppedMsg:
		m.stopped = true
		m.stopErr = msg.err
		m.refresh()
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Control loop stopped: %v", msg.err), true)
		} else {
			m.addLogEntry("Control loop stopped", false)
		}
	}

	return m, nil
}

func (m *runModel) setLight(v int) {
	v = clampInt(v, 0, lightMaxInput)
	m.sim.SetAnalogInput(m.layout.Light.SensorPin, v)
	m.view.light = v
}

func (m *runModel) addLogEntry(message string, isError bool) {
	m.errorLog = append(m.errorLog, errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

func (m runModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	v := m.view

	var s strings.Builder
	s.WriteString(titleStyle.Render("ROVER - VEHICLE"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | '+'/'-' light, 'q' quit", m.connInfo)))
	s.WriteString("\n\n")

	if m.stopped {
		s.WriteString(errorStyle.Render("✗ Control loop stopped"))
	} else {
		s.WriteString(valueStyle.Render("✓ Running"))
	}
	s.WriteString("\n\n")

	// Actuators
	act := strings.Builder{}
	act.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		labelStyle.Render("Left:"), valueStyle.Render(fmt.Sprintf("%5s", v.left)),
		labelStyle.Render("Right:"), valueStyle.Render(fmt.Sprintf("%5s", v.right)),
	))
	act.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		labelStyle.Render("Steering:"), valueStyle.Render(fmt.Sprintf("%3d°", v.steering)),
		labelStyle.Render("Camera:"), valueStyle.Render(fmt.Sprintf("x=%d° z=%d°", v.cameraX, v.cameraZ)),
	))
	headlamp := headerStyle.Render("off")
	if v.headlamp {
		headlamp = warningStyle.Render("on")
	}
	act.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		labelStyle.Render("Headlamp:"), headlamp,
		labelStyle.Render("Light:"), valueStyle.Render(fmt.Sprintf("%d", v.light)),
		labelStyle.Render("Beeps:"), valueStyle.Render(fmt.Sprintf("%d", v.tones)),
	))
	s.WriteString(boxStyle.Render(act.String()))
	s.WriteString("\n\n")

	// Link statistics
	st := v.stats
	link := strings.Builder{}
	link.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		labelStyle.Render("Frames:"), valueStyle.Render(fmt.Sprintf("%d", st.TotalFrames)),
		labelStyle.Render("Applied:"), valueStyle.Render(fmt.Sprintf("%d", st.ValidFrames)),
		labelStyle.Render("Dropped:"), func() string {
			if st.Errors() > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", st.Errors()))
			}
			return valueStyle.Render("0")
		}(),
	))
	link.WriteString(fmt.Sprintf("%s %s",
		labelStyle.Render("Frame Rate:"), valueStyle.Render(fmt.Sprintf("%.1f frames/s", st.FrameRate)),
	))
	s.WriteString(boxStyle.Render(link.String()))
	s.WriteString("\n\n")

	// Diagnostics
	s.WriteString(labelStyle.Render("Diagnostics:"))
	s.WriteString("\n")

	logHeight := m.height - 18
	if logHeight < 5 {
		logHeight = 5
	}
	startIdx := len(m.errorLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	logContent := strings.Builder{}
	if len(m.errorLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no diagnostics yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), errorStyle.Render("# "+entry.message)))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), headerStyle.Render("# "+entry.message)))
			}
		}
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
