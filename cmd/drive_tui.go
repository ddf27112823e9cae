// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/rover/pkg/frame"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	throttleStep = 32
	maxThrottle  = 255
	steerStep    = 5
	cameraStep   = 5
	cameraMin    = 0
	cameraMax    = 180
)

//////////////////////////////////////////////////////////////
// Key bindings
//////////////////////////////////////////////////////////////

type driveKeyMap struct {
	Faster   key.Binding
	Slower   key.Binding
	Left     key.Binding
	Right    key.Binding
	CamUp    key.Binding
	CamDown  key.Binding
	CamLeft  key.Binding
	CamRight key.Binding
	Beep     key.Binding
	Stop     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k driveKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Faster, k.Slower, k.Left, k.Right, k.Beep, k.Stop, k.Help, k.Quit}
}

func (k driveKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Faster, k.Slower, k.Left, k.Right},
		{k.CamUp, k.CamDown, k.CamLeft, k.CamRight},
		{k.Beep, k.Stop, k.Help, k.Quit},
	}
}

var driveKeys = driveKeyMap{
	Faster:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "faster")),
	Slower:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "slower")),
	Left:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "steer left")),
	Right:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "steer right")),
	CamUp:    key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "camera up")),
	CamDown:  key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "camera down")),
	CamLeft:  key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "camera left")),
	CamRight: key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "camera right")),
	Beep:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "beep")),
	Stop:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// driveModel is the Bubble Tea model for the drive TUI
type driveModel struct {
	connMgr  *connectionManager
	connInfo string
	interval time.Duration

	// Command state
	throttle int
	steer    int
	steerMin int
	steerMax int
	camX     int
	camZ     int
	beep     bool

	// Monitoring
	sent          uint64
	sendErrors    uint64
	lastFrame     frame.Frame
	errorLog      []errorLogEntry
	maxLogEntries int

	// UI state
	keys           driveKeyMap
	help           help.Model
	width          int
	height         int
	quitting       bool
	connectionLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type driveTickMsg time.Time

type vehicleLineMsg string

type connectionLostMsg struct{}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialDriveModel(connMgr *connectionManager, connInfo string, steerMin, steerMax int, interval time.Duration) driveModel {
	if steerMin > steerMax {
		steerMin, steerMax = steerMax, steerMin
	}
	m := driveModel{
		connMgr:       connMgr,
		connInfo:      connInfo,
		interval:      interval,
		steerMin:      steerMin,
		steerMax:      steerMax,
		camX:          (cameraMin + cameraMax) / 2,
		camZ:          (cameraMin + cameraMax) / 2,
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		keys:          driveKeys,
		help:          help.New(),
		width:         80,
		height:        24,
	}
	m.steer = m.steerCenter()
	return m
}

func (m driveModel) steerCenter() int {
	return (m.steerMin + m.steerMax) / 2
}

// currentFrame builds the frame for the current command state
func (m driveModel) currentFrame() frame.Frame {
	return frame.Frame{
		LeftMotorSpeed:  int16(m.throttle),
		RightMotorSpeed: int16(m.throttle),
		ServoAngle:      int16(m.steer),
		CameraXAngle:    int16(m.camX),
		CameraZAngle:    int16(m.camZ),
		Beep:            m.beep,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m driveModel) Init() tea.Cmd {
	return m.driveTickCmd()
}

func (m driveModel) driveTickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return driveTickMsg(t)
	})
}

func (m driveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case driveTickMsg:
		m.sendCurrent()
		return m, m.driveTickCmd()

	case vehicleLineMsg:
		m.addLogEntry(string(msg), false)

	case connectionLostMsg:
		m.connectionLost = true
		m.addLogEntry("Connection lost - reconnecting...", true)

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.addLogEntry("Reconnected", false)
	}

	return m, nil
}

func (m driveModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Faster):
		m.throttle = clampInt(m.throttle+throttleStep, -maxThrottle, maxThrottle)

	case key.Matches(msg, m.keys.Slower):
		m.throttle = clampInt(m.throttle-throttleStep, -maxThrottle, maxThrottle)

	case key.Matches(msg, m.keys.Left):
		m.steer = clampInt(m.steer-steerStep, m.steerMin, m.steerMax)

	case key.Matches(msg, m.keys.Right):
		m.steer = clampInt(m.steer+steerStep, m.steerMin, m.steerMax)

	case key.Matches(msg, m.keys.CamUp):
		m.camZ = clampInt(m.camZ+cameraStep, cameraMin, cameraMax)

	case key.Matches(msg, m.keys.CamDown):
		m.camZ = clampInt(m.camZ-cameraStep, cameraMin, cameraMax)

	case key.Matches(msg, m.keys.CamLeft):
		m.camX = clampInt(m.camX+cameraStep, cameraMin, cameraMax)

	case key.Matches(msg, m.keys.CamRight):
		m.camX = clampInt(m.camX-cameraStep, cameraMin, cameraMax)

	case key.Matches(msg, m.keys.Beep):
		m.beep = true
		m.sendCurrent()

	case key.Matches(msg, m.keys.Stop):
		m.throttle = 0
		m.steer = m.steerCenter()
		m.sendCurrent()
	}

	return m, nil
}

// sendCurrent transmits the current frame. A beep is sent once.
func (m *driveModel) sendCurrent() {
	if m.connectionLost {
		return
	}
	f := m.currentFrame()
	if err := m.connMgr.send(f); err != nil {
		m.sendErrors++
		m.addLogEntry(fmt.Sprintf("Send failed: %v", err), true)
		return
	}
	m.sent++
	m.lastFrame = f
	m.beep = false
}

func (m *driveModel) addLogEntry(message string, isError bool) {
	m.errorLog = append(m.errorLog, errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

func (m driveModel) View() string {
	if m.quitting {
		return "Stopping rover...\n"
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

	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("ROVER - DRIVE"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | %d frames/s", m.connInfo, int(time.Second/m.interval))))
	s.WriteString("\n\n")

	if m.connectionLost {
		s.WriteString(errorStyle.Render("✗ Connection lost, reconnecting..."))
	} else {
		s.WriteString(valueStyle.Render("✓ Connected"))
	}
	s.WriteString("\n\n")

	// Command panel
	cmdContent := strings.Builder{}
	cmdContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		labelStyle.Render("Throttle:"), valueStyle.Render(fmt.Sprintf("%+4d", m.throttle)),
		labelStyle.Render("Steering:"), valueStyle.Render(fmt.Sprintf("%3d° (%d-%d)", m.steer, m.steerMin, m.steerMax)),
	))
	cmdContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		labelStyle.Render("Camera X:"), valueStyle.Render(fmt.Sprintf("%3d°", m.camX)),
		labelStyle.Render("Camera Z:"), valueStyle.Render(fmt.Sprintf("%3d°", m.camZ)),
	))
	sentLine := fmt.Sprintf("%s %s", labelStyle.Render("Sent:"), valueStyle.Render(fmt.Sprintf("%d", m.sent)))
	if m.sendErrors > 0 {
		sentLine += fmt.Sprintf("   %s %s", labelStyle.Render("Failed:"), errorStyle.Render(fmt.Sprintf("%d", m.sendErrors)))
	}
	cmdContent.WriteString(sentLine + "\n")
	cmdContent.WriteString(headerStyle.Render(frame.FormatFrame(m.lastFrame)))

	s.WriteString(boxStyle.Render(cmdContent.String()))
	s.WriteString("\n\n")

	// Vehicle log
	s.WriteString(labelStyle.Render("Vehicle:"))
	s.WriteString("\n")

	logHeight := m.height - 16
	if logHeight < 5 {
		logHeight = 5
	}
	startIdx := len(m.errorLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	logContent := strings.Builder{}
	if len(m.errorLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no messages yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), errorStyle.Render("✗ "+entry.message)))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), infoStyle.Render(entry.message)))
			}
		}
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))
	s.WriteString("\n")
	s.WriteString(m.help.View(m.keys))

	return s.String()
}
