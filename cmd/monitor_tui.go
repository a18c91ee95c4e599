// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/boilerstat/pkg/hub"
	"github.com/Thermoquad/boilerstat/pkg/opentherm"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	monitorRefresh   = 500 * time.Millisecond
	maxEventEntries  = 100
	minSetpoint      = 0.0
	maxSetpoint      = 100.0
	staleReadingSecs = 60
)

// Focus states
const (
	focusReadings = iota
	focusSetpoint
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

type monitorModel struct {
	session *session

	readings table.Model
	setpoint textinput.Model
	focused  int

	stats    hub.StatsSnapshot
	hasStats bool
	events   []eventLogEntry

	width    int
	height   int
	quitting bool
	ended    error
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type monitorTickMsg time.Time

type sessionEndedMsg struct {
	err error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialMonitorModel(s *session) monitorModel {
	columns := []table.Column{
		{Title: "Sensor", Width: 32},
		{Title: "Value", Width: 12},
		{Title: "Age", Width: 8},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(12),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("12"))
	t.SetStyles(styles)

	ti := textinput.New()
	ti.Placeholder = "55.0"
	ti.CharLimit = 6
	ti.Width = 10
	if v, ok := s.chSetpoint.State(); ok {
		ti.Placeholder = strconv.FormatFloat(v, 'f', 1, 64)
	}

	return monitorModel{
		session:  s,
		readings: t,
		setpoint: ti,
		focused:  focusReadings,
		width:    80,
		height:   24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m monitorModel) Init() tea.Cmd {
	return monitorTickCmd()
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(monitorRefresh, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.readings.SetHeight(max(5, m.height-20))

	case monitorTickMsg:
		m.refresh(time.Time(msg))
		return m, monitorTickCmd()

	case eventLogEntry:
		m.addEvent(msg)

	case sessionEndedMsg:
		m.ended = msg.err
		m.addEvent(eventLogEntry{timestamp: time.Now(), message: "session ended: " + msg.err.Error(), isError: true})
	}

	return m, nil
}

func (m monitorModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		if m.focused != focusSetpoint {
			m.quitting = true
			return m, tea.Quit
		}

	case "tab", "shift+tab":
		if m.focused == focusReadings {
			m.focused = focusSetpoint
			m.readings.Blur()
			return m, m.setpoint.Focus()
		}
		m.focused = focusReadings
		m.setpoint.Blur()
		m.readings.Focus()
		return m, nil

	case "enter":
		if m.focused == focusSetpoint {
			m.applySetpoint()
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focused == focusSetpoint {
		m.setpoint, cmd = m.setpoint.Update(msg)
	} else {
		m.readings, cmd = m.readings.Update(msg)
	}
	return m, cmd
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
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

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	// Header
	s.WriteString(titleStyle.Render("BOILERSTAT MONITOR"))
	s.WriteString(" ")
	connStatus := m.session.connectionInfo()
	if m.ended != nil {
		connStatus = errorStyle.Render("SESSION ENDED")
	} else if !m.session.connected.Load() {
		connStatus = warningStyle.Render("CONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit Tab=switch", connStatus)))
	s.WriteString("\n\n")

	// Readings | statistics + setpoint
	readingsBox := boxStyle
	if m.focused == focusReadings {
		readingsBox = focusedBoxStyle
	}
	left := readingsBox.Render(m.readings.View())

	setpointBox := boxStyle
	if m.focused == focusSetpoint {
		setpointBox = focusedBoxStyle
	}
	right := lipgloss.JoinVertical(lipgloss.Left,
		boxStyle.Render(m.renderStatistics(statsLabelStyle, statsValueStyle, errorStyle)),
		setpointBox.Render(m.renderSetpoint(statsLabelStyle, statsValueStyle, headerStyle)),
	)
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	s.WriteString("\n")

	s.WriteString(m.renderEventLog(statsLabelStyle, warningStyle, errorStyle, boxStyle))

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m monitorModel) renderStatistics(labelStyle, valueStyle, errorStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("Statistics"))
	s.WriteString("\n")

	if !m.hasStats {
		s.WriteString("waiting for connection\n")
		return s.String()
	}

	st := m.stats
	row := func(label string, value string) {
		fmt.Fprintf(&s, "%-15s %s\n", label, value)
	}
	row("Uptime:", valueStyle.Render(formatElapsed(st.Elapsed)))
	row("Requests:", valueStyle.Render(strconv.FormatUint(st.RequestsSent, 10)))
	row("Responses OK:", valueStyle.Render(strconv.FormatUint(st.ResponsesOK, 10)))

	errRow := func(label string, n uint64) {
		v := strconv.FormatUint(n, 10)
		if n > 0 {
			v = errorStyle.Render(v)
		}
		row(label, v)
	}
	errRow("Invalid:", st.Invalid)
	errRow("Timeouts:", st.Timeouts)
	errRow("Unexpected:", st.Unexpected)
	errRow("Build failed:", st.BuildFailures)
	row("Rate:", valueStyle.Render(fmt.Sprintf("%.1f req/s", st.RequestRate)))

	if st.LastRequest != 0 {
		row("Last request:", st.LastRequest.ID().String())
	}
	if st.LastStatus != opentherm.StatusNone {
		row("Last status:", st.LastStatus.String())
	}
	return s.String()
}

func (m monitorModel) renderSetpoint(labelStyle, valueStyle, headerStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("CH Setpoint"))
	s.WriteString("\n")

	current := "not set (0.0 sent)"
	if !m.session.schedules(opentherm.TSet) {
		current = "TSet not in repeating_requests"
	} else if v, ok := m.session.chSetpoint.State(); ok {
		current = fmt.Sprintf("%.1f °C", v)
	}
	fmt.Fprintf(&s, "Current: %s\n", valueStyle.Render(current))
	fmt.Fprintf(&s, "New:     %s\n", m.setpoint.View())
	s.WriteString(headerStyle.Render("Enter=apply"))
	return s.String()
}

func (m monitorModel) renderEventLog(labelStyle, warningStyle, errorStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("Events"))
	s.WriteString("\n")

	maxLines := max(3, m.height-m.readings.Height()-12)
	start := max(0, len(m.events)-maxLines)
	if len(m.events) == 0 {
		s.WriteString("no warnings\n")
	}
	for _, e := range m.events[start:] {
		line := fmt.Sprintf("%s %s", e.timestamp.Format("15:04:05"), e.message)
		if e.isError {
			line = errorStyle.Render(line)
		} else {
			line = warningStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	return boxStyle.Width(max(20, m.width-4)).Render(strings.TrimRight(s.String(), "\n"))
}

//////////////////////////////////////////////////////////////
// State Updates
//////////////////////////////////////////////////////////////

func (m *monitorModel) refresh(now time.Time) {
	m.stats, m.hasStats = m.session.stats()

	var rows []table.Row
	for _, r := range m.session.snapshot.Sensors() {
		rows = append(rows, table.Row{string(r.Kind), strconv.FormatFloat(r.Value, 'f', -1, 64), formatAge(now.Sub(r.Updated))})
	}
	for _, r := range m.session.snapshot.BinarySensors() {
		v := "off"
		if r.Value {
			v = "ON"
		}
		rows = append(rows, table.Row{string(r.Kind), v, formatAge(now.Sub(r.Updated))})
	}
	m.readings.SetRows(rows)
}

func (m *monitorModel) applySetpoint() {
	if !m.session.schedules(opentherm.TSet) {
		m.addEvent(eventLogEntry{
			timestamp: time.Now(),
			message:   "TSet is not in repeating_requests, setpoint would never be sent",
			isError:   true,
		})
		return
	}

	raw := strings.TrimSpace(m.setpoint.Value())
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < minSetpoint || v > maxSetpoint {
		m.addEvent(eventLogEntry{
			timestamp: time.Now(),
			message:   fmt.Sprintf("invalid setpoint %q (want %.0f-%.0f)", raw, minSetpoint, maxSetpoint),
			isError:   true,
		})
		return
	}

	m.session.chSetpoint.Set(v)
	m.setpoint.SetValue("")
	m.setpoint.Placeholder = strconv.FormatFloat(v, 'f', 1, 64)
	m.addEvent(eventLogEntry{timestamp: time.Now(), message: fmt.Sprintf("CH setpoint set to %.1f", v)})
}

func (m *monitorModel) addEvent(e eventLogEntry) {
	m.events = append(m.events, e)
	if len(m.events) > maxEventEntries {
		m.events = m.events[len(m.events)-maxEventEntries:]
	}
}

// formatAge formats the age of a reading, "stale" past a minute
func formatAge(d time.Duration) string {
	if d >= staleReadingSecs*time.Second {
		return "stale"
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

// formatElapsed formats a duration as the largest two units, e.g. "2h 5m"
func formatElapsed(d time.Duration) string {
	secs := int64(d.Seconds())
	days := secs / 86400
	hours := secs / 3600 % 24
	minutes := secs / 60 % 60
	seconds := secs % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
