// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/boilerstat/pkg/logger"
)

var monitorLogFile string

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the session with an interactive terminal UI",
	Long: `Run the OpenTherm master session with a live terminal UI.

Features:
  - Latest value and age of every enabled sensor
  - Request statistics (responses, invalid, timeouts, rates)
  - Warnings and errors from the session
  - CH setpoint entry (written with the next TSet request)
  - Automatic reconnection on connection loss

Log output would corrupt the screen, so it goes to --log-file when given
and is discarded otherwise.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVar(&monitorLogFile, "log-file", "", "Write logs to this file")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	var out io.Writer = io.Discard
	if monitorLogFile != "" {
		f, err := os.OpenFile(monitorLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}

	base, err := newLogger(settings.Log, out)
	if err != nil {
		return err
	}
	events := make(chan eventLogEntry, 64)
	log := newEventLogger(base, events)
	logger.SetDefault(log)

	s, err := newSession(settings, log)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(initialMonitorModel(s), tea.WithAltScreen())

	sessionDone := make(chan error, 1)
	go func() {
		err := s.run(ctx)
		sessionDone <- err
		if err != nil {
			p.Send(sessionEndedMsg{err: err})
		}
	}()

	// forward session events to the TUI
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case e := <-events:
				p.Send(e)
			}
		}
	}()

	_, tuiErr := p.Run()
	cancel()

	select {
	case err = <-sessionDone:
	case <-time.After(5 * time.Second):
		err = fmt.Errorf("session did not stop")
	}

	if tuiErr != nil {
		return fmt.Errorf("TUI error: %w", tuiErr)
	}
	return err
}

// eventLogEntry is a warning or error shown in the monitor's event log
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// eventLogger copies warnings and errors into the monitor's event log
type eventLogger struct {
	logger.Logger
	events chan<- eventLogEntry
}

func newEventLogger(base logger.Logger, events chan<- eventLogEntry) *eventLogger {
	return &eventLogger{Logger: base, events: events}
}

func (l *eventLogger) Warn(msg string, keysAndValues ...any) {
	l.Logger.Warn(msg, keysAndValues...)
	l.emit(msg, keysAndValues, false)
}

func (l *eventLogger) Error(msg string, keysAndValues ...any) {
	l.Logger.Error(msg, keysAndValues...)
	l.emit(msg, keysAndValues, true)
}

func (l *eventLogger) With(keyValues ...any) logger.Logger {
	return &eventLogger{Logger: l.Logger.With(keyValues...), events: l.events}
}

func (l *eventLogger) emit(msg string, keysAndValues []any, isError bool) {
	text := msg
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		text += fmt.Sprintf(" %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	// dropped when the TUI falls behind
	select {
	case l.events <- eventLogEntry{timestamp: time.Now(), message: text, isError: isError}:
	default:
	}
}
