// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hub

import "github.com/Thermoquad/boilerstat/pkg/opentherm"

// Scheduler walks the initial requests once, then cycles the repeating
// requests forever
type Scheduler struct {
	initial      []opentherm.MessageID
	repeating    []opentherm.MessageID
	initializing bool
	cursor       int
}

// NewScheduler copies both lists. An empty repeating list becomes [Status].
func NewScheduler(initial, repeating []opentherm.MessageID) *Scheduler {
	s := &Scheduler{
		initial:      append([]opentherm.MessageID(nil), initial...),
		repeating:    append([]opentherm.MessageID(nil), repeating...),
		initializing: true,
	}
	if len(s.repeating) == 0 {
		s.repeating = []opentherm.MessageID{opentherm.Status}
	}
	return s
}

// Next returns the id to request on this ready tick
func (s *Scheduler) Next() opentherm.MessageID {
	if s.initializing && s.cursor >= len(s.initial) {
		s.initializing = false
		s.cursor = 0
	} else if !s.initializing && s.cursor >= len(s.repeating) {
		s.cursor = 0
	}

	list := s.repeating
	if s.initializing {
		list = s.initial
	}
	id := list[s.cursor]
	s.cursor++
	return id
}

func (s *Scheduler) Initializing() bool {
	return s.initializing
}

func (s *Scheduler) Cursor() int {
	return s.cursor
}

func (s *Scheduler) Initial() []opentherm.MessageID {
	return append([]opentherm.MessageID(nil), s.initial...)
}

func (s *Scheduler) Repeating() []opentherm.MessageID {
	return append([]opentherm.MessageID(nil), s.repeating...)
}
