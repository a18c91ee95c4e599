// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hub

import (
	"sync"

	"github.com/Thermoquad/boilerstat/pkg/opentherm"
)

// SetpointSource supplies the value written by WRITE_DATA requests
type SetpointSource interface {
	Setpoint(id opentherm.MessageID) (float64, bool)
}

// Input holds the latest value of one setpoint input. It is written by
// whatever drives the input (config, monitor, MQTT) and read by the tick.
type Input struct {
	name string

	mu    sync.RWMutex
	value float64
	set   bool
}

func NewInput(name string) *Input {
	return &Input{name: name}
}

func (in *Input) Name() string {
	return in.name
}

func (in *Input) Set(v float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.value = v
	in.set = true
}

// Clear forgets the current value
func (in *Input) Clear() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.value = 0
	in.set = false
}

// State returns the value and whether one has been set
func (in *Input) State() (float64, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.value, in.set
}

// InputChain picks one input by precedence. The first configured (non-nil)
// input decides, even when it has no value yet.
type InputChain []*Input

func NewInputChain(inputs ...*Input) InputChain {
	return InputChain(inputs)
}

// Active returns the deciding input, or nil when none is configured
func (c InputChain) Active() *Input {
	for _, in := range c {
		if in != nil {
			return in
		}
	}
	return nil
}

func (c InputChain) State() (float64, bool) {
	if in := c.Active(); in != nil {
		return in.State()
	}
	return 0, false
}

// SetpointTable maps writable data-ids to their input chains
type SetpointTable map[opentherm.MessageID]InputChain

var _ SetpointSource = SetpointTable(nil)

func (t SetpointTable) Setpoint(id opentherm.MessageID) (float64, bool) {
	chain, ok := t[id]
	if !ok {
		return 0, false
	}
	return chain.State()
}
