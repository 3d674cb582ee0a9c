package fsm

import (
	"fmt"
	"sync"
)

// State describes the lifecycle of the single endpoint connection.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosed     State = "closed"
	StateErrored    State = "errored"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateErrored
}

var transitions = map[State][]State{
	StateIdle:       {StateConnecting},
	StateConnecting: {StateOpen, StateErrored},
	StateOpen:       {StateClosed, StateErrored},
}

// Machine is a connection state machine with no path back to open.
type Machine struct {
	mu    sync.RWMutex
	state State
}

// New creates a state machine in the idle state.
func New() *Machine {
	return &Machine{state: StateIdle}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Is reports whether the machine is in state.
func (m *Machine) Is(state State) bool {
	return m.State() == state
}

// OnConnecting moves idle to connecting.
func (m *Machine) OnConnecting() error {
	return m.transition(StateConnecting)
}

// OnOpen marks the handshake complete.
func (m *Machine) OnOpen() error {
	return m.transition(StateOpen)
}

// OnClosed marks an orderly close.
func (m *Machine) OnClosed() error {
	return m.transition(StateClosed)
}

// OnError marks a failed dial or a broken connection.
func (m *Machine) OnError() error {
	return m.transition(StateErrored)
}

func (m *Machine) transition(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, allowed := range transitions[m.state] {
		if allowed == next {
			m.state = next
			return nil
		}
	}
	return fmt.Errorf("invalid transition: %s -> %s", m.state, next)
}
