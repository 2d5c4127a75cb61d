package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/pvictorino/zapgate/internal/bus"
)

// State represents the connection state of a hosted instance.
type State string

const (
	Close      State = "close"
	QRCode     State = "qrcode"
	Connecting State = "connecting"
	Open       State = "open"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Close:      {Connecting, QRCode},
	QRCode:     {Connecting, Close},
	Connecting: {Open, QRCode, Close},
	Open:       {Close, Connecting},
}

// Machine tracks and enforces instance connection state transitions.
type Machine struct {
	mu       sync.RWMutex
	current  State
	instance string
	bus      *bus.Bus
}

// NewMachine creates a new state machine for an instance, starting closed.
func NewMachine(instanceName string, b *bus.Bus) *Machine {
	return &Machine{
		current:  Close,
		instance: instanceName,
		bus:      b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
// A transition to the current state is a no-op.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if to == m.current {
		return nil
	}
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Emit(bus.KindConnectionUpdate, m.instance, StatusChange{From: from, To: to})
	}
	return nil
}

// StatusChange is the payload for connection update events.
type StatusChange struct {
	From State `json:"from"`
	To   State `json:"state"`
}
