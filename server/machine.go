package server

import (
	"sync"

	"github.com/Overflow0xFFFF/nesproject/console"
	"github.com/Overflow0xFFFF/nesproject/controller"
)

// Machine serializes access to a console shared by the host loop and
// remote clients. Remote input is merged with the host's local input.
type Machine struct {
	mu      sync.Mutex
	console *console.Console
	paused  bool
	remote  [2]controller.Buttons
	last    console.Frame
}

// NewMachine wraps c.
func NewMachine(c *console.Console) *Machine {
	return &Machine{console: c}
}

// Do runs f with exclusive access to the console.
func (m *Machine) Do(f func(c *console.Console) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return f(m.console)
}

// RunFrame applies local ORed with remote input and emulates one frame.
// It reports false when the machine is paused or empty.
func (m *Machine) RunFrame(local [2]controller.Buttons) (console.Frame, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused || !m.console.HasCartridge() {
		return console.Frame{}, false, nil
	}
	for port := range local {
		m.console.SetButtons(port, merge(local[port], m.remote[port]))
	}
	f, err := m.console.StepFrame()
	if err != nil {
		m.paused = true
		return console.Frame{}, false, err
	}
	m.last = f
	return f, true, nil
}

// LastFrame returns the most recent frame produced by RunFrame.
func (m *Machine) LastFrame() console.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// SetPaused suspends or resumes RunFrame.
func (m *Machine) SetPaused(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = paused
}

// Paused reports whether RunFrame is suspended.
func (m *Machine) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// SetRemote records the buttons held by a network client on port 0 or 1.
func (m *Machine) SetRemote(port int, b controller.Buttons) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remote[port&1] = b
}

// Remote returns the network buttons for port 0 or 1.
func (m *Machine) Remote(port int) controller.Buttons {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remote[port&1]
}

func merge(a, b controller.Buttons) controller.Buttons {
	return controller.FromMask(a.Mask() | b.Mask())
}
