// Package controller implements the standard pad: eight buttons latched
// by a strobe write and shifted out one bit per read.
package controller

import (
	"fmt"
	"strings"
)

// Button indices in shift-register order.
const (
	ButtonA = iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

var buttonNames = [8]string{"A", "B", "SELECT", "START", "UP", "DOWN", "LEFT", "RIGHT"}

// Buttons is one input snapshot, indexed by the Button constants.
type Buttons [8]bool

// ParseButtons reads the script notation used by the input recorder:
// names joined with "+", or NONE.
func ParseButtons(s string) (Buttons, error) {
	var b Buttons
	if s == "NONE" || s == "" {
		return b, nil
	}
	for _, name := range strings.Split(s, "+") {
		i := indexOf(strings.ToUpper(name))
		if i < 0 {
			return b, fmt.Errorf("unknown button %q", name)
		}
		b[i] = true
	}
	return b, nil
}

func indexOf(name string) int {
	for i, n := range buttonNames {
		if n == name {
			return i
		}
	}
	return -1
}

// String formats the snapshot in the notation ParseButtons accepts.
func (b Buttons) String() string {
	var names []string
	for i, pressed := range b {
		if pressed {
			names = append(names, buttonNames[i])
		}
	}
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, "+")
}

// Mask packs the snapshot into a byte, bit i for button i.
func (b Buttons) Mask() byte {
	var m byte
	for i, pressed := range b {
		if pressed {
			m |= 1 << i
		}
	}
	return m
}

// FromMask is the inverse of Mask.
func FromMask(m byte) Buttons {
	var b Buttons
	for i := range b {
		b[i] = m&(1<<i) != 0
	}
	return b
}

// Controller represents a standard NES controller.
type Controller struct {
	buttons Buttons
	index   byte // The current bit being read from the shift register
	strobe  byte // The strobe latch
}

// New creates a new Controller instance.
func New() *Controller {
	return &Controller{}
}

// SetButtons updates the state of the controller's buttons.
func (c *Controller) SetButtons(buttons Buttons) {
	c.buttons = buttons
}

// Buttons returns the current snapshot.
func (c *Controller) Buttons() Buttons {
	return c.buttons
}

// Write handles CPU writes to $4016.
func (c *Controller) Write(data byte) {
	c.strobe = data & 1
	if c.strobe == 1 {
		c.index = 0 // Strobe high, reset the read index
	}
}

// Read returns the next bit in D0. Only D0 is driven; the bus fills the
// rest from open bus.
func (c *Controller) Read() byte {
	value := c.Peek()
	// If strobe is low, the shift register is advanced on each read.
	if c.strobe == 0 && c.index < 8 {
		c.index++
	}
	return value
}

// Peek returns what Read would without shifting.
func (c *Controller) Peek() byte {
	if c.strobe == 1 {
		return boolBit(c.buttons[ButtonA])
	}
	if c.index >= 8 {
		return 1 // After the 8 main buttons, standard controllers return 1.
	}
	return boolBit(c.buttons[c.index])
}

func boolBit(b bool) byte {
	if b {
		return 1
	}
	return 0
}

type State struct {
	Buttons       Buttons
	Index, Strobe byte
}

func (c *Controller) SaveState() State {
	return State{c.buttons, c.index, c.strobe}
}

func (c *Controller) LoadState(s State) {
	c.buttons, c.index, c.strobe = s.Buttons, s.Index, s.Strobe
}
