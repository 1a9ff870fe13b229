package cpu

// State is the serializable register file.
type State struct {
	PC                     uint16
	SP, A, X, Y, P         byte
	NmiPending, IrqPending bool
}

func (c *CPU) SaveState() State {
	return State{c.PC, c.SP, c.A, c.X, c.Y, c.P, c.nmiPending, c.irqPending}
}

func (c *CPU) LoadState(s State) {
	c.PC, c.SP, c.A, c.X, c.Y, c.P, c.nmiPending, c.irqPending = s.PC, s.SP, s.A, s.X, s.Y, s.P, s.NmiPending, s.IrqPending
}
