package bus

import "github.com/Overflow0xFFFF/nesproject/controller"

// State covers RAM, the bus latches and the controllers. The PPU, APU and
// mapper are saved by their owners.
type State struct {
	Ram         [2048]byte
	OpenBus     byte
	DMAPage     byte
	DMAPending  bool
	Controllers [2]controller.State
}

func (b *Bus) SaveState() State {
	return State{
		Ram:         b.ram,
		OpenBus:     b.openBus,
		DMAPage:     b.dmaPage,
		DMAPending:  b.dmaPending,
		Controllers: [2]controller.State{b.Controllers[0].SaveState(), b.Controllers[1].SaveState()},
	}
}

func (b *Bus) LoadState(s State) {
	b.ram = s.Ram
	b.openBus = s.OpenBus
	b.dmaPage = s.DMAPage
	b.dmaPending = s.DMAPending
	b.Controllers[0].LoadState(s.Controllers[0])
	b.Controllers[1].LoadState(s.Controllers[1])
}
