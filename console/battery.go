package console

import (
	"fmt"
	"io"
)

// LoadBattery fills the cartridge's battery RAM from r, which must hold
// exactly one image of it. Boards without a battery ignore r.
func (c *Console) LoadBattery(r io.Reader) error {
	ram := c.BatteryRAM()
	if ram == nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read battery RAM: %w", err)
	}
	if len(data) != len(ram) {
		return fmt.Errorf("battery image has %d bytes, want %d", len(data), len(ram))
	}
	copy(ram, data)
	return nil
}

// SaveBattery writes the cartridge's battery RAM to w. Boards without a
// battery write nothing.
func (c *Console) SaveBattery(w io.Writer) error {
	ram := c.BatteryRAM()
	if ram == nil {
		return nil
	}
	if _, err := w.Write(ram); err != nil {
		return fmt.Errorf("write battery RAM: %w", err)
	}
	return nil
}
