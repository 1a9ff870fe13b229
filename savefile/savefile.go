// Package savefile keeps emulator sessions and battery RAM on the host
// file system. The console core only sees readers and writers.
package savefile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
)

// Snapshotter is a session that can be written out and restored.
type Snapshotter interface {
	SaveState(w io.Writer) error
	LoadState(r io.Reader) error
}

// Battery is a cartridge slot whose battery RAM can be persisted.
type Battery interface {
	BatteryRAM() []byte
	LoadBattery(r io.Reader) error
	SaveBattery(w io.Writer) error
}

// BatteryPath returns the save file used for a ROM: the ROM path with its
// extension replaced by .sav.
func BatteryPath(romPath string) string {
	return strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".sav"
}

// SaveState writes a snapshot of s to filename.
func SaveState(s Snapshotter, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := s.SaveState(file); err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	glog.Infof("State saved to %s", filename)
	return nil
}

// LoadState restores s from a snapshot in filename.
func LoadState(s Snapshotter, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := s.LoadState(file); err != nil {
		return err
	}
	glog.Infof("State loaded from %s", filename)
	return nil
}

// LoadBattery copies filename into b's battery RAM. A missing file or a
// board without a battery is not an error.
func LoadBattery(b Battery, filename string) error {
	if b.BatteryRAM() == nil {
		return nil
	}
	file, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	if err := b.LoadBattery(file); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	glog.Infof("Battery RAM loaded from %s", filename)
	return nil
}

// SaveBattery writes b's battery RAM to filename. Boards without a
// battery leave the file system untouched.
func SaveBattery(b Battery, filename string) error {
	if b.BatteryRAM() == nil {
		return nil
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := b.SaveBattery(file); err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	glog.Infof("Battery RAM saved to %s", filename)
	return nil
}
