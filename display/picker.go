package display

import (
	"errors"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/sqweek/dialog"
)

// romPicker runs the ROM file dialog off the game loop and hands the
// chosen path to Update. At most one dialog is open at a time.
type romPicker struct {
	open   atomic.Bool
	chosen chan string
	pick   func() (string, error)
}

func newROMPicker(pick func() (string, error)) *romPicker {
	return &romPicker{chosen: make(chan string, 1), pick: pick}
}

func pickROMFile() (string, error) {
	return dialog.File().Filter("NES ROM", "nes").Load()
}

// Start opens the dialog unless one is already showing and reports
// whether it did.
func (p *romPicker) Start() bool {
	if !p.open.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer p.open.Store(false)
		filename, err := p.pick()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				glog.Errorf("ROM dialog: %v", err)
			}
			return
		}
		select {
		case p.chosen <- filename:
		default:
			glog.Warningf("Dropping %s: a ROM is already waiting to load", filename)
		}
	}()
	return true
}

// Chosen delivers picked paths.
func (p *romPicker) Chosen() <-chan string {
	return p.chosen
}
