package display

import (
	"errors"
	"testing"
	"time"

	"github.com/sqweek/dialog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestROMPickerOneDialogAtATime(t *testing.T) {
	release := make(chan string)
	p := newROMPicker(func() (string, error) { return <-release, nil })

	require.True(t, p.Start())
	assert.False(t, p.Start(), "second click while the dialog is open")

	release <- "/roms/a.nes"
	assert.Equal(t, "/roms/a.nes", <-p.Chosen())
	assert.Eventually(t, func() bool { return !p.open.Load() }, time.Second, time.Millisecond)
}

func TestROMPickerNeverBlocksOnAPendingSelection(t *testing.T) {
	p := newROMPicker(func() (string, error) { return "/roms/a.nes", nil })
	for i := 0; i < 3; i++ {
		require.Eventually(t, p.Start, time.Second, time.Millisecond)
		assert.Eventually(t, func() bool { return !p.open.Load() }, time.Second, time.Millisecond, "dialog %d finished", i)
	}
	assert.Equal(t, "/roms/a.nes", <-p.Chosen())
	select {
	case extra := <-p.Chosen():
		t.Fatalf("unexpected second selection %q", extra)
	default:
	}
}

func TestROMPickerCancel(t *testing.T) {
	for _, err := range []error{dialog.ErrCancelled, errors.New("no display")} {
		p := newROMPicker(func() (string, error) { return "", err })
		require.True(t, p.Start())
		assert.Eventually(t, func() bool { return !p.open.Load() }, time.Second, time.Millisecond)
		assert.Empty(t, p.Chosen())
	}
}
