package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftOut(t *testing.T) {
	c := New()
	c.SetButtons(Buttons{ButtonA: true, ButtonStart: true, ButtonRight: true})
	c.Write(1)
	c.Write(0)

	want := []byte{1, 0, 0, 1, 0, 0, 0, 1, 1, 1}
	for i, w := range want {
		assert.Equal(t, w, c.Read(), "read %d", i)
	}
}

func TestStrobeHighReturnsA(t *testing.T) {
	c := New()
	c.SetButtons(Buttons{ButtonA: true})
	c.Write(1)
	for i := 0; i < 3; i++ {
		assert.Equal(t, byte(1), c.Read())
	}
	c.SetButtons(Buttons{ButtonB: true})
	assert.Equal(t, byte(0), c.Read())
}

func TestPeekDoesNotShift(t *testing.T) {
	c := New()
	c.SetButtons(Buttons{ButtonB: true})
	c.Write(1)
	c.Write(0)
	c.Read()
	assert.Equal(t, byte(1), c.Peek())
	assert.Equal(t, byte(1), c.Peek())
	assert.Equal(t, byte(1), c.Read())
	assert.Equal(t, byte(0), c.Peek())
}

func TestParseButtons(t *testing.T) {
	tests := []struct {
		in   string
		want Buttons
	}{
		{"NONE", Buttons{}},
		{"A", Buttons{ButtonA: true}},
		{"up+b", Buttons{ButtonB: true, ButtonUp: true}},
		{"START+SELECT+LEFT", Buttons{ButtonSelect: true, ButtonStart: true, ButtonLeft: true}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseButtons(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseButtons("A+TURBO")
	assert.Error(t, err)
}

func TestButtonsString(t *testing.T) {
	assert.Equal(t, "NONE", Buttons{}.String())
	assert.Equal(t, "B+UP", Buttons{ButtonB: true, ButtonUp: true}.String())
}

func TestMask(t *testing.T) {
	b := Buttons{ButtonA: true, ButtonDown: true}
	assert.Equal(t, byte(0x21), b.Mask())
	assert.Equal(t, b, FromMask(0x21))
}

func TestState(t *testing.T) {
	c := New()
	c.SetButtons(Buttons{ButtonLeft: true})
	c.Write(0)
	c.Read()
	c.Read()

	d := New()
	d.LoadState(c.SaveState())
	for i := 0; i < 8; i++ {
		assert.Equal(t, c.Read(), d.Read())
	}
}
