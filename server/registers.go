package server

import (
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Overflow0xFFFF/nesproject/console"
)

// Registers is the CPU state reported by GetCPUState and Step.
type Registers struct {
	PC             uint16
	A, X, Y, SP, P byte
	Cycles         uint64
	Scanline, Dot  int
	Frame          uint64
	// Next is the disassembly of the instruction at PC.
	Next string
}

func snapshot(c *console.Console) Registers {
	st := c.CPUState()
	scanline, dot := c.Position()
	next, _ := c.Disassemble(st.PC)
	return Registers{
		PC:       st.PC,
		A:        st.A,
		X:        st.X,
		Y:        st.Y,
		SP:       st.SP,
		P:        st.P,
		Cycles:   c.Cycles(),
		Scanline: scanline,
		Dot:      dot,
		Frame:    c.FrameCount(),
		Next:     next,
	}
}

func (r Registers) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"pc":       int(r.PC),
		"a":        int(r.A),
		"x":        int(r.X),
		"y":        int(r.Y),
		"sp":       int(r.SP),
		"p":        int(r.P),
		"cycles":   float64(r.Cycles),
		"scanline": r.Scanline,
		"dot":      r.Dot,
		"frame":    float64(r.Frame),
		"next":     r.Next,
	})
}

func registersFromStruct(s *structpb.Struct) Registers {
	f := s.GetFields()
	num := func(k string) float64 { return f[k].GetNumberValue() }
	return Registers{
		PC:       uint16(num("pc")),
		A:        byte(num("a")),
		X:        byte(num("x")),
		Y:        byte(num("y")),
		SP:       byte(num("sp")),
		P:        byte(num("p")),
		Cycles:   uint64(num("cycles")),
		Scanline: int(num("scanline")),
		Dot:      int(num("dot")),
		Frame:    uint64(num("frame")),
		Next:     f["next"].GetStringValue(),
	}
}
