package main

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Overflow0xFFFF/nesproject/cpu"
	"github.com/Overflow0xFFFF/nesproject/server"
)

const rpcTimeout = 5 * time.Second

type debugger struct {
	client *server.Client
	out    io.Writer
}

func (d *debugger) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format, args...)
}

func (d *debugger) help() {
	d.printf(`Commands:
  run, c                - Resume execution
  pause, p              - Pause execution
  step, s [n]           - Step n instructions (default 1)
  regs, i r             - Print CPU registers
  x[/n] <addr>          - Examine memory (e.g. x 0000 or x/16 0000)
  disasm, d [n] [addr]  - Disassemble n instructions from addr (default PC)
  reset                 - Press the reset button
  save <file>           - Save state on the emulator host
  load <file>           - Load state on the emulator host
  frame <file.png>      - Write the current picture to a PNG file
  quit, q               - Exit debugger
`)
}

// exec runs one command line and reports whether the debugger should exit.
func (d *debugger) exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	cmd, args := parts[0], parts[1:]
	var err error
	switch {
	case cmd == "help" || cmd == "h":
		d.help()
	case cmd == "quit" || cmd == "q" || cmd == "exit":
		return true
	case cmd == "pause" || cmd == "p":
		if err = d.client.Pause(ctx); err == nil {
			d.printf("Emulator paused.\n")
			err = d.regs(ctx)
		}
	case cmd == "run" || cmd == "c" || cmd == "continue":
		if err = d.client.Resume(ctx); err == nil {
			d.printf("Emulator running...\n")
		}
	case cmd == "step" || cmd == "s":
		err = d.step(ctx, args)
	case cmd == "regs" || (cmd == "i" && len(args) > 0 && args[0] == "r"):
		err = d.regs(ctx)
	case cmd == "x" || strings.HasPrefix(cmd, "x/"):
		err = d.examine(ctx, cmd, args)
	case cmd == "disasm" || cmd == "d":
		err = d.disasm(ctx, args)
	case cmd == "reset":
		if err = d.client.Reset(ctx); err == nil {
			err = d.regs(ctx)
		}
	case cmd == "save" || cmd == "load":
		if len(args) != 1 {
			d.printf("Usage: %s <file>\n", cmd)
			return false
		}
		if cmd == "save" {
			err = d.client.SaveState(ctx, args[0])
		} else {
			err = d.client.LoadState(ctx, args[0])
		}
		if err == nil {
			d.printf("OK\n")
		}
	case cmd == "frame":
		if len(args) != 1 {
			d.printf("Usage: frame <file.png>\n")
			return false
		}
		err = d.frame(ctx, args[0])
	default:
		d.printf("Unknown command: %s\n", cmd)
	}
	if err != nil {
		d.printf("Error: %v\n", err)
	}
	return false
}

func (d *debugger) printRegs(r server.Registers) {
	d.printf("A: %02X  X: %02X  Y: %02X  SP: %02X  PC: %04X  P: %08b  CYC: %d  PPU: %d,%d\n",
		r.A, r.X, r.Y, r.SP, r.PC, r.P, r.Cycles, r.Scanline, r.Dot)
	d.printf("%04X: %s\n", r.PC, r.Next)
}

func (d *debugger) regs(ctx context.Context) error {
	r, err := d.client.GetCPUState(ctx)
	if err != nil {
		return err
	}
	d.printRegs(r)
	return nil
}

func (d *debugger) step(ctx context.Context, args []string) error {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		n = v
	}
	var r server.Registers
	for i := 0; i < n; i++ {
		var err error
		if r, err = d.client.Step(ctx); err != nil {
			return err
		}
	}
	d.printRegs(r)
	return nil
}

// parseAddr accepts hex with an optional $ or 0x prefix.
func parseAddr(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "$")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint16(v), nil
}

func (d *debugger) examine(ctx context.Context, cmd string, args []string) error {
	if len(args) == 0 {
		d.printf("Usage: x <addr> or x/<count> <addr>\n")
		return nil
	}
	count := 1
	if c, ok := strings.CutPrefix(cmd, "x/"); ok {
		v, err := strconv.Atoi(c)
		if err != nil || v <= 0 {
			return fmt.Errorf("invalid count %q", c)
		}
		count = v
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	data, err := d.client.ReadMemoryBlock(ctx, addr, count)
	if err != nil {
		return err
	}
	printHexDump(d.out, addr, data)
	return nil
}

// blockReader serves disassembler reads from a fetched memory window.
type blockReader struct {
	base uint16
	data []byte
}

func (b blockReader) Read(addr uint16) byte {
	if i := int(addr - b.base); i < len(b.data) {
		return b.data[i]
	}
	return 0
}

func (d *debugger) disasm(ctx context.Context, args []string) error {
	n := 10
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		n = v
	}
	regs, err := d.client.GetCPUState(ctx)
	if err != nil {
		return err
	}
	pc := regs.PC
	if len(args) > 1 {
		if pc, err = parseAddr(args[1]); err != nil {
			return err
		}
	}

	// Operands may point anywhere, so fetch the whole address space.
	data, err := d.client.ReadMemoryBlock(ctx, 0, server.MaxBlockSize)
	if err != nil {
		return err
	}
	c := cpu.New()
	c.X, c.Y = regs.X, regs.Y
	mem := blockReader{data: data}
	for i := 0; i < n; i++ {
		text, size := c.Disassemble(mem, pc)
		marker := "  "
		if pc == regs.PC {
			marker = "=>"
		}
		d.printf("%s %04X: %s\n", marker, pc, text)
		pc += size
	}
	return nil
}

func (d *debugger) frame(ctx context.Context, filename string) error {
	fb, err := d.client.GetFrame(ctx)
	if err != nil {
		return err
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, fb.Image()); err != nil {
		return err
	}
	d.printf("Wrote %s\n", filename)
	return f.Close()
}

func printHexDump(w io.Writer, startAddr uint16, data []byte) {
	for i := 0; i < len(data); i += 16 {
		fmt.Fprintf(w, "%04X:", startAddr+uint16(i))
		end := min(i+16, len(data))
		for j := i; j < end; j++ {
			fmt.Fprintf(w, " %02X", data[j])
		}
		fmt.Fprintln(w)
	}
}
