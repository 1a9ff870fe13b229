// Command nestest runs the nestest CPU ROM in automation mode (PC=$C000)
// over a flat 64 KB memory and prints a nestest-format trace. With -log it
// compares the trace against a reference log and stops at the first
// divergence.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/glog"

	"github.com/Overflow0xFFFF/nesproject/cartridge"
	"github.com/Overflow0xFFFF/nesproject/cpu"
	"github.com/Overflow0xFFFF/nesproject/ppu"
)

const (
	automationStart = 0xC000
	resultAddr      = 0x0002
)

// flatMemory is plain RAM across the whole address space.
type flatMemory [0x10000]byte

func (m *flatMemory) Read(addr uint16) byte        { return m[addr] }
func (m *flatMemory) Write(addr uint16, data byte) { m[addr] = data }

// newMachine maps img's PRG at $8000, mirroring a single 16 KB bank, and
// points the CPU at the automation entry.
func newMachine(img *cartridge.Image) (*cpu.CPU, *flatMemory, uint64) {
	mem := &flatMemory{}
	copy(mem[0x8000:], img.PRG)
	if len(img.PRG) == cartridge.PRGBankSize {
		copy(mem[0xC000:], img.PRG)
	}
	c := cpu.New()
	cycles := uint64(c.Reset(mem))
	c.PC = automationStart
	return c, mem, cycles
}

// position derives the PPU scanline and dot from the CPU cycle count.
func position(cycles uint64) (int, int) {
	dots := cycles * 3
	return int(dots / ppu.DotsPerScanline % ppu.ScanlinesPerFrame), int(dots % ppu.DotsPerScanline)
}

// mismatchError reports the first line where the trace diverges.
type mismatchError struct {
	line      int
	got, want string
}

func (e *mismatchError) Error() string {
	return fmt.Sprintf("line %d differs\n got: %s\nwant: %s", e.line, e.got, e.want)
}

// run executes up to steps instructions, writing the trace to w. When ref
// is non-nil each line is compared with it, ignoring trailing spaces.
func run(img *cartridge.Image, steps int, w io.Writer, ref io.Reader) (byte, byte, error) {
	c, mem, cycles := newMachine(img)

	var want *bufio.Scanner
	if ref != nil {
		want = bufio.NewScanner(ref)
	}

	for i := 1; i <= steps; i++ {
		scanline, dot := position(cycles)
		line := c.Trace(mem, scanline, dot, cycles)
		fmt.Fprintln(w, line)

		if want != nil {
			if !want.Scan() {
				break
			}
			if ref := strings.TrimRight(want.Text(), " \r"); ref != strings.TrimRight(line, " ") {
				return mem[resultAddr], mem[resultAddr+1], &mismatchError{i, line, ref}
			}
		}

		n, err := c.Step(mem)
		if err != nil {
			return mem[resultAddr], mem[resultAddr+1], err
		}
		cycles += uint64(n)
	}
	return mem[resultAddr], mem[resultAddr+1], nil
}

func main() {
	romPath := flag.String("rom", "nestest/testdata/nestest.nes", "path to nestest.nes")
	logPath := flag.String("log", "", "reference nestest.log to compare against")
	steps := flag.Int("steps", 8991, "instructions to execute")
	flag.Parse()

	img, err := cartridge.Load(*romPath)
	if err != nil {
		glog.Exitf("Error loading nestest ROM from %s: %v", *romPath, err)
	}

	var ref io.Reader
	if *logPath != "" {
		f, err := os.Open(*logPath)
		if err != nil {
			glog.Exitf("Error opening reference log: %v", err)
		}
		defer f.Close()
		ref = f
	}

	out := bufio.NewWriter(os.Stdout)
	official, unofficial, err := run(img, *steps, out, ref)
	out.Flush()

	var mismatch *mismatchError
	switch {
	case errors.As(err, &mismatch):
		glog.Errorf("Trace diverged: %v", mismatch)
		os.Exit(1)
	case err != nil:
		glog.Errorf("CPU stopped: %v", err)
		os.Exit(1)
	}
	glog.Infof("Result codes: $02=%02X $03=%02X", official, unofficial)
	if official != 0 || unofficial != 0 {
		os.Exit(1)
	}
}
