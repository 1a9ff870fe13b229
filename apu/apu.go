// Package apu implements the 2A03 audio processing unit: two pulse
// channels, a triangle, a noise generator and the delta modulation
// channel, driven by the frame counter and mixed through the non-linear
// output tables.
package apu

// CPUClockRate is the NTSC CPU clock in Hz. The APU is ticked once per
// CPU cycle.
const CPUClockRate = 1789773.0

// DefaultSampleRate is the output rate used when none is configured.
const DefaultSampleRate = 44100

// Frame counter steps, in CPU cycles since the last $4017 write.
const (
	stepQuarter1   = 7457
	stepHalf1      = 14913
	stepQuarter3   = 22371
	stepFourIRQ    = 29828
	stepFourLast   = 29829
	stepFourPeriod = 29830
	stepFiveLast   = 37281
	stepFivePeriod = 37282
)

// Status bits of $4015.
const (
	statusFrameIRQ = 0x40
	statusDMCIRQ   = 0x80
)

var (
	pulseTable [31]float32
	tndTable   [203]float32
)

func init() {
	for i := 1; i < len(pulseTable); i++ {
		pulseTable[i] = float32(95.52 / (8128.0/float64(i) + 100))
	}
	for i := 1; i < len(tndTable); i++ {
		tndTable[i] = float32(163.67 / (24329.0/float64(i) + 100))
	}
}

// APU represents the Audio Processing Unit.
type APU struct {
	pulse1   PulseChannel
	pulse2   PulseChannel
	triangle TriangleChannel
	noise    NoiseChannel
	dmc      DMCChannel

	cycle        uint64 // CPU cycles since reset
	frameCounter uint32 // CPU cycles since the last $4017 write
	sequenceMode byte   // 0 for 4-step, 1 for 5-step
	irqInhibit   bool
	frameIRQ     bool

	sampleRate         float64
	sampleCycleCounter float64
	sampleBuffer       []float32
}

// New creates an APU producing samples at sampleRate Hz.
func New(sampleRate int) *APU {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	a := &APU{sampleRate: float64(sampleRate)}
	a.pulse1.isPulse1 = true
	a.sampleBuffer = make([]float32, 0, sampleRate/50)
	a.Reset()
	return a
}

// Reset silences every channel and restarts the frame counter in 4-step
// mode.
func (a *APU) Reset() {
	a.CPUWrite(0x4015, 0)
	a.CPUWrite(0x4017, 0)
	a.noise.shiftRegister = 1
	a.dmc.outputLevel = 0
	a.dmc.bitsRemaining = 8
	a.dmc.sampleBufferEmpty = true
	a.dmc.silenceFlag = true
	a.dmc.irqPending = false
	a.frameIRQ = false
}

// SampleRate returns the output sample rate in Hz.
func (a *APU) SampleRate() int {
	return int(a.sampleRate)
}

// Clock performs one APU clock cycle, which is one CPU cycle.
func (a *APU) Clock() {
	a.triangle.Clock()
	a.noise.Clock()
	a.dmc.Clock()
	if a.cycle%2 == 1 {
		a.pulse1.Clock()
		a.pulse2.Clock()
	}

	a.frameCounter++
	a.clockFrameCounter()

	a.sampleCycleCounter += a.sampleRate
	if a.sampleCycleCounter >= CPUClockRate {
		a.sampleCycleCounter -= CPUClockRate
		a.sampleBuffer = append(a.sampleBuffer, a.output())
	}

	a.cycle++
}

func (a *APU) clockFrameCounter() {
	if a.sequenceMode == 0 {
		switch a.frameCounter {
		case stepQuarter1, stepQuarter3:
			a.clockEnvelopesAndLinearCounter()
		case stepHalf1:
			a.clockEnvelopesAndLinearCounter()
			a.clockLengthAndSweeps()
		case stepFourIRQ:
			a.raiseFrameIRQ()
		case stepFourLast:
			a.clockEnvelopesAndLinearCounter()
			a.clockLengthAndSweeps()
			a.raiseFrameIRQ()
		case stepFourPeriod:
			a.raiseFrameIRQ()
			a.frameCounter = 0
		}
		return
	}

	switch a.frameCounter {
	case stepQuarter1, stepQuarter3:
		a.clockEnvelopesAndLinearCounter()
	case stepHalf1, stepFiveLast:
		a.clockEnvelopesAndLinearCounter()
		a.clockLengthAndSweeps()
	case stepFivePeriod:
		a.frameCounter = 0
	}
}

func (a *APU) raiseFrameIRQ() {
	if !a.irqInhibit {
		a.frameIRQ = true
	}
}

func (a *APU) clockEnvelopesAndLinearCounter() {
	a.pulse1.env.clock()
	a.pulse2.env.clock()
	a.triangle.clockLinear()
	a.noise.env.clock()
}

func (a *APU) clockLengthAndSweeps() {
	a.pulse1.clockLength()
	a.pulse1.clockSweep()
	a.pulse2.clockLength()
	a.pulse2.clockSweep()
	a.triangle.clockLength()
	a.noise.clockLength()
}

// output returns the current mixed sample in [0, 1).
func (a *APU) output() float32 {
	p := a.pulse1.output() + a.pulse2.output()
	tnd := 3*int(a.triangle.output()) + 2*int(a.noise.output()) + int(a.dmc.output())
	return pulseTable[p] + tndTable[tnd]
}

// Samples hands over the samples produced since the previous call. The
// caller owns the returned slice.
func (a *APU) Samples() []float32 {
	out := a.sampleBuffer
	a.sampleBuffer = make([]float32, 0, cap(out))
	return out
}

// IRQ reports the level of the APU interrupt line.
func (a *APU) IRQ() bool {
	return a.frameIRQ || a.dmc.irqPending
}

// DMCRequest reports whether the DMC needs its next sample byte and the
// address it must come from.
func (a *APU) DMCRequest() (uint16, bool) {
	if !a.dmc.needsFetch() {
		return 0, false
	}
	return a.dmc.currentAddress, true
}

// DMCFill delivers the byte fetched for the last DMCRequest.
func (a *APU) DMCFill(data byte) {
	a.dmc.fill(data)
}

// PeekStatus returns $4015 without clearing the frame interrupt. Bit 5
// is open bus and left clear.
func (a *APU) PeekStatus() byte {
	var data byte
	if a.pulse1.lengthCounter > 0 {
		data |= 0x01
	}
	if a.pulse2.lengthCounter > 0 {
		data |= 0x02
	}
	if a.triangle.lengthCounter > 0 {
		data |= 0x04
	}
	if a.noise.lengthCounter > 0 {
		data |= 0x08
	}
	if a.dmc.bytesRemaining > 0 {
		data |= 0x10
	}
	if a.frameIRQ {
		data |= statusFrameIRQ
	}
	if a.dmc.irqPending {
		data |= statusDMCIRQ
	}
	return data
}

// ReadStatus services a CPU read of $4015, acknowledging the frame
// interrupt.
func (a *APU) ReadStatus() byte {
	data := a.PeekStatus()
	a.frameIRQ = false
	return data
}

// CPUWrite handles CPU writes to the APU's registers.
func (a *APU) CPUWrite(addr uint16, data byte) {
	switch {
	case addr >= 0x4000 && addr <= 0x4003:
		a.pulse1.cpuWrite(addr&0x03, data)
	case addr >= 0x4004 && addr <= 0x4007:
		a.pulse2.cpuWrite(addr&0x03, data)
	case addr >= 0x4008 && addr <= 0x400B:
		a.triangle.cpuWrite(addr&0x03, data)
	case addr >= 0x400C && addr <= 0x400F:
		a.noise.cpuWrite(addr&0x03, data)
	case addr >= 0x4010 && addr <= 0x4013:
		a.dmc.cpuWrite(addr&0x03, data)
	case addr == 0x4015:
		a.pulse1.SetEnabled(data&0x01 != 0)
		a.pulse2.SetEnabled(data&0x02 != 0)
		a.triangle.SetEnabled(data&0x04 != 0)
		a.noise.SetEnabled(data&0x08 != 0)
		a.dmc.SetEnabled(data&0x10 != 0)
	case addr == 0x4017:
		a.sequenceMode = data >> 7
		a.irqInhibit = data&0x40 != 0
		if a.irqInhibit {
			a.frameIRQ = false
		}
		a.frameCounter = 0
		if a.sequenceMode == 1 {
			a.clockEnvelopesAndLinearCounter()
			a.clockLengthAndSweeps()
		}
	}
}
