package apu

var lengthCounterTable = [...]byte{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

var dutyCycles = [4][8]byte{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 25% negated
}

var triangleWaveform = [32]byte{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// Periods in CPU cycles.
var noiseTimerTable = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068,
}

var dmcRateTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54,
}

// envelope is the volume generator shared by the pulse and noise channels.
type envelope struct {
	start    bool
	loop     bool // also halts the length counter
	constant bool
	period   byte // also the constant volume
	divider  byte
	decay    byte
}

func (e *envelope) write(data byte) {
	e.loop = data&0x20 != 0
	e.constant = data&0x10 != 0
	e.period = data & 0x0F
}

func (e *envelope) clock() {
	if e.start {
		e.start = false
		e.decay = 15
		e.divider = e.period
		return
	}
	if e.divider > 0 {
		e.divider--
		return
	}
	e.divider = e.period
	if e.decay > 0 {
		e.decay--
	} else if e.loop {
		e.decay = 15
	}
}

func (e *envelope) volume() byte {
	if e.constant {
		return e.period
	}
	return e.decay
}

// PulseChannel represents a single pulse wave channel.
type PulseChannel struct {
	enabled  bool
	isPulse1 bool // sweep negates with ones' complement

	dutyCycle     byte
	dutySequencer byte
	env           envelope

	sweepEnabled    bool
	sweepPeriod     byte
	sweepNegate     bool
	sweepShift      byte
	sweepReloadFlag bool
	sweepCounter    byte

	timer         uint16
	timerCounter  uint16
	lengthCounter byte
}

func (p *PulseChannel) cpuWrite(reg uint16, data byte) {
	switch reg {
	case 0:
		p.dutyCycle = data >> 6
		p.env.write(data)
	case 1:
		p.sweepEnabled = data&0x80 != 0
		p.sweepPeriod = data >> 4 & 0x07
		p.sweepNegate = data&0x08 != 0
		p.sweepShift = data & 0x07
		p.sweepReloadFlag = true
	case 2:
		p.timer = p.timer&0xFF00 | uint16(data)
	case 3:
		p.timer = p.timer&0x00FF | uint16(data&0x07)<<8
		if p.enabled {
			p.lengthCounter = lengthCounterTable[data>>3]
		}
		p.dutySequencer = 0
		p.env.start = true
	}
}

// Clock advances the timer by one APU cycle (two CPU cycles).
func (p *PulseChannel) Clock() {
	if p.timerCounter > 0 {
		p.timerCounter--
		return
	}
	p.timerCounter = p.timer
	p.dutySequencer = (p.dutySequencer + 1) % 8
}

func (p *PulseChannel) sweepTarget() uint16 {
	change := p.timer >> p.sweepShift
	if !p.sweepNegate {
		return p.timer + change
	}
	if p.isPulse1 {
		change++
	}
	if change > p.timer {
		return 0
	}
	return p.timer - change
}

func (p *PulseChannel) muted() bool {
	return p.timer < 8 || p.sweepTarget() > 0x7FF
}

func (p *PulseChannel) clockSweep() {
	if p.sweepCounter == 0 && p.sweepEnabled && p.sweepShift > 0 && !p.muted() {
		p.timer = p.sweepTarget()
	}
	if p.sweepCounter == 0 || p.sweepReloadFlag {
		p.sweepCounter = p.sweepPeriod
		p.sweepReloadFlag = false
	} else {
		p.sweepCounter--
	}
}

func (p *PulseChannel) clockLength() {
	if !p.env.loop && p.lengthCounter > 0 {
		p.lengthCounter--
	}
}

// SetEnabled enables or disables the channel.
func (p *PulseChannel) SetEnabled(enabled bool) {
	p.enabled = enabled
	if !enabled {
		p.lengthCounter = 0
	}
}

func (p *PulseChannel) output() byte {
	if p.lengthCounter == 0 || p.muted() || dutyCycles[p.dutyCycle][p.dutySequencer] == 0 {
		return 0
	}
	return p.env.volume()
}

// TriangleChannel represents the triangle wave channel.
type TriangleChannel struct {
	enabled bool

	lengthCounterHalt       bool // also the linear counter control flag
	linearCounterLoad       byte
	linearCounter           byte
	linearCounterReloadFlag bool

	timer         uint16
	timerCounter  uint16
	lengthCounter byte
	dutySequencer byte
}

func (t *TriangleChannel) cpuWrite(reg uint16, data byte) {
	switch reg {
	case 0:
		t.lengthCounterHalt = data&0x80 != 0
		t.linearCounterLoad = data & 0x7F
	case 2:
		t.timer = t.timer&0xFF00 | uint16(data)
	case 3:
		t.timer = t.timer&0x00FF | uint16(data&0x07)<<8
		if t.enabled {
			t.lengthCounter = lengthCounterTable[data>>3]
		}
		t.linearCounterReloadFlag = true
	}
}

// Clock advances the timer by one CPU cycle.
func (t *TriangleChannel) Clock() {
	if t.timerCounter > 0 {
		t.timerCounter--
		return
	}
	t.timerCounter = t.timer
	if t.linearCounter > 0 && t.lengthCounter > 0 {
		t.dutySequencer = (t.dutySequencer + 1) % 32
	}
}

func (t *TriangleChannel) clockLinear() {
	if t.linearCounterReloadFlag {
		t.linearCounter = t.linearCounterLoad
	} else if t.linearCounter > 0 {
		t.linearCounter--
	}
	if !t.lengthCounterHalt {
		t.linearCounterReloadFlag = false
	}
}

func (t *TriangleChannel) clockLength() {
	if !t.lengthCounterHalt && t.lengthCounter > 0 {
		t.lengthCounter--
	}
}

func (t *TriangleChannel) SetEnabled(enabled bool) {
	t.enabled = enabled
	if !enabled {
		t.lengthCounter = 0
	}
}

// The sequencer holds its position when halted, so the output does too.
func (t *TriangleChannel) output() byte {
	return triangleWaveform[t.dutySequencer]
}

// NoiseChannel represents the noise channel.
type NoiseChannel struct {
	enabled bool
	env     envelope

	mode          bool
	timerPeriod   byte
	timerCounter  uint16
	shiftRegister uint16
	lengthCounter byte
}

func (n *NoiseChannel) cpuWrite(reg uint16, data byte) {
	switch reg {
	case 0:
		n.env.write(data)
	case 2:
		n.mode = data&0x80 != 0
		n.timerPeriod = data & 0x0F
	case 3:
		if n.enabled {
			n.lengthCounter = lengthCounterTable[data>>3]
		}
		n.env.start = true
	}
}

// Clock advances the timer by one CPU cycle.
func (n *NoiseChannel) Clock() {
	if n.timerCounter > 0 {
		n.timerCounter--
		return
	}
	n.timerCounter = noiseTimerTable[n.timerPeriod] - 1

	tap := uint16(1)
	if n.mode {
		tap = 6
	}
	feedback := (n.shiftRegister ^ n.shiftRegister>>tap) & 1
	n.shiftRegister = n.shiftRegister>>1 | feedback<<14
}

func (n *NoiseChannel) clockLength() {
	if !n.env.loop && n.lengthCounter > 0 {
		n.lengthCounter--
	}
}

func (n *NoiseChannel) SetEnabled(enabled bool) {
	n.enabled = enabled
	if !enabled {
		n.lengthCounter = 0
	}
}

func (n *NoiseChannel) output() byte {
	if n.lengthCounter == 0 || n.shiftRegister&1 == 1 {
		return 0
	}
	return n.env.volume()
}

// DMCChannel represents the delta modulation channel. It never touches the
// bus itself: when its sample buffer runs dry it raises a fetch request
// that the scheduler services with Fill.
type DMCChannel struct {
	irqEnabled bool
	loop       bool
	rateIndex  byte
	timer      uint16

	sampleAddress  uint16
	sampleLength   uint16
	currentAddress uint16
	bytesRemaining uint16

	outputLevel       byte
	shiftRegister     byte
	bitsRemaining     byte
	silenceFlag       bool
	sampleBuffer      byte
	sampleBufferEmpty bool

	irqPending bool
}

func (d *DMCChannel) cpuWrite(reg uint16, data byte) {
	switch reg {
	case 0:
		d.irqEnabled = data&0x80 != 0
		if !d.irqEnabled {
			d.irqPending = false
		}
		d.loop = data&0x40 != 0
		d.rateIndex = data & 0x0F
	case 1:
		d.outputLevel = data & 0x7F
	case 2:
		d.sampleAddress = 0xC000 + uint16(data)*64
	case 3:
		d.sampleLength = uint16(data)*16 + 1
	}
}

func (d *DMCChannel) SetEnabled(enabled bool) {
	d.irqPending = false
	if !enabled {
		d.bytesRemaining = 0
	} else if d.bytesRemaining == 0 {
		d.currentAddress = d.sampleAddress
		d.bytesRemaining = d.sampleLength
	}
}

// Clock advances the output unit by one CPU cycle.
func (d *DMCChannel) Clock() {
	if d.timer > 0 {
		d.timer--
		return
	}
	d.timer = dmcRateTable[d.rateIndex] - 1

	if !d.silenceFlag {
		if d.shiftRegister&1 == 1 {
			if d.outputLevel <= 125 {
				d.outputLevel += 2
			}
		} else if d.outputLevel >= 2 {
			d.outputLevel -= 2
		}
	}
	d.shiftRegister >>= 1

	if d.bitsRemaining > 0 {
		d.bitsRemaining--
	}
	if d.bitsRemaining == 0 {
		d.bitsRemaining = 8
		if d.sampleBufferEmpty {
			d.silenceFlag = true
		} else {
			d.silenceFlag = false
			d.shiftRegister = d.sampleBuffer
			d.sampleBufferEmpty = true
		}
	}
}

func (d *DMCChannel) needsFetch() bool {
	return d.sampleBufferEmpty && d.bytesRemaining > 0
}

func (d *DMCChannel) fill(data byte) {
	d.sampleBuffer = data
	d.sampleBufferEmpty = false
	d.currentAddress++
	if d.currentAddress == 0 {
		d.currentAddress = 0x8000
	}
	d.bytesRemaining--
	if d.bytesRemaining > 0 {
		return
	}
	if d.loop {
		d.currentAddress = d.sampleAddress
		d.bytesRemaining = d.sampleLength
	} else if d.irqEnabled {
		d.irqPending = true
	}
}

func (d *DMCChannel) output() byte {
	return d.outputLevel
}
