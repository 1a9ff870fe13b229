package apu

type EnvelopeState struct {
	Start, Loop, Constant  bool
	Period, Divider, Decay byte
}

type PulseState struct {
	Enabled, IsPulse1, SweepEnabled, SweepNegate, SweepReloadFlag                  bool
	DutyCycle, DutySequencer, SweepPeriod, SweepShift, SweepCounter, LengthCounter byte
	Timer, TimerCounter                                                            uint16
	Envelope                                                                       EnvelopeState
}

type TriangleState struct {
	Enabled, LengthCounterHalt, LinearCounterReloadFlag            bool
	LinearCounterLoad, LinearCounter, LengthCounter, DutySequencer byte
	Timer, TimerCounter                                            uint16
}

type NoiseState struct {
	Enabled, Mode               bool
	TimerPeriod, LengthCounter  byte
	ShiftRegister, TimerCounter uint16
	Envelope                    EnvelopeState
}

type DMCState struct {
	IrqEnabled, Loop, SampleBufferEmpty, SilenceFlag, IrqPending       bool
	RateIndex, OutputLevel, ShiftRegister, BitsRemaining, SampleBuffer byte
	Timer, SampleAddress, SampleLength, CurrentAddress, BytesRemaining uint16
}

type State struct {
	Pulse1             PulseState
	Pulse2             PulseState
	Triangle           TriangleState
	Noise              NoiseState
	DMC                DMCState
	Cycle              uint64
	FrameCounter       uint32
	SequenceMode       byte
	IrqInhibit         bool
	FrameIRQ           bool
	SampleCycleCounter float64
}

func (e *envelope) saveState() EnvelopeState {
	return EnvelopeState{e.start, e.loop, e.constant, e.period, e.divider, e.decay}
}

func (e *envelope) loadState(s EnvelopeState) {
	e.start, e.loop, e.constant, e.period, e.divider, e.decay = s.Start, s.Loop, s.Constant, s.Period, s.Divider, s.Decay
}

func (p *PulseChannel) SaveState() PulseState {
	return PulseState{p.enabled, p.isPulse1, p.sweepEnabled, p.sweepNegate, p.sweepReloadFlag, p.dutyCycle, p.dutySequencer, p.sweepPeriod, p.sweepShift, p.sweepCounter, p.lengthCounter, p.timer, p.timerCounter, p.env.saveState()}
}

func (p *PulseChannel) LoadState(s PulseState) {
	p.enabled, p.isPulse1, p.sweepEnabled, p.sweepNegate, p.sweepReloadFlag = s.Enabled, s.IsPulse1, s.SweepEnabled, s.SweepNegate, s.SweepReloadFlag
	p.dutyCycle, p.dutySequencer, p.sweepPeriod, p.sweepShift, p.sweepCounter, p.lengthCounter = s.DutyCycle, s.DutySequencer, s.SweepPeriod, s.SweepShift, s.SweepCounter, s.LengthCounter
	p.timer, p.timerCounter = s.Timer, s.TimerCounter
	p.env.loadState(s.Envelope)
}

func (t *TriangleChannel) SaveState() TriangleState {
	return TriangleState{t.enabled, t.lengthCounterHalt, t.linearCounterReloadFlag, t.linearCounterLoad, t.linearCounter, t.lengthCounter, t.dutySequencer, t.timer, t.timerCounter}
}

func (t *TriangleChannel) LoadState(s TriangleState) {
	t.enabled, t.lengthCounterHalt, t.linearCounterReloadFlag, t.linearCounterLoad, t.linearCounter, t.lengthCounter, t.dutySequencer, t.timer, t.timerCounter = s.Enabled, s.LengthCounterHalt, s.LinearCounterReloadFlag, s.LinearCounterLoad, s.LinearCounter, s.LengthCounter, s.DutySequencer, s.Timer, s.TimerCounter
}

func (n *NoiseChannel) SaveState() NoiseState {
	return NoiseState{n.enabled, n.mode, n.timerPeriod, n.lengthCounter, n.shiftRegister, n.timerCounter, n.env.saveState()}
}

func (n *NoiseChannel) LoadState(s NoiseState) {
	n.enabled, n.mode, n.timerPeriod, n.lengthCounter, n.shiftRegister, n.timerCounter = s.Enabled, s.Mode, s.TimerPeriod, s.LengthCounter, s.ShiftRegister, s.TimerCounter
	n.env.loadState(s.Envelope)
}

func (d *DMCChannel) SaveState() DMCState {
	return DMCState{d.irqEnabled, d.loop, d.sampleBufferEmpty, d.silenceFlag, d.irqPending, d.rateIndex, d.outputLevel, d.shiftRegister, d.bitsRemaining, d.sampleBuffer, d.timer, d.sampleAddress, d.sampleLength, d.currentAddress, d.bytesRemaining}
}

func (d *DMCChannel) LoadState(s DMCState) {
	d.irqEnabled, d.loop, d.sampleBufferEmpty, d.silenceFlag, d.irqPending, d.rateIndex, d.outputLevel, d.shiftRegister, d.bitsRemaining, d.sampleBuffer, d.timer, d.sampleAddress, d.sampleLength, d.currentAddress, d.bytesRemaining = s.IrqEnabled, s.Loop, s.SampleBufferEmpty, s.SilenceFlag, s.IrqPending, s.RateIndex, s.OutputLevel, s.ShiftRegister, s.BitsRemaining, s.SampleBuffer, s.Timer, s.SampleAddress, s.SampleLength, s.CurrentAddress, s.BytesRemaining
}

// SaveState captures the APU. Samples not yet handed over are not part of
// the state.
func (a *APU) SaveState() State {
	return State{a.pulse1.SaveState(), a.pulse2.SaveState(), a.triangle.SaveState(), a.noise.SaveState(), a.dmc.SaveState(), a.cycle, a.frameCounter, a.sequenceMode, a.irqInhibit, a.frameIRQ, a.sampleCycleCounter}
}

func (a *APU) LoadState(s State) {
	a.pulse1.LoadState(s.Pulse1)
	a.pulse2.LoadState(s.Pulse2)
	a.triangle.LoadState(s.Triangle)
	a.noise.LoadState(s.Noise)
	a.dmc.LoadState(s.DMC)
	a.cycle, a.frameCounter, a.sequenceMode, a.irqInhibit, a.frameIRQ, a.sampleCycleCounter = s.Cycle, s.FrameCounter, s.SequenceMode, s.IrqInhibit, s.FrameIRQ, s.SampleCycleCounter
	a.sampleBuffer = a.sampleBuffer[:0]
}
