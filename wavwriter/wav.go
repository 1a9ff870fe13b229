// Package wavwriter records the console's audio output to a WAV file.
// Samples are encoded as they arrive, one batch per frame, so long
// sessions do not accumulate in memory.
package wavwriter

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/golang/glog"
)

const bitDepth = 16

// WavWriter encodes mono 16-bit PCM.
type WavWriter struct {
	filename string
	file     *os.File
	enc      *wav.Encoder
	buf      *audio.IntBuffer
	written  int
}

// New creates filename and prepares it for samples at sampleRate Hz.
func New(filename string, sampleRate int) (*WavWriter, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("wavwriter: %w", err)
	}
	return &WavWriter{
		filename: filename,
		file:     f,
		enc:      wav.NewEncoder(f, sampleRate, bitDepth, 1, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Write appends a batch of mixer samples in [0, 1].
func (w *WavWriter) Write(samples []float32) error {
	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, s := range samples {
		w.buf.Data[i] = toPCM(s)
	}
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	w.written += len(samples)
	return nil
}

// Close finalises the header and closes the file.
func (w *WavWriter) Close() error {
	if err := w.enc.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("wavwriter: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	glog.Infof("Wrote %d samples to %s", w.written, w.filename)
	return nil
}

func toPCM(s float32) int {
	v := int(s * 32767)
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	}
	return v
}
