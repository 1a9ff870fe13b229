package display

import (
	"encoding/binary"
	"math"
	"sync"
)

const (
	bytesPerFrame = 8 // two float32 channels
	silenceFrames = 256
)

// sampleQueue buffers mono APU samples for the audio player, which reads
// them as interleaved stereo float32.
type sampleQueue struct {
	mu      sync.Mutex
	samples []float32
	limit   int
}

func newSampleQueue(limit int) *sampleQueue {
	return &sampleQueue{limit: limit}
}

// Push appends a frame's samples, dropping the oldest ones past the limit.
func (q *sampleQueue) Push(samples []float32) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.samples = append(q.samples, samples...)
	if over := len(q.samples) - q.limit; over > 0 {
		q.samples = q.samples[over:]
	}
}

// Len returns the number of queued samples.
func (q *sampleQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.samples)
}

// Read implements io.Reader. When the queue is empty it returns a short
// run of silence so the player never stalls.
func (q *sampleQueue) Read(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	frames := len(p) / bytesPerFrame
	if len(q.samples) == 0 {
		n := min(frames, silenceFrames) * bytesPerFrame
		clear(p[:n])
		return n, nil
	}
	n := min(frames, len(q.samples))
	for i, s := range q.samples[:n] {
		bits := math.Float32bits(s)
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame:], bits)
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame+4:], bits)
	}
	q.samples = q.samples[n:]
	return n * bytesPerFrame, nil
}
