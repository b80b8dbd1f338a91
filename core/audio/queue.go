package audio

import "sync"

// sampleQueueCapacity bounds the producer (APU Tick) against a host that
// isn't draining fast enough: once full, new frames are dropped rather than
// growing the buffer without bound.
const sampleQueueCapacity = 4096

// SampleQueue is a bounded single-producer/single-consumer queue of stereo
// sample frames. The APU is the sole producer (from Tick); the host backend
// is the sole consumer (via Drain). A mutex guards the shared ring since Go
// gives no lock-free primitive for this without unsafe.
type SampleQueue struct {
	mu      sync.Mutex
	left    []float32
	right   []float32
	dropped uint64
}

func newSampleQueue() *SampleQueue {
	return &SampleQueue{
		left:  make([]float32, 0, sampleQueueCapacity),
		right: make([]float32, 0, sampleQueueCapacity),
	}
}

// push enqueues one stereo frame, dropping it silently if the queue is full.
func (q *SampleQueue) push(left, right float32) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.left) >= sampleQueueCapacity {
		q.dropped++
		return
	}
	q.left = append(q.left, left)
	q.right = append(q.right, right)
}

// Drain pulls up to n stereo frames as interleaved [L0,R0,L1,R1,...] float32
// samples in [-1, 1]. Fewer than n may be returned if the queue is short.
func (q *SampleQueue) Drain(n int) []float32 {
	if n <= 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	avail := len(q.left)
	if n > avail {
		n = avail
	}

	out := make([]float32, n*2)
	for i := 0; i < n; i++ {
		out[i*2] = q.left[i]
		out[i*2+1] = q.right[i]
	}

	q.left = q.left[:copy(q.left, q.left[n:])]
	q.right = q.right[:copy(q.right, q.right[n:])]
	return out
}

// Dropped returns the number of frames discarded so far due to backpressure.
func (q *SampleQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
