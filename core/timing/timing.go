// Package timing names the fixed clock constants the core is measured
// against (the CPU clock rate and the per-frame T-cycle budget) and
// provides the frame-rate limiters host loops use to pace VM.Step calls
// to real time.
package timing

import (
	"log/slog"
	"time"
)

const (
	// CPUFrequency is the LR35902 clock rate in Hz.
	CPUFrequency = 4194304

	// CyclesPerFrame is the number of T-cycles in one screen frame
	// (70224 = 456 cycles/line * 154 lines).
	CyclesPerFrame = 70224

	// FramesPerSecond is the nominal host refresh rate the console targets
	// (CPUFrequency / CyclesPerFrame, approximately 59.7 Hz).
	FramesPerSecond = float64(CPUFrequency) / float64(CyclesPerFrame)
)

// FrameDuration is the wall-clock time budget for one frame at FramesPerSecond.
func FrameDuration() time.Duration {
	second := float64(time.Second)
	return time.Duration(second / FramesPerSecond)
}

// Limiter paces a host loop to real time, one frame at a time.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame, or
	// returns immediately if the loop is already behind schedule.
	WaitForNextFrame()

	// Reset re-synchronizes the limiter to the current time, useful
	// after a pause (e.g. the terminal losing focus).
	Reset()
}

// noOpLimiter never blocks; used by headless benchmark/test-ROM runs that
// want to run as fast as possible.
type noOpLimiter struct{}

// NewNoOpLimiter returns a Limiter that never blocks.
func NewNoOpLimiter() Limiter { return &noOpLimiter{} }

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// TickerLimiter paces frames with a plain time.Ticker: simple and
// consistent, though it can accumulate drift under system load.
type TickerLimiter struct {
	ticker *time.Ticker
}

// NewTickerLimiter returns a Limiter driven by a time.Ticker at FrameDuration.
func NewTickerLimiter() *TickerLimiter {
	return &TickerLimiter{ticker: time.NewTicker(FrameDuration())}
}

func (t *TickerLimiter) WaitForNextFrame() { <-t.ticker.C }

func (t *TickerLimiter) Reset() { t.ticker.Reset(FrameDuration()) }

// Stop releases the underlying ticker; callers should defer this once the
// host loop exits.
func (t *TickerLimiter) Stop() { t.ticker.Stop() }

// AdaptiveLimiter combines a coarse sleep with a short busy-wait to land
// closer to the target frame boundary than a plain ticker can, and nudges
// its schedule back in line if it drifts by more than 10ms over a second
// of frames.
type AdaptiveLimiter struct {
	targetFrameTime time.Duration
	nextFrameTime   time.Time
	frameCounter    int64
}

// NewAdaptiveLimiter returns an AdaptiveLimiter synchronized to now.
func NewAdaptiveLimiter() *AdaptiveLimiter {
	return &AdaptiveLimiter{
		targetFrameTime: FrameDuration(),
		nextFrameTime:   time.Now(),
	}
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := time.Now()
	sleepTime := a.nextFrameTime.Sub(now)

	if sleepTime > 0 {
		if sleepTime < 2*time.Millisecond {
			for time.Now().Before(a.nextFrameTime) {
			}
		} else {
			time.Sleep(sleepTime - time.Millisecond)
			for time.Now().Before(a.nextFrameTime) {
			}
		}
	} else if sleepTime < -5*time.Millisecond {
		// badly behind schedule (e.g. after a pause): resync instead of
		// trying to burn through the backlog.
		a.nextFrameTime = now
	}

	a.nextFrameTime = a.nextFrameTime.Add(a.targetFrameTime)
	a.frameCounter++

	if a.frameCounter%60 == 0 {
		drift := time.Now().Sub(a.nextFrameTime)
		if drift.Abs() > 10*time.Millisecond {
			a.nextFrameTime = a.nextFrameTime.Add(drift / 10)
			slog.Debug("frame timing drift correction", "drift_ms", drift.Milliseconds())
		}
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.nextFrameTime = time.Now()
	a.frameCounter = 0
}
