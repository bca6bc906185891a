// Package drivers provides sensorhub.DriverOps implementations usable
// with a real Hub, grounded on the teacher's backend package (same
// role: a concrete collaborator plugged into the core via its public
// interface), here simulating a physical sensor's asynchronous
// power/firmware/rate completions on goroutines instead of reading from
// a memory-backed byte range.
package drivers

import (
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/brodyw/sensorhub"
	"github.com/brodyw/sensorhub/internal/logging"
)

// Simulated is a DriverOps implementation that models power-on,
// firmware upload, and rate-change as asynchronous operations
// completing after a configurable delay, delivering their completion
// through the owning Hub's SignalInternalEvent — standing in for a real
// sensor's interrupt or DMA-completion handler (spec.md §4.2, §6).
//
// Registration is a chicken-and-egg problem: the driver must be handed
// to Hub.RegisterDriver before a handle exists, but completions need
// that handle. SetHandle resolves it: construct with handle 0, register,
// then call SetHandle with the value RegisterDriver returned.
type Simulated struct {
	handle atomic.Uint32
	hub    *sensorhub.Hub
	logger *logging.Logger

	powerOnDelay  time.Duration
	fwUploadDelay time.Duration
	rateChgDelay  time.Duration

	// FailureRate is the fraction (0.0-1.0) of operations that simulate
	// a driver-side failure (synchronous false return) instead of
	// succeeding. Zero by default.
	FailureRate float64
}

// NewSimulated creates a Simulated driver delivering completions
// through hub. Call SetHandle once hub.RegisterDriver returns this
// driver's handle. Delays default to a few milliseconds each,
// representative of real sensor power-rail and firmware-load timing.
func NewSimulated(hub *sensorhub.Hub) *Simulated {
	return &Simulated{
		hub:           hub,
		logger:        logging.Default(),
		powerOnDelay:  5 * time.Millisecond,
		fwUploadDelay: 10 * time.Millisecond,
		rateChgDelay:  2 * time.Millisecond,
	}
}

// SetHandle records the handle this driver's completions should target.
func (s *Simulated) SetHandle(handle uint32) {
	s.handle.Store(handle)
}

func (s *Simulated) fails() bool {
	return s.FailureRate > 0 && rand.Float64() < s.FailureRate
}

// Power implements sensorhub.DriverOps.
func (s *Simulated) Power(on bool) bool {
	if s.fails() {
		return false
	}
	go func() {
		time.Sleep(s.powerOnDelay)
		if !s.hub.SignalInternalEvent(s.handle.Load(), sensorhub.EventPowerStateChanged, boolToUint32(on), 0) {
			s.logger.Warn("simulated driver: power completion dropped", "handle", s.handle.Load())
		}
	}()
	return true
}

// FirmwareUpload implements sensorhub.DriverOps. finalRate is always a
// concrete placeholder rate on success (the caller's reconfig logic
// recomputes the real target immediately afterward); RateOff (0) on
// simulated failure.
func (s *Simulated) FirmwareUpload() bool {
	if s.fails() {
		return false
	}
	go func() {
		time.Sleep(s.fwUploadDelay)
		finalRate := uint32(1)
		if s.fails() {
			finalRate = 0
		}
		if !s.hub.SignalInternalEvent(s.handle.Load(), sensorhub.EventFwStateChanged, finalRate, 0) {
			s.logger.Warn("simulated driver: firmware completion dropped", "handle", s.handle.Load())
		}
	}()
	return true
}

// SetRate implements sensorhub.DriverOps.
func (s *Simulated) SetRate(rate uint32, latencyNs uint64) bool {
	if s.fails() {
		return false
	}
	go func() {
		time.Sleep(s.rateChgDelay)
		if !s.hub.SignalInternalEvent(s.handle.Load(), sensorhub.EventRateChanged, rate, latencyNs) {
			s.logger.Warn("simulated driver: rate completion dropped", "handle", s.handle.Load())
		}
	}()
	return true
}

// Flush implements sensorhub.DriverOps. Flush is treated as
// synchronous: no completion event exists for it (spec.md §4.2).
func (s *Simulated) Flush() bool {
	return !s.fails()
}

// TriggerOnDemand implements sensorhub.DriverOps. Synchronous, same as
// Flush.
func (s *Simulated) TriggerOnDemand() bool {
	return !s.fails()
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

var _ sensorhub.DriverOps = (*Simulated)(nil)
