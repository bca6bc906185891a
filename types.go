package sensorhub

import "fmt"

// Rate is a hardware sampling rate, or one of a small set of sentinel
// values. This is the currency the aggregator and the client request
// table deal in (spec.md §3, §4.4). The sentinel values reuse the
// reference firmware's exact constants where it defined them
// (SENSOR_RATE_OFF=0, POWERING_ON=0xFFFFFFF0, POWERING_OFF=0xFFFFFFF1,
// FW_UPLOADING=0xFFFFFFF2, IMPOSSIBLE=0xFFFFFFF3); ON_DEMAND/ON_CHANGE
// were defined elsewhere in that codebase and are assigned adjacent
// values here for continuity.
type Rate uint32

const (
	// RateOff means "no sampling" — a sensor's currentRate when idle. A
	// released request has its rate set to this value just before its
	// cell is freed from the table.
	RateOff Rate = 0

	// RatePoweringOn, RatePoweringOff, RateFwUploading are state-machine
	// sentinels: only ever observed as a sensor's current rate, never as
	// a client request or an aggregator result.
	RatePoweringOn  Rate = 0xFFFFFFF0
	RatePoweringOff Rate = 0xFFFFFFF1
	RateFwUploading Rate = 0xFFFFFFF2

	// RateImpossible is the aggregator's reject signal: no supported
	// rate satisfies the combined demand. Never stored anywhere; it is
	// only ever a return value checked by the caller.
	RateImpossible Rate = 0xFFFFFFF3

	// RateOnDemand and RateOnChange are pseudo-rates: a client wants to
	// manually trigger samples, or wants event-on-threshold-cross
	// sampling, rather than a periodic rate.
	RateOnDemand Rate = 0xFFFFFFF4
	RateOnChange Rate = 0xFFFFFFF5
)

func (r Rate) String() string {
	switch r {
	case RateOff:
		return "OFF"
	case RatePoweringOn:
		return "POWERING_ON"
	case RatePoweringOff:
		return "POWERING_OFF"
	case RateFwUploading:
		return "FW_UPLOADING"
	case RateImpossible:
		return "IMPOSSIBLE"
	case RateOnDemand:
		return "ON_DEMAND"
	case RateOnChange:
		return "ON_CHANGE"
	default:
		return fmt.Sprintf("%d", uint32(r))
	}
}

// Latency is a maximum batching latency in nanoseconds, or LatencyInvalid
// to mean "no batching requested".
type Latency uint64

// LatencyInvalid is the sentinel for "no batching" (spec.md §3).
const LatencyInvalid Latency = ^Latency(0)

func (l Latency) String() string {
	if l == LatencyInvalid {
		return "INVALID"
	}
	return fmt.Sprintf("%dns", uint64(l))
}

// SensorInfo is the immutable descriptor attached to a sensor at
// registration: its type tag and its ascending list of supported
// hardware rates. Implementations must pass SupportedRates in
// ascending order (spec.md §4.4 relies on scanning it in order).
type SensorInfo struct {
	SensorType      uint32
	SupportedRates  []Rate
	Name            string
}

// StateKind is the sensor's position in the power/firmware state
// machine (spec.md §4.5). Unlike the reference firmware, which overloads
// a single currentRate field with both these states and the running
// rate, this is a tagged variant per spec.md §9's design note: cleaner,
// same specified behavior.
type StateKind uint8

const (
	StateOff StateKind = iota
	StatePoweringOn
	StateFwUploading
	StatePoweringOff
	StateRunning
)

func (k StateKind) String() string {
	switch k {
	case StateOff:
		return "Off"
	case StatePoweringOn:
		return "PoweringOn"
	case StateFwUploading:
		return "FwUploading"
	case StatePoweringOff:
		return "PoweringOff"
	case StateRunning:
		return "Running"
	default:
		return "Unknown"
	}
}

// SensorState is a sensor's current position in the state machine. Rate
// and Latency are only meaningful when Kind == StateRunning; Rate may
// itself be a concrete numeric rate, RateOnDemand, or RateOnChange in
// that case.
type SensorState struct {
	Kind    StateKind
	Rate    Rate
	Latency Latency
}

func (s SensorState) String() string {
	if s.Kind != StateRunning {
		return s.Kind.String()
	}
	return fmt.Sprintf("Running(%s, %s)", s.Rate, s.Latency)
}

// curRate converts a SensorState to the sentinel-overloaded Rate the
// public API's GetCurRate exposes (spec.md §4.6, §8).
func (s SensorState) curRate() Rate {
	switch s.Kind {
	case StateOff:
		return RateOff
	case StatePoweringOn:
		return RatePoweringOn
	case StateFwUploading:
		return RateFwUploading
	case StatePoweringOff:
		return RatePoweringOff
	default:
		return s.Rate
	}
}

func (s SensorState) curLatency() Latency {
	if s.Kind != StateRunning {
		return LatencyInvalid
	}
	return s.Latency
}

// ClientRequest is one (sensorHandle, clientId) entry in the request
// table (spec.md §3).
type ClientRequest struct {
	SensorHandle uint32
	ClientID     uint32
	Rate         Rate
	Latency      Latency
}
