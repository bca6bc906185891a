// Package sensorhub: public API (spec.md §4.6).
package sensorhub

import (
	"github.com/brodyw/sensorhub/internal/constants"
	"github.com/brodyw/sensorhub/internal/interfaces"
	"github.com/brodyw/sensorhub/internal/logging"
	"github.com/brodyw/sensorhub/internal/slab"
)

// HubConfig holds Hub construction parameters, mirroring the teacher's
// DeviceParams: a flat struct of fields with a DefaultHubConfig
// constructor.
type HubConfig struct {
	MaxSensors        int
	MaxRequests       int
	MaxInternalEvents int

	Scheduler Scheduler
	Sink      PrivateEventSink
	Observer  Observer
	Logger    *logging.Logger
}

// DefaultHubConfig returns a HubConfig with default capacities. Scheduler
// and Sink must still be supplied by the caller: the core has no
// opinion on what scheduler or applet transport is in use (spec.md §6).
func DefaultHubConfig(sched Scheduler, sink PrivateEventSink) HubConfig {
	return HubConfig{
		MaxSensors:        constants.DefaultMaxSensors,
		MaxRequests:       constants.DefaultMaxRequests,
		MaxInternalEvents: constants.DefaultMaxInternalEvents,
		Scheduler:         sched,
		Sink:              sink,
		Logger:            logging.Default(),
	}
}

// internalEvent is the completion-event payload delivered through
// SignalInternalEvent (spec.md §4.5, §6): a sensor handle plus the two
// kind-specific values (nowOn/finalRate as value1, finalLatency as
// value2, etc.).
type internalEvent struct {
	handle uint32
	value1 uint32
	value2 uint64
}

// InternalEventKind enumerates the completion events the state machine
// consumes via SignalInternalEvent (spec.md §6).
type InternalEventKind int

const (
	EventPowerStateChanged InternalEventKind = iota
	EventFwStateChanged
	EventRateChanged
)

// Hub is the sensor-multiplexing core: registry + request table +
// aggregator + state machine, wired together behind the public API of
// spec.md §4.6.
type Hub struct {
	reg             *registry
	reqs            *requestTable
	events          *slab.Allocator[internalEvent]
	setRatePayloads *slab.Allocator[interfaces.SetRatePayload]

	sched    Scheduler
	sink     PrivateEventSink
	observer Observer
	logger   *logging.Logger
}

// NewHub constructs a Hub from cfg.
func NewHub(cfg HubConfig) *Hub {
	if cfg.MaxSensors <= 0 {
		cfg.MaxSensors = constants.DefaultMaxSensors
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = constants.DefaultMaxRequests
	}
	if cfg.MaxInternalEvents <= 0 {
		cfg.MaxInternalEvents = constants.DefaultMaxInternalEvents
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		reg:             newRegistry(cfg.MaxSensors),
		reqs:            newRequestTable(cfg.MaxRequests),
		events:          slab.New[internalEvent](cfg.MaxInternalEvents),
		setRatePayloads: slab.New[interfaces.SetRatePayload](cfg.MaxInternalEvents),
		sched:           cfg.Scheduler,
		sink:            cfg.Sink,
		observer:        cfg.Observer,
		logger:          logger,
	}
}

// RegisterDriver registers a sensor dispatched directly through ops
// (spec.md §4.1, the sensorRegister path).
func (h *Hub) RegisterDriver(info SensorInfo, ops DriverOps) uint32 {
	handle := h.reg.register(info, NewDriverBinding(ops), h.reqs.referencesHandle)
	if h.observer != nil {
		h.observer.ObserveRegistration(info.SensorType, handle != 0)
	}
	if handle == 0 {
		h.logger.Warn("register failed: sensor table full", "sensorType", info.SensorType)
	} else {
		h.logger.Info("sensor registered", "handle", handle, "sensorType", info.SensorType)
	}
	return handle
}

// RegisterApplet registers a sensor dispatched asynchronously to an
// applet task (spec.md §4.1, the sensorRegisterAsApp path).
func (h *Hub) RegisterApplet(info SensorInfo, taskID uint32) uint32 {
	handle := h.reg.register(info, NewAppletBinding(taskID), h.reqs.referencesHandle)
	if h.observer != nil {
		h.observer.ObserveRegistration(info.SensorType, handle != 0)
	}
	if handle == 0 {
		h.logger.Warn("register failed: sensor table full", "sensorType", info.SensorType)
	} else {
		h.logger.Info("sensor registered", "handle", handle, "sensorType", info.SensorType, "applet", taskID)
	}
	return handle
}

// Unregister releases a sensor slot (spec.md §4.1). It does not touch
// outstanding client requests; they become orphaned and are simply
// ignored by the aggregator from then on.
func (h *Hub) Unregister(handle uint32) bool {
	ok := h.reg.unregister(handle)
	if ok {
		h.logger.Info("sensor unregistered", "handle", handle)
	}
	return ok
}

// FindByType returns the index-th occupied slot whose SensorType
// matches, along with its handle (spec.md §4.1).
func (h *Hub) FindByType(sensorType uint32, index int) (SensorInfo, uint32, bool) {
	return h.reg.findByType(sensorType, index)
}

// Request records a new client request and reconfigures the sensor
// (spec.md §4.6). Returns false if the sensor doesn't exist, the
// combined demand is infeasible, or the request pool is exhausted.
func (h *Hub) Request(clientID, sensorHandle uint32, rate Rate, latency Latency) bool {
	s := h.reg.findByHandle(sensorHandle)
	if s == nil {
		return h.reject(NewRequestError("Request", sensorHandle, clientID, ErrCodeNotFound, "no such sensor"))
	}

	newRate := calcHwRate(h.reqs, sensorHandle, s.info.SupportedRates, rate, RateOff)
	if newRate == RateImpossible {
		return h.reject(NewRequestError("Request", sensorHandle, clientID, ErrCodeInfeasible, "no supported rate satisfies combined demand"))
	}

	if !h.reqs.add(sensorHandle, clientID, rate, latency) {
		return h.reject(NewRequestError("Request", sensorHandle, clientID, ErrCodeCapacity, "request pool exhausted"))
	}

	h.reconfig(s, newRate, calcHwLatency(h.reqs, sensorHandle))
	return true
}

// RequestRateChange amends an existing client request (spec.md §4.6).
// Fails if the client has no prior request for that sensor, or if the
// new combined demand is infeasible.
func (h *Hub) RequestRateChange(clientID, sensorHandle uint32, newRate Rate, newLatency Latency) bool {
	s := h.reg.findByHandle(sensorHandle)
	if s == nil {
		return h.reject(NewRequestError("RequestRateChange", sensorHandle, clientID, ErrCodeNotFound, "no such sensor"))
	}

	oldRate, _, ok := h.reqs.get(sensorHandle, clientID)
	if !ok {
		return h.reject(NewRequestError("RequestRateChange", sensorHandle, clientID, ErrCodeNotFound, "no existing request"))
	}

	newSensorRate := calcHwRate(h.reqs, sensorHandle, s.info.SupportedRates, newRate, oldRate)
	if newSensorRate == RateImpossible {
		return h.reject(NewRequestError("RequestRateChange", sensorHandle, clientID, ErrCodeInfeasible, "no supported rate satisfies combined demand"))
	}

	if !h.reqs.amend(sensorHandle, clientID, newRate, newLatency) {
		return h.reject(NewRequestError("RequestRateChange", sensorHandle, clientID, ErrCodeNotFound, "amend raced with release"))
	}

	h.reconfig(s, newSensorRate, calcHwLatency(h.reqs, sensorHandle))
	return true
}

// Release removes a client's request and reconfigures the sensor
// (spec.md §4.6).
func (h *Hub) Release(clientID, sensorHandle uint32) bool {
	s := h.reg.findByHandle(sensorHandle)
	if s == nil {
		return h.reject(NewRequestError("Release", sensorHandle, clientID, ErrCodeNotFound, "no such sensor"))
	}
	if !h.reqs.remove(sensorHandle, clientID) {
		return h.reject(NewRequestError("Release", sensorHandle, clientID, ErrCodeNotFound, "no existing request"))
	}
	h.reconfig(s, calcHwRate(h.reqs, sensorHandle, s.info.SupportedRates, RateOff, RateOff), calcHwLatency(h.reqs, sensorHandle))
	return true
}

// TriggerOnDemand dispatches a manual-trigger request (spec.md §4.6),
// succeeding only if the client has a live request for that sensor.
func (h *Hub) TriggerOnDemand(clientID, sensorHandle uint32) bool {
	s := h.reg.findByHandle(sensorHandle)
	if s == nil {
		return h.reject(NewRequestError("TriggerOnDemand", sensorHandle, clientID, ErrCodeNotFound, "no such sensor"))
	}
	if _, _, ok := h.reqs.get(sensorHandle, clientID); !ok {
		return h.reject(NewRequestError("TriggerOnDemand", sensorHandle, clientID, ErrCodeNotFound, "no existing request"))
	}
	return s.binding.triggerOnDemand(h.sink)
}

// Flush dispatches binding.flush unconditionally (spec.md §4.6).
func (h *Hub) Flush(sensorHandle uint32) bool {
	s := h.reg.findByHandle(sensorHandle)
	if s == nil {
		return h.reject(NewSensorError("Flush", sensorHandle, ErrCodeNotFound, "no such sensor"))
	}
	return s.binding.flush(h.sink)
}

// GetCurRate exposes the currently observed effective rate, or RateOff
// if the sensor is absent (spec.md §4.6).
func (h *Hub) GetCurRate(sensorHandle uint32) Rate {
	s := h.reg.findByHandle(sensorHandle)
	if s == nil {
		return RateOff
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.curRate()
}

// GetCurLatency exposes the currently observed effective latency, or
// LatencyInvalid if the sensor is absent (spec.md §4.6).
func (h *Hub) GetCurLatency(sensorHandle uint32) Latency {
	s := h.reg.findByHandle(sensorHandle)
	if s == nil {
		return LatencyInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.curLatency()
}

// SignalInternalEvent allocates an internal-event payload, populates it,
// and defers the kind-specific handler (spec.md §4.5, §4.6) to the
// scheduler. Returns false (and releases the payload) if deferral
// cannot be scheduled or allocation fails.
func (h *Hub) SignalInternalEvent(handle uint32, kind InternalEventKind, value1 uint32, value2 uint64) bool {
	cell, idx, ok := h.events.Alloc()
	if !ok {
		h.logger.Warn("SignalInternalEvent dropped: event pool exhausted", "handle", handle, "kind", kind)
		return false
	}
	cell.handle = handle
	cell.value1 = value1
	cell.value2 = value2

	dispatch := func() {
		defer h.events.Free(idx)
		switch kind {
		case EventPowerStateChanged:
			h.handlePowerStateChanged(cell.handle, cell.value1 != 0)
		case EventFwStateChanged:
			h.handleFwStateChanged(cell.handle, Rate(cell.value1), Latency(cell.value2))
		case EventRateChanged:
			h.handleRateChanged(cell.handle, Rate(cell.value1), Latency(cell.value2))
		}
	}

	if h.sched == nil || !h.sched.Defer(dispatch) {
		h.events.Free(idx)
		return false
	}
	return true
}

func (h *Hub) reject(err *Error) bool {
	h.logger.Debug("request rejected", "op", err.Op, "code", string(err.Code), "handle", err.Handle, "client", err.Client)
	if h.observer != nil {
		h.observer.ObserveRequestRejected(string(err.Code))
	}
	return false
}
