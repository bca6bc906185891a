package sensorhub

// reconfig drives the per-sensor state machine toward
// (targetRate, targetLatency), or does nothing if already there
// (spec.md §4.5). It is idempotent and may be called at any time; cases
// are checked in the order spec.md lists them, first match wins.
//
// reconfig holds s.mu for its entire body, including the driver dispatch
// calls below: none of those calls back into the hub synchronously (a
// driver's completion always arrives later, via SignalInternalEvent and
// the scheduler), so this cannot deadlock, and it keeps the
// check-then-transition sequence atomic against a concurrent caller or
// a concurrent completion handler for the same slot.
func (h *Hub) reconfig(s *slot, targetRate Rate, targetLatency Latency) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state

	switch {
	case cur.curRate() == targetRate && cur.curLatency() == targetLatency:
		// case 1: already there.
		return

	case cur.Kind == StateOff:
		// case 2: power on.
		if s.binding.power(h.sink, true) {
			h.transition(s, SensorState{Kind: StatePoweringOn, Latency: LatencyInvalid}, "reconfig:power-on")
		}
		return

	case cur.Kind == StatePoweringOff:
		// case 3: upgrade in place; the pending power-off completion
		// will re-trigger a power-on once it lands (see
		// handlePowerStateChanged).
		h.transition(s, SensorState{Kind: StatePoweringOn, Latency: LatencyInvalid}, "reconfig:upgrade-to-power-on")
		return

	case cur.Kind == StatePoweringOn || cur.Kind == StateFwUploading:
		// case 4: transient; reconfig will be called again at steady state.
		return

	case targetRate != RateOff || targetLatency != LatencyInvalid:
		// case 5: live rate/latency change. Any failure is silently
		// dropped — the driver is expected to retry, or the hub will
		// re-reconfigure on the next client event.
		h.dispatchSetRate(s, targetRate, targetLatency)
		return

	default:
		// case 6: power off.
		if s.binding.power(h.sink, false) {
			h.transition(s, SensorState{Kind: StatePoweringOff, Latency: LatencyInvalid}, "reconfig:power-off")
		}
	}
}

// dispatchSetRate issues binding.setRate, allocating an applet payload
// from the internal-event pool when the binding is an applet. Pool
// exhaustion or enqueue failure is silently dropped, matching spec.md
// §4.5 case 5.
func (h *Hub) dispatchSetRate(s *slot, rate Rate, latency Latency) {
	if !s.binding.IsApplet() {
		s.binding.ops.SetRate(uint32(rate), uint64(latency))
		return
	}

	payload, idx, ok := h.setRatePayloads.Alloc()
	if !ok {
		h.logger.Warn("setRate dropped: internal event pool exhausted")
		return
	}
	free := func(any) { h.setRatePayloads.Free(idx) }
	if !s.binding.setRate(h.sink, uint32(rate), uint64(latency), payload, free) {
		h.setRatePayloads.Free(idx)
	}
}

// transition applies a new state, logging and recording a metric.
// Callers must hold s.mu.
func (h *Hub) transition(s *slot, next SensorState, reason string) {
	from := s.state
	s.state = next
	h.logger.Debug("state transition", "reason", reason, "from", from.String(), "to", next.String())
	if h.observer != nil {
		h.observer.ObserveStateTransition(s.handle.Load(), from.String(), next.String())
	}
}

// handlePowerStateChanged is the POWER_STATE_CHG completion handler
// (spec.md §4.5). It runs under s.mu like reconfig — this handler and a
// concurrent Request/RequestRateChange/Release for the same handle must
// not interleave their check-then-transition sequences.
func (h *Hub) handlePowerStateChanged(handle uint32, nowOn bool) {
	s := h.reg.findByHandle(handle)
	if s == nil {
		return // sensor no longer registered; discard
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state.Kind == StatePoweringOn && nowOn:
		h.transition(s, SensorState{Kind: StateFwUploading, Latency: LatencyInvalid}, "power-on complete")
		if !s.binding.firmwareUpload(h.sink) {
			h.dispatchFailure(s, "FirmwareUpload")
		}

	case s.state.Kind == StatePoweringOff && !nowOn:
		h.transition(s, SensorState{Kind: StateOff, Latency: LatencyInvalid}, "power-off complete")

	case s.state.Kind == StatePoweringOn && !nowOn:
		// driver dropped to off unexpectedly; re-request power-on.
		if !s.binding.power(h.sink, true) {
			h.dispatchFailure(s, "Power(true)")
		}

	case s.state.Kind == StatePoweringOff && nowOn:
		// driver bounced back on; re-request power-off.
		if !s.binding.power(h.sink, false) {
			h.dispatchFailure(s, "Power(false)")
		}
	}
}

// handleFwStateChanged is the FW_STATE_CHG completion handler (spec.md
// §4.5). finalRate == RateOff means firmware upload failed.
//
// The StateFwUploading case needs to call back into reconfig, which
// takes s.mu itself; the locked section here is scoped to just the
// check-then-transition so it releases s.mu before that call instead of
// reentering a non-reentrant mutex.
func (h *Hub) handleFwStateChanged(handle uint32, finalRate Rate, finalLatency Latency) {
	s := h.reg.findByHandle(handle)
	if s == nil {
		return
	}

	var recompute bool
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		switch {
		case finalRate == RateOff:
			// failure -> treat as power-off-requested.
			h.transition(s, SensorState{Kind: StatePoweringOff, Latency: LatencyInvalid}, "firmware upload failed")
			if !s.binding.power(h.sink, false) {
				h.dispatchFailure(s, "Power(false)")
			}

		case s.state.Kind == StateFwUploading:
			h.transition(s, SensorState{Kind: StateRunning, Rate: finalRate, Latency: finalLatency}, "firmware upload complete")
			recompute = true

		case s.state.Kind == StatePoweringOff:
			// client released the sensor during upload.
			if !s.binding.power(h.sink, false) {
				h.dispatchFailure(s, "Power(false)")
			}
		}
	}()

	if recompute {
		// requests may have changed during upload; recompute fresh.
		h.reconfig(s, calcHwRate(h.reqs, handle, s.info.SupportedRates, RateOff, RateOff), calcHwLatency(h.reqs, handle))
	}
}

// handleRateChanged is the RATE_CHG completion handler (spec.md §4.5):
// confirmation for the setRate path in reconfig case 5.
//
// spec.md §9 flags that the reference firmware unconditionally stomps
// currentRate here, which can reawaken a sensor that a power-off was
// already commanded for if the event is delivered late. This port takes
// the spec's suggested fix: only apply the update while the sensor is a
// concrete running value. A late RATE_CHG arriving during a transient
// state is logged and dropped instead of replicating the race.
func (h *Hub) handleRateChanged(handle uint32, newRate Rate, newLatency Latency) {
	s := h.reg.findByHandle(handle)
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Kind != StateRunning {
		h.logger.Warn("dropping late RATE_CHG", "handle", handle, "state", s.state.String())
		return
	}
	h.transition(s, SensorState{Kind: StateRunning, Rate: newRate, Latency: newLatency}, "rate change confirmed")
}

func (h *Hub) dispatchFailure(s *slot, op string) {
	h.logger.Warn("driver dispatch failed", "op", op, "handle", s.handle.Load())
	if h.observer != nil {
		h.observer.ObserveDriverDispatchFailure(s.handle.Load(), op)
	}
}
