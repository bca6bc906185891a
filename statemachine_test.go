package sensorhub

import (
	"sync"
	"testing"
)

func newTestHub() (*Hub, *testScheduler) {
	sched := NewTestScheduler()
	hub := NewHub(HubConfig{
		Scheduler: sched,
		Sink:      NewTestEventSink(),
	})
	return hub, sched
}

func TestReconfigPowersOnFromOff(t *testing.T) {
	hub, _ := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10, 20}}, driver)
	s := hub.reg.findByHandle(handle)

	hub.reconfig(s, Rate(10), LatencyInvalid)

	if s.state.Kind != StatePoweringOn {
		t.Fatalf("state = %v, want PoweringOn", s.state.Kind)
	}
	if counts := driver.CallCounts(); counts["power"] != 1 {
		t.Errorf("power calls = %d, want 1", counts["power"])
	}
}

func TestReconfigNoopWhenAlreadyAtTarget(t *testing.T) {
	hub, _ := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10, 20}}, driver)
	s := hub.reg.findByHandle(handle)
	s.state = SensorState{Kind: StateRunning, Rate: Rate(10), Latency: LatencyInvalid}

	hub.reconfig(s, Rate(10), LatencyInvalid)

	if counts := driver.CallCounts(); counts["setRate"] != 0 {
		t.Errorf("setRate should not be called when already at target, got %d calls", counts["setRate"])
	}
}

func TestReconfigTransientStateIsNoop(t *testing.T) {
	hub, _ := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10, 20}}, driver)
	s := hub.reg.findByHandle(handle)
	s.state = SensorState{Kind: StatePoweringOn, Latency: LatencyInvalid}

	hub.reconfig(s, Rate(10), LatencyInvalid)

	if counts := driver.CallCounts(); counts["power"] != 0 || counts["setRate"] != 0 {
		t.Errorf("reconfig during a transient state should be a no-op, got %+v", counts)
	}
}

func TestFullPowerOnSequenceReachesRunning(t *testing.T) {
	hub, _ := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10, 20}}, driver)
	s := hub.reg.findByHandle(handle)

	// A live request is needed: firmware completion re-aggregates the
	// request table, and an empty table aggregates to OFF.
	hub.Request(1, handle, Rate(10), LatencyInvalid)
	if s.state.Kind != StatePoweringOn {
		t.Fatalf("after reconfig: state = %v", s.state.Kind)
	}

	hub.handlePowerStateChanged(handle, true)
	if s.state.Kind != StateFwUploading {
		t.Fatalf("after power-on complete: state = %v", s.state.Kind)
	}
	if counts := driver.CallCounts(); counts["firmware"] != 1 {
		t.Errorf("firmware calls = %d, want 1", counts["firmware"])
	}

	hub.handleFwStateChanged(handle, Rate(10), LatencyInvalid)
	if s.state.Kind != StateRunning {
		t.Fatalf("after firmware complete: state = %v", s.state.Kind)
	}
	if s.state.Rate != 10 {
		t.Errorf("running rate = %v, want 10", s.state.Rate)
	}
}

func TestHandleRateChangedGuardDropsLateEventOutsideRunning(t *testing.T) {
	hub, _ := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10, 20}}, driver)
	s := hub.reg.findByHandle(handle)
	s.state = SensorState{Kind: StatePoweringOff, Latency: LatencyInvalid}

	hub.handleRateChanged(handle, Rate(99), Latency(1))

	if s.state.Kind != StatePoweringOff {
		t.Errorf("late RATE_CHG should be dropped while not Running, state = %v", s.state.Kind)
	}
}

func TestHandleRateChangedAppliesWhileRunning(t *testing.T) {
	hub, _ := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10, 20}}, driver)
	s := hub.reg.findByHandle(handle)
	s.state = SensorState{Kind: StateRunning, Rate: Rate(10), Latency: LatencyInvalid}

	hub.handleRateChanged(handle, Rate(20), Latency(500))

	if s.state.Rate != 20 || s.state.Latency != 500 {
		t.Errorf("state after RATE_CHG = %+v, want Rate=20 Latency=500", s.state)
	}
}

func TestHandlePowerStateChangedUnknownHandleIsNoop(t *testing.T) {
	hub, _ := newTestHub()
	hub.handlePowerStateChanged(12345, true) // must not panic
}

func TestFirmwareUploadFailureTriggersPowerOff(t *testing.T) {
	hub, _ := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10, 20}}, driver)
	s := hub.reg.findByHandle(handle)
	s.state = SensorState{Kind: StateFwUploading, Latency: LatencyInvalid}

	hub.handleFwStateChanged(handle, RateOff, LatencyInvalid)

	if s.state.Kind != StatePoweringOff {
		t.Errorf("firmware failure should drive PoweringOff, state = %v", s.state.Kind)
	}
	if counts := driver.CallCounts(); counts["power"] != 1 {
		t.Errorf("power calls = %d, want 1", counts["power"])
	}
}

func TestConcurrentRequestAndCompletionDoNotRaceOnState(t *testing.T) {
	hub, sched := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10, 20, 30}}, driver)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(clientID uint32) {
			defer wg.Done()
			hub.Request(clientID, handle, Rate(10), LatencyInvalid)
			hub.GetCurRate(handle)
		}(uint32(i + 1))
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			sched.Drain()
		}
	}()
	wg.Wait()
	sched.Drain()
}
