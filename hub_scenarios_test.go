package sensorhub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// These scenarios exercise the Hub's public API end-to-end, driving the
// test scheduler/driver combination to completion by hand (as a real
// driver's interrupt handler would, compressed into direct calls).

func TestScenarioSingleClientRequestRunsSensor(t *testing.T) {
	hub, sched := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10, 50, 100}}, driver)
	require.NotZero(t, handle)

	require.True(t, hub.Request(1, handle, Rate(40), LatencyInvalid))
	require.Equal(t, RatePoweringOn, hub.GetCurRate(handle))

	hub.handlePowerStateChanged(handle, true)
	hub.handleFwStateChanged(handle, Rate(50), LatencyInvalid)
	sched.Drain()

	require.Equal(t, Rate(50), hub.GetCurRate(handle))
	require.Equal(t, 1, driver.CallCounts()["power"])
	require.Equal(t, 1, driver.CallCounts()["firmware"])
}

func TestScenarioTwoClientsAggregateToHighestRate(t *testing.T) {
	hub, _ := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10, 50, 100}}, driver)

	require.True(t, hub.Request(1, handle, Rate(10), LatencyInvalid))
	hub.handlePowerStateChanged(handle, true)
	hub.handleFwStateChanged(handle, Rate(10), LatencyInvalid)
	require.Equal(t, Rate(10), hub.GetCurRate(handle))

	require.True(t, hub.Request(2, handle, Rate(60), LatencyInvalid))
	last, _ := driver.LastRate()
	require.Equal(t, uint32(100), last)

	hub.handleRateChanged(handle, Rate(100), LatencyInvalid)
	require.Equal(t, Rate(100), hub.GetCurRate(handle))
}

func TestScenarioReleaseRecomputesLowerRate(t *testing.T) {
	hub, _ := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10, 50, 100}}, driver)

	hub.Request(1, handle, Rate(10), LatencyInvalid)
	hub.handlePowerStateChanged(handle, true)
	hub.handleFwStateChanged(handle, Rate(10), LatencyInvalid)

	hub.Request(2, handle, Rate(60), LatencyInvalid)
	hub.handleRateChanged(handle, Rate(100), LatencyInvalid)
	require.Equal(t, Rate(100), hub.GetCurRate(handle))

	require.True(t, hub.Release(2, handle))
	last, _ := driver.LastRate()
	require.Equal(t, uint32(10), last)
}

func TestScenarioReleaseLastClientPowersOff(t *testing.T) {
	hub, _ := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10, 50}}, driver)

	hub.Request(1, handle, Rate(10), LatencyInvalid)
	hub.handlePowerStateChanged(handle, true)
	hub.handleFwStateChanged(handle, Rate(10), LatencyInvalid)

	require.True(t, hub.Release(1, handle))
	require.Equal(t, RatePoweringOff, hub.GetCurRate(handle))

	hub.handlePowerStateChanged(handle, false)
	require.Equal(t, RateOff, hub.GetCurRate(handle))
}

func TestScenarioRequestAboveMaxSupportedRateIsRejected(t *testing.T) {
	hub, _ := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10, 50}}, driver)

	require.False(t, hub.Request(1, handle, Rate(1000), LatencyInvalid))
	require.Equal(t, RateOff, hub.GetCurRate(handle))
}

func TestScenarioUnregisterDuringUpgradeLeavesRequestOrphaned(t *testing.T) {
	hub, _ := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10, 50}}, driver)

	require.True(t, hub.Request(1, handle, Rate(10), LatencyInvalid))
	require.True(t, hub.Unregister(handle))

	// The orphaned request is tolerated, not cleaned up; a fresh
	// registration must not reuse the handle while it's still live.
	handle2 := hub.RegisterDriver(SensorInfo{SensorType: 2, SupportedRates: []Rate{10}}, NewMockDriverOps())
	require.NotEqual(t, handle, handle2)
}

func TestScenarioTriggerOnDemandRequiresLiveRequest(t *testing.T) {
	hub, _ := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10}}, driver)

	require.False(t, hub.TriggerOnDemand(1, handle))

	hub.Request(1, handle, RateOnDemand, LatencyInvalid)
	require.True(t, hub.TriggerOnDemand(1, handle))
	require.Equal(t, 1, driver.CallCounts()["trigger"])
}

func TestSignalInternalEventDispatchesThroughScheduler(t *testing.T) {
	hub, sched := newTestHub()
	driver := NewMockDriverOps()
	handle := hub.RegisterDriver(SensorInfo{SensorType: 1, SupportedRates: []Rate{10}}, driver)
	hub.reg.findByHandle(handle).state = SensorState{Kind: StatePoweringOn, Latency: LatencyInvalid}

	require.True(t, hub.SignalInternalEvent(handle, EventPowerStateChanged, 1, 0))
	sched.Drain()

	require.Equal(t, StateFwUploading, hub.reg.findByHandle(handle).state.Kind)
}
