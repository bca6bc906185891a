//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	eventloop "github.com/joeycumines/go-eventloop"

	"github.com/brodyw/sensorhub"
	"github.com/brodyw/sensorhub/drivers"
	"github.com/brodyw/sensorhub/internal/sched"
)

// These tests drive a Hub against a real *eventloop.Loop instead of the
// synchronous test scheduler, exercising the scheduler adapter and
// goroutine-driven simulated driver together end-to-end.

func TestIntegrationPowerOnSequenceOverRealLoop(t *testing.T) {
	loop, err := eventloop.New()
	if err != nil {
		t.Fatalf("eventloop.New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() {
		if err := loop.Run(ctx); err != nil {
			t.Logf("loop exited: %v", err)
		}
	}()

	hub := sensorhub.NewHub(sensorhub.HubConfig{
		Scheduler: sched.NewLoopScheduler(loop),
	})

	driver := drivers.NewSimulated(hub)
	handle := hub.RegisterDriver(sensorhub.SensorInfo{
		SensorType:     1,
		SupportedRates: []sensorhub.Rate{10, 50, 100},
	}, driver)
	driver.SetHandle(handle)

	if !hub.Request(1, handle, sensorhub.Rate(40), sensorhub.LatencyInvalid) {
		t.Fatal("Request rejected")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.GetCurRate(handle) == sensorhub.Rate(50) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sensor never reached Running(50), stuck at %s", hub.GetCurRate(handle))
}

func TestIntegrationConcurrentClientsConvergeToHighestRate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping concurrency stress in short mode")
	}

	loop, err := eventloop.New()
	if err != nil {
		t.Fatalf("eventloop.New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() {
		_ = loop.Run(ctx)
	}()

	hub := sensorhub.NewHub(sensorhub.HubConfig{
		Scheduler: sched.NewLoopScheduler(loop),
	})

	driver := drivers.NewSimulated(hub)
	handle := hub.RegisterDriver(sensorhub.SensorInfo{
		SensorType:     1,
		SupportedRates: []sensorhub.Rate{10, 20, 50, 100},
	}, driver)
	driver.SetHandle(handle)

	const numClients = 8
	done := make(chan bool, numClients)
	for i := 0; i < numClients; i++ {
		go func(clientID uint32, rate sensorhub.Rate) {
			done <- hub.Request(clientID, handle, rate, sensorhub.LatencyInvalid)
		}(uint32(i+1), sensorhub.Rate((i+1)*10))
	}
	for i := 0; i < numClients; i++ {
		if !<-done {
			t.Error("a concurrent Request was rejected")
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.GetCurRate(handle) == sensorhub.Rate(100) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected convergence to rate 100, stuck at %s", hub.GetCurRate(handle))
}
